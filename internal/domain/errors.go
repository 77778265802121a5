package domain

import (
	"errors"
	"fmt"
)

// Taxonomía de errores del motor de detección. Los fallos por venue o por
// candidato se contienen localmente: nunca abortan el ciclo completo.
var (
	// ErrStaleData: el snapshot supera la edad máxima permitida. El candidato
	// se salta; datos viejos jamás producen una Opportunity.
	ErrStaleData = errors.New("stale market data")

	// ErrSnapshotMissing: no hay snapshot cacheado para (venue, symbol).
	ErrSnapshotMissing = errors.New("snapshot not found")

	// ErrVenueUnavailable: el circuit breaker del venue está abierto — el fetch
	// se corta sin intentar la llamada de red.
	ErrVenueUnavailable = errors.New("venue unavailable: circuit open")

	// ErrInvalidInput: precio/tamaño/cantidad no positivos. Se rechaza en el
	// borde y nunca se propaga a la aritmética de profit.
	ErrInvalidInput = errors.New("invalid input")
)

// FetchError clasifica un fallo al hablar con un VenueGateway.
// Transient (red, timeout, rate limit del servidor) → elegible para retry.
// Permanente (auth, validación, 4xx) → no se reintenta.
type FetchError struct {
	Venue     string
	Transient bool
	Err       error
}

func (e *FetchError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.Venue, kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewTransientError envuelve un error de red/timeout elegible para retry.
func NewTransientError(venue string, err error) *FetchError {
	return &FetchError{Venue: venue, Transient: true, Err: err}
}

// NewPermanentError envuelve un error que no debe reintentarse.
func NewPermanentError(venue string, err error) *FetchError {
	return &FetchError{Venue: venue, Transient: false, Err: err}
}

// IsTransient devuelve true si err es un FetchError transitorio.
func IsTransient(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Transient
}
