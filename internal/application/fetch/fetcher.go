// Package fetch es el único camino por el que los datos del detector llegan a
// un VenueGateway. Aplica, por venue: circuit breaker (umbral de fallos
// consecutivos → Open; tras el cooldown → HalfOpen; éxito → Closed), retry con
// backoff exponencial solo para errores transitorios, timeout acotado por
// llamada y un intervalo mínimo entre requests (rate limiting que espera, no
// falla). Cada venue es independiente: un circuito abierto jamás bloquea a
// los demás, y los fallos vuelven como errores tipados — nunca como panics.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/time/rate"

	"github.com/jgarciad/arbscan/internal/domain"
	"github.com/jgarciad/arbscan/internal/ports"
)

const baseRetryWait = 500 * time.Millisecond

// Config controla la política de resiliencia por venue.
type Config struct {
	RateLimit        time.Duration // intervalo mínimo entre requests al mismo venue
	RequestTimeout   time.Duration // timeout por llamada al gateway
	MaxRetries       int           // reintentos para errores transitorios
	BreakerThreshold uint          // fallos consecutivos para abrir el circuito
	BreakerCooldown  time.Duration // tiempo en Open antes de probar HalfOpen
}

// DefaultConfig replica los defaults conservadores de producción.
func DefaultConfig() Config {
	return Config{
		RateLimit:        250 * time.Millisecond,
		RequestTimeout:   10 * time.Second,
		MaxRetries:       3,
		BreakerThreshold: 5,
		BreakerCooldown:  5 * time.Minute,
	}
}

type venueState struct {
	gateway  ports.VenueGateway
	limiter  *rate.Limiter
	breaker  circuitbreaker.CircuitBreaker[domain.MarketSnapshot]
	executor failsafe.Executor[domain.MarketSnapshot]
	stats    *venueStats
}

// Fetcher implementa el fetch resiliente sobre un conjunto de gateways.
type Fetcher struct {
	cfg    Config
	venues map[string]*venueState
}

// New crea un Fetcher con un breaker, limiter y pipeline de retry por venue.
func New(cfg Config, gateways []ports.VenueGateway) *Fetcher {
	f := &Fetcher{cfg: cfg, venues: make(map[string]*venueState, len(gateways))}

	for _, gw := range gateways {
		// Success threshold 1: en HalfOpen un solo éxito cierra y un solo
		// fallo reabre — sin él, los fallos en HalfOpen vuelven a acumular
		// hasta el umbral dejando pasar llamadas a un venue caído.
		breaker := circuitbreaker.NewBuilder[domain.MarketSnapshot]().
			WithFailureThreshold(cfg.BreakerThreshold).
			WithSuccessThreshold(1).
			WithDelay(cfg.BreakerCooldown).
			Build()

		// Retry externo, breaker interno: cada reintento vuelve a consultar
		// el circuito antes de tocar la red.
		retry := retrypolicy.NewBuilder[domain.MarketSnapshot]().
			HandleIf(func(_ domain.MarketSnapshot, err error) bool {
				return domain.IsTransient(err)
			}).
			WithBackoff(baseRetryWait, 10*time.Second).
			WithMaxRetries(cfg.MaxRetries).
			Build()

		f.venues[gw.Venue()] = &venueState{
			gateway:  gw,
			limiter:  rate.NewLimiter(rate.Every(cfg.RateLimit), 1),
			breaker:  breaker,
			executor: failsafe.With[domain.MarketSnapshot](retry, breaker),
			stats:    &venueStats{},
		}
	}
	return f
}

// Fetch obtiene el snapshot de (venue, symbol) aplicando toda la política.
// Con el circuito abierto falla inmediato con ErrVenueUnavailable, sin tocar
// la red. Todo resultado queda contabilizado para observabilidad.
func (f *Fetcher) Fetch(ctx context.Context, venue, symbol string) (domain.MarketSnapshot, error) {
	vs, ok := f.venues[venue]
	if !ok {
		return domain.MarketSnapshot{}, fmt.Errorf("fetch.Fetch: venue %q no configurado: %w",
			venue, domain.ErrInvalidInput)
	}

	snap, err := vs.executor.WithContext(ctx).Get(func() (domain.MarketSnapshot, error) {
		// El rate limit espera su turno — no compite con otros venues.
		if werr := vs.limiter.Wait(ctx); werr != nil {
			return domain.MarketSnapshot{}, domain.NewTransientError(venue, werr)
		}

		callCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
		defer cancel()

		s, ferr := vs.gateway.FetchSnapshot(callCtx, symbol)
		if ferr != nil {
			if callCtx.Err() != nil && !domain.IsTransient(ferr) {
				// Timeout de la llamada: transitorio aunque el gateway no clasifique.
				ferr = domain.NewTransientError(venue, ferr)
			}
			return domain.MarketSnapshot{}, ferr
		}
		if verr := s.Validate(); verr != nil {
			return domain.MarketSnapshot{}, domain.NewPermanentError(venue, verr)
		}
		return s, nil
	})

	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			err = fmt.Errorf("fetch.Fetch: %s: %w", venue, domain.ErrVenueUnavailable)
		}
		vs.stats.recordFailure(err)
		slog.Debug("fetch failed", "venue", venue, "symbol", symbol, "err", err)
		return domain.MarketSnapshot{}, err
	}

	vs.stats.recordSuccess()
	return snap, nil
}

// Fees consulta las comisiones del símbolo en el venue, con timeout acotado.
// No pasa por el breaker: es una consulta esporádica de arranque de ciclo y
// el caller tiene defaults de configuración como fallback.
func (f *Fetcher) Fees(ctx context.Context, venue, symbol string) (domain.Fees, error) {
	vs, ok := f.venues[venue]
	if !ok {
		return domain.Fees{}, fmt.Errorf("fetch.Fees: venue %q no configurado: %w",
			venue, domain.ErrInvalidInput)
	}
	callCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()
	return vs.gateway.FetchFees(callCtx, symbol)
}

// Venues devuelve los nombres de los venues configurados.
func (f *Fetcher) Venues() []string {
	out := make([]string, 0, len(f.venues))
	for name := range f.venues {
		out = append(out, name)
	}
	return out
}

// BreakerState devuelve el estado actual del circuito del venue.
// Lectura concurrente sin bloquear a los escritores (lo soporta el breaker).
func (f *Fetcher) BreakerState(venue string) string {
	vs, ok := f.venues[venue]
	if !ok {
		return "unknown"
	}
	return breakerStateName(vs.breaker.State())
}

// Status devuelve el estado observable de todos los venues para el reporte.
func (f *Fetcher) Status() map[string]domain.VenueStatus {
	out := make(map[string]domain.VenueStatus, len(f.venues))
	for name, vs := range f.venues {
		transient, permanent, lastErr := vs.stats.snapshot()
		out[name] = domain.VenueStatus{
			Circuit:   breakerStateName(vs.breaker.State()),
			Transient: transient,
			Permanent: permanent,
			LastError: lastErr,
		}
	}
	return out
}

func breakerStateName(s circuitbreaker.State) string {
	switch s {
	case circuitbreaker.ClosedState:
		return "closed"
	case circuitbreaker.OpenState:
		return "open"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	default:
		return "unknown"
	}
}
