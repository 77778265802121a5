package ports

import (
	"context"
	"time"

	"github.com/jgarciad/arbscan/internal/domain"
)

// HistoryStats son los contadores de auditoría sobre un rango temporal.
type HistoryStats struct {
	Total      int
	Accepted   int
	Rejected   int
	Triangular int
	CrossVenue int
}

// History es el registro append-only de oportunidades para auditoría.
// Las filas son inmutables tras la inserción; las entradas más viejas que la
// ventana de retención se purgan de forma lazy en el insert o en la lectura.
type History interface {
	// Record añade la oportunidad (aceptada o rechazada) con su score y outcome.
	Record(ctx context.Context, opp domain.Opportunity) error

	// Prune elimina las entradas más viejas que la ventana de retención
	// respecto a now y devuelve cuántas borró.
	Prune(ctx context.Context, now time.Time) (int, error)

	// List devuelve las oportunidades registradas en el rango, más recientes primero.
	List(ctx context.Context, from, to time.Time) ([]domain.Opportunity, error)

	// Stats devuelve los contadores de auditoría del rango.
	Stats(ctx context.Context, from, to time.Time) (HistoryStats, error)

	// Close cierra el almacenamiento limpiamente.
	Close() error
}
