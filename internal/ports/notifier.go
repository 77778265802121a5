package ports

import (
	"context"

	"github.com/jgarciad/arbscan/internal/domain"
)

// Notifier presenta el resultado de cada ciclo de detección al usuario.
type Notifier interface {
	// Notify muestra el reporte del ciclo: oportunidades ordenadas por
	// net profit y el estado por venue (circuito, errores).
	Notify(ctx context.Context, report domain.CycleReport) error
}
