package ports

import (
	"context"

	"github.com/jgarciad/arbscan/internal/domain"
)

// Executor es el colaborador externo que recibe las oportunidades ACEPTADAS.
// La responsabilidad del core termina en la emisión: no confirma fills.
type Executor interface {
	Execute(ctx context.Context, opp domain.Opportunity) error
}
