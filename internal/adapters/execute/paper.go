// Package execute contiene los ejecutores de oportunidades aceptadas.
package execute

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jgarciad/arbscan/internal/domain"
)

// Paper implementa ports.Executor simulando los fills sin tocar ningún
// exchange: asume que cada pata se llena al precio estimado y acumula el
// PnL por moneda quote. Útil para validar el detector en vivo sin capital.
type Paper struct {
	mu    sync.Mutex
	pnl   map[string]decimal.Decimal
	fills int
}

// NewPaper crea un ejecutor simulado con PnL a cero.
func NewPaper() *Paper {
	return &Paper{pnl: make(map[string]decimal.Decimal)}
}

// Execute registra el fill simulado de la oportunidad.
func (p *Paper) Execute(_ context.Context, opp domain.Opportunity) error {
	p.mu.Lock()
	p.pnl[opp.Quote] = p.pnl[opp.Quote].Add(opp.NetProfit)
	p.fills++
	total := p.pnl[opp.Quote]
	p.mu.Unlock()

	slog.Info("paper fill",
		"id", opp.ID,
		"kind", opp.Kind.String(),
		"path", opp.Path(),
		"net_profit", opp.NetProfit.StringFixed(4),
		"quote", opp.Quote,
		"cumulative", total.StringFixed(4),
	)
	return nil
}

// PnL devuelve una copia del PnL simulado acumulado por quote.
func (p *Paper) PnL() map[string]decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(p.pnl))
	for q, v := range p.pnl {
		out[q] = v
	}
	return out
}

// Fills devuelve cuántas oportunidades se han simulado.
func (p *Paper) Fills() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fills
}
