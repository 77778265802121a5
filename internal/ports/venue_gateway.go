package ports

import (
	"context"

	"github.com/jgarciad/arbscan/internal/domain"
)

// VenueGateway obtiene datos de mercado de un venue concreto.
// El core no especifica transporte ni firma — solo este contrato y la forma
// de sus errores: los fallos deben venir como *domain.FetchError clasificados
// en transitorios (red/timeout, reintentables) o permanentes (auth/validación).
type VenueGateway interface {
	// Venue devuelve el identificador del venue (ej. "binance").
	Venue() string

	// FetchSnapshot devuelve el orderbook normalizado del símbolo.
	FetchSnapshot(ctx context.Context, symbol string) (domain.MarketSnapshot, error)

	// FetchFees devuelve las comisiones maker/taker aplicables al símbolo.
	FetchFees(ctx context.Context, symbol string) (domain.Fees, error)
}
