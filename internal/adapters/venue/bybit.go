package venue

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jgarciad/arbscan/internal/domain"
)

const defaultBybitBase = "https://api.bybit.com"

// Bybit implementa ports.VenueGateway contra la API pública v5 (spot).
type Bybit struct {
	client *httpClient
	fees   domain.Fees
	depth  int
}

// NewBybit crea el gateway. Si base está vacío usa la API de producción.
func NewBybit(base string, fees domain.Fees) *Bybit {
	if base == "" {
		base = defaultBybitBase
	}
	return &Bybit{
		client: newHTTPClient("bybit", base),
		fees:   fees,
		depth:  50,
	}
}

// Venue devuelve el identificador del venue.
func (b *Bybit) Venue() string { return "bybit" }

// bybitOrderbookResponse es la respuesta de GET /v5/market/orderbook.
type bybitOrderbookResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Symbol string     `json:"s"`
		Bids   [][]string `json:"b"`
		Asks   [][]string `json:"a"`
		Ts     int64      `json:"ts"` // epoch millis
	} `json:"result"`
}

// FetchSnapshot obtiene el orderbook del símbolo y lo normaliza.
// Un retCode distinto de cero es un error permanente: la API respondió pero
// rechazó la petición (símbolo inválido, parámetros, etc).
func (b *Bybit) FetchSnapshot(ctx context.Context, symbol string) (domain.MarketSnapshot, error) {
	path := fmt.Sprintf("/v5/market/orderbook?category=spot&symbol=%s&limit=%d",
		url.QueryEscape(symbol), b.depth)

	var resp bybitOrderbookResponse
	if err := b.client.getJSON(ctx, path, &resp); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("bybit.FetchSnapshot %s: %w", symbol, err)
	}
	if resp.RetCode != 0 {
		return domain.MarketSnapshot{}, domain.NewPermanentError("bybit",
			fmt.Errorf("bybit.FetchSnapshot %s: retCode %d: %s", symbol, resp.RetCode, resp.RetMsg))
	}

	bids, err := parseLevels(resp.Result.Bids)
	if err != nil {
		return domain.MarketSnapshot{}, domain.NewPermanentError("bybit",
			fmt.Errorf("bybit.FetchSnapshot %s: bids: %w", symbol, err))
	}
	asks, err := parseLevels(resp.Result.Asks)
	if err != nil {
		return domain.MarketSnapshot{}, domain.NewPermanentError("bybit",
			fmt.Errorf("bybit.FetchSnapshot %s: asks: %w", symbol, err))
	}

	ts := time.Now()
	if resp.Result.Ts > 0 {
		ts = time.UnixMilli(resp.Result.Ts)
	}

	return domain.MarketSnapshot{
		Venue:     "bybit",
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: ts,
	}, nil
}

// FetchFees devuelve las comisiones configuradas para el venue.
func (b *Bybit) FetchFees(_ context.Context, _ string) (domain.Fees, error) {
	return b.fees, nil
}
