package venue

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jgarciad/arbscan/internal/domain"
)

const defaultBinanceBase = "https://api.binance.com"

// Binance implementa ports.VenueGateway contra los endpoints públicos spot.
type Binance struct {
	client *httpClient
	fees   domain.Fees
	depth  int
}

// NewBinance crea el gateway. Si base está vacío usa la API de producción.
// Las comisiones vienen de configuración: el endpoint de fees reales requiere
// autenticación y el core no firma requests.
func NewBinance(base string, fees domain.Fees) *Binance {
	if base == "" {
		base = defaultBinanceBase
	}
	return &Binance{
		client: newHTTPClient("binance", base),
		fees:   fees,
		depth:  50,
	}
}

// Venue devuelve el identificador del venue.
func (b *Binance) Venue() string { return "binance" }

// binanceDepthResponse es la respuesta de GET /api/v3/depth.
type binanceDepthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"` // [precio, cantidad]
	Asks         [][]string `json:"asks"`
}

// FetchSnapshot obtiene el orderbook del símbolo y lo normaliza.
func (b *Binance) FetchSnapshot(ctx context.Context, symbol string) (domain.MarketSnapshot, error) {
	path := fmt.Sprintf("/api/v3/depth?symbol=%s&limit=%d", url.QueryEscape(symbol), b.depth)

	var resp binanceDepthResponse
	if err := b.client.getJSON(ctx, path, &resp); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("binance.FetchSnapshot %s: %w", symbol, err)
	}

	bids, err := parseLevels(resp.Bids)
	if err != nil {
		return domain.MarketSnapshot{}, domain.NewPermanentError("binance",
			fmt.Errorf("binance.FetchSnapshot %s: bids: %w", symbol, err))
	}
	asks, err := parseLevels(resp.Asks)
	if err != nil {
		return domain.MarketSnapshot{}, domain.NewPermanentError("binance",
			fmt.Errorf("binance.FetchSnapshot %s: asks: %w", symbol, err))
	}

	return domain.MarketSnapshot{
		Venue:     "binance",
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now(),
	}, nil
}

// FetchFees devuelve las comisiones configuradas para el venue.
func (b *Binance) FetchFees(_ context.Context, _ string) (domain.Fees, error) {
	return b.fees, nil
}

// parseLevels convierte los pares [precio, cantidad] en niveles decimales.
// Niveles con cantidad cero se descartan (el exchange los usa como borrado).
func parseLevels(raw [][]string) ([]domain.BookLevel, error) {
	out := make([]domain.BookLevel, 0, len(raw))
	for i, lvl := range raw {
		if len(lvl) < 2 {
			return nil, fmt.Errorf("nivel %d incompleto", i)
		}
		price, err := decimal.NewFromString(lvl[0])
		if err != nil {
			return nil, fmt.Errorf("nivel %d precio %q: %w", i, lvl[0], err)
		}
		size, err := decimal.NewFromString(lvl[1])
		if err != nil {
			return nil, fmt.Errorf("nivel %d cantidad %q: %w", i, lvl[1], err)
		}
		if size.IsZero() {
			continue
		}
		out = append(out, domain.BookLevel{Price: price, Size: size})
	}
	return out, nil
}
