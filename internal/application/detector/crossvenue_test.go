package detector

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgarciad/arbscan/internal/domain"
)

func crossConfig() Config {
	fees := domain.Fees{Taker: dec("0.001")}
	return Config{
		Venues:         []string{"binance", "bybit"},
		Pairs:          []domain.Pair{{Symbol: "BTCUSDT", Base: "BTC", Quote: "USDT"}},
		BaseAsset:      "USDT",
		TradeSize:      dec("0.1"),
		MaxPosition:    dec("1000"),
		MinProfitRatio: dec("0.005"),
		MinCrossProfit: decimal.Zero,
		StalenessMax:   30 * time.Second,
		Fees:           map[string]domain.Fees{"binance": fees, "bybit": fees},
		RiskWeights:    domain.DefaultRiskWeights(),
		RiskThreshold:  0.7,
	}
}

// Libro desalineado entre venues: comprar en binance a 50000, vender en bybit
// a 50200. Con taker 0.1% por pata y 0.1 BTC: 20 − 5 − 5.02 = 9.98 USDT netos.
func crossFresh() map[string]map[string]domain.MarketSnapshot {
	return map[string]map[string]domain.MarketSnapshot{
		"binance": {"BTCUSDT": bookSnap("binance", "BTCUSDT", "49990", "50000", "5")},
		"bybit":   {"BTCUSDT": bookSnap("bybit", "BTCUSDT", "50200", "50210", "5")},
	}
}

func TestDetectCrossVenue_FindsSpread(t *testing.T) {
	d := testDetector(crossConfig())

	out := d.detectCrossVenue(crossFresh(), time.Now())
	require.Len(t, out, 1)

	opp := out[0].opp
	assert.Equal(t, domain.CrossVenue, opp.Kind)
	require.Len(t, opp.Legs, 2)
	assert.Equal(t, "binance", opp.Legs[0].Venue, "se compra donde el ask es más barato")
	assert.Equal(t, domain.Buy, opp.Legs[0].Side)
	assert.Equal(t, "bybit", opp.Legs[1].Venue)
	assert.Equal(t, domain.Sell, opp.Legs[1].Side)

	assert.True(t, opp.NetProfit.Equal(dec("9.98")), "net %s", opp.NetProfit)
	assert.Equal(t, "USDT", opp.Quote)
	assert.True(t, opp.Size.Equal(dec("0.1")))
}

func TestDetectCrossVenue_NoSpreadNoCandidate(t *testing.T) {
	d := testDetector(crossConfig())

	fresh := crossFresh()
	// Bid caro por debajo del ask barato: no hay arbitraje.
	fresh["bybit"]["BTCUSDT"] = bookSnap("bybit", "BTCUSDT", "49995", "50005", "5")

	out := d.detectCrossVenue(fresh, time.Now())
	assert.Empty(t, out)
}

func TestDetectCrossVenue_FeesBelowThreshold(t *testing.T) {
	cfg := crossConfig()
	cfg.MinCrossProfit = dec("15")
	d := testDetector(cfg)

	// 9.98 netos < umbral de 15: se descarta.
	out := d.detectCrossVenue(crossFresh(), time.Now())
	assert.Empty(t, out)
}

func TestDetectCrossVenue_SingleVenueSkipped(t *testing.T) {
	d := testDetector(crossConfig())

	fresh := crossFresh()
	delete(fresh, "bybit")

	out := d.detectCrossVenue(fresh, time.Now())
	assert.Empty(t, out, "cross-venue requiere el símbolo en dos venues")
}

func TestDetectCrossVenue_PartialLiquidityLimitsQty(t *testing.T) {
	d := testDetector(crossConfig())

	fresh := crossFresh()
	// El book de venta solo absorbe 0.04 BTC del 0.1 pedido.
	fresh["bybit"]["BTCUSDT"] = bookSnap("bybit", "BTCUSDT", "50200", "50210", "0.04")

	out := d.detectCrossVenue(fresh, time.Now())
	require.Len(t, out, 1)

	opp := out[0].opp
	assert.True(t, opp.Size.Equal(dec("0.04")), "qty efectiva = min de ambos fills")
	// 0.04 × 200 − 0.04×50000×0.001 − 0.04×50200×0.001 = 8 − 2 − 2.008
	assert.True(t, opp.NetProfit.Equal(dec("3.992")), "net %s", opp.NetProfit)

	in := out[0].inputs
	assert.True(t, in.FilledQty.Equal(dec("0.04")))
	assert.True(t, in.RequestedQty.Equal(dec("0.1")))
}

func TestDetectCrossVenue_GrossRatioFromTopOfBook(t *testing.T) {
	d := testDetector(crossConfig())

	out := d.detectCrossVenue(crossFresh(), time.Now())
	require.Len(t, out, 1)

	want := dec("50200").Div(dec("50000"))
	assert.True(t, out[0].opp.GrossRatio.Equal(want))
	assert.True(t, out[0].opp.NetRatio.GreaterThan(dec("1")))
}
