package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func makeSnapshot(venue, symbol string, bids, asks [][2]string) MarketSnapshot {
	toLevels := func(raw [][2]string) []BookLevel {
		out := make([]BookLevel, 0, len(raw))
		for _, lvl := range raw {
			out = append(out, BookLevel{Price: dec(lvl[0]), Size: dec(lvl[1])})
		}
		return out
	}
	return MarketSnapshot{
		Venue:     venue,
		Symbol:    symbol,
		Bids:      toLevels(bids),
		Asks:      toLevels(asks),
		Timestamp: time.Now(),
	}
}

func TestEstimateExecution_SingleLevel(t *testing.T) {
	snap := makeSnapshot("binance", "BTCUSDT",
		[][2]string{{"50000", "2"}},
		[][2]string{{"50010", "2"}},
	)

	est, err := EstimateExecution(snap, Buy, dec("1"))
	require.NoError(t, err)

	assert.True(t, est.AvgPrice.Equal(dec("50010")), "avg = best en un solo nivel")
	assert.True(t, est.Slippage.IsZero())
	assert.True(t, est.FilledQty.Equal(dec("1")))
	assert.False(t, est.Partial)
	assert.Equal(t, 1, est.LevelsUsed)
	assert.True(t, est.Cost.Equal(dec("50010")))
}

func TestEstimateExecution_WalksLadder(t *testing.T) {
	// 1.0 @ 50010 + 0.5 @ 50020 → avg ponderado
	snap := makeSnapshot("binance", "BTCUSDT",
		[][2]string{{"50000", "1"}},
		[][2]string{{"50010", "1"}, {"50020", "1"}},
	)

	est, err := EstimateExecution(snap, Buy, dec("1.5"))
	require.NoError(t, err)

	// (1×50010 + 0.5×50020) / 1.5 = 50013.3...
	want := dec("50010").Add(dec("50020").Mul(dec("0.5"))).Div(dec("1.5"))
	assert.True(t, est.AvgPrice.Equal(want), "avg %s want %s", est.AvgPrice, want)
	assert.Equal(t, 2, est.LevelsUsed)
	assert.True(t, est.Slippage.IsPositive(), "comprar por encima del best ask es slippage positivo")
	assert.False(t, est.Partial)
}

func TestEstimateExecution_PartialFillIsNotError(t *testing.T) {
	snap := makeSnapshot("binance", "BTCUSDT",
		[][2]string{{"50000", "0.3"}},
		[][2]string{{"50010", "0.3"}},
	)

	est, err := EstimateExecution(snap, Sell, dec("1"))
	require.NoError(t, err, "liquidez insuficiente no es un error")

	assert.True(t, est.Partial)
	assert.True(t, est.FilledQty.Equal(dec("0.3")))
	assert.True(t, est.FillRatio().Equal(dec("0.3")))
}

func TestEstimateExecution_SellSlippageSign(t *testing.T) {
	// Vender bajando por los bids: avg < best → slippage positivo.
	snap := makeSnapshot("bybit", "ETHUSDT",
		[][2]string{{"3000", "1"}, {"2990", "5"}},
		[][2]string{{"3001", "1"}},
	)

	est, err := EstimateExecution(snap, Sell, dec("3"))
	require.NoError(t, err)

	assert.True(t, est.BestPrice.Equal(dec("3000")))
	assert.True(t, est.AvgPrice.LessThan(dec("3000")))
	assert.True(t, est.Slippage.IsPositive())
}

func TestEstimateExecution_InvalidInput(t *testing.T) {
	snap := makeSnapshot("binance", "BTCUSDT",
		[][2]string{{"50000", "1"}},
		[][2]string{{"50010", "1"}},
	)

	_, err := EstimateExecution(snap, Buy, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = EstimateExecution(snap, Buy, dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	empty := MarketSnapshot{Venue: "binance", Symbol: "BTCUSDT", Timestamp: time.Now()}
	_, err = EstimateExecution(empty, Buy, dec("1"))
	assert.ErrorIs(t, err, ErrInvalidInput, "book vacío")
}

func TestEstimateExecution_CostIsWeightedNotional(t *testing.T) {
	snap := makeSnapshot("binance", "BTCUSDT",
		[][2]string{{"50000", "2"}},
		[][2]string{{"50010", "0.5"}, {"50020", "0.5"}, {"50100", "10"}},
	)

	est, err := EstimateExecution(snap, Buy, dec("1.2"))
	require.NoError(t, err)

	// 0.5×50010 + 0.5×50020 + 0.2×50100 = 60035
	assert.True(t, est.Cost.Equal(dec("60035")), "cost %s", est.Cost)
	assert.Equal(t, 3, est.LevelsUsed)

	// avg = cost/filled se trunca en la precisión de división del decimal:
	// se comprueba la reconstrucción con tolerancia y la cota por niveles.
	diff := est.AvgPrice.Mul(est.FilledQty).Sub(est.Cost).Abs()
	assert.True(t, diff.LessThan(dec("0.000000001")), "diff %s", diff)
	assert.True(t, est.AvgPrice.GreaterThanOrEqual(dec("50010")))
	assert.True(t, est.AvgPrice.LessThanOrEqual(dec("50100")), "avg dentro de los precios tocados")
}
