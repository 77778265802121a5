package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolatility_NoHistoryIsZero(t *testing.T) {
	v := NewVolatilityTracker(20)
	assert.Equal(t, 0.0, v.Volatility("binance", "BTCUSDT"))

	v.Observe("binance", "BTCUSDT", dec("50000"))
	assert.Equal(t, 0.0, v.Volatility("binance", "BTCUSDT"), "una sola muestra no penaliza")
}

func TestVolatility_ConstantPriceIsZero(t *testing.T) {
	v := NewVolatilityTracker(20)
	for i := 0; i < 5; i++ {
		v.Observe("binance", "BTCUSDT", dec("50000"))
	}
	assert.Equal(t, 0.0, v.Volatility("binance", "BTCUSDT"))
}

func TestVolatility_RelativeDeviation(t *testing.T) {
	v := NewVolatilityTracker(20)
	v.Observe("binance", "BTCUSDT", dec("100"))
	v.Observe("binance", "BTCUSDT", dec("110"))
	v.Observe("binance", "BTCUSDT", dec("90"))

	// mean=100, stddev=sqrt(200/3)≈8.165 → ≈0.08165
	assert.InDelta(t, 0.08165, v.Volatility("binance", "BTCUSDT"), 0.001)
}

func TestVolatility_WindowSlides(t *testing.T) {
	v := NewVolatilityTracker(3)
	v.Observe("binance", "BTCUSDT", dec("1"))
	for i := 0; i < 3; i++ {
		v.Observe("binance", "BTCUSDT", dec("100"))
	}
	// El outlier inicial salió de la ventana.
	assert.Equal(t, 0.0, v.Volatility("binance", "BTCUSDT"))
}

func TestVolatility_KeysAreIndependent(t *testing.T) {
	v := NewVolatilityTracker(20)
	v.Observe("binance", "BTCUSDT", dec("100"))
	v.Observe("binance", "BTCUSDT", dec("200"))
	v.Observe("bybit", "BTCUSDT", dec("100"))
	v.Observe("bybit", "BTCUSDT", dec("100"))

	assert.Greater(t, v.Volatility("binance", "BTCUSDT"), 0.0)
	assert.Equal(t, 0.0, v.Volatility("bybit", "BTCUSDT"))
}
