package domain

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"
)

// VolatilityTracker mantiene una ventana corta de precios mid recientes por
// (venue, symbol) y expone la desviación relativa (stddev / mean) como input
// del RiskScorer. Lo alimenta el ciclo de detección tras cada fetch.
type VolatilityTracker struct {
	mu     sync.Mutex
	window int
	series map[string][]float64
}

// NewVolatilityTracker crea un tracker con la ventana dada (muestras por clave).
func NewVolatilityTracker(window int) *VolatilityTracker {
	if window <= 1 {
		window = 20
	}
	return &VolatilityTracker{
		window: window,
		series: make(map[string][]float64),
	}
}

// Observe registra el mid actual de (venue, symbol). Mids a cero se ignoran.
func (t *VolatilityTracker) Observe(venue, symbol string, mid decimal.Decimal) {
	if !mid.IsPositive() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	key := venue + "|" + symbol
	s := append(t.series[key], mid.InexactFloat64())
	if len(s) > t.window {
		s = s[len(s)-t.window:]
	}
	t.series[key] = s
}

// Volatility devuelve stddev/mean de la ventana actual. Con menos de dos
// muestras devuelve 0 — sin historia no se penaliza.
func (t *VolatilityTracker) Volatility(venue, symbol string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.series[venue+"|"+symbol]
	if len(s) < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range s {
		mean += v
	}
	mean /= float64(len(s))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, v := range s {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(s))

	return math.Sqrt(variance) / mean
}
