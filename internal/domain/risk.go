package domain

// risk.go — scoring de riesgo de ejecutabilidad.
//
// Combina componentes normalizados en [0, 1] mediante suma ponderada:
// staleness del precio, magnitud del slippage, déficit de liquidez y
// volatilidad reciente del venue. Más alto = más arriesgado. Las oportunidades
// que superan el umbral de rechazo se filtran antes de llegar a ejecución,
// pero TODAS (aceptadas y rechazadas) se registran en el histórico.

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskWeights son los pesos configurables de cada componente. No hace falta
// que sumen 1: el score final se normaliza por la suma de pesos.
type RiskWeights struct {
	Staleness  float64 `yaml:"staleness"`
	Slippage   float64 `yaml:"slippage"`
	Liquidity  float64 `yaml:"liquidity"`
	Volatility float64 `yaml:"volatility"`
}

// DefaultRiskWeights devuelve un reparto conservador.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{Staleness: 0.30, Slippage: 0.30, Liquidity: 0.20, Volatility: 0.20}
}

func (w RiskWeights) total() float64 {
	return w.Staleness + w.Slippage + w.Liquidity + w.Volatility
}

// RiskInputs son las mediciones crudas de una oportunidad concreta.
type RiskInputs struct {
	SnapshotAge  time.Duration   // edad del snapshot más viejo que contribuye
	MaxAge       time.Duration   // límite de staleness configurado
	Slippage     decimal.Decimal // peor slippage estimado entre las patas
	RequestedQty decimal.Decimal
	FilledQty    decimal.Decimal // cantidad alcanzable según el analyzer
	Volatility   float64         // desviación relativa reciente del precio (stddev/mean)
}

// slippageScale normaliza el slippage: 1% de slippage satura el componente.
// En arbitraje spot, slippages por encima del 1% anulan cualquier margen real.
const slippageScale = 100.0

// volatilityScale: 10% de desviación relativa satura el componente,
// igual que el factor ×10 del chequeo de varianza de precios del detector.
const volatilityScale = 10.0

// RiskScore calcula el score en [0, 1]. Pesos todos a cero devuelve 0.
func RiskScore(in RiskInputs, w RiskWeights) float64 {
	total := w.total()
	if total <= 0 {
		return 0
	}

	staleness := 0.0
	if in.MaxAge > 0 {
		staleness = clamp01(float64(in.SnapshotAge) / float64(in.MaxAge))
	}

	slippage := clamp01(in.Slippage.InexactFloat64() * slippageScale)

	liquidity := 0.0
	if in.RequestedQty.IsPositive() {
		fillRatio := in.FilledQty.Div(in.RequestedQty).InexactFloat64()
		liquidity = clamp01(1 - fillRatio)
	}

	volatility := clamp01(in.Volatility * volatilityScale)

	score := w.Staleness*staleness + w.Slippage*slippage + w.Liquidity*liquidity + w.Volatility*volatility
	return clamp01(score / total)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
