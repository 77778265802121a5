package domain

// execution.go — estimación de ejecución contra la profundidad del book.
//
// Recorre el ladder relevante (asks para compra, bids para venta) desde el
// mejor precio hacia fuera, consumiendo tamaño en cada nivel hasta llenar la
// cantidad pedida o agotar el book. Toda la aritmética usa decimal para evitar
// deriva de coma flotante en productos precio × tamaño.

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side es el lado de una operación hipotética.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// ExecutionEstimate es el resultado de simular una orden contra el book.
type ExecutionEstimate struct {
	Side         Side
	RequestedQty decimal.Decimal
	FilledQty    decimal.Decimal
	AvgPrice     decimal.Decimal // precio medio ponderado por tamaño
	BestPrice    decimal.Decimal // mejor precio tocado (nivel 0)
	Slippage     decimal.Decimal // (avg − best) / best, con signo contra el trader
	Cost         decimal.Decimal // notional total consumido (quote)
	LevelsUsed   int
	Partial      bool // true si el book no pudo llenar la cantidad completa
}

// FillRatio devuelve FilledQty / RequestedQty en [0, 1].
func (e ExecutionEstimate) FillRatio() decimal.Decimal {
	if !e.RequestedQty.IsPositive() {
		return decimal.Zero
	}
	return e.FilledQty.Div(e.RequestedQty)
}

// EstimateExecution simula ejecutar qty unidades contra el snapshot.
// Un fill parcial NO es un error: se devuelve con Partial=true y el caller
// debe tratarlo como liquidez insuficiente (el RiskScorer lo penaliza).
// Cantidades no positivas se rechazan con ErrInvalidInput.
func EstimateExecution(snap MarketSnapshot, side Side, qty decimal.Decimal) (ExecutionEstimate, error) {
	if !qty.IsPositive() {
		return ExecutionEstimate{}, fmt.Errorf("domain.EstimateExecution: qty %s: %w", qty, ErrInvalidInput)
	}

	ladder := snap.Asks
	if side == Sell {
		ladder = snap.Bids
	}
	if len(ladder) == 0 {
		return ExecutionEstimate{}, fmt.Errorf("domain.EstimateExecution: book %s %s vacío: %w",
			snap.Venue, snap.Symbol, ErrInvalidInput)
	}

	est := ExecutionEstimate{
		Side:         side,
		RequestedQty: qty,
		BestPrice:    ladder[0].Price,
	}

	remaining := qty
	cost := decimal.Zero
	filled := decimal.Zero

	for _, lvl := range ladder {
		if !lvl.Price.IsPositive() || !lvl.Size.IsPositive() {
			return ExecutionEstimate{}, fmt.Errorf("domain.EstimateExecution: nivel inválido en %s %s: %w",
				snap.Venue, snap.Symbol, ErrInvalidInput)
		}
		take := decimal.Min(remaining, lvl.Size)
		cost = cost.Add(take.Mul(lvl.Price))
		filled = filled.Add(take)
		remaining = remaining.Sub(take)
		est.LevelsUsed++
		if remaining.IsZero() {
			break
		}
	}

	est.FilledQty = filled
	est.Cost = cost
	est.Partial = remaining.IsPositive()
	est.AvgPrice = cost.Div(filled)

	// Slippage con signo contra el trader: comprar por encima del best ask
	// y vender por debajo del best bid son ambos positivos.
	if side == Buy {
		est.Slippage = est.AvgPrice.Sub(est.BestPrice).Div(est.BestPrice)
	} else {
		est.Slippage = est.BestPrice.Sub(est.AvgPrice).Div(est.BestPrice)
	}

	return est, nil
}
