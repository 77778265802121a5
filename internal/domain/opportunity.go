package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OpportunityKind distingue las dos familias de arbitraje detectadas.
type OpportunityKind int

const (
	Triangular OpportunityKind = iota
	CrossVenue
)

func (k OpportunityKind) String() string {
	if k == Triangular {
		return "triangular"
	}
	return "cross-venue"
}

// Leg es una pata de la oportunidad: qué operar, dónde y a qué precio esperado.
type Leg struct {
	Venue  string
	Symbol string
	Side   Side
	Price  decimal.Decimal
}

// Opportunity es el resultado inmutable de la detección. Una vez emitida no se
// corrige: cualquier actualización requiere emitir una Opportunity nueva.
// NetProfit se calcula SIEMPRE después de restar fees y slippage.
type Opportunity struct {
	ID   string // uuid
	Kind OpportunityKind
	Legs []Leg

	GrossRatio decimal.Decimal // ratio de conversión bruto (sin fees)
	NetRatio   decimal.Decimal // tras aplicar taker fee por pata
	NetProfit  decimal.Decimal // en moneda quote, tras fees y slippage
	Quote      string          // moneda en la que está expresado NetProfit
	Size       decimal.Decimal // tamaño analizado (capital para triangular, qty base para cross)

	RiskScore  float64
	Accepted   bool
	Reason     string // vacío si aceptada; motivo de rechazo si no
	DetectedAt time.Time
}

// Path devuelve la ruta legible de la oportunidad, ej:
// "binance:ETHUSDT buy → binance:ETHBTC sell → binance:BTCUSDT sell".
func (o Opportunity) Path() string {
	parts := make([]string, 0, len(o.Legs))
	for _, l := range o.Legs {
		parts = append(parts, l.Venue+":"+l.Symbol+" "+l.Side.String())
	}
	return strings.Join(parts, " → ")
}

// NetProfitPct devuelve el margen neto en porcentaje (NetRatio − 1) × 100.
func (o Opportunity) NetProfitPct() float64 {
	one := decimal.NewFromInt(1)
	return o.NetRatio.Sub(one).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
