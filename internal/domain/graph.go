package domain

// graph.go — grafo dirigido de pares por venue para arbitraje triangular.
//
// Derivado, no persistido: se reconstruye fresco en cada ciclo de detección
// a partir de los snapshots del cache. Los nodos son assets y cada par
// configurado aporta dos aristas: vender base→quote al best bid, y comprar
// quote→base al best ask (tasa 1/ask).

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Pair es un símbolo operable con su descomposición base/quote.
// Viene de configuración — no se intenta adivinar el split del símbolo.
type Pair struct {
	Symbol string `yaml:"symbol"`
	Base   string `yaml:"base"`
	Quote  string `yaml:"quote"`
}

// Conversion es una arista del grafo: convertir From en To operando Symbol.
type Conversion struct {
	Symbol string
	From   string
	To     string
	Side   Side            // Sell: vendes base al bid; Buy: compras base al ask
	Price  decimal.Decimal // precio del book usado (bid o ask)
}

// Rate devuelve cuántas unidades de To produce una unidad de From, antes de fees.
func (c Conversion) Rate() decimal.Decimal {
	if !c.Price.IsPositive() {
		return decimal.Zero
	}
	if c.Side == Sell {
		return c.Price
	}
	return decimal.NewFromInt(1).Div(c.Price)
}

// TradingPairGraph es el grafo de conversiones de un venue.
type TradingPairGraph struct {
	Venue string
	edges map[string][]Conversion // asset origen → conversiones posibles
}

// BuildGraph construye el grafo del venue a partir de los snapshots frescos.
// Pares sin snapshot o con best bid/ask a cero no aportan aristas — un precio
// faltante aborta ese candidato, nunca el ciclo.
func BuildGraph(venue string, pairs []Pair, snaps map[string]MarketSnapshot) *TradingPairGraph {
	g := &TradingPairGraph{
		Venue: venue,
		edges: make(map[string][]Conversion, len(pairs)*2),
	}
	for _, p := range pairs {
		snap, ok := snaps[p.Symbol]
		if !ok {
			continue
		}
		if bid := snap.BestBid(); bid.IsPositive() {
			g.edges[p.Base] = append(g.edges[p.Base], Conversion{
				Symbol: p.Symbol, From: p.Base, To: p.Quote, Side: Sell, Price: bid,
			})
		}
		if ask := snap.BestAsk(); ask.IsPositive() {
			g.edges[p.Quote] = append(g.edges[p.Quote], Conversion{
				Symbol: p.Symbol, From: p.Quote, To: p.Base, Side: Buy, Price: ask,
			})
		}
	}
	// Orden determinista: las iteraciones sobre el grafo preservan el orden
	// de inserción por símbolo, independiente del orden del map de snapshots.
	for asset := range g.edges {
		sort.SliceStable(g.edges[asset], func(i, j int) bool {
			if g.edges[asset][i].Symbol != g.edges[asset][j].Symbol {
				return g.edges[asset][i].Symbol < g.edges[asset][j].Symbol
			}
			return g.edges[asset][i].To < g.edges[asset][j].To
		})
	}
	return g
}

// From devuelve las conversiones posibles partiendo de asset.
func (g *TradingPairGraph) From(asset string) []Conversion {
	return g.edges[asset]
}

// Cycles3 enumera todos los ciclos de exactamente 3 aristas que salen de
// start y vuelven a start (A→B→C→A). No repite assets intermedios.
func (g *TradingPairGraph) Cycles3(start string) [][3]Conversion {
	var cycles [][3]Conversion
	for _, e1 := range g.edges[start] {
		if e1.To == start {
			continue
		}
		for _, e2 := range g.edges[e1.To] {
			if e2.To == start || e2.To == e1.To {
				continue
			}
			for _, e3 := range g.edges[e2.To] {
				if e3.To != start {
					continue
				}
				cycles = append(cycles, [3]Conversion{e1, e2, e3})
			}
		}
	}
	return cycles
}
