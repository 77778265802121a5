package detector

// crossvenue.go — arbitraje cross-venue por símbolo.
//
// Para cada símbolo disponible en dos o más venues se compara el best ask del
// venue barato contra el best bid del caro. El profit neto usa los precios
// medios ponderados por profundidad del analyzer para el tamaño configurado y
// resta el taker fee de ambas patas — fees y slippage siempre descontados
// antes de emitir.

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jgarciad/arbscan/internal/domain"
)

// detectCrossVenue evalúa todas las combinaciones de venues por símbolo.
func (d *Detector) detectCrossVenue(
	fresh map[string]map[string]domain.MarketSnapshot,
	now time.Time,
) []candidate {
	var out []candidate

	for _, pair := range d.cfg.Pairs {
		// Venues con snapshot fresco y ambos lados del book cotizados,
		// en el orden configurado para un ranking determinista.
		var venues []string
		for _, v := range d.cfg.Venues {
			snap, ok := fresh[v][pair.Symbol]
			if !ok || !snap.BestBid().IsPositive() || !snap.BestAsk().IsPositive() {
				continue
			}
			venues = append(venues, v)
		}
		if len(venues) < 2 {
			continue
		}

		for i := 0; i < len(venues); i++ {
			for j := i + 1; j < len(venues); j++ {
				if c, ok := d.evalCrossPair(pair, fresh[venues[i]][pair.Symbol], fresh[venues[j]][pair.Symbol], now); ok {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

// evalCrossPair evalúa comprar en el venue con el ask más barato y vender en
// el del bid más caro. Devuelve ok=false si el candidato no supera el umbral.
func (d *Detector) evalCrossPair(pair domain.Pair, a, b domain.MarketSnapshot, now time.Time) (candidate, bool) {
	buySnap, sellSnap := a, b
	if b.BestAsk().LessThan(a.BestAsk()) {
		buySnap, sellSnap = b, a
	}
	if !sellSnap.BestBid().GreaterThan(buySnap.BestAsk()) {
		return candidate{}, false
	}

	qty := d.cfg.TradeSize

	buyEst, err := domain.EstimateExecution(buySnap, domain.Buy, qty)
	if err != nil {
		return candidate{}, false
	}
	sellEst, err := domain.EstimateExecution(sellSnap, domain.Sell, qty)
	if err != nil {
		return candidate{}, false
	}

	// Cantidad efectiva: lo que ambos books pueden absorber de verdad.
	effQty := decimal.Min(buyEst.FilledQty, sellEst.FilledQty)
	if !effQty.IsPositive() {
		return candidate{}, false
	}

	buyFee := d.feesFor(buySnap.Venue).Taker
	sellFee := d.feesFor(sellSnap.Venue).Taker

	// net = q × (sellAvg − buyAvg) − q × buyAvg × fee − q × sellAvg × fee
	grossProfit := effQty.Mul(sellEst.AvgPrice.Sub(buyEst.AvgPrice))
	feeCost := effQty.Mul(buyEst.AvgPrice).Mul(buyFee).Add(effQty.Mul(sellEst.AvgPrice).Mul(sellFee))
	netProfit := grossProfit.Sub(feeCost)

	if netProfit.LessThanOrEqual(d.cfg.MinCrossProfit) {
		return candidate{}, false
	}

	buyNotional := effQty.Mul(buyEst.AvgPrice)
	netRatio := one
	if buyNotional.IsPositive() {
		netRatio = one.Add(netProfit.Div(buyNotional))
	}

	oldest := buySnap.Age(now)
	if age := sellSnap.Age(now); age > oldest {
		oldest = age
	}
	worstSlip := decimal.Max(buyEst.Slippage, sellEst.Slippage)
	volatility := d.vol.Volatility(buySnap.Venue, pair.Symbol)
	if v := d.vol.Volatility(sellSnap.Venue, pair.Symbol); v > volatility {
		volatility = v
	}

	return candidate{
		opp: domain.Opportunity{
			ID:   uuid.NewString(),
			Kind: domain.CrossVenue,
			Legs: []domain.Leg{
				{Venue: buySnap.Venue, Symbol: pair.Symbol, Side: domain.Buy, Price: buyEst.AvgPrice},
				{Venue: sellSnap.Venue, Symbol: pair.Symbol, Side: domain.Sell, Price: sellEst.AvgPrice},
			},
			GrossRatio: sellSnap.BestBid().Div(buySnap.BestAsk()),
			NetRatio:   netRatio,
			NetProfit:  netProfit,
			Quote:      pair.Quote,
			Size:       effQty,
			DetectedAt: now,
		},
		inputs: domain.RiskInputs{
			SnapshotAge:  oldest,
			MaxAge:       d.cfg.StalenessMax,
			Slippage:     worstSlip,
			RequestedQty: qty,
			FilledQty:    effQty,
			Volatility:   volatility,
		},
	}, true
}
