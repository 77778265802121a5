package detector

// triangular.go — arbitraje triangular intra-venue.
//
// Sobre el TradingPairGraph del venue se enumeran los ciclos de 3 aristas que
// vuelven al asset base (A→B→C→A). El ratio neto aplica el taker fee del venue
// una vez por pata sobre la salida de cada conversión, de modo que
// net = gross × (1 − taker)³ exactamente — recomputarlo desde los tres precios
// reproduce el resultado del detector (determinismo).

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jgarciad/arbscan/internal/domain"
)

var one = decimal.NewFromInt(1)

// detectTriangular evalúa todos los ciclos triangulares del venue.
// Un precio a cero o ausente aborta ese candidato, no el ciclo de detección;
// los snapshots stale ni siquiera llegan aquí (los filtra cache.Fresh).
func (d *Detector) detectTriangular(
	venue string,
	graph *domain.TradingPairGraph,
	snaps map[string]domain.MarketSnapshot,
	now time.Time,
) []candidate {
	fees := d.feesFor(venue)
	oneMinusFee := one.Sub(fees.Taker)
	threshold := one.Add(d.cfg.MinProfitRatio)

	var out []candidate
	for _, cycle := range graph.Cycles3(d.cfg.BaseAsset) {
		gross := one
		ok := true
		for _, conv := range cycle {
			rate := conv.Rate()
			if !rate.IsPositive() {
				ok = false
				break
			}
			gross = gross.Mul(rate)
		}
		if !ok {
			continue
		}

		net := gross.Mul(oneMinusFee).Mul(oneMinusFee).Mul(oneMinusFee)
		if net.LessThanOrEqual(threshold) {
			continue
		}

		legs := make([]domain.Leg, 0, 3)
		oldest := time.Duration(0)
		worstSlip := decimal.Zero
		worstFill := one
		volatility := 0.0

		// Simular el flujo de capital por las tres patas para medir
		// slippage y liquidez alcanzable a tamaño real.
		amount := d.cfg.MaxPosition
		valid := true
		for _, conv := range cycle {
			snap := snaps[conv.Symbol]
			legs = append(legs, domain.Leg{
				Venue: venue, Symbol: conv.Symbol, Side: conv.Side, Price: conv.Price,
			})

			if age := snap.Age(now); age > oldest {
				oldest = age
			}
			if v := d.vol.Volatility(venue, conv.Symbol); v > volatility {
				volatility = v
			}

			// Cantidad en unidades del base del par de esta pata.
			qty := amount
			if conv.Side == domain.Buy {
				qty = amount.Div(conv.Price)
			}
			est, err := domain.EstimateExecution(snap, conv.Side, qty)
			if err != nil {
				valid = false
				break
			}
			if est.Slippage.GreaterThan(worstSlip) {
				worstSlip = est.Slippage
			}
			if fr := est.FillRatio(); fr.LessThan(worstFill) {
				worstFill = fr
			}

			amount = amount.Mul(conv.Rate()).Mul(oneMinusFee)
		}
		if !valid {
			continue
		}

		out = append(out, candidate{
			opp: domain.Opportunity{
				ID:         uuid.NewString(),
				Kind:       domain.Triangular,
				Legs:       legs,
				GrossRatio: gross,
				NetRatio:   net,
				NetProfit:  d.cfg.MaxPosition.Mul(net.Sub(one)),
				Quote:      d.cfg.BaseAsset,
				Size:       d.cfg.MaxPosition,
				DetectedAt: now,
			},
			inputs: domain.RiskInputs{
				SnapshotAge:  oldest,
				MaxAge:       d.cfg.StalenessMax,
				Slippage:     worstSlip,
				RequestedQty: one,
				FilledQty:    worstFill,
				Volatility:   volatility,
			},
		})
	}
	return out
}
