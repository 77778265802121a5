package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BookLevel es un nivel de precio del orderbook: (precio, cantidad disponible).
type BookLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// MarketSnapshot es el estado normalizado del libro de un símbolo en un venue.
// Los bids van ordenados de mayor a menor precio y los asks de menor a mayor.
// Timestamp es el momento de captura; snapshots más viejos que el cacheado
// para el mismo (venue, symbol) nunca sobreescriben (ver cache.SnapshotCache).
type MarketSnapshot struct {
	Venue     string
	Symbol    string
	Bids      []BookLevel
	Asks      []BookLevel
	Timestamp time.Time
}

// BestBid devuelve el mejor precio de compra (mayor bid).
// Devuelve decimal.Zero si el book está vacío.
func (s MarketSnapshot) BestBid() decimal.Decimal {
	if len(s.Bids) == 0 {
		return decimal.Zero
	}
	return s.Bids[0].Price
}

// BestAsk devuelve el mejor precio de venta (menor ask).
// Devuelve decimal.Zero si el book está vacío.
func (s MarketSnapshot) BestAsk() decimal.Decimal {
	if len(s.Asks) == 0 {
		return decimal.Zero
	}
	return s.Asks[0].Price
}

// Mid devuelve el punto medio entre best bid y best ask.
func (s MarketSnapshot) Mid() decimal.Decimal {
	bid := s.BestBid()
	ask := s.BestAsk()
	if bid.IsZero() || ask.IsZero() {
		return decimal.Zero
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2))
}

// Age devuelve la edad del snapshot respecto a now.
func (s MarketSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}

// Validate comprueba los invariantes del snapshot: precios y tamaños positivos,
// bids descendentes y asks ascendentes. Un snapshot inválido se rechaza en el
// borde (ErrInvalidInput) y nunca entra en el cálculo de profit.
func (s MarketSnapshot) Validate() error {
	if s.Venue == "" || s.Symbol == "" {
		return fmt.Errorf("snapshot.Validate: venue/symbol vacíos: %w", ErrInvalidInput)
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("snapshot.Validate: %s %s sin timestamp: %w", s.Venue, s.Symbol, ErrInvalidInput)
	}
	for i, b := range s.Bids {
		if !b.Price.IsPositive() || !b.Size.IsPositive() {
			return fmt.Errorf("snapshot.Validate: bid %d no positivo: %w", i, ErrInvalidInput)
		}
		if i > 0 && b.Price.GreaterThan(s.Bids[i-1].Price) {
			return fmt.Errorf("snapshot.Validate: bids desordenados en %d: %w", i, ErrInvalidInput)
		}
	}
	for i, a := range s.Asks {
		if !a.Price.IsPositive() || !a.Size.IsPositive() {
			return fmt.Errorf("snapshot.Validate: ask %d no positivo: %w", i, ErrInvalidInput)
		}
		if i > 0 && a.Price.LessThan(s.Asks[i-1].Price) {
			return fmt.Errorf("snapshot.Validate: asks desordenados en %d: %w", i, ErrInvalidInput)
		}
	}
	return nil
}

// Fees son las comisiones maker/taker de un venue (fracciones, ej. 0.001 = 0.1%).
type Fees struct {
	Maker decimal.Decimal
	Taker decimal.Decimal
}
