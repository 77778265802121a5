package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgarciad/arbscan/internal/domain"
)

func sampleReport() domain.CycleReport {
	return domain.CycleReport{
		At:        time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC),
		Duration:  120 * time.Millisecond,
		Snapshots: 6,
		Evaluated: 2,
		Accepted:  1,
		Rejected:  1,
		Opportunities: []domain.Opportunity{
			{
				ID:   "a1",
				Kind: domain.CrossVenue,
				Legs: []domain.Leg{
					{Venue: "binance", Symbol: "BTCUSDT", Side: domain.Buy, Price: decimal.RequireFromString("50000")},
					{Venue: "bybit", Symbol: "BTCUSDT", Side: domain.Sell, Price: decimal.RequireFromString("50200")},
				},
				NetRatio:  decimal.RequireFromString("1.002"),
				NetProfit: decimal.RequireFromString("9.98"),
				Quote:     "USDT",
				RiskScore: 0.2,
				Accepted:  true,
			},
			{
				ID:        "b2",
				Kind:      domain.Triangular,
				NetRatio:  decimal.RequireFromString("1.001"),
				NetProfit: decimal.RequireFromString("1.2"),
				Quote:     "USDT",
				RiskScore: 0.9,
				Accepted:  false,
				Reason:    "risk 0.900 over threshold 0.700",
			},
		},
		Venues: map[string]domain.VenueStatus{
			"binance": {Circuit: "closed"},
			"bybit":   {Circuit: "open", Transient: 5, LastError: "status 503"},
		},
	}
}

func TestConsole_CompactMode(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	require.NoError(t, c.Notify(context.Background(), sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "snaps:6")
	assert.Contains(t, out, "eval:2")
	assert.Contains(t, out, "ok:1")
	assert.Contains(t, out, "XVN")
	assert.Contains(t, out, "+9.9800")
	assert.Contains(t, out, "!bybit:open", "el circuito abierto se señala en el resumen")
	assert.NotContains(t, out, "TRI", "las rechazadas no salen en el modo compacto")
}

func TestConsole_CompactShowsAcceptedBehindRejected(t *testing.T) {
	report := sampleReport()
	// Rechazada en cabeza del listado: las aceptadas que van detrás deben
	// salir igualmente.
	report.Opportunities[0], report.Opportunities[1] = report.Opportunities[1], report.Opportunities[0]

	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)
	require.NoError(t, c.Notify(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "XVN")
	assert.Contains(t, out, "+9.9800")
}

func TestConsole_TableMode(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	require.NoError(t, c.Notify(context.Background(), sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "binance:BTCUSDT buy")
	assert.Contains(t, out, "bybit:BTCUSDT sell")
	assert.Contains(t, out, "9.98")
	assert.Contains(t, out, "circuit=open")
	assert.Contains(t, out, "transient=5")
	assert.Contains(t, out, "status 503")
}

func TestConsole_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	report := domain.CycleReport{At: time.Now()}
	require.NoError(t, c.Notify(context.Background(), report))
	assert.NotEmpty(t, buf.String(), "un ciclo sin candidatos también reporta")
}
