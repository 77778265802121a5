package venue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgarciad/arbscan/internal/domain"
)

func testFees() domain.Fees {
	fee := decimal.RequireFromString("0.001")
	return domain.Fees{Maker: fee, Taker: fee}
}

func TestBinance_FetchSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/depth", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Write([]byte(`{
			"lastUpdateId": 1027024,
			"bids": [["50000.00", "1.5"], ["49999.00", "2.0"]],
			"asks": [["50010.00", "0.8"], ["50011.00", "3.1"]]
		}`))
	}))
	defer srv.Close()

	gw := NewBinance(srv.URL, testFees())
	snap, err := gw.FetchSnapshot(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	assert.Equal(t, "binance", snap.Venue)
	assert.Equal(t, "BTCUSDT", snap.Symbol)
	require.Len(t, snap.Bids, 2)
	require.Len(t, snap.Asks, 2)
	assert.True(t, snap.BestBid().Equal(decimal.RequireFromString("50000")))
	assert.True(t, snap.BestAsk().Equal(decimal.RequireFromString("50010")))
	assert.False(t, snap.Timestamp.IsZero())
	assert.NoError(t, snap.Validate())
}

func TestBinance_ZeroSizeLevelsDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"bids": [["50000", "0"], ["49999", "1"]], "asks": [["50010", "1"]]}`))
	}))
	defer srv.Close()

	gw := NewBinance(srv.URL, testFees())
	snap, err := gw.FetchSnapshot(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	// Cantidad cero = nivel borrado por el exchange.
	require.Len(t, snap.Bids, 1)
	assert.True(t, snap.BestBid().Equal(decimal.RequireFromString("49999")))
}

func TestBinance_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := NewBinance(srv.URL, testFees())
	_, err := gw.FetchSnapshot(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err), "5xx debe ser elegible para retry")
}

func TestBinance_RateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	gw := NewBinance(srv.URL, testFees())
	_, err := gw.FetchSnapshot(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestBinance_ClientErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": -1121, "msg": "Invalid symbol."}`))
	}))
	defer srv.Close()

	gw := NewBinance(srv.URL, testFees())
	_, err := gw.FetchSnapshot(context.Background(), "NOPE")
	require.Error(t, err)
	assert.False(t, domain.IsTransient(err), "4xx no debe reintentarse")
}

func TestBinance_MalformedLevelIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"bids": [["not-a-price", "1"]], "asks": []}`))
	}))
	defer srv.Close()

	gw := NewBinance(srv.URL, testFees())
	_, err := gw.FetchSnapshot(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.False(t, domain.IsTransient(err))
}

func TestBinance_FetchFees(t *testing.T) {
	gw := NewBinance("http://unused", testFees())
	fees, err := gw.FetchFees(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, fees.Taker.Equal(decimal.RequireFromString("0.001")))
}

func TestBinance_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := NewBinance(srv.URL, testFees())
	_, err := gw.FetchSnapshot(ctx, "BTCUSDT")
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err), "cancelación/timeout es transitorio")
}
