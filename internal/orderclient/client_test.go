package orderclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warungku/poscore/internal/domain"
	apperrors "github.com/warungku/poscore/pkg/errors"
	"github.com/warungku/poscore/pkg/httpclient"
)

func testInput(t *testing.T) SubmitOrderInput {
	t.Helper()
	totals, err := domain.ComputeTotals([]domain.LineInput{
		{ProductID: "p1", Name: "Kopi", UnitPrice: 25000, Quantity: 2, StockOnHand: 10},
	}, nil, 11, 60000)
	require.NoError(t, err)

	return SubmitOrderInput{
		Totals:  totals,
		Cashier: "Dewi",
		SoldAt:  time.Now().UTC(),
	}
}

func newClient(serverURL string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// No retries on submission: a duplicate POST could persist the sale twice.
	base := httpclient.New(httpclient.Config{Timeout: time.Second, MaxRetries: 0})
	return New(base, serverURL, time.Second, logger)
}

func TestSubmitOrder_Success(t *testing.T) {
	var gotBody SubmitOrderInput
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"order_number": "ORD-2026-0042"})
	}))
	defer server.Close()

	orderNumber, err := newClient(server.URL).SubmitOrder(context.Background(), testInput(t))
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-0042", orderNumber)
	assert.Equal(t, domain.Money(55500), gotBody.Totals.GrandTotal)
}

func TestSubmitOrder_DownstreamErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"INVALID_INPUT","message":"totals mismatch"}}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).SubmitOrder(context.Background(), testInput(t))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "totals mismatch")
}

func TestSubmitOrder_NotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newClient(server.URL).SubmitOrder(context.Background(), testInput(t))
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "submission must never be retried")
}

func TestSubmitOrder_EmptyOrderNumberRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"order_number": ""})
	}))
	defer server.Close()

	_, err := newClient(server.URL).SubmitOrder(context.Background(), testInput(t))
	assert.Error(t, err)
}
