package helius

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTx(sig string, slot int64) EnhancedTransaction {
	return EnhancedTransaction{
		Signature: sig,
		Timestamp: 1700000000 + slot,
		Slot:      slot,
		Type:      "SWAP",
		Fee:       5000,
	}
}

func TestFetchPage_SetsCursorAndAPIKey(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"api-key": r.URL.Query().Get("api-key"),
			"before":  r.URL.Query().Get("before"),
			"limit":   r.URL.Query().Get("limit"),
		}
		json.NewEncoder(w).Encode([]EnhancedTransaction{testTx("sig1", 100)})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithPageSize(50))

	txs, err := c.FetchPage(context.Background(), "walletA", "cursor-sig")
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, "test-key", gotQuery["api-key"])
	assert.Equal(t, "cursor-sig", gotQuery["before"])
	assert.Equal(t, "50", gotQuery["limit"])
}

func TestFetchPage_TypeFilter(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.URL.Query().Get("type")
		json.NewEncoder(w).Encode([]EnhancedTransaction{})
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithTypeFilter("SWAP"))

	_, err := c.FetchPage(context.Background(), "walletA", "")
	require.NoError(t, err)
	assert.Equal(t, "SWAP", gotType)
}

func TestFetchPage_RetriesOn429(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode([]EnhancedTransaction{testTx("sig1", 100)})
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryDelay(time.Millisecond))

	txs, err := c.FetchPage(context.Background(), "walletA", "")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, 2, calls)
}

func TestFetchPage_ExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryDelay(time.Millisecond), WithMaxRetries(2))

	_, err := c.FetchPage(context.Background(), "walletA", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestFetchHistory_PaginatesUntilEmptyPage(t *testing.T) {
	// Two full pages of 2, then an empty page.
	pages := map[string][]EnhancedTransaction{
		"":  {testTx("a", 10), testTx("b", 9)},
		"b": {testTx("c", 8), testTx("d", 7)},
		"d": {},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pages[r.URL.Query().Get("before")])
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithPageSize(2))

	txs, err := c.FetchHistory(context.Background(), "walletA", 0)
	require.NoError(t, err)
	require.Len(t, txs, 4)
	assert.Equal(t, "a", txs[0].Signature)
	assert.Equal(t, "d", txs[3].Signature)
}

func TestFetchHistory_StopsOnShortPage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode([]EnhancedTransaction{testTx("only", 5)})
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithPageSize(100))

	txs, err := c.FetchHistory(context.Background(), "walletA", 0)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, 1, calls)
}

func TestFetchHistory_RespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := make([]EnhancedTransaction, 2)
		for i := range page {
			page[i] = testTx(fmt.Sprintf("%s-%d", r.URL.Query().Get("before"), i), 1)
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithPageSize(2))

	txs, err := c.FetchHistory(context.Background(), "walletA", 3)
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestFetchHistory_PartialOnMidStreamError(t *testing.T) {
	// First page succeeds, second page always fails: the partial result
	// is returned instead of an error.
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("before") != "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]EnhancedTransaction{testTx("a", 10), testTx("b", 9)})
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithPageSize(2), WithRetryDelay(time.Millisecond), WithMaxRetries(1))

	txs, err := c.FetchHistory(context.Background(), "walletA", 0)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestToDomain_ConvertsFeeAndLegs(t *testing.T) {
	tx := EnhancedTransaction{
		Signature: "sig",
		Timestamp: 1700000100,
		Slot:      42,
		Type:      "SWAP",
		Fee:       5000000,
		TokenTransfers: []TokenTransfer{
			{FromUserAccount: "w1", ToUserAccount: "pool", Mint: "So11111111111111111111111111111111111111112", TokenAmount: 1.5},
			{FromUserAccount: "pool", ToUserAccount: "w1", Mint: "MintXYZ", TokenSymbol: "XYZ", TokenAmount: 100},
		},
	}

	raw := tx.ToDomain()

	assert.Equal(t, "sig", raw.Signature)
	assert.Equal(t, int64(42), raw.Slot)
	assert.InDelta(t, 0.005, raw.Fee, 1e-12)
	assert.True(t, raw.Success)
	require.Len(t, raw.Legs, 2)
	// Well-known mint resolves to its symbol when the API omits it.
	assert.Equal(t, "SOL", raw.Legs[0].Symbol)
	assert.Equal(t, "XYZ", raw.Legs[1].Symbol)
}

func TestToDomain_FailedTransaction(t *testing.T) {
	tx := testTx("sig", 1)
	tx.TransactionError = map[string]interface{}{"InstructionError": []interface{}{}}

	raw := tx.ToDomain()
	assert.False(t, raw.Success)
}
