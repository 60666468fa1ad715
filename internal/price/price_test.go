package price_test

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-tracker/internal/price"
)

type countingRecorder struct {
	mu      sync.Mutex
	sources map[string]int
}

func (r *countingRecorder) PriceLookup(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sources == nil {
		r.sources = make(map[string]int)
	}
	r.sources[source]++
}

func quoteServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAdapter_LiveQuote(t *testing.T) {
	srv := quoteServer(t, http.StatusOK, `{"Global Quote": {"01. symbol": "AAPL", "05. price": "181.2300"}}`)
	rec := &countingRecorder{}

	a := price.NewAdapter(price.NewAlphaVantage(srv.URL, "test-key", time.Second), price.WithRecorder(rec))
	p, err := a.GetPrice(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, 181.23, p)
	assert.Equal(t, 1, rec.sources[price.SourceAlphaVantage])
}

func TestAdapter_FallbackWithoutCredential(t *testing.T) {
	a := price.NewAdapter(price.NewAlphaVantage("http://127.0.0.1:1", "", time.Second))

	for i := 0; i < 50; i++ {
		p, err := a.GetPrice(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.InDelta(t, 175.50, p, 175.50*0.02+0.005)

		p, err = a.GetPrice(context.Background(), "ZZZZ")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 50.0)
		assert.LessOrEqual(t, p, 300.0)
	}
}

func TestAdapter_FallbackTriggers(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limit note", http.StatusOK, `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`},
		{"rate limit information", http.StatusOK, `{"Information": "rate limit"}`},
		{"empty quote", http.StatusOK, `{"Global Quote": {}}`},
		{"malformed price", http.StatusOK, `{"Global Quote": {"05. price": "n/a"}}`},
		{"zero price", http.StatusOK, `{"Global Quote": {"05. price": "0.0000"}}`},
		{"server error", http.StatusInternalServerError, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := quoteServer(t, tt.status, tt.body)
			rec := &countingRecorder{}

			a := price.NewAdapter(price.NewAlphaVantage(srv.URL, "test-key", time.Second), price.WithRecorder(rec))
			p, err := a.GetPrice(context.Background(), "MSFT")
			require.NoError(t, err)
			assert.InDelta(t, 380.20, p, 380.20*0.02+0.005)
			assert.Equal(t, 1, rec.sources[price.SourceSynthetic])
			assert.Zero(t, rec.sources[price.SourceAlphaVantage])
		})
	}
}

func TestAdapter_FallbackOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"Global Quote": {"05. price": "1.00"}}`))
	}))
	defer srv.Close()

	a := price.NewAdapter(price.NewAlphaVantage(srv.URL, "test-key", 50*time.Millisecond))
	p, err := a.GetPrice(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.InDelta(t, 190.45, p, 190.45*0.02+0.005)
}

func TestAdapter_EmptyTicker(t *testing.T) {
	a := price.NewAdapter(nil)
	_, err := a.GetPrice(context.Background(), "  ")
	assert.ErrorIs(t, err, price.ErrEmptyTicker)
}

func TestSynthetic_RoundedToCents(t *testing.T) {
	s := price.NewSynthetic(rand.New(rand.NewSource(42)))
	for i := 0; i < 100; i++ {
		p := s.Price("NVDA")
		assert.InDelta(t, p, float64(int64(p*100+0.5))/100, 1e-9)
		assert.Greater(t, p, 0.0)
	}
}

func TestSynthetic_Deterministic(t *testing.T) {
	a := price.NewSynthetic(rand.New(rand.NewSource(7)))
	b := price.NewSynthetic(rand.New(rand.NewSource(7)))
	assert.Equal(t, a.Price("QQQ"), b.Price("QQQ"))
	assert.Equal(t, a.Price("UNKNOWN"), b.Price("UNKNOWN"))
}

func TestBasePrice(t *testing.T) {
	p, ok := price.BasePrice("aapl")
	assert.True(t, ok)
	assert.Equal(t, 175.50, p)

	_, ok = price.BasePrice("ZZZZ")
	assert.False(t, ok)
}
