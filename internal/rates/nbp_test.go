package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nbpBody = `{"table":"A","currency":"euro","code":"EUR","rates":[{"no":"048/A/NBP/2025","effectiveDate":"2025-03-10","mid":4.1833}]}`

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func server(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRateFromNBP(t *testing.T) {
	var hits atomic.Int32
	srv := server(t, http.StatusOK, nbpBody, &hits)
	p := NewProvider(srv.URL, d("4.30"), time.Hour)

	assert.True(t, p.Rate(context.Background()).Equal(d("4.1833")))
	assert.True(t, p.Rate(context.Background()).Equal(d("4.1833")))
	assert.Equal(t, int32(1), hits.Load(), "second call is served from cache")

	info := p.Info()
	assert.Equal(t, SourceNBP, info.Source)
	assert.Equal(t, "2025-03-10", info.EffectiveDate)
	require.NotNil(t, info.FetchedAt)
}

func TestRateFallback(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"not json", http.StatusOK, "<html>"},
		{"no rates", http.StatusOK, `{"rates":[]}`},
		{"zero rate", http.StatusOK, `{"rates":[{"mid":0}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := server(t, tc.status, tc.body, nil)
			p := NewProvider(srv.URL, d("4.30"), time.Hour)
			assert.True(t, p.Rate(context.Background()).Equal(d("4.30")))
			assert.Error(t, p.Refresh(context.Background()))
			assert.Equal(t, SourceFallback, p.Info().Source)
		})
	}
}

func TestRateUnreachable(t *testing.T) {
	srv := server(t, http.StatusOK, nbpBody, nil)
	url := srv.URL
	srv.Close()

	p := NewProvider(url, decimal.Zero, time.Hour, WithHTTPClient(&http.Client{Timeout: time.Second}))
	assert.True(t, p.Rate(context.Background()).Equal(d("4.30")), "non-positive fallback uses the default")
}

func TestRateKeepsLastGoodAfterExpiry(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(nbpBody))
	}))
	defer srv.Close()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }
	p := NewProvider(srv.URL, d("4.30"), time.Hour, WithClock(clock))

	require.NoError(t, p.Refresh(context.Background()))
	fail.Store(true)
	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	assert.True(t, p.Rate(context.Background()).Equal(d("4.1833")))
	assert.True(t, p.Current().Equal(d("4.1833")))
}

func TestRateConcurrentCallersShareFetch(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(nbpBody))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, d("4.30"), time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Rate(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestCurrentWithoutFetch(t *testing.T) {
	p := NewProvider("", d("4.5"), time.Hour)
	assert.True(t, p.Current().Equal(d("4.5")))
	assert.NotNil(t, p.Cache())
}
