package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/fetch"
)

func fetchCfg() config.FetchConfig {
	return config.FetchConfig{
		TimeoutSeconds: 5,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 1,
			MaxInterval:     10,
			Factor:          2.0,
		},
		Cache: config.CacheConfig{MaxAgeHours: 1, MinBytes: 4},
	}
}

func TestRetryPolicyBackoffIntervals(t *testing.T) {
	p := fetch.NewRetryPolicy(config.RetryConfig{
		MaxAttempts:     4,
		InitialInterval: 1000,
		MaxInterval:     3000,
		Factor:          2.0,
	})

	assert.Equal(t, 4, p.MaxAttempts())
	assert.Equal(t, time.Second, p.BackoffInterval(1))
	assert.Equal(t, 2*time.Second, p.BackoffInterval(2))
	// Capped at the maximum interval.
	assert.Equal(t, 3*time.Second, p.BackoffInterval(3))
	assert.Equal(t, 3*time.Second, p.BackoffInterval(10))
}

func TestRetryPolicyDefaults(t *testing.T) {
	p := fetch.NewRetryPolicy(config.RetryConfig{})
	assert.Equal(t, 1, p.MaxAttempts())
	assert.Equal(t, time.Second, p.BackoffInterval(1))
}

func TestFetchDownloadsAndCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("payload-data"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "bts", "archive.zip")
	d := fetch.NewDownloader(fetchCfg())

	got, err := d.Fetch(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, got)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload-data", string(data))

	// A second fetch hits the fresh cache, not the server.
	_, err = d.Fetch(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("payload-data"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	d := fetch.NewDownloader(fetchCfg())

	_, err := d.Fetch(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	d := fetch.NewDownloader(fetchCfg())

	_, err := d.Fetch(context.Background(), srv.URL, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// No partial file left behind.
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestIsFreshRejectsTinyFiles(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(dest, []byte("x"), 0o644))

	d := fetch.NewDownloader(fetchCfg())
	// One byte is below the sanity minimum; the cache entry is not trusted.
	assert.False(t, d.IsFresh(dest))

	require.NoError(t, os.WriteFile(dest, []byte("large enough"), 0o644))
	assert.True(t, d.IsFresh(dest))
}

func TestIsFreshRejectsStaleFiles(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(dest, []byte("large enough"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(dest, old, old))

	d := fetch.NewDownloader(fetchCfg())
	assert.False(t, d.IsFresh(dest))
}
