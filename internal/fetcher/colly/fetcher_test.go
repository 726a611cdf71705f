package collyfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFetcher() *Fetcher {
	return New(Config{UserAgent: "crawlkit-test/1.0", Timeout: 5 * time.Second}, zap.NewNop())
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "crawlkit-test/1.0", r.UserAgent())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer server.Close()

	f := newTestFetcher()
	resp, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "<title>ok</title>")
}

func TestFetchReturnsErrorStatusAsResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := newTestFetcher()
	resp, err := f.Fetch(context.Background(), server.URL+"/missing")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFetchNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	url := server.URL
	server.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), url)
	require.Error(t, err)
}

func TestFetchHonorsContextDeadline(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newTestFetcher()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := f.Fetch(ctx, server.URL)
	require.Error(t, err)
	require.Less(t, time.Since(started), time.Second)
}

func TestFetchCancelMidResponse(t *testing.T) {
	t.Parallel()

	responded := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("late"))
		close(responded)
	}))
	defer server.Close()

	f := newTestFetcher()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	resp, err := f.Fetch(ctx, server.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, resp.StatusCode)

	// Let the abandoned collector run its callbacks to completion; the
	// race detector verifies they no longer touch the caller's result.
	select {
	case <-responded:
	case <-time.After(2 * time.Second):
		t.Fatal("server handler never completed")
	}
	time.Sleep(50 * time.Millisecond)
}

func TestFetchExpiredContext(t *testing.T) {
	t.Parallel()

	f := newTestFetcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "http://example.com")
	require.Error(t, err)
}

func TestFetchConcurrentUse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := newTestFetcher()
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := f.Fetch(context.Background(), server.URL)
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
