package crawler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeenSetTryClaim(t *testing.T) {
	t.Parallel()

	s := NewSeenSet()
	require.True(t, s.TryClaim("http://example.com/a"))
	require.False(t, s.TryClaim("http://example.com/a"))
	require.Equal(t, 1, s.Len())
}

func TestSeenSetClaimsNormalizedIdentity(t *testing.T) {
	t.Parallel()

	s := NewSeenSet()
	require.True(t, s.TryClaim("http://example.com/a"))
	// Fragment and trailing slash variants are the same entity.
	require.False(t, s.TryClaim("http://example.com/a#section"))
	require.False(t, s.TryClaim("http://example.com/a/"))
	require.False(t, s.TryClaim("HTTP://EXAMPLE.COM/a"))
	require.Equal(t, 1, s.Len())
}

func TestSeenSetRejectsUnparsable(t *testing.T) {
	t.Parallel()

	s := NewSeenSet()
	require.False(t, s.TryClaim("http://exa mple.com/%zz"))
	require.Equal(t, 0, s.Len())
}

func TestSeenSetConcurrentClaimsSingleWinner(t *testing.T) {
	t.Parallel()

	const goroutines = 64
	s := NewSeenSet()

	var wins atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.TryClaim("http://example.com/contested") {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int64(1), wins.Load())
}

func TestSeenSetConcurrentDistinctURLs(t *testing.T) {
	t.Parallel()

	const urls = 200
	s := NewSeenSet()

	var wg sync.WaitGroup
	for i := 0; i < urls; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			require.True(t, s.TryClaim(fmt.Sprintf("http://example.com/page-%d", n)))
		}(i)
	}
	wg.Wait()

	require.Equal(t, urls, s.Len())
}
