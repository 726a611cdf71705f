package uuid

import (
	"sort"
	"testing"
	"time"

	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewRunID(t *testing.T) {
	t.Parallel()

	gen := NewGenerator()
	id, err := gen.NewRunID()
	require.NoError(t, err)

	parsed, err := guuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, guuid.Version(7), parsed.Version())
}

func TestNewRunIDOrdering(t *testing.T) {
	t.Parallel()

	gen := NewGenerator()
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		id, err := gen.NewRunID()
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond)
	}

	require.True(t, sort.StringsAreSorted(ids), "UUIDv7 strings should sort by creation time")
}
