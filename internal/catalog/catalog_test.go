package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNamesFetchesOnce(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (map[int]string, error) {
		calls++
		return map[int]string{204: "Light Fighter", 109: "Weapons Technology"}, nil
	}

	c := New(fetch, nil, testLogger())

	for i := 0; i < 3; i++ {
		names, err := c.Names(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Light Fighter", names[204])
	}

	assert.Equal(t, 1, calls, "table is fetched lazily and only once")
}

func TestNameFallbackForUnknownID(t *testing.T) {
	fetch := func(ctx context.Context) (map[int]string, error) {
		return map[int]string{204: "Light Fighter"}, nil
	}

	c := New(fetch, nil, testLogger())

	name, err := c.Name(context.Background(), 204)
	require.NoError(t, err)
	assert.Equal(t, "Light Fighter", name)

	name, err = c.Name(context.Background(), 999)
	require.NoError(t, err)
	assert.Equal(t, "Unknown (999)", name)
}

func TestNamesFetchErrorPropagates(t *testing.T) {
	fetch := func(ctx context.Context) (map[int]string, error) {
		return nil, fmt.Errorf("feed unreachable")
	}

	c := New(fetch, nil, testLogger())

	_, err := c.Names(context.Background())
	assert.Error(t, err)
}

func TestNamesRetriesAfterFetchError(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (map[int]string, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("feed unreachable")
		}
		return map[int]string{204: "Light Fighter"}, nil
	}

	c := New(fetch, nil, testLogger())

	_, err := c.Names(context.Background())
	require.Error(t, err)

	names, err := c.Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Light Fighter", names[204])
}
