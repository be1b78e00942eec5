package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoutReport(token string, createdAt time.Time, ships map[int]int64) Report {
	r := Report{Token: token, PlayerID: 1, Source: SourceScout, CreatedAt: createdAt}
	for shipType, count := range ships {
		r.Ships = append(r.Ships, ShipCount{ShipType: shipType, Count: count})
	}
	return r
}

func simulatedReport(token string, createdAt time.Time, ships map[int]int64) Report {
	r := scoutReport(token, createdAt, ships)
	r.Source = SourceSimulated
	return r
}

func TestBestEmpty(t *testing.T) {
	now := time.Now().UTC()

	assert.Nil(t, Best(nil, now))
	assert.Nil(t, Best([]Report{}, now))
}

func TestBestFreshSimulatedWinsRegardlessOfStrength(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	reports := []Report{
		scoutReport("sr-1", now.Add(-time.Hour), map[int]int64{204: 500}),
		simulatedReport("sim-1", now.Add(-2*24*time.Hour), map[int]int64{204: 3}),
	}

	best := Best(reports, now)
	require.NotNil(t, best)
	assert.Equal(t, "sim-1", best.Token)
}

func TestBestNewestFreshSimulatedWins(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	reports := []Report{
		simulatedReport("sim-old", now.Add(-5*24*time.Hour), map[int]int64{204: 100}),
		simulatedReport("sim-new", now.Add(-24*time.Hour), map[int]int64{204: 1}),
	}

	best := Best(reports, now)
	require.NotNil(t, best)
	assert.Equal(t, "sim-new", best.Token)
}

func TestBestExpiredSimulatedFallsBackToScout(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	reports := []Report{
		simulatedReport("sim-stale", now.Add(-8*24*time.Hour), map[int]int64{204: 1000}),
		scoutReport("sr-1", now.Add(-6*24*time.Hour), map[int]int64{204: 10}),
	}

	best := Best(reports, now)
	require.NotNil(t, best)
	assert.Equal(t, "sr-1", best.Token)
}

func TestBestSimulatedWindowBoundary(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Exactly at the window edge the simulated report still counts; one
	// instant past it no longer does.
	reports := []Report{
		simulatedReport("sim-edge", now.Add(-SimulatedFreshWindow), map[int]int64{204: 5}),
		scoutReport("sr-1", now.Add(-time.Hour), map[int]int64{204: 1}),
	}

	best := Best(reports, now)
	require.NotNil(t, best)
	assert.Equal(t, "sim-edge", best.Token)

	reports[0].CreatedAt = now.Add(-SimulatedFreshWindow - time.Second)
	best = Best(reports, now)
	require.NotNil(t, best)
	assert.Equal(t, "sr-1", best.Token)
}

func TestBestScoutByStrengthThenRecency(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		reports []Report
		want    string
	}{
		{
			name: "stronger scout wins even when older",
			reports: []Report{
				scoutReport("sr-weak", now.Add(-time.Hour), map[int]int64{204: 10}),
				scoutReport("sr-strong", now.Add(-48*time.Hour), map[int]int64{204: 50}),
			},
			want: "sr-strong",
		},
		{
			name: "equal strength breaks by recency",
			reports: []Report{
				scoutReport("sr-old", now.Add(-48*time.Hour), map[int]int64{204: 20, 205: 5}),
				scoutReport("sr-new", now.Add(-time.Hour), map[int]int64{204: 25}),
			},
			want: "sr-new",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best := Best(tt.reports, now)
			require.NotNil(t, best)
			assert.Equal(t, tt.want, best.Token)
		})
	}
}

func TestBestIsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	reports := []Report{
		scoutReport("sr-a", now.Add(-3*time.Hour), map[int]int64{204: 10}),
		scoutReport("sr-b", now.Add(-2*time.Hour), map[int]int64{204: 10}),
		scoutReport("sr-c", now.Add(-1*time.Hour), map[int]int64{204: 7}),
	}

	first := Best(reports, now)
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		again := Best(reports, now)
		require.NotNil(t, again)
		assert.Equal(t, first.Token, again.Token)
	}
}
