package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intel-server/internal/planet"
)

func TestComputeDeltaNoBaseline(t *testing.T) {
	now := time.Now().UTC()
	current := scoutReport("sr-1", now, map[int]int64{204: 12})

	delta := ComputeDelta(&current, nil)

	assert.Empty(t, delta.Resources)
	assert.Empty(t, delta.Ships)
	assert.Empty(t, delta.Techs)
	assert.False(t, delta.HasChanges())
}

func TestComputeDeltaSignedPerKey(t *testing.T) {
	now := time.Now().UTC()

	older := scoutReport("sr-old", now.Add(-time.Hour), map[int]int64{204: 5, 213: 3})
	older.Techs = []TechLevel{{TechType: 109, Level: 10}}
	older.Resources = &Resources{Metal: 1000, Crystal: 500, Deuterium: 200}

	newer := scoutReport("sr-new", now, map[int]int64{204: 12, 205: 4})
	newer.Techs = []TechLevel{{TechType: 109, Level: 11}, {TechType: 110, Level: 2}}
	newer.Resources = &Resources{Metal: 800, Crystal: 900, Deuterium: 200}

	delta := ComputeDelta(&newer, &older)

	// Present both sides: new minus old. One side only: signed against zero.
	assert.Equal(t, int64(7), delta.Ships[204])
	assert.Equal(t, int64(4), delta.Ships[205])
	assert.Equal(t, int64(-3), delta.Ships[213])

	assert.Equal(t, int64(1), delta.Techs[109])
	assert.Equal(t, int64(2), delta.Techs[110])

	assert.Equal(t, int64(-200), delta.Resources["metal"])
	assert.Equal(t, int64(400), delta.Resources["crystal"])
	assert.Equal(t, int64(0), delta.Resources["deuterium"])

	assert.True(t, delta.HasChanges())
}

func TestComputeDeltaResourcesOneSided(t *testing.T) {
	now := time.Now().UTC()

	older := scoutReport("sr-old", now.Add(-time.Hour), nil)
	older.Resources = &Resources{Metal: 300}
	newer := scoutReport("sr-new", now, nil)

	delta := ComputeDelta(&newer, &older)
	assert.Equal(t, int64(-300), delta.Resources["metal"])
}

func TestPreviousReportBaselineSelection(t *testing.T) {
	now := time.Now().UTC()
	coords := planet.Coords{Galaxy: 1, System: 222, Position: 8}
	otherCoords := planet.Coords{Galaxy: 1, System: 222, Position: 9}

	current := scoutReport("sr-current", now, map[int]int64{204: 10})
	current.Coords = &coords

	older := scoutReport("sr-older", now.Add(-3*time.Hour), map[int]int64{204: 5})
	older.Coords = &coords

	oldest := scoutReport("sr-oldest", now.Add(-6*time.Hour), map[int]int64{204: 2})
	oldest.Coords = &coords

	elsewhere := scoutReport("sr-elsewhere", now.Add(-time.Hour), map[int]int64{204: 99})
	elsewhere.Coords = &otherCoords

	fromMoon := scoutReport("sr-moon", now.Add(-time.Hour), map[int]int64{204: 99})
	fromMoon.Coords = &coords
	fromMoon.FromMoon = true

	simulated := simulatedReport("sim-1", now.Add(-time.Hour), map[int]int64{204: 99})
	simulated.Coords = &coords

	later := scoutReport("sr-later", now.Add(time.Hour), map[int]int64{204: 99})
	later.Coords = &coords

	reports := []Report{current, older, oldest, elsewhere, fromMoon, simulated, later}

	previous := PreviousReport(reports, &current)
	require.NotNil(t, previous)
	assert.Equal(t, "sr-older", previous.Token)
}

func TestPreviousReportNilCases(t *testing.T) {
	now := time.Now().UTC()
	coords := planet.Coords{Galaxy: 1, System: 1, Position: 1}

	noCoords := scoutReport("sr-nowhere", now, nil)
	assert.Nil(t, PreviousReport(nil, &noCoords))

	sim := simulatedReport("sim-1", now, nil)
	sim.Coords = &coords
	assert.Nil(t, PreviousReport(nil, &sim))

	lone := scoutReport("sr-lone", now, nil)
	lone.Coords = &coords
	assert.Nil(t, PreviousReport([]Report{lone}, &lone))
}
