package planet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeObservationsPrecedence(t *testing.T) {
	observedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	primaryOnly := Coords{Galaxy: 1, System: 1, Position: 4}
	secondaryOnly := Coords{Galaxy: 1, System: 1, Position: 5}
	both := Coords{Galaxy: 1, System: 1, Position: 6}

	primary := []PrimaryObservation{
		{Coords: primaryOnly, HasMoon: true, Name: "Homeworld"},
		{Coords: both, HasMoon: false, Name: "Colony"},
	}
	secondary := []SecondaryObservation{
		{Coords: secondaryOnly, HasMoon: true, ObservedAt: &observedAt},
		{Coords: both, HasMoon: true, ObservedAt: &observedAt},
	}

	merged := mergeObservations(primary, secondary)
	require.Len(t, merged, 3)

	entry := merged[primaryOnly]
	assert.True(t, entry.hasMoon)
	assert.Equal(t, "Homeworld", entry.name)
	assert.Nil(t, entry.manualEditAt)

	entry = merged[secondaryOnly]
	assert.True(t, entry.hasMoon)
	assert.Empty(t, entry.name)
	require.NotNil(t, entry.manualEditAt)
	assert.Equal(t, observedAt, *entry.manualEditAt)

	// Both feeds: moon flags OR'd, primary's name, secondary's timestamp.
	entry = merged[both]
	assert.True(t, entry.hasMoon)
	assert.Equal(t, "Colony", entry.name)
	require.NotNil(t, entry.manualEditAt)
}

func TestMergeObservationsEmptyFeeds(t *testing.T) {
	assert.Empty(t, mergeObservations(nil, nil))
}

func TestApplyToStoredMoonMonotonic(t *testing.T) {
	now := time.Now().UTC()
	stored := &Planet{HasMoon: true}

	applyToStored(stored, mergedObservation{hasMoon: false}, now)

	assert.True(t, stored.HasMoon, "moon flag must never turn off")
}

func TestApplyToStoredNameOnlyReplacedByNonEmpty(t *testing.T) {
	now := time.Now().UTC()
	stored := &Planet{Name: "Homeworld"}

	applyToStored(stored, mergedObservation{name: ""}, now)
	assert.Equal(t, "Homeworld", stored.Name)

	applyToStored(stored, mergedObservation{name: "Renamed"}, now)
	assert.Equal(t, "Renamed", stored.Name)
}

func TestApplyToStoredManualEditForwardOnly(t *testing.T) {
	now := time.Now().UTC()
	current := now.Add(-time.Hour)
	older := now.Add(-2 * time.Hour)
	newer := now.Add(-time.Minute)

	stored := &Planet{ManualEditAt: &current}

	applyToStored(stored, mergedObservation{manualEditAt: &older}, now)
	assert.Equal(t, current, *stored.ManualEditAt, "timestamp must not move backward")

	applyToStored(stored, mergedObservation{manualEditAt: &newer}, now)
	assert.Equal(t, newer, *stored.ManualEditAt)
}

func TestApplyToStoredDestroyedClearedUnlessProtected(t *testing.T) {
	now := time.Now().UTC()

	unprotected := &Planet{Destroyed: true}
	applyToStored(unprotected, mergedObservation{}, now)
	assert.False(t, unprotected.Destroyed, "re-observed planet comes back")

	recentEdit := now.Add(-time.Hour)
	protected := &Planet{Destroyed: true, ManualEditAt: &recentEdit}
	applyToStored(protected, mergedObservation{}, now)
	assert.True(t, protected.Destroyed, "protected planet keeps its asserted state")
}

func TestMarkMissingDestroysOnlyAfterTrustWindow(t *testing.T) {
	now := time.Now().UTC()
	recentEdit := now.Add(-time.Hour)
	lapsedEdit := now.Add(-EditTrustWindow - time.Hour)

	seen := Coords{Galaxy: 1, System: 1, Position: 4}
	protected := Coords{Galaxy: 1, System: 1, Position: 5}
	lapsed := Coords{Galaxy: 1, System: 1, Position: 6}

	stored := []Planet{
		{Coords: seen},
		{Coords: protected, ManualEditAt: &recentEdit},
		{Coords: lapsed, ManualEditAt: &lapsedEdit},
	}
	observed := map[Coords]mergedObservation{seen: {}}

	changed := markMissing(stored, observed, now)

	require.Len(t, changed, 1)
	assert.Equal(t, lapsed, changed[0].Coords)
	assert.True(t, changed[0].Destroyed)

	assert.False(t, stored[0].Destroyed, "observed planet stays alive")
	assert.False(t, stored[1].Destroyed, "manual edit protects the planet until the window lapses")
}

func TestMarkMissingSkipsAlreadyDestroyed(t *testing.T) {
	now := time.Now().UTC()
	stored := []Planet{
		{Coords: Coords{Galaxy: 3, System: 40, Position: 7}, Destroyed: true},
	}

	assert.Empty(t, markMissing(stored, nil, now))
}

func TestEditProtectedWindow(t *testing.T) {
	now := time.Now().UTC()

	assert.False(t, (&Planet{}).EditProtected(now))

	inside := now.Add(-6 * 24 * time.Hour)
	assert.True(t, (&Planet{ManualEditAt: &inside}).EditProtected(now))

	expired := now.Add(-EditTrustWindow)
	assert.False(t, (&Planet{ManualEditAt: &expired}).EditProtected(now))
}

func TestParseCoords(t *testing.T) {
	tests := []struct {
		input   string
		want    Coords
		wantErr bool
	}{
		{input: "1:222:8", want: Coords{Galaxy: 1, System: 222, Position: 8}},
		{input: " 2 : 30 : 15 ", want: Coords{Galaxy: 2, System: 30, Position: 15}},
		{input: "1:222", wantErr: true},
		{input: "1:222:8:3", wantErr: true},
		{input: "a:b:c", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCoords(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Coords {
	t.Helper()
	coords, err := ParseCoords(s)
	require.NoError(t, err)
	return coords
}
