package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilterMilitary(t *testing.T) {
	raw := map[int]int64{
		202: 50, // small cargo
		203: 20, // large cargo
		204: 10,
		205: 0,
		210: 99, // espionage probe
		213: 3,
	}

	military := FilterMilitary(raw)

	assert.Equal(t, map[int]int64{204: 10, 213: 3}, military)
}

func TestFilterMilitaryAllPeaceful(t *testing.T) {
	raw := map[int]int64{202: 100, 208: 1, 209: 5, 212: 40, 217: 300}

	assert.Empty(t, FilterMilitary(raw))
}

func TestMilitaryStrengthSums(t *testing.T) {
	assert.Equal(t, int64(0), MilitaryStrength(nil))
	assert.Equal(t, int64(13), MilitaryStrength(map[int]int64{204: 10, 213: 3}))

	r := scoutReport("sr-1", time.Now().UTC(), map[int]int64{204: 10, 205: 4, 206: 1})
	assert.Equal(t, int64(15), r.MilitaryStrength())
}

func TestRegressionScenarioPeacefulShipsDoNotCount(t *testing.T) {
	// A report stuffed with cargo ships is still weaker than a small combat
	// fleet once peaceful types are filtered.
	incoming := FilterMilitary(map[int]int64{202: 10000, 203: 5000, 204: 2})
	stored := scoutReport("sr-best", time.Now().UTC(), map[int]int64{204: 40})

	assert.Less(t, MilitaryStrength(incoming), stored.MilitaryStrength())
}
