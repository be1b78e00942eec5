package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"intel-server/internal/shared/errors"
)

func TestAdmitReportDuplicateToken(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	existing := scoutReport("sr-dup", now.Add(-time.Hour), map[int]int64{204: 10})

	in := IngestInput{Token: "sr-dup", PlayerID: 1, Ships: map[int]int64{204: 500}}
	err := admitReport(in, FilterMilitary(in.Ships), &existing, []Report{existing}, now)
	assert.Equal(t, errors.ErrorTypeConflict, errors.GetType(err))

	// Forcing a regression does not override the duplicate rejection.
	in.AllowRegression = true
	err = admitReport(in, FilterMilitary(in.Ships), &existing, []Report{existing}, now)
	assert.Equal(t, errors.ErrorTypeConflict, errors.GetType(err))
}

func TestAdmitReportWeakerRejected(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := []Report{
		scoutReport("sr-best", now.Add(-24*time.Hour), map[int]int64{204: 100}),
	}

	in := IngestInput{Token: "sr-new", PlayerID: 1, Ships: map[int]int64{204: 40}}
	err := admitReport(in, FilterMilitary(in.Ships), nil, stored, now)
	assert.Equal(t, errors.ErrorTypeRegression, errors.GetType(err))

	in.AllowRegression = true
	assert.NoError(t, admitReport(in, FilterMilitary(in.Ships), nil, stored, now))
}

func TestAdmitReportEqualOrStrongerAdmitted(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := []Report{
		scoutReport("sr-best", now.Add(-24*time.Hour), map[int]int64{204: 100}),
	}

	equal := IngestInput{Token: "sr-equal", PlayerID: 1, Ships: map[int]int64{204: 100}}
	assert.NoError(t, admitReport(equal, FilterMilitary(equal.Ships), nil, stored, now))

	stronger := IngestInput{Token: "sr-strong", PlayerID: 1, Ships: map[int]int64{204: 150}}
	assert.NoError(t, admitReport(stronger, FilterMilitary(stronger.Ships), nil, stored, now))
}

func TestAdmitReportPeacefulShipsDoNotCount(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := []Report{
		scoutReport("sr-best", now.Add(-24*time.Hour), map[int]int64{204: 100}),
	}

	// A fleet of cargos alone is weaker intelligence than 100 fighters.
	in := IngestInput{Token: "sr-cargo", PlayerID: 1, Ships: map[int]int64{202: 9999}}
	err := admitReport(in, FilterMilitary(in.Ships), nil, stored, now)
	assert.Equal(t, errors.ErrorTypeRegression, errors.GetType(err))
}

func TestAdmitReportFirstForPlayer(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	in := IngestInput{Token: "sr-first", PlayerID: 1, Ships: map[int]int64{204: 1}}
	assert.NoError(t, admitReport(in, FilterMilitary(in.Ships), nil, nil, now))
}
