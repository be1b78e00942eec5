package highscore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldSnapshot(t *testing.T) {
	base := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		feedTime time.Time
		latest   *time.Time
		want     bool
	}{
		{name: "first snapshot ever", feedTime: base, latest: nil, want: true},
		{name: "same publication", feedTime: base, latest: &base, want: false},
		{name: "older publication", feedTime: base.Add(-time.Hour), latest: &base, want: false},
		{name: "republish inside slack", feedTime: base.Add(3 * time.Minute), latest: &base, want: false},
		{name: "exactly at slack", feedTime: base.Add(snapshotSlack), latest: &base, want: true},
		{name: "clearly newer", feedTime: base.Add(time.Hour), latest: &base, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldSnapshot(tt.feedTime, tt.latest))
		})
	}
}
