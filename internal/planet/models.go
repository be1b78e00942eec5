package planet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"intel-server/internal/shared/errors"
)

// EditTrustWindow is how long a manual assertion about a planet outranks the
// weekly bulk scan. While a planet's manual_edit_at is inside this window, a
// bulk pass that fails to observe the planet cannot mark it destroyed.
const EditTrustWindow = 7 * 24 * time.Hour

// Coords identifies a planet location as a (galaxy, system, position) triple,
// unique per player.
type Coords struct {
	Galaxy   int `json:"galaxy"`
	System   int `json:"system"`
	Position int `json:"position"`
}

func (c Coords) String() string {
	return fmt.Sprintf("%d:%d:%d", c.Galaxy, c.System, c.Position)
}

// ParseCoords parses a "galaxy:system:position" string.
func ParseCoords(s string) (Coords, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Coords{}, errors.Validationf("malformed coordinates %q", s)
	}

	values := make([]int, 3)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Coords{}, errors.Validationf("malformed coordinates %q", s)
		}
		values[i] = v
	}

	return Coords{Galaxy: values[0], System: values[1], Position: values[2]}, nil
}

// Planet is one observed planet of a player. Planets are created on first
// observation by any feed, marked destroyed when the bulk scan stops seeing
// them, and never hard-deleted.
type Planet struct {
	PlayerID int `json:"player_id"`
	Coords
	Name         string     `json:"name,omitempty"`
	HasMoon      bool       `json:"has_moon"`
	Destroyed    bool       `json:"destroyed"`
	ManualEditAt *time.Time `json:"manual_edit_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// EditProtected reports whether the planet's manual assertion is still inside
// the trust window at the given instant. Recomputed on read, no expiry job.
func (p *Planet) EditProtected(now time.Time) bool {
	return p.ManualEditAt != nil && now.Sub(*p.ManualEditAt) < EditTrustWindow
}
