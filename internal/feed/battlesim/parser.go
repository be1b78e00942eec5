// Package battlesim parses manually exported battle-simulator keys: the
// pipe-delimited unit list players paste when no scouting report exists.
package battlesim

import (
	"strconv"
	"strings"

	"intel-server/internal/planet"
	"intel-server/internal/shared/errors"
)

// Numeric ids below this are technologies; everything at or above is a ship.
const shipIDThreshold = 200

// ParsedKey is the structured content of one simulator key.
type ParsedKey struct {
	Ships  map[int]int64
	Techs  map[int]int64
	Coords *planet.Coords
}

// Parse decodes a simulator key of the form "202;5|109;12|coords;1:2:3".
// Numeric ids split into ships and technologies by the id threshold; the
// reserved "coords" entry carries planet coordinates; other non-numeric
// entries (simulator UI settings) are skipped.
func Parse(key string) (*ParsedKey, error) {
	parsed := &ParsedKey{
		Ships: make(map[int]int64),
		Techs: make(map[int]int64),
	}

	for _, item := range strings.Split(key, "|") {
		if item == "" {
			continue
		}

		parts := strings.SplitN(item, ";", 2)
		if len(parts) != 2 {
			return nil, errors.Validationf("malformed simulator key entry %q", item)
		}
		name, value := parts[0], parts[1]

		if name == "coords" {
			coords, err := planet.ParseCoords(value)
			if err != nil {
				return nil, err
			}
			parsed.Coords = &coords
			continue
		}

		id, err := strconv.Atoi(name)
		if err != nil {
			continue
		}

		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.Validationf("simulator key entry %q has non-numeric count", item)
		}

		if id < shipIDThreshold {
			parsed.Techs[id] = count
		} else {
			parsed.Ships[id] = count
		}
	}

	return parsed, nil
}
