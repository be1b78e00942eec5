package report

import (
	"time"

	"intel-server/internal/planet"
)

// SourceKind classifies where a report came from.
type SourceKind string

const (
	// SourceScout is the third-party scouting report feed.
	SourceScout SourceKind = "scout"
	// SourceSimulated is a self-submitted battle-simulator export.
	SourceSimulated SourceKind = "simulated"
)

// peacefulShips are the ship types excluded from military strength and
// dropped before a report is stored: small cargo, large cargo, colony ship,
// recycler, espionage probe, solar satellite, crawler.
var peacefulShips = map[int]bool{
	202: true,
	203: true,
	208: true,
	209: true,
	210: true,
	212: true,
	217: true,
}

// ShipCount is one fleet line item of a report. Zero counts are never stored.
type ShipCount struct {
	ShipType int   `json:"ship_type"`
	Count    int64 `json:"count"`
}

// TechLevel is one technology line item of a report.
type TechLevel struct {
	TechType int `json:"tech_type"`
	Level    int `json:"level"`
}

// Resources is the optional resource snapshot of a report.
type Resources struct {
	Metal     int64 `json:"metal"`
	Crystal   int64 `json:"crystal"`
	Deuterium int64 `json:"deuterium"`
}

// Report is one stored piece of fleet/technology intelligence, immutable once
// written. Reports with known coordinates reference the planet at the same
// coordinate of the same player.
type Report struct {
	Token     string         `json:"token"`
	PlayerID  int            `json:"player_id"`
	Source    SourceKind     `json:"source"`
	CreatedAt time.Time      `json:"created_at"`
	Coords    *planet.Coords `json:"coords,omitempty"`
	FromMoon  bool           `json:"from_moon"`
	Ships     []ShipCount    `json:"ships"`
	Techs     []TechLevel    `json:"techs"`
	Resources *Resources     `json:"resources,omitempty"`
}

// MilitaryStrength is the total ship count of the report. Peaceful ship types
// are already filtered out before storage, so the plain sum is the strength.
func (r *Report) MilitaryStrength() int64 {
	var total int64
	for _, ship := range r.Ships {
		total += ship.Count
	}
	return total
}

// ShipCounts returns the ship line items keyed by ship type.
func (r *Report) ShipCounts() map[int]int64 {
	counts := make(map[int]int64, len(r.Ships))
	for _, ship := range r.Ships {
		counts[ship.ShipType] = ship.Count
	}
	return counts
}

// TechLevels returns the technology line items keyed by tech type.
func (r *Report) TechLevels() map[int]int64 {
	levels := make(map[int]int64, len(r.Techs))
	for _, tech := range r.Techs {
		levels[tech.TechType] = int64(tech.Level)
	}
	return levels
}

// FilterMilitary drops peaceful ship types and zero counts from a raw ship map.
func FilterMilitary(ships map[int]int64) map[int]int64 {
	military := make(map[int]int64, len(ships))
	for shipType, count := range ships {
		if peacefulShips[shipType] || count == 0 {
			continue
		}
		military[shipType] = count
	}
	return military
}

// MilitaryStrength sums an already-filtered military ship map.
func MilitaryStrength(ships map[int]int64) int64 {
	var total int64
	for _, count := range ships {
		total += count
	}
	return total
}
