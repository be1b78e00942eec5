package planet

import "time"

// PrimaryObservation is one planet sighting from the authoritative weekly
// bulk scan feed.
type PrimaryObservation struct {
	Coords  Coords
	HasMoon bool
	Name    string
}

// SecondaryObservation is one planet sighting from the supplementary
// intelligence feed. ObservedAt, when present, counts as a fresh manual
// assertion for the planet.
type SecondaryObservation struct {
	Coords     Coords
	HasMoon    bool
	ObservedAt *time.Time
}

// mergedObservation is the per-coordinate result of combining both feeds.
type mergedObservation struct {
	hasMoon      bool
	name         string
	manualEditAt *time.Time
}

// mergeObservations folds both feeds into one entry per coordinate.
// Precedence rules, in order:
//   - primary only: primary's moon flag and name, no manual-edit timestamp
//   - secondary only: secondary's moon flag, no name, secondary's timestamp
//   - both: moon flags OR'd, primary's name, secondary's timestamp
//
// A new feed source gets a new branch here, not a new type.
func mergeObservations(primary []PrimaryObservation, secondary []SecondaryObservation) map[Coords]mergedObservation {
	primaryByCoords := make(map[Coords]PrimaryObservation, len(primary))
	for _, obs := range primary {
		primaryByCoords[obs.Coords] = obs
	}
	secondaryByCoords := make(map[Coords]SecondaryObservation, len(secondary))
	for _, obs := range secondary {
		secondaryByCoords[obs.Coords] = obs
	}

	merged := make(map[Coords]mergedObservation, len(primaryByCoords)+len(secondaryByCoords))

	for coords, obs := range primaryByCoords {
		entry := mergedObservation{
			hasMoon: obs.HasMoon,
			name:    obs.Name,
		}
		if sec, ok := secondaryByCoords[coords]; ok {
			entry.hasMoon = entry.hasMoon || sec.HasMoon
			entry.manualEditAt = sec.ObservedAt
		}
		merged[coords] = entry
	}

	for coords, obs := range secondaryByCoords {
		if _, ok := primaryByCoords[coords]; ok {
			continue
		}
		merged[coords] = mergedObservation{
			hasMoon:      obs.HasMoon,
			manualEditAt: obs.ObservedAt,
		}
	}

	return merged
}

// applyToStored merges an observation into an already stored planet.
// The moon flag only ever turns on, the name is only replaced by a non-empty
// one, the manual-edit timestamp only moves forward, and destroyed is cleared
// unless the stored planet still has an active manual-edit protection.
func applyToStored(stored *Planet, obs mergedObservation, now time.Time) {
	stored.HasMoon = stored.HasMoon || obs.hasMoon
	if obs.name != "" {
		stored.Name = obs.name
	}
	if obs.manualEditAt != nil &&
		(stored.ManualEditAt == nil || obs.manualEditAt.After(*stored.ManualEditAt)) {
		stored.ManualEditAt = obs.manualEditAt
	}
	if !stored.EditProtected(now) {
		stored.Destroyed = false
	}
}

// markMissing flags stored planets that no feed observed as destroyed, in
// place, and returns the ones that changed. Planets already marked stay as
// they are, and an active manual-edit protection keeps a planet alive until
// its trust window lapses.
func markMissing(stored []Planet, observed map[Coords]mergedObservation, now time.Time) []*Planet {
	var changed []*Planet
	for i := range stored {
		planet := &stored[i]
		if _, seen := observed[planet.Coords]; seen {
			continue
		}
		if planet.Destroyed || planet.EditProtected(now) {
			continue
		}
		planet.Destroyed = true
		changed = append(changed, planet)
	}
	return changed
}
