package report

// Delta holds per-category signed differences between two chronological
// reports of the same location. A key present in either report contributes
// new minus old, with an absent key counting as zero. All maps are empty when
// there was no older report to compare against; the presentation layer then
// shows absolute values instead.
type Delta struct {
	Resources map[string]int64 `json:"resources"`
	Ships     map[int]int64    `json:"ships"`
	Techs     map[int]int64    `json:"techs"`
}

// HasChanges reports whether any category carries a non-zero difference.
func (d Delta) HasChanges() bool {
	for _, v := range d.Resources {
		if v != 0 {
			return true
		}
	}
	for _, v := range d.Ships {
		if v != 0 {
			return true
		}
	}
	for _, v := range d.Techs {
		if v != 0 {
			return true
		}
	}
	return false
}

// ComputeDelta diffs newReport against oldReport per category. A nil
// oldReport yields empty mappings in every category; that is the documented
// absolute-values mode, not an error.
func ComputeDelta(newReport *Report, oldReport *Report) Delta {
	delta := Delta{
		Resources: map[string]int64{},
		Ships:     map[int]int64{},
		Techs:     map[int]int64{},
	}
	if oldReport == nil {
		return delta
	}

	delta.Resources = diffResources(newReport.Resources, oldReport.Resources)
	delta.Ships = diffCounts(newReport.ShipCounts(), oldReport.ShipCounts())
	delta.Techs = diffCounts(newReport.TechLevels(), oldReport.TechLevels())
	return delta
}

func diffCounts(newCounts, oldCounts map[int]int64) map[int]int64 {
	diff := make(map[int]int64, len(newCounts)+len(oldCounts))
	for key, newValue := range newCounts {
		diff[key] = newValue - oldCounts[key]
	}
	for key, oldValue := range oldCounts {
		if _, ok := newCounts[key]; !ok {
			diff[key] = -oldValue
		}
	}
	return diff
}

func diffResources(newRes, oldRes *Resources) map[string]int64 {
	newValues := resourceValues(newRes)
	oldValues := resourceValues(oldRes)

	diff := make(map[string]int64, len(newValues)+len(oldValues))
	for key, newValue := range newValues {
		diff[key] = newValue - oldValues[key]
	}
	for key, oldValue := range oldValues {
		if _, ok := newValues[key]; !ok {
			diff[key] = -oldValue
		}
	}
	return diff
}

func resourceValues(res *Resources) map[string]int64 {
	if res == nil {
		return map[string]int64{}
	}
	return map[string]int64{
		"metal":     res.Metal,
		"crystal":   res.Crystal,
		"deuterium": res.Deuterium,
	}
}

// PreviousReport selects the delta baseline for current from an in-memory
// list of the same player's reports: scout-kind only (simulated reports never
// participate), same coordinates, same moon flag, strictly earlier, and the
// most recent such report. Returns nil when no baseline exists.
func PreviousReport(reports []Report, current *Report) *Report {
	if current.Source != SourceScout || current.Coords == nil {
		return nil
	}

	var previous *Report
	for i := range reports {
		r := &reports[i]
		if r.Token == current.Token || r.Source != SourceScout {
			continue
		}
		if r.Coords == nil || *r.Coords != *current.Coords || r.FromMoon != current.FromMoon {
			continue
		}
		if !r.CreatedAt.Before(current.CreatedAt) {
			continue
		}
		if previous == nil || r.CreatedAt.After(previous.CreatedAt) {
			previous = r
		}
	}
	return previous
}
