package commission

import "strings"

type GroupRef struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// ResolveGroup places an employee in its sector, else a pseudo-group named
// after the job title, else Unclassified.
func ResolveGroup(e Employee) GroupRef {
	if sectorID := strings.TrimSpace(e.SectorID); sectorID != "" {
		name := strings.TrimSpace(e.SectorName)
		if name == "" {
			name = sectorID
		}
		return GroupRef{Key: sectorID, Name: name}
	}
	if title := strings.TrimSpace(e.JobTitle); title != "" {
		return GroupRef{Key: titleGroupPrefix + title, Name: title}
	}
	return GroupRef{Key: UnclassifiedGroupKey, Name: UnclassifiedGroupName}
}

// Baseline is the floor average of volumes. Empty input yields 0.
func Baseline(volumes []int) int {
	if len(volumes) == 0 {
		return 0
	}
	total := 0
	for _, v := range volumes {
		total += v
	}
	return total / len(volumes)
}

// Baselines computes the baseline of every group present in rows. Rows are
// expected to belong to a single period; inactive employees count.
func Baselines(rows []TallyRow) map[string]int {
	volumes := map[string][]int{}
	for _, row := range rows {
		key := ResolveGroup(row.Employee).Key
		volumes[key] = append(volumes[key], Aggregate(row.Counts).Volume)
	}
	out := make(map[string]int, len(volumes))
	for key, vs := range volumes {
		out[key] = Baseline(vs)
	}
	return out
}
