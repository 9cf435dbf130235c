package commission

import (
	"context"
	"sort"
)

// snapshot is everything the read paths need about one period, loaded once.
type snapshot struct {
	period    Period
	rows      []TallyRow
	markers   map[string]bool
	byGroup   map[string][]TallyRow
	groups    map[string]GroupRef
	baselines map[string]int
}

func loadSnapshot(ctx context.Context, r Reader, period Period) (*snapshot, error) {
	rows, err := r.ListTallies(ctx, TallyFilter{Period: &period})
	if err != nil {
		return nil, err
	}
	markers, err := r.ClosedGroups(ctx, period)
	if err != nil {
		return nil, err
	}
	snap := &snapshot{
		period:    period,
		rows:      rows,
		markers:   markers,
		byGroup:   map[string][]TallyRow{},
		groups:    map[string]GroupRef{},
		baselines: Baselines(rows),
	}
	for _, row := range rows {
		group := ResolveGroup(row.Employee)
		snap.byGroup[group.Key] = append(snap.byGroup[group.Key], row)
		snap.groups[group.Key] = group
	}
	return snap, nil
}

// closed applies the marker first, then the all-rows-final fallback.
func (s *snapshot) closed(groupKey string) bool {
	if s.markers[groupKey] {
		return true
	}
	rows := s.byGroup[groupKey]
	if len(rows) == 0 {
		return false
	}
	for _, row := range rows {
		if row.Status == StatusPending {
			return false
		}
	}
	return true
}

// lines builds the commission line of every active employee in scope,
// sorted by employee name.
func (s *snapshot) lines(groupKey string) []CommissionLine {
	out := make([]CommissionLine, 0, len(s.rows))
	for _, row := range rowsInGroup(s.rows, groupKey) {
		if !row.Employee.Active {
			continue
		}
		group := ResolveGroup(row.Employee)
		baseline := s.baselines[group.Key]
		closed := s.closed(group.Key)
		outcome := Evaluate(row.Tally, baseline, closed)
		out = append(out, CommissionLine{
			TallyID:      row.ID,
			EmployeeID:   row.Employee.ID,
			EmployeeName: row.Employee.Name,
			GroupKey:     group.Key,
			GroupName:    group.Name,
			Shift:        row.Employee.Shift,
			Score:        Aggregate(row.Counts),
			Baseline:     baseline,
			Status:       outcome.Status,
			Bonus:        outcome.Bonus,
			Closed:       closed,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

func (s *snapshot) overview(groupKey string) []GroupOverview {
	out := make([]GroupOverview, 0, len(s.groups))
	for key, group := range s.groups {
		if groupKey != "" && key != groupKey {
			continue
		}
		out = append(out, GroupOverview{
			Key:       key,
			Name:      group.Name,
			Employees: len(s.byGroup[key]),
			Baseline:  s.baselines[key],
			Closed:    s.closed(key),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
