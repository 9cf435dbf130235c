package commission

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps everything in process. Used for tests and local runs.
type MemoryStore struct {
	mu        sync.RWMutex
	sectors   map[string]Sector
	employees map[string]Employee
	tallies   map[string]Tally
	// markers maps group key to its closed-periods set.
	markers map[string]PeriodSet
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sectors:   map[string]Sector{},
		employees: map[string]Employee{},
		tallies:   map[string]Tally{},
		markers:   map[string]PeriodSet{},
		now:       time.Now,
	}
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) SaveSector(_ context.Context, sector Sector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sectors[sector.ID] = sector
	return nil
}

// SaveEmployee stores the employee; a known sector id fills in the sector name.
func (m *MemoryStore) SaveEmployee(_ context.Context, employee Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sector, ok := m.sectors[employee.SectorID]; ok && employee.SectorName == "" {
		employee.SectorName = sector.Name
	}
	m.employees[employee.ID] = employee
	return nil
}

func (m *MemoryStore) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().GetEmployee(ctx, employeeID)
}

func (m *MemoryStore) ListTallies(ctx context.Context, filter TallyFilter) ([]TallyRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().ListTallies(ctx, filter)
}

func (m *MemoryStore) ClosedGroups(ctx context.Context, period Period) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().ClosedGroups(ctx, period)
}

// WithinTx holds the write lock for the whole call, so LockPeriod has
// nothing left to do. On error the state is restored from a snapshot.
func (m *MemoryStore) WithinTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tallies := make(map[string]Tally, len(m.tallies))
	for id, t := range m.tallies {
		tallies[id] = t
	}
	markers := make(map[string]PeriodSet, len(m.markers))
	for key, set := range m.markers {
		markers[key] = NewPeriodSet(set.Keys()...)
	}

	if err := fn(m.view()); err != nil {
		m.tallies = tallies
		m.markers = markers
		return err
	}
	return nil
}

func (m *MemoryStore) view() *memoryView {
	return &memoryView{m: m}
}

// memoryView runs against MemoryStore state with the lock already held.
type memoryView struct {
	m *MemoryStore
}

func (v *memoryView) GetEmployee(_ context.Context, employeeID string) (Employee, error) {
	e, ok := v.m.employees[employeeID]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}

func (v *memoryView) ListTallies(_ context.Context, filter TallyFilter) ([]TallyRow, error) {
	rows := make([]TallyRow, 0)
	for _, t := range v.m.tallies {
		if filter.Period != nil && (t.Month != filter.Period.Month || t.Year != filter.Period.Year) {
			continue
		}
		if filter.EmployeeID != "" && t.EmployeeID != filter.EmployeeID {
			continue
		}
		rows = append(rows, TallyRow{Tally: t, Employee: v.m.employees[t.EmployeeID]})
	}
	sortRows(rows)
	return rows, nil
}

func (v *memoryView) ClosedGroups(_ context.Context, period Period) (map[string]bool, error) {
	out := map[string]bool{}
	for key, set := range v.m.markers {
		if set.Contains(period.Key()) {
			out[key] = true
		}
	}
	return out, nil
}

func (v *memoryView) LockPeriod(context.Context, Period) error {
	return nil
}

func (v *memoryView) UpsertTally(_ context.Context, employeeID string, period Period, counts Counts) (Tally, error) {
	if _, ok := v.m.employees[employeeID]; !ok {
		return Tally{}, ErrEmployeeNotFound
	}
	now := v.m.now().UTC()
	for id, t := range v.m.tallies {
		if t.EmployeeID == employeeID && t.Month == period.Month && t.Year == period.Year {
			t.Counts = counts
			t.UpdatedAt = now
			v.m.tallies[id] = t
			return t, nil
		}
	}
	t := Tally{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Month:      period.Month,
		Year:       period.Year,
		Counts:     counts,
		Status:     StatusPending,
		Bonus:      decimal.Zero,
		UpdatedAt:  now,
	}
	v.m.tallies[t.ID] = t
	return t, nil
}

func (v *memoryView) SetOutcome(_ context.Context, tallyID, status string, bonus decimal.Decimal) error {
	t, ok := v.m.tallies[tallyID]
	if !ok {
		return ErrNoMetrics
	}
	t.Status = status
	t.Bonus = bonus
	t.UpdatedAt = v.m.now().UTC()
	v.m.tallies[tallyID] = t
	return nil
}

func (v *memoryView) MarkClosed(_ context.Context, groupKey string, period Period) error {
	set, ok := v.m.markers[groupKey]
	if !ok {
		set = NewPeriodSet()
		v.m.markers[groupKey] = set
	}
	set.Add(period.Key())
	return nil
}

func (v *memoryView) UnmarkClosed(_ context.Context, groupKey string, period Period) error {
	if set, ok := v.m.markers[groupKey]; ok {
		set.Remove(period.Key())
	}
	return nil
}

// sortRows orders newest period first, then by employee name.
func sortRows(rows []TallyRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		if !strings.EqualFold(a.Employee.Name, b.Employee.Name) {
			return strings.ToLower(a.Employee.Name) < strings.ToLower(b.Employee.Name)
		}
		return a.ID < b.ID
	})
}
