package commission

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const tallyColumns = `
    t.id, t.employee_id, t.month, t.year, t.count5, t.count4, t.count3, t.count2, t.count1,
    t.status, t.bonus::text, t.updated_at`

const employeeColumns = `
    e.id, e.name, COALESCE(e.sector_id, ''), COALESCE(s.name, ''), e.job_title, e.shift, e.active`

type scanner interface {
	Scan(dest ...any) error
}

func scanTally(row scanner, extra ...any) (Tally, error) {
	var t Tally
	var bonus string
	dest := []any{
		&t.ID, &t.EmployeeID, &t.Month, &t.Year,
		&t.Count5, &t.Count4, &t.Count3, &t.Count2, &t.Count1,
		&t.Status, &bonus, &t.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Tally{}, err
	}
	amount, err := decimal.NewFromString(bonus)
	if err != nil {
		return Tally{}, fmt.Errorf("parse bonus %q: %w", bonus, err)
	}
	t.Bonus = amount
	return t, nil
}

func (s *Store) SaveSector(ctx context.Context, sector Sector) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sectors (id, name)
    VALUES ($1, $2)
    ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
  `, sector.ID, sector.Name)
	return err
}

func (s *Store) SaveEmployee(ctx context.Context, e Employee) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employees (id, name, sector_id, job_title, shift, active)
    VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
    ON CONFLICT (id) DO UPDATE
    SET name = EXCLUDED.name, sector_id = EXCLUDED.sector_id, job_title = EXCLUDED.job_title,
        shift = EXCLUDED.shift, active = EXCLUDED.active
  `, e.ID, e.Name, e.SectorID, e.JobTitle, e.Shift, e.Active)
	return err
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM employees e
    LEFT JOIN sectors s ON s.id = e.sector_id
    WHERE e.id = $1
  `, employeeID).Scan(&e.ID, &e.Name, &e.SectorID, &e.SectorName, &e.JobTitle, &e.Shift, &e.Active)
	if err != nil {
		return Employee{}, notFound(err, ErrEmployeeNotFound)
	}
	return e, nil
}

func (s *Store) ListTallies(ctx context.Context, filter TallyFilter) ([]TallyRow, error) {
	query := `
    SELECT` + tallyColumns + `,` + employeeColumns + `
    FROM rating_tallies t
    JOIN employees e ON e.id = t.employee_id
    LEFT JOIN sectors s ON s.id = e.sector_id
    WHERE 1=1`
	var args []any
	if filter.Period != nil {
		args = append(args, filter.Period.Month, filter.Period.Year)
		query += fmt.Sprintf(" AND t.month = $%d AND t.year = $%d", len(args)-1, len(args))
	}
	if id := strings.TrimSpace(filter.EmployeeID); id != "" {
		args = append(args, id)
		query += fmt.Sprintf(" AND t.employee_id = $%d", len(args))
	}
	query += " ORDER BY t.year DESC, t.month DESC, lower(e.name), t.id"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TallyRow, 0)
	for rows.Next() {
		var e Employee
		t, err := scanTally(rows, &e.ID, &e.Name, &e.SectorID, &e.SectorName, &e.JobTitle, &e.Shift, &e.Active)
		if err != nil {
			return nil, err
		}
		out = append(out, TallyRow{Tally: t, Employee: e})
	}
	return out, rows.Err()
}

func (s *Store) ClosedGroups(ctx context.Context, period Period) (map[string]bool, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT group_key
    FROM closed_periods
    WHERE period_key = $1
  `, period.Key())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out[key] = true
	}
	return out, rows.Err()
}

// LockPeriod takes a transaction-scoped advisory lock keyed on the period.
func (s *Store) LockPeriod(ctx context.Context, period Period) error {
	_, err := s.DB.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "commission-period:"+period.Key())
	return err
}

func (s *Store) UpsertTally(ctx context.Context, employeeID string, period Period, counts Counts) (Tally, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO rating_tallies AS t (employee_id, month, year, count5, count4, count3, count2, count1)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    ON CONFLICT (employee_id, month, year) DO UPDATE
    SET count5 = EXCLUDED.count5, count4 = EXCLUDED.count4, count3 = EXCLUDED.count3,
        count2 = EXCLUDED.count2, count1 = EXCLUDED.count1, updated_at = now()
    RETURNING`+tallyColumns,
		employeeID, period.Month, period.Year,
		counts.Count5, counts.Count4, counts.Count3, counts.Count2, counts.Count1)
	return scanTally(row)
}

func (s *Store) SetOutcome(ctx context.Context, tallyID, status string, bonus decimal.Decimal) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE rating_tallies
    SET status = $2, bonus = $3::numeric, updated_at = now()
    WHERE id = $1
  `, tallyID, status, bonus.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoMetrics
	}
	return nil
}

func (s *Store) MarkClosed(ctx context.Context, groupKey string, period Period) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO closed_periods (group_key, period_key)
    VALUES ($1, $2)
    ON CONFLICT (group_key, period_key) DO NOTHING
  `, groupKey, period.Key())
	return err
}

func (s *Store) UnmarkClosed(ctx context.Context, groupKey string, period Period) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM closed_periods
    WHERE group_key = $1 AND period_key = $2
  `, groupKey, period.Key())
	return err
}
