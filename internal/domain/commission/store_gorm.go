package commission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	_ StoreAPI        = (*GormStore)(nil)
	_ Tx              = (*GormStore)(nil)
	_ DirectoryWriter = (*GormStore)(nil)
)

type sectorModel struct {
	ID   string `gorm:"primaryKey"`
	Name string `gorm:"not null"`
}

func (sectorModel) TableName() string { return "sectors" }

type employeeModel struct {
	ID       string  `gorm:"primaryKey"`
	Name     string  `gorm:"not null"`
	SectorID *string `gorm:"index"`
	JobTitle string  `gorm:"not null;default:''"`
	Shift    string  `gorm:"not null;default:''"`
	Active   bool    `gorm:"not null"`
}

func (employeeModel) TableName() string { return "employees" }

type tallyModel struct {
	ID         string          `gorm:"primaryKey"`
	EmployeeID string          `gorm:"not null;uniqueIndex:ux_tally_employee_period"`
	Month      int             `gorm:"not null;uniqueIndex:ux_tally_employee_period;check:month >= 1 AND month <= 12"`
	Year       int             `gorm:"not null;uniqueIndex:ux_tally_employee_period"`
	Count5     int             `gorm:"not null;default:0;check:count5 >= 0"`
	Count4     int             `gorm:"not null;default:0;check:count4 >= 0"`
	Count3     int             `gorm:"not null;default:0;check:count3 >= 0"`
	Count2     int             `gorm:"not null;default:0;check:count2 >= 0"`
	Count1     int             `gorm:"not null;default:0;check:count1 >= 0"`
	Status     string          `gorm:"not null;default:PENDING"`
	Bonus      decimal.Decimal `gorm:"type:text;not null"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
}

func (tallyModel) TableName() string { return "rating_tallies" }

func (m tallyModel) tally() Tally {
	return Tally{
		ID:         m.ID,
		EmployeeID: m.EmployeeID,
		Month:      m.Month,
		Year:       m.Year,
		Counts:     Counts{Count5: m.Count5, Count4: m.Count4, Count3: m.Count3, Count2: m.Count2, Count1: m.Count1},
		Status:     m.Status,
		Bonus:      m.Bonus,
		UpdatedAt:  m.UpdatedAt,
	}
}

type closedPeriodModel struct {
	GroupKey  string    `gorm:"primaryKey"`
	PeriodKey string    `gorm:"primaryKey;index"`
	ClosedAt  time.Time `gorm:"autoCreateTime"`
}

func (closedPeriodModel) TableName() string { return "closed_periods" }

// tallyRecord is the flat result of the tally/employee/sector join. GORM
// ignores unexported embedded structs, so every column is listed here.
type tallyRecord struct {
	ID         string
	EmployeeID string
	Month      int
	Year       int
	Count5     int
	Count4     int
	Count3     int
	Count2     int
	Count1     int
	Status     string
	Bonus      decimal.Decimal
	UpdatedAt  time.Time
	EmpName    string
	EmpSector  string
	SectorName string
	EmpTitle   string
	EmpShift   string
	EmpActive  bool
}

func (r tallyRecord) row() TallyRow {
	return TallyRow{
		Tally: tallyModel{
			ID:         r.ID,
			EmployeeID: r.EmployeeID,
			Month:      r.Month,
			Year:       r.Year,
			Count5:     r.Count5,
			Count4:     r.Count4,
			Count3:     r.Count3,
			Count2:     r.Count2,
			Count1:     r.Count1,
			Status:     r.Status,
			Bonus:      r.Bonus,
			UpdatedAt:  r.UpdatedAt,
		}.tally(),
		Employee: Employee{
			ID:         r.EmployeeID,
			Name:       r.EmpName,
			SectorID:   r.EmpSector,
			SectorName: r.SectorName,
			JobTitle:   r.EmpTitle,
			Shift:      r.EmpShift,
			Active:     r.EmpActive,
		},
	}
}

// GormStore backs single-node deployments on SQLite. Writers are serialized
// by the database (BEGIN IMMEDIATE), so LockPeriod has nothing to do.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&sectorModel{}, &employeeModel{}, &tallyModel{}, &closedPeriodModel{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) SaveSector(ctx context.Context, sector Sector) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&sectorModel{ID: sector.ID, Name: sector.Name}).Error
}

func (s *GormStore) SaveEmployee(ctx context.Context, e Employee) error {
	model := employeeModel{ID: e.ID, Name: e.Name, JobTitle: e.JobTitle, Shift: e.Shift, Active: e.Active}
	if e.SectorID != "" {
		sectorID := e.SectorID
		model.SectorID = &sectorID
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "sector_id", "job_title", "shift", "active"}),
	}).Select("*").Create(&model).Error
}

func (s *GormStore) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	var row struct {
		ID         string
		Name       string
		SectorID   string
		SectorName string
		JobTitle   string
		Shift      string
		Active     bool
	}
	err := s.db.WithContext(ctx).
		Table("employees e").
		Select("e.id, e.name, COALESCE(e.sector_id, '') AS sector_id, COALESCE(s.name, '') AS sector_name, e.job_title, e.shift, e.active").
		Joins("LEFT JOIN sectors s ON s.id = e.sector_id").
		Where("e.id = ?", employeeID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return Employee(row), nil
}

func (s *GormStore) ListTallies(ctx context.Context, filter TallyFilter) ([]TallyRow, error) {
	q := s.db.WithContext(ctx).
		Table("rating_tallies t").
		Select(`t.id, t.employee_id, t.month, t.year, t.count5, t.count4, t.count3, t.count2, t.count1,
            t.status, t.bonus, t.updated_at, e.name AS emp_name, COALESCE(e.sector_id, '') AS emp_sector, COALESCE(s.name, '') AS sector_name,
            e.job_title AS emp_title, e.shift AS emp_shift, e.active AS emp_active`).
		Joins("JOIN employees e ON e.id = t.employee_id").
		Joins("LEFT JOIN sectors s ON s.id = e.sector_id")
	if filter.Period != nil {
		q = q.Where("t.month = ? AND t.year = ?", filter.Period.Month, filter.Period.Year)
	}
	if filter.EmployeeID != "" {
		q = q.Where("t.employee_id = ?", filter.EmployeeID)
	}

	var records []tallyRecord
	if err := q.Order("t.year DESC, t.month DESC, lower(e.name), t.id").Scan(&records).Error; err != nil {
		return nil, err
	}
	out := make([]TallyRow, 0, len(records))
	for _, r := range records {
		out = append(out, r.row())
	}
	return out, nil
}

func (s *GormStore) ClosedGroups(ctx context.Context, period Period) (map[string]bool, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&closedPeriodModel{}).
		Where("period_key = ?", period.Key()).
		Pluck("group_key", &keys).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(keys))
	for _, key := range keys {
		out[key] = true
	}
	return out, nil
}

func (s *GormStore) LockPeriod(context.Context, Period) error {
	return nil
}

func (s *GormStore) UpsertTally(ctx context.Context, employeeID string, period Period, counts Counts) (Tally, error) {
	db := s.db.WithContext(ctx)
	model := tallyModel{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Month:      period.Month,
		Year:       period.Year,
		Count5:     counts.Count5,
		Count4:     counts.Count4,
		Count3:     counts.Count3,
		Count2:     counts.Count2,
		Count1:     counts.Count1,
		Status:     StatusPending,
		Bonus:      decimal.Zero,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_id"}, {Name: "month"}, {Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{"count5", "count4", "count3", "count2", "count1", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return Tally{}, err
	}

	var stored tallyModel
	if err := db.Where("employee_id = ? AND month = ? AND year = ?", employeeID, period.Month, period.Year).
		Take(&stored).Error; err != nil {
		return Tally{}, err
	}
	return stored.tally(), nil
}

func (s *GormStore) SetOutcome(ctx context.Context, tallyID, status string, bonus decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&tallyModel{}).
		Where("id = ?", tallyID).
		Updates(map[string]any{"status": status, "bonus": bonus, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoMetrics
	}
	return nil
}

func (s *GormStore) MarkClosed(ctx context.Context, groupKey string, period Period) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&closedPeriodModel{GroupKey: groupKey, PeriodKey: period.Key()}).Error
}

func (s *GormStore) UnmarkClosed(ctx context.Context, groupKey string, period Period) error {
	return s.db.WithContext(ctx).
		Where("group_key = ? AND period_key = ?", groupKey, period.Key()).
		Delete(&closedPeriodModel{}).Error
}
