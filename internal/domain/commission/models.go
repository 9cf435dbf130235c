package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sector struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Employee is owned by the employee directory and read-only here.
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SectorID   string `json:"sectorId,omitempty"`
	SectorName string `json:"sectorName,omitempty"`
	JobTitle   string `json:"jobTitle,omitempty"`
	Shift      string `json:"shift,omitempty"`
	Active     bool   `json:"active"`
}

type Tally struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	Counts
	Status    string          `json:"status"`
	Bonus     decimal.Decimal `json:"bonus"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (t Tally) Period() Period {
	return Period{Month: t.Month, Year: t.Year}
}

// TallyRow is a tally joined with its employee.
type TallyRow struct {
	Tally
	Employee Employee
}

type TallyFilter struct {
	Period     *Period
	EmployeeID string
}

// ActingContext identifies who is calling a lifecycle operation. It is always
// passed explicitly.
type ActingContext struct {
	UserID  string
	Role    string
	GroupID string
}

// PeriodRequest is the wire shape shared by close, reopen and status.
type PeriodRequest struct {
	Month   int    `json:"month"`
	Year    int    `json:"year"`
	GroupID string `json:"groupId,omitempty"`
}

type CloseResult struct {
	Period   string `json:"period"`
	Approved int    `json:"approved"`
	Rejected int    `json:"rejected"`
}

type ReopenResult struct {
	Period string `json:"period"`
}

type PeriodStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

type PeriodStatus struct {
	Period   string      `json:"period"`
	IsClosed bool        `json:"isClosed"`
	Stats    PeriodStats `json:"stats"`
}

type TallyInput struct {
	EmployeeID string `json:"employeeId"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	Counts
}

type TallyView struct {
	Tally
	Score
	EmployeeName string `json:"employeeName"`
	GroupKey     string `json:"groupKey"`
	GroupName    string `json:"groupName"`
	Period       string `json:"period"`
}

type EmployeePeriodStatus struct {
	EmployeeID string `json:"employeeId"`
	Period     string `json:"period"`
	IsClosed   bool   `json:"isClosed"`
	GroupKey   string `json:"groupKey"`
	GroupName  string `json:"groupName"`
}

type ListFilter struct {
	Period
	GroupID string
	Shift   string
	Status  string
	Search  string
}

type CommissionLine struct {
	TallyID      string `json:"tallyId"`
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	GroupKey     string `json:"groupKey"`
	GroupName    string `json:"groupName"`
	Shift        string `json:"shift,omitempty"`
	Score
	Baseline int             `json:"baseline"`
	Status   string          `json:"status"`
	Bonus    decimal.Decimal `json:"bonus"`
	Closed   bool            `json:"closed"`
}

type CommissionSummary struct {
	Employees         int             `json:"employees"`
	ApprovedCount     int             `json:"approvedCount"`
	TotalToPay        decimal.Decimal `json:"totalToPay"`
	AveragePercentage int             `json:"averagePercentage"`
}

type CommissionList struct {
	Period  string            `json:"period"`
	Lines   []CommissionLine  `json:"lines"`
	Summary CommissionSummary `json:"summary"`
}

type GroupOverview struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Employees int    `json:"employees"`
	Baseline  int    `json:"baseline"`
	Closed    bool   `json:"closed"`
}

type Dashboard struct {
	Period            string          `json:"period"`
	Employees         int             `json:"employees"`
	AveragePercentage int             `json:"averagePercentage"`
	EligibleCount     int             `json:"eligibleCount"`
	HighPerformers    int             `json:"highPerformers"`
	ProjectedBonus    decimal.Decimal `json:"projectedBonus"`
	Groups            []GroupOverview `json:"groups"`
}
