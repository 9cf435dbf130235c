package commission

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"commissions/internal/domain/auth"
)

type Service struct {
	store  StoreAPI
	logger *zap.Logger
}

func NewService(store StoreAPI, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close freezes the commission outcome of every tally in scope and marks the
// period closed for each affected group. Rows, outcomes and markers are
// written in a single transaction.
func (s *Service) Close(ctx context.Context, actor ActingContext, req PeriodRequest) (CloseResult, error) {
	period, err := NewPeriod(req.Month, req.Year)
	if err != nil {
		return CloseResult{}, err
	}
	groupKey, err := writeScope(actor, req.GroupID)
	if err != nil {
		return CloseResult{}, err
	}

	result := CloseResult{Period: period.Key()}
	err = s.store.WithinTx(ctx, func(tx Tx) error {
		if err := tx.LockPeriod(ctx, period); err != nil {
			return err
		}
		rows, err := tx.ListTallies(ctx, TallyFilter{Period: &period})
		if err != nil {
			return err
		}
		rows = rowsInGroup(rows, groupKey)
		if len(rows) == 0 {
			return ErrNoMetrics
		}

		baselines := Baselines(rows)
		groups := map[string]struct{}{}
		approved, rejected := 0, 0
		for _, row := range rows {
			key := ResolveGroup(row.Employee).Key
			groups[key] = struct{}{}
			outcome := EvaluateClose(Aggregate(row.Counts), baselines[key])
			if err := tx.SetOutcome(ctx, row.ID, outcome.Status, outcome.Bonus); err != nil {
				return err
			}
			if outcome.Status == StatusApproved {
				approved++
			} else {
				rejected++
			}
		}
		for _, key := range sortedKeys(groups) {
			if err := tx.MarkClosed(ctx, key, period); err != nil {
				return err
			}
		}
		result.Approved = approved
		result.Rejected = rejected
		return nil
	})
	if err != nil {
		return CloseResult{}, err
	}

	s.logger.Info("commission period closed",
		zap.String("period", result.Period),
		zap.String("group", scopeLabel(groupKey)),
		zap.String("actor", actor.UserID),
		zap.Int("approved", result.Approved),
		zap.Int("rejected", result.Rejected),
	)
	return result, nil
}

// Reopen resets every tally in scope to PENDING with a zero bonus and drops
// the period from the affected markers. Only admins may reopen.
func (s *Service) Reopen(ctx context.Context, actor ActingContext, req PeriodRequest) (ReopenResult, error) {
	period, err := NewPeriod(req.Month, req.Year)
	if err != nil {
		return ReopenResult{}, err
	}
	if actor.Role != auth.RoleAdmin {
		return ReopenResult{}, forbidden("only admins can reopen a period")
	}
	groupKey := strings.TrimSpace(req.GroupID)

	reset := 0
	err = s.store.WithinTx(ctx, func(tx Tx) error {
		if err := tx.LockPeriod(ctx, period); err != nil {
			return err
		}
		rows, err := tx.ListTallies(ctx, TallyFilter{Period: &period})
		if err != nil {
			return err
		}
		rows = rowsInGroup(rows, groupKey)
		if len(rows) == 0 {
			return ErrNoMetrics
		}

		groups := map[string]struct{}{}
		for _, row := range rows {
			groups[ResolveGroup(row.Employee).Key] = struct{}{}
			if err := tx.SetOutcome(ctx, row.ID, StatusPending, decimal.Zero); err != nil {
				return err
			}
		}
		if groupKey == "" {
			markers, err := tx.ClosedGroups(ctx, period)
			if err != nil {
				return err
			}
			for key := range markers {
				groups[key] = struct{}{}
			}
		}
		for _, key := range sortedKeys(groups) {
			if err := tx.UnmarkClosed(ctx, key, period); err != nil {
				return err
			}
		}
		reset = len(rows)
		return nil
	})
	if err != nil {
		return ReopenResult{}, err
	}

	s.logger.Info("commission period reopened",
		zap.String("period", period.Key()),
		zap.String("group", scopeLabel(groupKey)),
		zap.String("actor", actor.UserID),
		zap.Int("rows", reset),
	)
	return ReopenResult{Period: period.Key()}, nil
}

// IsClosed reports whether period is closed for one group. Besides the
// marker, a group whose rows all carry a final status counts as closed; that
// covers rows closed before markers were recorded.
func (s *Service) IsClosed(ctx context.Context, period Period, groupKey string) (bool, error) {
	if err := period.Validate(); err != nil {
		return false, err
	}
	snap, err := loadSnapshot(ctx, s.store, period)
	if err != nil {
		return false, err
	}
	return snap.closed(groupKey), nil
}

func (s *Service) Status(ctx context.Context, actor ActingContext, req PeriodRequest) (PeriodStatus, error) {
	period, err := NewPeriod(req.Month, req.Year)
	if err != nil {
		return PeriodStatus{}, err
	}
	groupKey, err := readScope(actor, req.GroupID)
	if err != nil {
		return PeriodStatus{}, err
	}
	snap, err := loadSnapshot(ctx, s.store, period)
	if err != nil {
		return PeriodStatus{}, err
	}

	status := PeriodStatus{Period: period.Key()}
	for _, row := range rowsInGroup(snap.rows, groupKey) {
		status.Stats.Total++
		switch row.Status {
		case StatusApproved:
			status.Stats.Approved++
		case StatusRejected:
			status.Stats.Rejected++
		default:
			status.Stats.Pending++
		}
	}

	if groupKey != "" {
		status.IsClosed = snap.closed(groupKey)
		return status, nil
	}
	status.IsClosed = len(snap.byGroup) > 0
	for key := range snap.byGroup {
		if !snap.closed(key) {
			status.IsClosed = false
			break
		}
	}
	return status, nil
}

// UpsertTally creates or replaces the counts of one (employee, month, year)
// tally. Writes into a closed period are refused until it is reopened.
func (s *Service) UpsertTally(ctx context.Context, actor ActingContext, in TallyInput) (TallyView, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(in.EmployeeID) == "" {
		verr.add("employeeId", "is required")
	}
	period := Period{Month: in.Month, Year: in.Year}
	verr.merge(period.Validate())
	verr.merge(in.Counts.Validate())
	if err := verr.orNil(); err != nil {
		return TallyView{}, err
	}
	if !auth.KnownRole(actor.Role) {
		return TallyView{}, forbidden("unknown role")
	}

	var view TallyView
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		if err := tx.LockPeriod(ctx, period); err != nil {
			return err
		}
		employee, err := tx.GetEmployee(ctx, strings.TrimSpace(in.EmployeeID))
		if err != nil {
			return err
		}
		group := ResolveGroup(employee)
		if err := checkGroupAccess(actor, group.Key); err != nil {
			return err
		}
		snap, err := loadSnapshot(ctx, tx, period)
		if err != nil {
			return err
		}
		if snap.closed(group.Key) {
			return ErrPeriodClosed
		}
		tally, err := tx.UpsertTally(ctx, employee.ID, period, in.Counts)
		if err != nil {
			return err
		}
		view = newTallyView(TallyRow{Tally: tally, Employee: employee})
		return nil
	})
	if err != nil {
		return TallyView{}, err
	}
	return view, nil
}

func (s *Service) ListTallies(ctx context.Context, actor ActingContext, employeeID string, period *Period) ([]TallyView, error) {
	if period != nil {
		if err := period.Validate(); err != nil {
			return nil, err
		}
	}
	groupKey, err := readScope(actor, "")
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListTallies(ctx, TallyFilter{Period: period, EmployeeID: strings.TrimSpace(employeeID)})
	if err != nil {
		return nil, err
	}
	rows = rowsInGroup(rows, groupKey)
	out := make([]TallyView, 0, len(rows))
	for _, row := range rows {
		out = append(out, newTallyView(row))
	}
	return out, nil
}

func (s *Service) EmployeePeriodStatus(ctx context.Context, actor ActingContext, employeeID string, period Period) (EmployeePeriodStatus, error) {
	if err := period.Validate(); err != nil {
		return EmployeePeriodStatus{}, err
	}
	if !auth.KnownRole(actor.Role) {
		return EmployeePeriodStatus{}, forbidden("unknown role")
	}
	employee, err := s.store.GetEmployee(ctx, strings.TrimSpace(employeeID))
	if err != nil {
		return EmployeePeriodStatus{}, err
	}
	group := ResolveGroup(employee)
	if err := checkGroupAccess(actor, group.Key); err != nil {
		return EmployeePeriodStatus{}, err
	}
	snap, err := loadSnapshot(ctx, s.store, period)
	if err != nil {
		return EmployeePeriodStatus{}, err
	}
	return EmployeePeriodStatus{
		EmployeeID: employee.ID,
		Period:     period.Key(),
		IsClosed:   snap.closed(group.Key),
		GroupKey:   group.Key,
		GroupName:  group.Name,
	}, nil
}

// Commissions lists the effective outcome of every active employee with a
// tally in the period.
func (s *Service) Commissions(ctx context.Context, actor ActingContext, filter ListFilter) (CommissionList, error) {
	if err := filter.Period.Validate(); err != nil {
		return CommissionList{}, err
	}
	status := strings.ToUpper(strings.TrimSpace(filter.Status))
	if status != "" && !validStatus(status) {
		return CommissionList{}, &ValidationError{Issues: []FieldIssue{{Field: "status", Reason: "must be PENDING, APPROVED or REJECTED"}}}
	}
	groupKey, err := readScope(actor, filter.GroupID)
	if err != nil {
		return CommissionList{}, err
	}
	snap, err := loadSnapshot(ctx, s.store, filter.Period)
	if err != nil {
		return CommissionList{}, err
	}

	shift := strings.TrimSpace(filter.Shift)
	search := foldName(filter.Search)
	lines := make([]CommissionLine, 0)
	for _, line := range snap.lines(groupKey) {
		if shift != "" && !strings.EqualFold(line.Shift, shift) {
			continue
		}
		if search != "" && !strings.Contains(foldName(line.EmployeeName), search) {
			continue
		}
		if status != "" && line.Status != status {
			continue
		}
		lines = append(lines, line)
	}
	return CommissionList{
		Period:  filter.Period.Key(),
		Lines:   lines,
		Summary: summarize(lines),
	}, nil
}

func (s *Service) Dashboard(ctx context.Context, actor ActingContext, period Period, groupID string) (Dashboard, error) {
	if err := period.Validate(); err != nil {
		return Dashboard{}, err
	}
	groupKey, err := readScope(actor, groupID)
	if err != nil {
		return Dashboard{}, err
	}
	snap, err := loadSnapshot(ctx, s.store, period)
	if err != nil {
		return Dashboard{}, err
	}

	lines := snap.lines(groupKey)
	board := Dashboard{
		Period:         period.Key(),
		Employees:      len(lines),
		ProjectedBonus: decimal.Zero,
		Groups:         snap.overview(groupKey),
	}
	percentages := make([]int, 0, len(lines))
	for _, line := range lines {
		percentages = append(percentages, line.Percentage)
		if line.Percentage >= ApprovalPercentage {
			board.EligibleCount++
		}
		if line.Percentage >= HighPerformerPercentage {
			board.HighPerformers++
		}
		if line.Status != StatusRejected {
			board.ProjectedBonus = board.ProjectedBonus.Add(line.Bonus)
		}
	}
	board.AveragePercentage = roundedAverage(percentages)
	return board, nil
}

func (s *Service) Groups(ctx context.Context, actor ActingContext, period Period) ([]GroupOverview, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	groupKey, err := readScope(actor, "")
	if err != nil {
		return nil, err
	}
	snap, err := loadSnapshot(ctx, s.store, period)
	if err != nil {
		return nil, err
	}
	return snap.overview(groupKey), nil
}

// writeScope resolves the group a close applies to. An empty result means
// every group and is only granted to admins.
func writeScope(actor ActingContext, groupID string) (string, error) {
	groupID = strings.TrimSpace(groupID)
	switch actor.Role {
	case auth.RoleAdmin:
		return groupID, nil
	case auth.RoleSupervisor:
		if strings.TrimSpace(actor.GroupID) == "" {
			return "", forbidden("supervisor is not assigned to a group")
		}
		if groupID == "" {
			return "", forbidden("supervisor must name their group")
		}
		if groupID != actor.GroupID {
			return "", forbidden("group is outside the supervisor's scope")
		}
		return groupID, nil
	}
	return "", forbidden("unknown role")
}

// readScope is writeScope with supervisors defaulting to their own group.
func readScope(actor ActingContext, groupID string) (string, error) {
	if actor.Role == auth.RoleSupervisor && strings.TrimSpace(groupID) == "" {
		groupID = actor.GroupID
	}
	return writeScope(actor, groupID)
}

func checkGroupAccess(actor ActingContext, groupKey string) error {
	switch actor.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RoleSupervisor:
		if actor.GroupID != "" && actor.GroupID == groupKey {
			return nil
		}
		return forbidden("employee is outside the supervisor's scope")
	}
	return forbidden("unknown role")
}

func rowsInGroup(rows []TallyRow, groupKey string) []TallyRow {
	if groupKey == "" {
		return rows
	}
	out := make([]TallyRow, 0, len(rows))
	for _, row := range rows {
		if ResolveGroup(row.Employee).Key == groupKey {
			out = append(out, row)
		}
	}
	return out
}

func newTallyView(row TallyRow) TallyView {
	group := ResolveGroup(row.Employee)
	return TallyView{
		Tally:        row.Tally,
		Score:        Aggregate(row.Counts),
		EmployeeName: row.Employee.Name,
		GroupKey:     group.Key,
		GroupName:    group.Name,
		Period:       row.Period().Key(),
	}
}

func summarize(lines []CommissionLine) CommissionSummary {
	summary := CommissionSummary{Employees: len(lines), TotalToPay: decimal.Zero}
	percentages := make([]int, 0, len(lines))
	for _, line := range lines {
		percentages = append(percentages, line.Percentage)
		if line.Status == StatusApproved {
			summary.ApprovedCount++
			summary.TotalToPay = summary.TotalToPay.Add(line.Bonus)
		}
	}
	summary.AveragePercentage = roundedAverage(percentages)
	return summary
}

func roundedAverage(values []int) int {
	if len(values) == 0 {
		return 0
	}
	total := 0
	for _, v := range values {
		total += v
	}
	n := len(values)
	return (2*total + n) / (2 * n)
}

func validStatus(status string) bool {
	for _, candidate := range Statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func scopeLabel(groupKey string) string {
	if groupKey == "" {
		return "all"
	}
	return groupKey
}
