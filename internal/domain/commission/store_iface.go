package commission

import (
	"context"

	"github.com/shopspring/decimal"
)

type Reader interface {
	GetEmployee(ctx context.Context, employeeID string) (Employee, error)
	ListTallies(ctx context.Context, filter TallyFilter) ([]TallyRow, error)
	// ClosedGroups returns the keys of groups whose marker holds period.
	ClosedGroups(ctx context.Context, period Period) (map[string]bool, error)
}

type Writer interface {
	// LockPeriod serializes lifecycle writes on one period until the transaction ends.
	LockPeriod(ctx context.Context, period Period) error
	UpsertTally(ctx context.Context, employeeID string, period Period, counts Counts) (Tally, error)
	SetOutcome(ctx context.Context, tallyID, status string, bonus decimal.Decimal) error
	// MarkClosed must be idempotent.
	MarkClosed(ctx context.Context, groupKey string, period Period) error
	UnmarkClosed(ctx context.Context, groupKey string, period Period) error
}

type Tx interface {
	Reader
	Writer
}

type StoreAPI interface {
	Reader
	// WithinTx runs fn in one transaction; any error rolls back every write.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}

// DirectoryWriter syncs employee directory data into the store.
type DirectoryWriter interface {
	SaveSector(ctx context.Context, sector Sector) error
	SaveEmployee(ctx context.Context, employee Employee) error
}
