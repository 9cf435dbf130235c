package commission_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"commissions/internal/domain/auth"
	"commissions/internal/domain/commission"
	"commissions/internal/platform/db"
)

func newGormStore(t *testing.T) *commission.GormStore {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "commissions.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store, err := commission.NewGormStore(gdb)
	require.NoError(t, err)
	return store
}

func TestGormStoreContract(t *testing.T) {
	runStoreContract(t, newGormStore(t))
}

func TestGormStoreKeepsActiveFlag(t *testing.T) {
	ctx := context.Background()
	store := newGormStore(t)

	require.NoError(t, store.SaveEmployee(ctx, commission.Employee{ID: "x", Name: "X", Active: false}))
	emp, err := store.GetEmployee(ctx, "x")
	require.NoError(t, err)
	assert.False(t, emp.Active)

	require.NoError(t, store.SaveEmployee(ctx, commission.Employee{ID: "x", Name: "X", Active: true}))
	emp, err = store.GetEmployee(ctx, "x")
	require.NoError(t, err)
	assert.True(t, emp.Active)

	require.NoError(t, store.SaveEmployee(ctx, commission.Employee{ID: "x", Name: "X", Active: false}))
	emp, err = store.GetEmployee(ctx, "x")
	require.NoError(t, err)
	assert.False(t, emp.Active)
}

func TestGormStoreCloseReadsJoinedTallies(t *testing.T) {
	ctx := context.Background()
	store := newGormStore(t)
	require.NoError(t, store.SaveSector(ctx, commission.Sector{ID: "support-a", Name: "Support A"}))
	require.NoError(t, store.SaveEmployee(ctx, commission.Employee{ID: "x", Name: "X", SectorID: "support-a", Active: true}))

	svc := commission.NewService(store, nil)
	admin := commission.ActingContext{UserID: "admin", Role: auth.RoleAdmin}
	_, err := svc.UpsertTally(ctx, admin, commission.TallyInput{
		EmployeeID: "x", Month: 1, Year: 2026, Counts: commission.Counts{Count5: 10},
	})
	require.NoError(t, err)

	period := commission.Period{Month: 1, Year: 2026}
	rows, err := store.ListTallies(ctx, commission.TallyFilter{Period: &period})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0].ID)
	assert.Equal(t, 1, rows[0].Month)
	assert.Equal(t, 2026, rows[0].Year)
	assert.Equal(t, 10, rows[0].Count5)
	assert.Equal(t, commission.StatusPending, rows[0].Status)
	assert.Equal(t, "Support A", rows[0].Employee.SectorName)

	result, err := svc.Close(ctx, admin, commission.PeriodRequest{Month: 1, Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Approved)
	assert.Equal(t, 0, result.Rejected)

	rows, err = store.ListTallies(ctx, commission.TallyFilter{Period: &period})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, commission.StatusApproved, rows[0].Status)
	assert.True(t, decimal.NewFromInt(500).Equal(rows[0].Bonus))
}
