package db

import (
	"context"
	"time"

	"go.uber.org/zap"

	"commissions/internal/domain/commission"
)

type SeedStore interface {
	commission.StoreAPI
	commission.DirectoryWriter
}

var seedSectors = []commission.Sector{
	{ID: "support-a", Name: "Support A"},
	{ID: "support-b", Name: "Support B"},
}

var seedEmployees = []struct {
	employee commission.Employee
	counts   commission.Counts
}{
	{commission.Employee{ID: "emp-ana", Name: "Ana Souza", SectorID: "support-a", Shift: "morning", Active: true}, commission.Counts{Count5: 10, Count4: 0, Count3: 0, Count2: 0, Count1: 0}},
	{commission.Employee{ID: "emp-bruno", Name: "Bruno Lima", SectorID: "support-a", Shift: "afternoon", Active: true}, commission.Counts{Count5: 5, Count4: 3}},
	{commission.Employee{ID: "emp-carla", Name: "Carla Dias", SectorID: "support-a", Shift: "night", Active: true}, commission.Counts{Count5: 6, Count4: 2, Count3: 1}},
	{commission.Employee{ID: "emp-diego", Name: "Diego Alves", SectorID: "support-b", Shift: "morning", Active: true}, commission.Counts{Count5: 4, Count4: 4, Count3: 2, Count2: 1}},
	{commission.Employee{ID: "emp-elisa", Name: "Elisa Rocha", JobTitle: "Field Technician", Shift: "morning", Active: true}, commission.Counts{Count5: 7, Count4: 1}},
	{commission.Employee{ID: "emp-fabio", Name: "Fabio Nunes", SectorID: "support-b", Shift: "night", Active: false}, commission.Counts{Count5: 2, Count4: 2, Count1: 1}},
}

// Seed loads a demo directory and one month of tallies for the current
// period. Safe to run repeatedly.
func Seed(ctx context.Context, store SeedStore, now time.Time, logger *zap.Logger) error {
	for _, sector := range seedSectors {
		if err := store.SaveSector(ctx, sector); err != nil {
			return err
		}
	}
	for _, seed := range seedEmployees {
		if err := store.SaveEmployee(ctx, seed.employee); err != nil {
			return err
		}
	}

	period := commission.Period{Month: int(now.Month()), Year: now.Year()}
	err := store.WithinTx(ctx, func(tx commission.Tx) error {
		if err := tx.LockPeriod(ctx, period); err != nil {
			return err
		}
		for _, seed := range seedEmployees {
			if _, err := tx.UpsertTally(ctx, seed.employee.ID, period, seed.counts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("seed data loaded",
		zap.Int("sectors", len(seedSectors)),
		zap.Int("employees", len(seedEmployees)),
		zap.String("period", period.Key()),
	)
	return nil
}
