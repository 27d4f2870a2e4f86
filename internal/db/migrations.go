package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/revenue-engine/internal/model"
)

// Migrate creates the engine's tables and unique indexes. The schema is
// declared on the models so the same definitions apply to postgres and to the
// sqlite databases the tests run against. The unique indexes carry the
// idempotency guarantees: one schedule row per (contract, month) and one
// commission row per (entry, rule, owner).
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Contract{},
		&model.RevenueScheduleEntry{},
		&model.CommissionRule{},
		&model.Commission{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
