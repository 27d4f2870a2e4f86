package service_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nurpe/revenue-engine/internal/config"
	"github.com/nurpe/revenue-engine/internal/db"
	"github.com/nurpe/revenue-engine/internal/model"
	"github.com/nurpe/revenue-engine/internal/repository"
	"github.com/nurpe/revenue-engine/internal/service"
)

type engine struct {
	db          *gorm.DB
	schedules   *service.ScheduleService
	rules       *service.RuleService
	commissions *service.CommissionService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	return database
}

func newEngine(t *testing.T, now time.Time) *engine {
	t.Helper()
	database := newTestDB(t)
	cfg := config.Default()
	log := zerolog.Nop()
	clock := func() time.Time { return now }

	contracts := repository.NewContractRepository(database)
	scheduleRepo := repository.NewScheduleRepository(database)
	ruleRepo := repository.NewRuleRepository(database)
	commissionRepo := repository.NewCommissionRepository(database)

	schedules := service.NewScheduleService(contracts, scheduleRepo, cfg, log).WithClock(clock)
	rules := service.NewRuleService(ruleRepo, log)
	commissions := service.NewCommissionService(
		commissionRepo, scheduleRepo, contracts, rules, schedules, cfg, log,
	).WithClock(clock)

	return &engine{
		db:          database,
		schedules:   schedules,
		rules:       rules,
		commissions: commissions,
	}
}

func (e *engine) createContract(t *testing.T, contract model.Contract) model.Contract {
	t.Helper()
	if contract.Status == "" {
		contract.Status = model.ContractStatusActive
	}
	require.NoError(t, e.db.Create(&contract).Error)
	return contract
}

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year, month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}

func intPtr(n int) *int { return &n }
