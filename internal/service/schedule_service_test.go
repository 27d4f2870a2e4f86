package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/revenue-engine/internal/model"
	"github.com/nurpe/revenue-engine/internal/service"
)

func TestGenerate_MonthlyOpenEnded(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
	})

	entries, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, entries, 24)

	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Month)
		assert.WithinDuration(t, date(2025, 1, 1).AddDate(0, i, 0), entry.DueDate, time.Second)
		assert.Equal(t, int64(10000), entry.Value)
		assert.Equal(t, model.ScheduleStatusPending, entry.Status)
	}
}

func TestGenerate_MonthlyStopsAtEndDate(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
		EndDate:      datePtr(2025, 6, 30),
	})

	entries, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, entries, 6)
	assert.WithinDuration(t, date(2025, 6, 1), entries[5].DueDate, time.Second)
}

func TestGenerate_YearlyWithEndDate(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "subscription",
		BillingCycle: model.BillingCycleYearly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
		EndDate:      datePtr(2027, 12, 31),
	})

	entries, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Month)
		assert.WithinDuration(t, date(2025+i, 1, 1), entry.DueDate, time.Second)
		assert.Equal(t, int64(120000), entry.Value)
	}
}

func TestGenerate_YearlyOpenEnded(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "subscription",
		BillingCycle: model.BillingCycleYearly,
		MonthlyValue: 5000,
		StartDate:    date(2025, 3, 1),
	})

	entries, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	assert.WithinDuration(t, date(2034, 3, 1), entries[9].DueDate, time.Second)
}

func TestGenerate_OneTime(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "service",
		BillingCycle: model.BillingCycleOneTime,
		TotalValue:   50000,
		StartDate:    date(2025, 2, 10),
	})

	entries, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Month)
	assert.Equal(t, int64(50000), entries[0].Value)
	assert.WithinDuration(t, date(2025, 2, 10), entries[0].DueDate, time.Second)
}

func TestGenerate_NoBillingTerms(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "service",
		BillingCycle: model.BillingCycleMonthly,
		StartDate:    date(2025, 1, 1),
	})

	entries, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerate_Idempotent(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
	})

	first, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)
	second, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestGenerate_ContractNotFound(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))

	_, err := e.schedules.Generate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestExtend_EndedContract(t *testing.T) {
	e := newEngine(t, date(2025, 6, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2024, 1, 1),
		EndDate:      datePtr(2024, 12, 31),
	})

	entries, err := e.schedules.Extend(context.Background(), contract.ID, 12)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtend_AppendsWithoutRewritingHistory(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
	})

	initial, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, initial, 24)

	extended, err := e.schedules.Extend(context.Background(), contract.ID, 12)
	require.NoError(t, err)
	require.Len(t, extended, 36)

	for i := range initial {
		assert.Equal(t, initial[i].ID, extended[i].ID)
	}
	assert.Equal(t, 25, extended[24].Month)
	assert.WithinDuration(t, date(2027, 1, 1), extended[24].DueDate, time.Second)
	assert.Equal(t, 36, extended[35].Month)
}

func TestExtend_DelegatesToGenerateWhenEmpty(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
	})

	entries, err := e.schedules.Extend(context.Background(), contract.ID, 12)
	require.NoError(t, err)
	assert.Len(t, entries, 24)
}

func TestExtend_RespectsEndDate(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
		EndDate:      datePtr(2025, 8, 31),
	})

	initial, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, initial, 8)

	// Nothing left to append before the end date.
	extended, err := e.schedules.Extend(context.Background(), contract.ID, 12)
	require.NoError(t, err)
	assert.Len(t, extended, 8)
}

func TestExtend_YearlyStepsByYear(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	contract := e.createContract(t, model.Contract{
		Type:         "subscription",
		BillingCycle: model.BillingCycleYearly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
	})

	initial, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, initial, 10)

	extended, err := e.schedules.Extend(context.Background(), contract.ID, 24)
	require.NoError(t, err)
	require.Len(t, extended, 12)
	assert.WithinDuration(t, date(2036, 1, 1), extended[11].DueDate, time.Second)
}

func TestExtendAllActive(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))

	open := e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
	})
	_, err := e.schedules.Generate(context.Background(), open.ID)
	require.NoError(t, err)

	// Ended contracts are skipped entirely.
	e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2023, 1, 1),
		EndDate:      datePtr(2024, 1, 1),
	})

	// Draft contracts are not part of the batch.
	e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
		Status:       model.ContractStatusDraft,
	})

	result, err := e.schedules.ExtendAllActive(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Extended)
	assert.Empty(t, result.Failed)

	entries, err := e.schedules.Generate(context.Background(), open.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 36)
}

func TestExtendAllActive_IsolatesFailures(t *testing.T) {
	e := newEngine(t, date(2025, 1, 15))
	ctx := context.Background()

	healthy := e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
	})
	_, err := e.schedules.Generate(ctx, healthy.ID)
	require.NoError(t, err)

	broken := e.createContract(t, model.Contract{
		Type:         "saas",
		BillingCycle: model.BillingCycleMonthly,
		MonthlyValue: 10000,
		StartDate:    date(2025, 1, 1),
	})

	// Storage refuses schedule writes for the broken contract only.
	err = e.db.Callback().Create().Before("gorm:create").Register("fail_broken_contract", func(tx *gorm.DB) {
		entries, ok := tx.Statement.Dest.(*[]model.RevenueScheduleEntry)
		if !ok {
			return
		}
		for _, entry := range *entries {
			if entry.ContractID == broken.ID {
				_ = tx.AddError(errors.New("write refused"))
				return
			}
		}
	})
	require.NoError(t, err)

	result, err := e.schedules.ExtendAllActive(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Extended)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, broken.ID, result.Failed[0])

	// The healthy contract was extended despite the failure.
	entries, err := e.schedules.Generate(ctx, healthy.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 36)
}

func TestMarkSchedulePaid(t *testing.T) {
	e := newEngine(t, date(2025, 3, 10))
	contract := e.createContract(t, model.Contract{
		Type:         "service",
		BillingCycle: model.BillingCycleOneTime,
		TotalValue:   50000,
		StartDate:    date(2025, 1, 1),
	})
	entries, err := e.schedules.Generate(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	invoice := "INV-0042"
	require.NoError(t, e.schedules.MarkPaid(context.Background(), entries[0].ID, &invoice))

	var stored model.RevenueScheduleEntry
	require.NoError(t, e.db.First(&stored, "id = ?", entries[0].ID).Error)
	assert.Equal(t, model.ScheduleStatusPaid, stored.Status)
	require.NotNil(t, stored.InvoiceNumber)
	assert.Equal(t, invoice, *stored.InvoiceNumber)
	assert.NotNil(t, stored.PaidAt)
}

func TestMarkSchedulePaid_NotFound(t *testing.T) {
	e := newEngine(t, date(2025, 3, 10))
	err := e.schedules.MarkPaid(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
