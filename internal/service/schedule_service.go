package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/revenue-engine/internal/config"
	"github.com/nurpe/revenue-engine/internal/model"
	"github.com/nurpe/revenue-engine/internal/repository"
)

// ScheduleService projects contracts into revenue schedule entries and keeps
// open-ended schedules extended as time advances.
type ScheduleService struct {
	contracts *repository.ContractRepository
	entries   *repository.ScheduleRepository
	cfg       *config.Config
	log       zerolog.Logger
	now       func() time.Time
}

func NewScheduleService(
	contracts *repository.ContractRepository,
	entries *repository.ScheduleRepository,
	cfg *config.Config,
	log zerolog.Logger,
) *ScheduleService {
	return &ScheduleService{
		contracts: contracts,
		entries:   entries,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *ScheduleService) WithClock(now func() time.Time) *ScheduleService {
	s.now = now
	return s
}

type ExtendAllResult struct {
	Extended int         `json:"extended"`
	Failed   []uuid.UUID `json:"failed,omitempty"`
}

// Generate creates the full revenue schedule for a contract. If entries
// already exist the stored schedule is returned unchanged; generation happens
// exactly once per contract.
func (s *ScheduleService) Generate(ctx context.Context, contractID uuid.UUID) ([]model.RevenueScheduleEntry, error) {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	existing, err := s.entries.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	entries := s.projectFromStart(contract)
	if len(entries) == 0 {
		return []model.RevenueScheduleEntry{}, nil
	}

	if err := s.entries.InsertBatch(ctx, entries); err != nil {
		return nil, err
	}

	// Re-read for canonical IDs and ordering.
	return s.entries.ListByContract(ctx, contractID)
}

// Extend appends up to monthsAhead additional billing periods after the last
// stored entry and returns the full schedule. An already-ended contract yields
// an empty schedule; a contract with no entries yet falls back to Generate.
func (s *ScheduleService) Extend(ctx context.Context, contractID uuid.UUID, monthsAhead int) ([]model.RevenueScheduleEntry, error) {
	entries, _, err := s.extend(ctx, contractID, monthsAhead)
	return entries, err
}

// ExtendAllActive walks every active or signed contract that is still running
// and extends its schedule. Failures are isolated per contract: the batch
// continues and reports which contracts could not be extended.
func (s *ScheduleService) ExtendAllActive(ctx context.Context, monthsAhead int) (*ExtendAllResult, error) {
	contracts, err := s.contracts.ListActiveOrSigned(ctx)
	if err != nil {
		return nil, err
	}

	result := &ExtendAllResult{}
	now := s.now()
	for _, contract := range contracts {
		if contract.EndDate != nil && !contract.EndDate.After(now) {
			continue
		}
		_, appended, err := s.extend(ctx, contract.ID, monthsAhead)
		if err != nil {
			s.log.Warn().Err(err).Str("contract_id", contract.ID.String()).Msg("schedule extension failed")
			result.Failed = append(result.Failed, contract.ID)
			continue
		}
		if appended > 0 {
			result.Extended++
		}
	}
	return result, nil
}

// MarkPaid transitions a schedule entry to paid, optionally recording the
// invoice number.
func (s *ScheduleService) MarkPaid(ctx context.Context, entryID uuid.UUID, invoiceNumber *string) error {
	err := s.entries.MarkPaid(ctx, entryID, invoiceNumber, s.now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: schedule entry %s", ErrNotFound, entryID)
	}
	return err
}

func (s *ScheduleService) getContract(ctx context.Context, contractID uuid.UUID) (*model.Contract, error) {
	contract, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, contractID)
		}
		return nil, err
	}
	return contract, nil
}

func (s *ScheduleService) extend(ctx context.Context, contractID uuid.UUID, monthsAhead int) ([]model.RevenueScheduleEntry, int, error) {
	if monthsAhead <= 0 {
		monthsAhead = s.cfg.Schedule.ExtendMonths
	}

	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, 0, err
	}

	// No further billing once the contract has ended.
	if contract.Ended(s.now()) {
		return []model.RevenueScheduleEntry{}, 0, nil
	}

	existing, err := s.entries.ListByContract(ctx, contractID)
	if err != nil {
		return nil, 0, err
	}
	if len(existing) == 0 {
		generated, err := s.Generate(ctx, contractID)
		return generated, len(generated), err
	}

	last := existing[len(existing)-1]
	entries := s.projectAfter(contract, &last, monthsAhead)
	if len(entries) == 0 {
		return existing, 0, nil
	}

	if err := s.entries.InsertBatch(ctx, entries); err != nil {
		return nil, 0, err
	}

	full, err := s.entries.ListByContract(ctx, contractID)
	if err != nil {
		return nil, 0, err
	}
	return full, len(entries), nil
}

// projectFromStart builds the initial schedule. Contracts with an end date run
// until it; open-ended ones stop at the configured projection horizon.
func (s *ScheduleService) projectFromStart(contract *model.Contract) []model.RevenueScheduleEntry {
	switch {
	case contract.BillingCycle == model.BillingCycleMonthly && contract.MonthlyValue > 0:
		return projectCycle(contract, 1, contract.StartDate, contract.MonthlyValue, stepMonthly, func(month int) bool {
			return contract.EndDate == nil && month > s.cfg.Schedule.MonthlyHorizon
		})
	case contract.BillingCycle == model.BillingCycleYearly && contract.MonthlyValue > 0:
		return projectCycle(contract, 1, contract.StartDate, contract.MonthlyValue*12, stepYearly, func(year int) bool {
			return contract.EndDate == nil && year > s.cfg.Schedule.YearlyHorizon
		})
	case contract.TotalValue > 0:
		return []model.RevenueScheduleEntry{{
			ContractID: contract.ID,
			Month:      1,
			DueDate:    contract.StartDate,
			Value:      contract.TotalValue,
			Status:     model.ScheduleStatusPending,
		}}
	default:
		return nil
	}
}

// projectAfter continues the schedule for a bounded number of extra periods
// after the last stored entry.
func (s *ScheduleService) projectAfter(contract *model.Contract, last *model.RevenueScheduleEntry, monthsAhead int) []model.RevenueScheduleEntry {
	switch {
	case contract.BillingCycle == model.BillingCycleMonthly && contract.MonthlyValue > 0:
		steps := monthsAhead
		return projectCycle(contract, last.Month+1, stepMonthly(last.DueDate), contract.MonthlyValue, stepMonthly, func(month int) bool {
			return month > last.Month+steps
		})
	case contract.BillingCycle == model.BillingCycleYearly && contract.MonthlyValue > 0:
		steps := (monthsAhead + 11) / 12
		return projectCycle(contract, last.Month+1, stepYearly(last.DueDate), contract.MonthlyValue*12, stepYearly, func(year int) bool {
			return year > last.Month+steps
		})
	default:
		// One-time contracts have nothing to extend.
		return nil
	}
}

func projectCycle(
	contract *model.Contract,
	fromIndex int,
	fromDue time.Time,
	value int64,
	step func(time.Time) time.Time,
	done func(index int) bool,
) []model.RevenueScheduleEntry {
	var entries []model.RevenueScheduleEntry
	index := fromIndex
	due := fromDue
	for {
		if contract.EndDate != nil && due.After(*contract.EndDate) {
			break
		}
		if done(index) {
			break
		}
		entries = append(entries, model.RevenueScheduleEntry{
			ContractID: contract.ID,
			Month:      index,
			DueDate:    due,
			Value:      value,
			Status:     model.ScheduleStatusPending,
		})
		due = step(due)
		index++
	}
	return entries
}

func stepMonthly(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
func stepYearly(t time.Time) time.Time  { return t.AddDate(1, 0, 0) }
