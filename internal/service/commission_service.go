package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/revenue-engine/internal/config"
	"github.com/nurpe/revenue-engine/internal/model"
	"github.com/nurpe/revenue-engine/internal/repository"
)

// CommissionService computes payout obligations for billing events and
// aggregates them into owner-level summaries.
type CommissionService struct {
	commissions *repository.CommissionRepository
	entries     *repository.ScheduleRepository
	contracts   *repository.ContractRepository
	rules       *RuleService
	schedules   *ScheduleService
	cfg         *config.Config
	log         zerolog.Logger
	now         func() time.Time
}

func NewCommissionService(
	commissions *repository.CommissionRepository,
	entries *repository.ScheduleRepository,
	contracts *repository.ContractRepository,
	rules *RuleService,
	schedules *ScheduleService,
	cfg *config.Config,
	log zerolog.Logger,
) *CommissionService {
	return &CommissionService{
		commissions: commissions,
		entries:     entries,
		contracts:   contracts,
		rules:       rules,
		schedules:   schedules,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *CommissionService) WithClock(now func() time.Time) *CommissionService {
	s.now = now
	return s
}

type SummaryFilter struct {
	PartnerID *uuid.UUID
	UserID    *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

type CommissionSummary struct {
	TotalPending int64              `json:"totalPending"`
	TotalPaid    int64              `json:"totalPaid"`
	CountPending int                `json:"countPending"`
	CountPaid    int                `json:"countPaid"`
	Commissions  []model.Commission `json:"commissions"`
}

// Calculate computes the commissions owed against one schedule entry. If any
// commission already references the entry the call is a no-op: each billing
// event is consumed at most once. Partner commissions require the contract to
// have a partner; sales commissions require a sales user to be named.
func (s *CommissionService) Calculate(ctx context.Context, entryID uuid.UUID, salesUserID *uuid.UUID) error {
	entry, err := s.entries.Get(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: schedule entry %s", ErrNotFound, entryID)
		}
		return err
	}

	contract, err := s.contracts.Get(ctx, entry.ContractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: contract %s", ErrNotFound, entry.ContractID)
		}
		return err
	}

	existing, err := s.commissions.ListByScheduleEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	revenueType := contract.RevenueType()
	period := entry.Period()

	if contract.PartnerID != nil {
		rules, err := s.rules.Match(ctx, revenueType, model.SaleScenarioPartner, entry.Month)
		if err != nil {
			return err
		}
		for _, rule := range rules {
			if rule.Role != model.RolePartner {
				continue
			}
			if err := s.insert(ctx, contract, entry, &rule, *contract.PartnerID, model.RolePartner, period); err != nil {
				return err
			}
		}
	}

	if salesUserID != nil {
		rules, err := s.rules.Match(ctx, revenueType, model.SaleScenarioDirect, entry.Month)
		if err != nil {
			return err
		}
		for _, rule := range rules {
			if rule.Role != model.RoleSales && rule.Role != model.RoleInternal {
				continue
			}
			if err := s.insert(ctx, contract, entry, &rule, *salesUserID, rule.Role, period); err != nil {
				return err
			}
		}
	}

	return nil
}

// ProcessContract generates (or fetches) the contract's schedule, tops it up
// when an open-ended contract is running out of projected entries, and runs
// the calculator over every pending entry. The returned count is the number of
// pending entries visited, whether or not new commission rows resulted.
func (s *CommissionService) ProcessContract(ctx context.Context, contractID uuid.UUID, salesUserID *uuid.UUID) (int, error) {
	entries, err := s.schedules.Generate(ctx, contractID)
	if err != nil {
		return 0, err
	}

	contract, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return 0, err
	}

	// Runway check: keep long-lived subscriptions from running dry.
	if contract.EndDate == nil && len(entries) > 0 {
		last := entries[len(entries)-1]
		if monthsUntil(s.now(), last.DueDate) < s.cfg.Schedule.RunwayMonths {
			entries, err = s.schedules.Extend(ctx, contractID, s.cfg.Schedule.ExtendMonths)
			if err != nil {
				return 0, err
			}
		}
	}

	processed := 0
	for _, entry := range entries {
		if entry.Status != model.ScheduleStatusPending {
			continue
		}
		if err := s.Calculate(ctx, entry.ID, salesUserID); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

// List returns the owner's commissions, newest first.
func (s *CommissionService) List(ctx context.Context, partnerID, userID *uuid.UUID) ([]model.Commission, error) {
	return s.commissions.ListByOwner(ctx, partnerID, userID)
}

// Summary loads the owner's commissions, keeps those whose period falls within
// the requested window and partitions the totals by status.
func (s *CommissionService) Summary(ctx context.Context, filter SummaryFilter) (*CommissionSummary, error) {
	commissions, err := s.commissions.ListByOwner(ctx, filter.PartnerID, filter.UserID)
	if err != nil {
		return nil, err
	}

	summary := &CommissionSummary{Commissions: []model.Commission{}}
	for _, c := range commissions {
		if !periodInWindow(c.Period, filter.StartDate, filter.EndDate) {
			continue
		}
		summary.Commissions = append(summary.Commissions, c)
		switch c.Status {
		case model.CommissionStatusPaid:
			summary.TotalPaid += c.CommissionValue
			summary.CountPaid++
		default:
			summary.TotalPending += c.CommissionValue
			summary.CountPending++
		}
	}
	return summary, nil
}

// MarkPaid transitions a commission to paid.
func (s *CommissionService) MarkPaid(ctx context.Context, commissionID uuid.UUID) error {
	err := s.commissions.MarkPaid(ctx, commissionID, s.now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: commission %s", ErrNotFound, commissionID)
	}
	return err
}

func (s *CommissionService) insert(
	ctx context.Context,
	contract *model.Contract,
	entry *model.RevenueScheduleEntry,
	rule *model.CommissionRule,
	ownerID uuid.UUID,
	role model.CommissionRole,
	period string,
) error {
	value := roundPercent(entry.Value, rule.Percentage)
	if value <= 0 {
		return nil
	}

	commission := &model.Commission{
		ContractID:             contract.ID,
		RevenueScheduleEntryID: entry.ID,
		RuleID:                 rule.ID,
		OwnerID:                ownerID,
		Role:                   role,
		BaseValue:              entry.Value,
		Percentage:             rule.Percentage,
		CommissionValue:        value,
		Period:                 period,
		Status:                 model.CommissionStatusPending,
	}
	if role == model.RolePartner {
		commission.PartnerID = &ownerID
	} else {
		commission.UserID = &ownerID
	}
	return s.commissions.Insert(ctx, commission)
}

// roundPercent applies a whole-percentage cut, rounding to the nearest minor
// currency unit (half up).
func roundPercent(base int64, percentage int) int64 {
	return int64(math.Round(float64(base) * float64(percentage) / 100))
}

// periodInWindow parses a YYYY-MM period as the first day of that month and
// checks it against the optional window bounds. Malformed periods pass through
// unfiltered.
func periodInWindow(period string, start, end *time.Time) bool {
	parsed, err := time.Parse("2006-01", period)
	if err != nil {
		return true
	}
	if start != nil && parsed.Before(*start) {
		return false
	}
	if end != nil && parsed.After(*end) {
		return false
	}
	return true
}

// monthsUntil counts whole calendar months between two dates, ignoring days.
func monthsUntil(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
