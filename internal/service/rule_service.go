package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nurpe/revenue-engine/internal/model"
	"github.com/nurpe/revenue-engine/internal/repository"
)

// RuleService matches commission rules against billing events and manages the
// rule reference data.
type RuleService struct {
	rules *repository.RuleRepository
	log   zerolog.Logger
}

func NewRuleService(rules *repository.RuleRepository, log zerolog.Logger) *RuleService {
	return &RuleService{rules: rules, log: log}
}

// Match returns every active rule for the revenue type and sale scenario whose
// month range covers the given month index. Overlapping rules all apply; the
// engine stacks them rather than picking a winner.
func (s *RuleService) Match(ctx context.Context, revenueType model.RevenueType, scenario model.SaleScenario, month int) ([]model.CommissionRule, error) {
	candidates, err := s.rules.ListActiveFor(ctx, revenueType, scenario)
	if err != nil {
		return nil, err
	}

	matched := make([]model.CommissionRule, 0, len(candidates))
	for _, rule := range candidates {
		if rule.AppliesToMonth(month) {
			matched = append(matched, rule)
		}
	}
	return matched, nil
}

func (s *RuleService) ListActive(ctx context.Context) ([]model.CommissionRule, error) {
	return s.rules.ListActive(ctx)
}

func (s *RuleService) Create(ctx context.Context, rule *model.CommissionRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	return s.rules.Create(ctx, rule)
}

// SeedDefaults installs the canonical rule set on an empty rule table. A
// second call is a no-op.
func (s *RuleService) SeedDefaults(ctx context.Context) error {
	count, err := s.rules.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	rules := defaultRules()
	if err := s.rules.InsertBatch(ctx, rules); err != nil {
		return err
	}
	s.log.Info().Int("rules", len(rules)).Msg("seeded default commission rules")
	return nil
}

func validateRule(rule *model.CommissionRule) error {
	switch rule.RevenueType {
	case model.RevenueTypeRecurring, model.RevenueTypeOneTime:
	default:
		return fmt.Errorf("%w: revenue type %q", ErrInvalidInput, rule.RevenueType)
	}
	switch rule.SaleScenario {
	case model.SaleScenarioPartner, model.SaleScenarioDirect:
	default:
		return fmt.Errorf("%w: sale scenario %q", ErrInvalidInput, rule.SaleScenario)
	}
	switch rule.Role {
	case model.RolePartner, model.RoleSales, model.RoleInternal:
	default:
		return fmt.Errorf("%w: role %q", ErrInvalidInput, rule.Role)
	}
	if rule.Percentage <= 0 || rule.Percentage > 100 {
		return fmt.Errorf("%w: percentage must be within 1..100", ErrInvalidInput)
	}
	start := 1
	if rule.MonthRangeStart != nil {
		if *rule.MonthRangeStart < 1 {
			return fmt.Errorf("%w: month range start must be >= 1", ErrInvalidInput)
		}
		start = *rule.MonthRangeStart
	}
	// A missing start defaults to 1 at match time, so the end must still
	// leave a matchable range.
	if rule.MonthRangeEnd != nil && *rule.MonthRangeEnd < start {
		return fmt.Errorf("%w: month range end precedes start", ErrInvalidInput)
	}
	return nil
}

func defaultRules() []model.CommissionRule {
	intPtr := func(n int) *int { return &n }

	return []model.CommissionRule{
		{
			Name:            "Partner acquisition, recurring (months 1-5)",
			Description:     "Acquisition commission for the first five months of recurring contracts sold via partners",
			RevenueType:     model.RevenueTypeRecurring,
			SaleScenario:    model.SaleScenarioPartner,
			Role:            model.RolePartner,
			MonthRangeStart: intPtr(1),
			MonthRangeEnd:   intPtr(5),
			Percentage:      10,
			IsActive:        true,
		},
		{
			Name:            "Partner maintenance, recurring (month 6+)",
			Description:     "Perpetual maintenance commission from the sixth month onward for partners",
			RevenueType:     model.RevenueTypeRecurring,
			SaleScenario:    model.SaleScenarioPartner,
			Role:            model.RolePartner,
			MonthRangeStart: intPtr(6),
			Percentage:      5,
			IsActive:        true,
		},
		{
			Name:         "Partner services",
			Description:  "Commission on one-time service projects sold via partners",
			RevenueType:  model.RevenueTypeOneTime,
			SaleScenario: model.SaleScenarioPartner,
			Role:         model.RolePartner,
			Percentage:   15,
			IsActive:     true,
		},
		{
			Name:            "Internal sales, recurring (months 1-5)",
			Description:     "Acquisition commission for internal salespeople on direct recurring sales",
			RevenueType:     model.RevenueTypeRecurring,
			SaleScenario:    model.SaleScenarioDirect,
			Role:            model.RoleSales,
			MonthRangeStart: intPtr(1),
			MonthRangeEnd:   intPtr(5),
			Percentage:      8,
			IsActive:        true,
		},
		{
			Name:            "Internal sales, maintenance (month 6+)",
			Description:     "Maintenance commission for internal salespeople from the sixth month onward",
			RevenueType:     model.RevenueTypeRecurring,
			SaleScenario:    model.SaleScenarioDirect,
			Role:            model.RoleSales,
			MonthRangeStart: intPtr(6),
			Percentage:      5,
			IsActive:        true,
		},
		{
			Name:         "Internal sales, services",
			Description:  "Commission for internal salespeople on one-time service projects",
			RevenueType:  model.RevenueTypeOneTime,
			SaleScenario: model.SaleScenarioDirect,
			Role:         model.RoleSales,
			Percentage:   10,
			IsActive:     true,
		},
	}
}
