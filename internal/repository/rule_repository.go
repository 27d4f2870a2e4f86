package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/revenue-engine/internal/model"
)

type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) ListActive(ctx context.Context) ([]model.CommissionRule, error) {
	var rules []model.CommissionRule
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RuleRepository) ListActiveFor(ctx context.Context, revenueType model.RevenueType, scenario model.SaleScenario) ([]model.CommissionRule, error) {
	var rules []model.CommissionRule
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND revenue_type = ? AND sale_scenario = ?", true, revenueType, scenario).
		Order("created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RuleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CommissionRule{}).Count(&count).Error
	return count, err
}

func (r *RuleRepository) InsertBatch(ctx context.Context, rules []model.CommissionRule) error {
	if len(rules) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rules).Error
}

func (r *RuleRepository) Create(ctx context.Context, rule *model.CommissionRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}
