package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/revenue-engine/internal/model"
)

type CommissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

func (r *CommissionRepository) ListByScheduleEntry(ctx context.Context, entryID uuid.UUID) ([]model.Commission, error) {
	var commissions []model.Commission
	err := r.db.WithContext(ctx).
		Where("revenue_schedule_entry_id = ?", entryID).
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

// Insert writes one commission row. A conflict on (entry, rule, owner) means
// another run already computed this payout, which is a successful no-op.
func (r *CommissionRepository) Insert(ctx context.Context, commission *model.Commission) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(commission).Error
}

func (r *CommissionRepository) ListByOwner(ctx context.Context, partnerID, userID *uuid.UUID) ([]model.Commission, error) {
	query := r.db.WithContext(ctx).Model(&model.Commission{})
	if partnerID != nil {
		query = query.Where("partner_id = ?", *partnerID)
	}
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var commissions []model.Commission
	if err := query.Order("created_at DESC").Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *CommissionRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Commission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  model.CommissionStatusPaid,
			"paid_at": paidAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
