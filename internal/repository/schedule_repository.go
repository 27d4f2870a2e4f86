package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/revenue-engine/internal/model"
)

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.RevenueScheduleEntry, error) {
	var entry model.RevenueScheduleEntry
	err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ScheduleRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.RevenueScheduleEntry, error) {
	var entries []model.RevenueScheduleEntry
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("month ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// InsertBatch writes entries in one statement. Conflicts on
// (contract_id, month) are ignored so concurrent generation of the same
// schedule settles on a single row per period.
func (r *ScheduleRepository) InsertBatch(ctx context.Context, entries []model.RevenueScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entries).Error
}

func (r *ScheduleRepository) MarkPaid(ctx context.Context, id uuid.UUID, invoiceNumber *string, paidAt time.Time) error {
	updates := map[string]interface{}{
		"status":  model.ScheduleStatusPaid,
		"paid_at": paidAt,
	}
	if invoiceNumber != nil {
		updates["invoice_number"] = *invoiceNumber
	}
	result := r.db.WithContext(ctx).
		Model(&model.RevenueScheduleEntry{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
