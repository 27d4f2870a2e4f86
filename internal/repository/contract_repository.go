package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/revenue-engine/internal/model"
)

// ContractRepository is read-only: contracts are owned by the CRM.
type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).First(&contract, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) ListActiveOrSigned(ctx context.Context) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Where("status IN ?", []model.ContractStatus{model.ContractStatusActive, model.ContractStatusSigned}).
		Order("created_at ASC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}
