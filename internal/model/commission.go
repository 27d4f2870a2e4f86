package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "pending"
	CommissionStatusPaid    CommissionStatus = "paid"
)

// Commission is one computed payout obligation against a revenue schedule
// entry. OwnerID is the partner or the sales user the commission belongs to,
// depending on role; PartnerID/UserID keep the owner queryable per side. The
// (entry, rule, owner) unique index makes recomputation under races an
// idempotent no-op.
type Commission struct {
	ID                     uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID             uuid.UUID        `gorm:"type:uuid;not null;index" json:"contractId"`
	RevenueScheduleEntryID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:ux_commissions_entry_rule_owner,priority:1" json:"revenueScheduleEntryId"`
	RuleID                 uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:ux_commissions_entry_rule_owner,priority:2" json:"ruleId"`
	OwnerID                uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:ux_commissions_entry_rule_owner,priority:3" json:"ownerId"`
	PartnerID              *uuid.UUID       `gorm:"type:uuid;index" json:"partnerId,omitempty"`
	UserID                 *uuid.UUID       `gorm:"type:uuid;index" json:"userId,omitempty"`
	Role                   CommissionRole   `gorm:"type:varchar(16);not null" json:"role"`
	BaseValue              int64            `gorm:"not null" json:"baseValue"`  // minor currency units
	Percentage             int              `gorm:"not null" json:"percentage"` // whole percent at computation time
	CommissionValue        int64            `gorm:"not null" json:"commissionValue"`
	Period                 string           `gorm:"type:varchar(7);not null;index" json:"period"` // YYYY-MM
	Status                 CommissionStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	PaidAt                 *time.Time       `json:"paidAt,omitempty"`
	CreatedAt              time.Time        `json:"createdAt"`
}

func (c *Commission) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
