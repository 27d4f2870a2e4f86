package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
	BillingCycleOneTime BillingCycle = "one_time"
)

type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "draft"
	ContractStatusSigned    ContractStatus = "signed"
	ContractStatusActive    ContractStatus = "active"
	ContractStatusEnded     ContractStatus = "ended"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// Contract holds the business terms the engine projects from. It is owned by
// the CRM; the engine only ever reads it.
type Contract struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(255)" json:"name"`
	Type         string         `gorm:"type:varchar(32);not null" json:"type"` // saas, subscription, service, ...
	BillingCycle BillingCycle   `gorm:"type:varchar(16);not null" json:"billingCycle"`
	MonthlyValue int64          `gorm:"not null;default:0" json:"monthlyValue"` // minor currency units
	TotalValue   int64          `gorm:"not null;default:0" json:"totalValue"`   // minor currency units, one-time contracts
	StartDate    time.Time      `gorm:"not null" json:"startDate"`
	EndDate      *time.Time     `json:"endDate,omitempty"`
	PartnerID    *uuid.UUID     `gorm:"type:uuid;index" json:"partnerId,omitempty"`
	Status       ContractStatus `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// RevenueType classifies the contract for rule matching: subscription-style
// contracts bill recurring revenue, everything else is one-time.
func (c *Contract) RevenueType() RevenueType {
	if c.Type == "saas" || c.Type == "subscription" {
		return RevenueTypeRecurring
	}
	return RevenueTypeOneTime
}

// Ended reports whether the contract's end date has already passed.
func (c *Contract) Ended(now time.Time) bool {
	return c.EndDate != nil && c.EndDate.Before(now)
}
