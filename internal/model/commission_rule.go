package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RevenueType string

const (
	RevenueTypeRecurring RevenueType = "recurring"
	RevenueTypeOneTime   RevenueType = "one_time"
)

type SaleScenario string

const (
	SaleScenarioPartner SaleScenario = "partner_sale"
	SaleScenarioDirect  SaleScenario = "direct_sale"
)

type CommissionRole string

const (
	RolePartner  CommissionRole = "partner"
	RoleSales    CommissionRole = "sales"
	RoleInternal CommissionRole = "internal"
)

// CommissionRule grants a percentage of a billing event's value to a role,
// scoped to a month-index range of the revenue schedule. A nil range end means
// the rule applies indefinitely. Rules are seeded reference data; the engine
// never mutates them.
type CommissionRule struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	RevenueType     RevenueType    `gorm:"type:varchar(16);not null;index:idx_commission_rules_match,priority:1" json:"revenueType"`
	SaleScenario    SaleScenario   `gorm:"type:varchar(16);not null;index:idx_commission_rules_match,priority:2" json:"saleScenario"`
	Role            CommissionRole `gorm:"type:varchar(16);not null" json:"role"`
	MonthRangeStart *int           `json:"monthRangeStart,omitempty"`
	MonthRangeEnd   *int           `json:"monthRangeEnd,omitempty"`
	Percentage      int            `gorm:"not null" json:"percentage"` // whole percent, 10 = 10%
	IsActive        bool           `gorm:"not null;default:true;index" json:"isActive"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func (r *CommissionRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// AppliesToMonth checks the rule's month-range predicate. A missing range
// start defaults to 1; a missing range end is unbounded.
func (r *CommissionRule) AppliesToMonth(month int) bool {
	start := 1
	if r.MonthRangeStart != nil {
		start = *r.MonthRangeStart
	}
	if month < start {
		return false
	}
	if r.MonthRangeEnd != nil && month > *r.MonthRangeEnd {
		return false
	}
	return true
}
