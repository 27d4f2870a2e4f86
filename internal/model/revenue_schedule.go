package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleStatus string

const (
	ScheduleStatusPending ScheduleStatus = "pending"
	ScheduleStatusPaid    ScheduleStatus = "paid"
)

// RevenueScheduleEntry is one projected billing event for a contract. The
// month index is 1-based and sequential per contract; for yearly billing it is
// the year index. (contract_id, month) is unique, so concurrent generation
// resolves to a single row per billing period.
type RevenueScheduleEntry struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_revenue_schedule_contract_month,priority:1" json:"contractId"`
	Month         int            `gorm:"not null;uniqueIndex:ux_revenue_schedule_contract_month,priority:2" json:"month"`
	DueDate       time.Time      `gorm:"not null" json:"dueDate"`
	Value         int64          `gorm:"not null" json:"value"` // minor currency units
	Status        ScheduleStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	InvoiceNumber *string        `gorm:"type:varchar(64)" json:"invoiceNumber,omitempty"`
	PaidAt        *time.Time     `json:"paidAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (e *RevenueScheduleEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Period is the YYYY-MM bucket the entry's due date falls in.
func (e *RevenueScheduleEntry) Period() string {
	return e.DueDate.Format("2006-01")
}
