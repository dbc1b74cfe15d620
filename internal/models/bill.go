package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BillStatus string

const (
	BillPaid   BillStatus = "Lunas"
	BillUnpaid BillStatus = "Belum Lunas"
)

// Bill is a printed invoice or receipt. TenantName and RoomName are copied at creation
// and survive the tenant or room being deleted. TenantID and RoomID carry no
// foreign key constraint.
type Bill struct {
	ID          string          `gorm:"type:uuid;primaryKey"`
	TenantID    *string         `gorm:"type:uuid;index"`
	TenantName  string          `gorm:"size:150"`
	RoomID      *string         `gorm:"type:uuid;index"`
	RoomName    string          `gorm:"size:50"`
	Number      string          `gorm:"size:50;not null;index"`
	Description string          `gorm:"size:255"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	DueDate     time.Time       `gorm:"type:date"`
	Status      BillStatus      `gorm:"size:20;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (b *Bill) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
