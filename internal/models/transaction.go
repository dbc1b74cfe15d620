package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "Pemasukan"
	TransactionExpense TransactionType = "Pengeluaran"
)

// Cash flow classification of a ledger entry.
const (
	CashFlowNone      = 0
	CashFlowOperating = 1
	CashFlowInvesting = 2
	CashFlowFinancing = 3
)

// Transaction is a ledger entry. Like Bill it keeps name snapshots next to nullable
// references.
type Transaction struct {
	ID            string          `gorm:"type:uuid;primaryKey"`
	TenantID      *string         `gorm:"type:uuid;index"`
	TenantName    string          `gorm:"size:150"`
	RoomID        *string         `gorm:"type:uuid;index"`
	RoomName      string          `gorm:"size:50"`
	Type          TransactionType `gorm:"size:20;not null;index"`
	Category      string          `gorm:"size:100;not null"`
	AccountCode   string          `gorm:"size:255"`
	CashFlowIndex *int
	Description   string          `gorm:"type:text;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Date          time.Time       `gorm:"type:date;not null;index"`
	PaymentMethod string          `gorm:"size:50"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
