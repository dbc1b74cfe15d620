package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenancyStatus string

const (
	TenancyActive    TenancyStatus = "Aktif"
	TenancyInactive  TenancyStatus = "Nonaktif"
	TenancyCancelled TenancyStatus = "Batal"
)

// Tenant is one person's occupancy record. The row is reused across stays: checkout
// clears RoomID and reassign fills it again.
type Tenant struct {
	ID                  string        `gorm:"type:uuid;primaryKey"`
	FullName            string        `gorm:"size:150;not null;index"`
	NationalID          string        `gorm:"size:17;not null"`
	Phone               string        `gorm:"size:16;not null"`
	Email               string        `gorm:"size:150"`
	Occupation          string        `gorm:"size:100"`
	EmergencyContact    string        `gorm:"size:150"`
	Notes               string        `gorm:"type:text"`
	RoomID              *string       `gorm:"type:uuid;index"`
	Room                *Room         `gorm:"foreignKey:RoomID"`
	MoveInDate          time.Time     `gorm:"type:date;not null"`
	MoveOutDate         *time.Time    `gorm:"type:date"`
	LeaseEndDate        *time.Time    `gorm:"type:date;index"`
	Status              TenancyStatus `gorm:"size:20;not null;index"`
	LastPaymentDuration *int
	LastPaymentUnit     *string `gorm:"size:10"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *Tenant) CurrentRoomID() string {
	if t.RoomID == nil {
		return ""
	}
	return *t.RoomID
}
