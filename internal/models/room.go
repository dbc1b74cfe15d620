package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoomTypeStandard = 1
	RoomTypeVIP      = 2
	RoomTypeEconomy  = 3
)

type Room struct {
	ID           string                      `gorm:"type:uuid;primaryKey"`
	Name         string                      `gorm:"size:50;not null;index"`
	MonthlyPrice decimal.Decimal             `gorm:"type:decimal(14,2);not null"`
	Area         string                      `gorm:"size:50"`
	IsAvailable  Availability                `gorm:"not null"`
	Facilities   datatypes.JSONSlice[string] `gorm:"type:text"`
	Block        string                      `gorm:"size:10;index:idx_rooms_block_floor"`
	Floor        int                         `gorm:"index:idx_rooms_block_floor"`
	Type         int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Availability is the room's free/occupied flag. Rows written by older tooling may
// carry it as "1"/"0", 1/0 or "true"/"false"; Scan folds all of them into a bool so
// nothing above the storage layer sees anything but true or false.
type Availability bool

func (a *Availability) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = false
	case bool:
		*a = Availability(v)
	case int64:
		*a = v != 0
	case float64:
		*a = v != 0
	case []byte:
		return a.Scan(string(v))
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			*a = true
		case "", "0", "f", "false", "n", "no":
			*a = false
		default:
			return fmt.Errorf("availability: unrecognised value %q", v)
		}
	default:
		return fmt.Errorf("availability: unsupported type %T", value)
	}
	return nil
}

func (a Availability) Value() (driver.Value, error) {
	return bool(a), nil
}

func (Availability) GormDataType() string {
	return "boolean"
}
