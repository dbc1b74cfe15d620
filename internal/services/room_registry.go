package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
)

// RoomRegistry reads and writes the rooms' availability flag. It holds no rules;
// TenancyService is its only writer, always inside a transaction.
type RoomRegistry struct{}

// LockForUpdate loads a live (not soft-deleted) room and takes a row lock on it for
// the rest of tx. SQLite has no row locks and its dialect drops the clause.
func (RoomRegistry) LockForUpdate(tx *gorm.DB, roomID string) (models.Room, error) {
	var room models.Room
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", roomID).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return room, ErrRoomNotFound
		}
		return room, wrap("lock room", err)
	}
	return room, nil
}

// IsAvailable reads the flag of a live room.
func (RoomRegistry) IsAvailable(tx *gorm.DB, roomID string) (bool, error) {
	var room models.Room
	if err := tx.Select("id", "is_available").Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrRoomNotFound
		}
		return false, wrap("read room availability", err)
	}
	return bool(room.IsAvailable), nil
}

// SetAvailable writes the flag. Soft-deleted rooms are included so a stale
// reference can still be released.
func (RoomRegistry) SetAvailable(tx *gorm.DB, roomID string, available bool) error {
	res := tx.Unscoped().Model(&models.Room{}).Where("id = ?", roomID).
		Update("is_available", models.Availability(available))
	if res.Error != nil {
		return wrap("set room availability", res.Error)
	}
	return nil
}
