package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/database"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/lease"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
)

// fixedToday is the clock every service under test reads.
var fixedToday = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedToday }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := lease.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newTenancy(db *gorm.DB) *TenancyService {
	svc := NewTenancyService(db)
	svc.Now = clock
	return svc
}

func mustRoom(t *testing.T, db *gorm.DB, name string) *models.Room {
	t.Helper()
	room, err := NewRoomService(db).Create(context.Background(), RoomInput{
		Name:         name,
		MonthlyPrice: decimal.NewFromInt(1_200_000),
		Block:        "A",
		Floor:        1,
		Type:         models.RoomTypeStandard,
		Facilities:   []string{"Kasur", "Motor"},
	})
	require.NoError(t, err)
	return room
}

func profile(name string) Profile {
	return Profile{
		FullName:         name,
		NationalID:       "3171000000000001",
		Phone:            "081234567890",
		EmergencyContact: "Ibu " + name,
	}
}

func mustMoveIn(t *testing.T, svc *TenancyService, name, roomID, moveIn string) *models.Tenant {
	t.Helper()
	tenant, err := svc.MoveIn(context.Background(), MoveInInput{
		Profile:    profile(name),
		RoomID:     roomID,
		MoveInDate: day(t, moveIn),
	})
	require.NoError(t, err)
	return tenant
}

func reloadRoom(t *testing.T, db *gorm.DB, id string) models.Room {
	t.Helper()
	var r models.Room
	require.NoError(t, db.Unscoped().Where("id = ?", id).First(&r).Error)
	return r
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}
