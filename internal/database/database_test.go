package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/config"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/utils"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	for _, table := range []string{"users", "refresh_tokens", "rooms", "tenants", "bills", "transactions"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestSeedAdminOnce(t *testing.T) {
	db := openTestDB(t)
	cfg := &config.Config{AdminEmail: " Owner@Kos.Test ", AdminPassword: "pemilik123", AdminFullName: "Pemilik"}

	require.NoError(t, SeedAdmin(db, cfg))
	require.NoError(t, SeedAdmin(db, cfg))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "owner@kos.test", users[0].Email)
	assert.Equal(t, "admin", users[0].Role)
	assert.True(t, users[0].Active)
	assert.True(t, utils.CheckPassword(users[0].Password, "pemilik123"))
}

func TestSeedRoomsOnlyIntoEmptyTable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, SeedRooms(db))
	require.NoError(t, SeedRooms(db))

	var rooms []models.Room
	require.NoError(t, db.Order("name").Find(&rooms).Error)
	require.Len(t, rooms, len(sampleRooms))
	assert.Equal(t, "Kamar 101", rooms[0].Name)
	assert.True(t, bool(rooms[0].IsAvailable))
	assert.Contains(t, []string(rooms[0].Facilities), "Motor")
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
