package database

import (
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/config"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/utils"
)

// SeedAdmin creates the first admin account when no admin exists yet.
func SeedAdmin(db *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		email = "admin@example.com"
	}
	name := cfg.AdminFullName
	if name == "" {
		name = "Administrator"
	}
	password := cfg.AdminPassword
	if len(password) < utils.MinPasswordLength {
		log.Printf("warning: ADMIN_PASSWORD is shorter than %d characters, change it after the first login", utils.MinPasswordLength)
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     "admin",
		Active:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Println("Seeded initial admin:", email)
	return nil
}

type roomSeed struct {
	Name       string
	Price      int64
	Area       string
	Block      string
	Floor      int
	Type       int
	Facilities []string
}

var sampleRooms = []roomSeed{
	{"Kamar 101", 1_200_000, "3x4", "A", 1, models.RoomTypeStandard, []string{"Kasur", "Lemari", "Meja", "Motor"}},
	{"Kamar 102", 1_200_000, "3x4", "A", 1, models.RoomTypeStandard, []string{"Kasur", "Lemari", "Meja"}},
	{"Kamar 201", 1_800_000, "4x4", "A", 2, models.RoomTypeVIP, []string{"Kasur", "Lemari", "AC", "Kamar Mandi Dalam", "Mobil"}},
	{"Kamar 202", 1_800_000, "4x4", "A", 2, models.RoomTypeVIP, []string{"Kasur", "Lemari", "AC", "Kamar Mandi Dalam"}},
	{"Kamar 301", 900_000, "3x3", "B", 3, models.RoomTypeEconomy, []string{"Kasur", "Lemari"}},
}

// SeedRooms inserts the sample rooms into an empty room table.
func SeedRooms(db *gorm.DB) error {
	var count int64
	if err := db.Unscoped().Model(&models.Room{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Printf("rooms already present (%d), skipping sample rooms", count)
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, s := range sampleRooms {
			room := models.Room{
				Name:         s.Name,
				MonthlyPrice: decimal.NewFromInt(s.Price),
				Area:         s.Area,
				IsAvailable:  true,
				Facilities:   s.Facilities,
				Block:        s.Block,
				Floor:        s.Floor,
				Type:         s.Type,
			}
			if err := tx.Create(&room).Error; err != nil {
				return err
			}
		}
		log.Printf("Seeded %d sample rooms", len(sampleRooms))
		return nil
	})
}
