package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
)

// RoomInput is the editable part of a room. is_available is not in it; only
// tenancy transitions move that flag.
type RoomInput struct {
	Name         string
	MonthlyPrice decimal.Decimal
	Area         string
	Facilities   []string
	Block        string
	Floor        int
	Type         int
}

type RoomFilter struct {
	Search    string
	Block     string
	Floor     *int
	Type      int
	Available *bool
	Order     string
	Limit     int
	Offset    int
}

type RoomService struct {
	DB *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{DB: db}
}

func (in RoomInput) validate() error {
	fields := map[string]string{}
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		fields["nama_kamar"] = "required"
	case len(name) > 50:
		fields["nama_kamar"] = "max 50 characters"
	}
	if in.MonthlyPrice.IsNegative() {
		fields["harga_bulanan"] = "must not be negative"
	}
	if strings.TrimSpace(in.Block) == "" {
		fields["blok"] = "required"
	} else if len(strings.TrimSpace(in.Block)) > 10 {
		fields["blok"] = "max 10 characters"
	}
	if in.Floor < 0 {
		fields["lantai"] = "must not be negative"
	}
	if in.Type < models.RoomTypeStandard || in.Type > models.RoomTypeEconomy {
		fields["type"] = fmt.Sprintf("must be between %d and %d", models.RoomTypeStandard, models.RoomTypeEconomy)
	}
	return failIfInvalid(fields)
}

func (in RoomInput) apply(r *models.Room) {
	r.Name = strings.TrimSpace(in.Name)
	r.MonthlyPrice = in.MonthlyPrice
	r.Area = strings.TrimSpace(in.Area)
	r.Block = strings.TrimSpace(in.Block)
	r.Floor = in.Floor
	r.Type = in.Type
	facilities := make([]string, 0, len(in.Facilities))
	for _, f := range in.Facilities {
		if f = strings.TrimSpace(f); f != "" {
			facilities = append(facilities, f)
		}
	}
	r.Facilities = facilities
}

// Create adds a room. New rooms always start available.
func (s *RoomService) Create(ctx context.Context, in RoomInput) (*models.Room, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	room := models.Room{IsAvailable: true}
	in.apply(&room)
	if err := s.DB.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, wrap("create room", err)
	}
	return &room, nil
}

func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, wrap("get room", err)
	}
	return &room, nil
}

// Update rewrites the descriptive fields of a room and leaves is_available alone.
func (s *RoomService) Update(ctx context.Context, id string, in RoomInput) (*models.Room, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(room)
	err = s.DB.WithContext(ctx).Model(room).
		Select("name", "monthly_price", "area", "facilities", "block", "floor", "type").
		Updates(room).Error
	if err != nil {
		return nil, wrap("update room", err)
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a room that no active tenancy occupies.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := (RoomRegistry{}).LockForUpdate(tx, id); err != nil {
			return err
		}
		var active int64
		if err := tx.Model(&models.Tenant{}).
			Where("room_id = ? AND status = ?", id, models.TenancyActive).
			Count(&active).Error; err != nil {
			return wrap("count room occupants", err)
		}
		if active > 0 {
			return ErrRoomHasActiveTenant
		}
		if err := tx.Where("id = ?", id).Delete(&models.Room{}).Error; err != nil {
			return wrap("delete room", err)
		}
		log.Printf("room %s deleted", id)
		return nil
	})
}

func (s *RoomService) filtered(db *gorm.DB, f RoomFilter) *gorm.DB {
	q := db.Model(&models.Room{})
	if text := strings.TrimSpace(f.Search); text != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(text)+"%")
	}
	if f.Block != "" {
		q = q.Where("block = ?", f.Block)
	}
	if f.Floor != nil {
		q = q.Where("floor = ?", *f.Floor)
	}
	if f.Type != 0 {
		q = q.Where("type = ?", f.Type)
	}
	if f.Available != nil {
		q = q.Where("is_available = ?", models.Availability(*f.Available))
	}
	return q
}

// List returns a page of rooms, the total count, and each room's active tenant.
func (s *RoomService) List(ctx context.Context, f RoomFilter) ([]models.Room, int64, map[string]*models.Tenant, error) {
	db := s.DB.WithContext(ctx)
	var total int64
	if err := s.filtered(db, f).Count(&total).Error; err != nil {
		return nil, 0, nil, wrap("count rooms", err)
	}
	q := s.filtered(db, f)
	if f.Order != "" {
		q = q.Order(f.Order)
	}
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	var rooms []models.Room
	if err := q.Find(&rooms).Error; err != nil {
		return nil, 0, nil, wrap("list rooms", err)
	}

	occupants := map[string]*models.Tenant{}
	if len(rooms) > 0 {
		ids := make([]string, 0, len(rooms))
		for _, r := range rooms {
			ids = append(ids, r.ID)
		}
		var tenants []models.Tenant
		if err := db.Where("room_id IN ? AND status = ?", ids, models.TenancyActive).Find(&tenants).Error; err != nil {
			return nil, 0, nil, wrap("load room occupants", err)
		}
		for i := range tenants {
			occupants[*tenants[i].RoomID] = &tenants[i]
		}
	}
	return rooms, total, occupants, nil
}

// ImportResult reports a bulk import the way the dashboard shows it.
type ImportResult struct {
	Total    int           `json:"total_rows"`
	Created  int           `json:"created"`
	Failures []ImportError `json:"failures"`
}

type ImportError struct {
	Row   int    `json:"row"`
	Name  string `json:"nama_kamar,omitempty"`
	Error string `json:"error"`
}

// ImportRow is one parsed line of an upload; Line is its 1-based position in the file.
type ImportRow struct {
	Line  int
	Input RoomInput
}

// Import creates rooms row by row. A bad row is reported and skipped; it does not
// stop the rest.
func (s *RoomService) Import(ctx context.Context, rows []ImportRow) ImportResult {
	res := ImportResult{Total: len(rows), Failures: []ImportError{}}
	for _, row := range rows {
		if _, err := s.Create(ctx, row.Input); err != nil {
			msg := err.Error()
			var se *Error
			if errors.As(err, &se) && len(se.Fields) > 0 {
				parts := make([]string, 0, len(se.Fields))
				for k, v := range se.Fields {
					parts = append(parts, k+": "+v)
				}
				sort.Strings(parts)
				msg = strings.Join(parts, "; ")
			}
			res.Failures = append(res.Failures, ImportError{Row: row.Line, Name: row.Input.Name, Error: msg})
			continue
		}
		res.Created++
	}
	return res
}
