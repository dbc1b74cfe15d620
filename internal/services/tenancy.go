package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/lease"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
)

const (
	rentIncomeCategory    = "Sewa Kamar"
	rentIncomeAccountCode = "4-111"
)

// TenancyService owns every write that moves a tenant in, around or out of a room.
// Each operation runs in one database transaction covering both the tenant row and
// the affected room rows.
type TenancyService struct {
	DB    *gorm.DB
	Rooms RoomRegistry
	Now   func() time.Time
}

func NewTenancyService(db *gorm.DB) *TenancyService {
	return &TenancyService{DB: db, Now: time.Now}
}

// Profile holds the personal fields an operator may edit freely.
type Profile struct {
	FullName         string
	NationalID       string
	Phone            string
	Email            string
	Occupation       string
	EmergencyContact string
	Notes            string
}

type MoveInInput struct {
	Profile
	RoomID     string
	MoveInDate time.Time
	Duration   int
	Unit       lease.Unit
}

type UpdateInput struct {
	Profile
	// RoomID empty keeps the current room.
	RoomID     string
	MoveInDate time.Time
}

type PaymentInput struct {
	Duration      int
	Unit          lease.Unit
	PaymentMethod string
	// Amount, when positive, is booked as rent income together with the extension.
	Amount decimal.Decimal
}

type ReassignInput struct {
	RoomID     string
	MoveInDate time.Time
	Duration   int
	Unit       lease.Unit
}

type TenantFilter struct {
	Search string
	Status models.TenancyStatus
	RoomID string
}

func (s *TenancyService) today() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return lease.DateOnly(now())
}

func (p Profile) validate(fields map[string]string) {
	required := map[string]string{
		"nama_lengkap":  p.FullName,
		"no_ktp":        p.NationalID,
		"no_hp":         p.Phone,
		"pic_emergency": p.EmergencyContact,
	}
	for k, v := range required {
		if strings.TrimSpace(v) == "" {
			fields[k] = "required"
		}
	}
	limits := []struct {
		key string
		val string
		max int
	}{
		{"nama_lengkap", p.FullName, 150},
		{"no_ktp", p.NationalID, 17},
		{"no_hp", p.Phone, 16},
		{"pic_emergency", p.EmergencyContact, 150},
		{"email", p.Email, 150},
		{"pekerjaan", p.Occupation, 100},
	}
	for _, l := range limits {
		if len(l.val) > l.max {
			fields[l.key] = fmt.Sprintf("max %d characters", l.max)
		}
	}
}

func (p Profile) apply(t *models.Tenant) {
	t.FullName = strings.TrimSpace(p.FullName)
	t.NationalID = strings.TrimSpace(p.NationalID)
	t.Phone = strings.TrimSpace(p.Phone)
	t.Email = strings.TrimSpace(p.Email)
	t.Occupation = strings.TrimSpace(p.Occupation)
	t.EmergencyContact = strings.TrimSpace(p.EmergencyContact)
	t.Notes = p.Notes
}

// term fills in the default lease of one month and rejects nonsense values.
func term(duration int, unit lease.Unit, fields map[string]string) (int, lease.Unit) {
	if duration < 0 {
		fields["initial_duration"] = "must be at least 1"
	}
	if duration == 0 {
		duration = lease.DefaultDuration
	}
	if unit == "" {
		unit = lease.DefaultUnit
	} else if !unit.Valid() {
		fields["duration_unit"] = "must be one of day, week, month, year"
	}
	return duration, unit
}

func failIfInvalid(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return Validation("validation failed", fields)
}

func (s *TenancyService) lockTenant(tx *gorm.DB, id string) (models.Tenant, error) {
	var t models.Tenant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return t, ErrTenantNotFound
		}
		return t, wrap("load tenant", err)
	}
	return t, nil
}

func (s *TenancyService) logFailure(op, id string, err error) {
	if KindOf(err) == KindInternal {
		log.Printf("tenancy %s failed (tenant=%s): %v", op, id, err)
	}
}

// MoveIn creates an active tenancy in an available room.
func (s *TenancyService) MoveIn(ctx context.Context, in MoveInInput) (*models.Tenant, error) {
	fields := map[string]string{}
	in.Profile.validate(fields)
	if strings.TrimSpace(in.RoomID) == "" {
		fields["kamar_id"] = "required"
	}
	if in.MoveInDate.IsZero() {
		fields["tanggal_masuk"] = "required"
	}
	duration, unit := term(in.Duration, in.Unit, fields)
	if err := failIfInvalid(fields); err != nil {
		return nil, err
	}
	status, err := nextStatus(statusNone, EventMoveIn)
	if err != nil {
		return nil, err
	}

	moveIn := lease.DateOnly(in.MoveInDate)
	end := lease.ComputeEndDate(moveIn, duration, unit)
	unitStr := string(unit)
	tenant := models.Tenant{
		MoveInDate:          moveIn,
		LeaseEndDate:        &end,
		Status:              status,
		LastPaymentDuration: &duration,
		LastPaymentUnit:     &unitStr,
	}
	in.Profile.apply(&tenant)

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.Rooms.LockForUpdate(tx, strings.TrimSpace(in.RoomID))
		if err != nil {
			return err
		}
		if !room.IsAvailable {
			return ErrRoomOccupied
		}
		tenant.RoomID = &room.ID
		if err := tx.Create(&tenant).Error; err != nil {
			if IsUniqueViolation(err) {
				return ErrRoomOccupied
			}
			return wrap("create tenant", err)
		}
		return s.Rooms.SetAvailable(tx, room.ID, false)
	})
	if err != nil {
		s.logFailure("move-in", "", err)
		return nil, err
	}
	log.Printf("tenant %s moved in: room=%s lease_end=%s", tenant.ID, tenant.CurrentRoomID(), end.Format(lease.DateLayout))
	return s.Get(ctx, tenant.ID)
}

// Update edits the tenant's profile and move-in date. A different RoomID moves an
// active tenant to that room. Status, lease end and payment terms are never taken
// from the input.
func (s *TenancyService) Update(ctx context.Context, id string, in UpdateInput) (*models.Tenant, error) {
	fields := map[string]string{}
	in.Profile.validate(fields)
	if in.MoveInDate.IsZero() {
		fields["tanggal_masuk"] = "required"
	}
	if err := failIfInvalid(fields); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.lockTenant(tx, id)
		if err != nil {
			return err
		}
		oldRoom := t.CurrentRoomID()
		newRoom := strings.TrimSpace(in.RoomID)
		moveIn := lease.DateOnly(in.MoveInDate)
		moveInChanged := !moveIn.Equal(lease.DateOnly(t.MoveInDate))

		if newRoom != "" && newRoom != oldRoom {
			if _, err := nextStatus(t.Status, EventTransfer); err != nil {
				return err
			}
			dest, err := s.Rooms.LockForUpdate(tx, newRoom)
			if err != nil {
				return err
			}
			var occupants int64
			if err := tx.Model(&models.Tenant{}).
				Where("room_id = ? AND status = ? AND id <> ?", dest.ID, models.TenancyActive, t.ID).
				Count(&occupants).Error; err != nil {
				return wrap("count destination occupants", err)
			}
			if occupants > 0 {
				return ErrDestinationOccupied
			}
			if oldRoom != "" {
				if err := s.Rooms.SetAvailable(tx, oldRoom, true); err != nil {
					return err
				}
			}
			if err := s.Rooms.SetAvailable(tx, dest.ID, false); err != nil {
				return err
			}
			t.RoomID = &dest.ID
			log.Printf("tenant %s transferred: room %s -> %s", t.ID, oldRoom, dest.ID)
		}

		in.Profile.apply(&t)
		t.MoveInDate = moveIn
		if moveInChanged && t.Status == models.TenancyActive {
			duration, unit := lease.DefaultDuration, lease.DefaultUnit
			if t.LastPaymentDuration != nil && *t.LastPaymentDuration > 0 {
				duration = *t.LastPaymentDuration
			}
			if t.LastPaymentUnit != nil && *t.LastPaymentUnit != "" {
				unit = lease.Unit(*t.LastPaymentUnit)
			}
			end := lease.ComputeEndDate(moveIn, duration, unit)
			t.LeaseEndDate = &end
		}

		err = tx.Model(&t).Select(
			"full_name", "national_id", "phone", "email", "occupation",
			"emergency_contact", "notes", "room_id", "move_in_date", "lease_end_date",
		).Updates(&t).Error
		if err != nil {
			if IsUniqueViolation(err) {
				return ErrDestinationOccupied
			}
			return wrap("update tenant", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("update", id, err)
		return nil, err
	}
	return s.Get(ctx, id)
}

// RecordPayment extends the lease of an active tenant from its current end date.
func (s *TenancyService) RecordPayment(ctx context.Context, id string, in PaymentInput) (*models.Tenant, error) {
	fields := map[string]string{}
	if in.Duration < 1 {
		fields["duration"] = "must be at least 1"
	}
	if !in.Unit.Valid() {
		fields["unit"] = "must be one of day, week, month, year"
	}
	if in.Amount.IsNegative() {
		fields["jumlah"] = "must not be negative"
	}
	if err := failIfInvalid(fields); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.lockTenant(tx, id)
		if err != nil {
			return err
		}
		if _, err := nextStatus(t.Status, EventRenew); err != nil {
			return err
		}
		base := t.MoveInDate
		if t.LeaseEndDate != nil {
			base = *t.LeaseEndDate
		}
		end := lease.ComputeEndDate(base, in.Duration, in.Unit)
		if err := tx.Model(&t).Updates(map[string]any{
			"lease_end_date":        end,
			"last_payment_duration": in.Duration,
			"last_payment_unit":     string(in.Unit),
		}).Error; err != nil {
			return wrap("extend lease", err)
		}
		if in.Amount.IsPositive() {
			if err := s.bookRent(tx, t, in); err != nil {
				return err
			}
		}
		log.Printf("tenant %s paid %d %s: lease_end=%s", t.ID, in.Duration, in.Unit, end.Format(lease.DateLayout))
		return nil
	})
	if err != nil {
		s.logFailure("payment", id, err)
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *TenancyService) bookRent(tx *gorm.DB, t models.Tenant, in PaymentInput) error {
	cashFlow := models.CashFlowOperating
	entry := models.Transaction{
		TenantID:      &t.ID,
		TenantName:    t.FullName,
		RoomID:        t.RoomID,
		Type:          models.TransactionIncome,
		Category:      rentIncomeCategory,
		AccountCode:   rentIncomeAccountCode,
		CashFlowIndex: &cashFlow,
		Description:   fmt.Sprintf("Pembayaran sewa %d %s - %s", in.Duration, in.Unit, t.FullName),
		Amount:        in.Amount,
		Date:          s.today(),
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
	}
	if t.RoomID != nil {
		var room models.Room
		if err := tx.Unscoped().Select("id", "name").Where("id = ?", *t.RoomID).First(&room).Error; err == nil {
			entry.RoomName = room.Name
		}
	}
	if err := tx.Create(&entry).Error; err != nil {
		return wrap("book rent income", err)
	}
	return nil
}

// Checkout deactivates a tenant and frees the room it occupied. A nil moveOut means today.
func (s *TenancyService) Checkout(ctx context.Context, id string, moveOut *time.Time) (*models.Tenant, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.lockTenant(tx, id)
		if err != nil {
			return err
		}
		status, err := nextStatus(t.Status, EventCheckout)
		if err != nil {
			return err
		}
		if t.RoomID == nil {
			return ErrNotBoundToRoom
		}
		date := s.today()
		if moveOut != nil {
			date = lease.DateOnly(*moveOut)
		}
		if date.Before(lease.DateOnly(t.MoveInDate)) {
			return Validation("validation failed", map[string]string{
				"tanggal_keluar": "must be on or after " + t.MoveInDate.Format(lease.DateLayout),
			})
		}
		roomID := *t.RoomID
		if free, err := s.Rooms.IsAvailable(tx, roomID); err == nil && free {
			log.Printf("room %s was already marked available while tenant %s occupied it", roomID, t.ID)
		}
		if err := tx.Model(&t).Updates(map[string]any{
			"status":        status,
			"move_out_date": date,
			"room_id":       nil,
		}).Error; err != nil {
			return wrap("checkout tenant", err)
		}
		if err := s.Rooms.SetAvailable(tx, roomID, true); err != nil {
			return err
		}
		log.Printf("tenant %s checked out: released room=%s move_out=%s", t.ID, roomID, date.Format(lease.DateLayout))
		return nil
	})
	if err != nil {
		s.logFailure("checkout", id, err)
		return nil, err
	}
	return s.Get(ctx, id)
}

// Reassign starts a new stay for a tenant that is not currently active.
func (s *TenancyService) Reassign(ctx context.Context, id string, in ReassignInput) (*models.Tenant, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.RoomID) == "" {
		fields["new_kamar_id"] = "required"
	}
	if in.MoveInDate.IsZero() {
		fields["tanggal_masuk_baru"] = "required"
	}
	duration, unit := term(in.Duration, in.Unit, fields)
	if err := failIfInvalid(fields); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.lockTenant(tx, id)
		if err != nil {
			return err
		}
		status, err := nextStatus(t.Status, EventReassign)
		if err != nil {
			return err
		}
		room, err := s.Rooms.LockForUpdate(tx, strings.TrimSpace(in.RoomID))
		if err != nil {
			return err
		}
		if !room.IsAvailable {
			return ErrRoomOccupied
		}
		moveIn := lease.DateOnly(in.MoveInDate)
		end := lease.ComputeEndDate(moveIn, duration, unit)
		if err := tx.Model(&t).Updates(map[string]any{
			"room_id":               room.ID,
			"move_in_date":          moveIn,
			"move_out_date":         nil,
			"status":                status,
			"lease_end_date":        end,
			"last_payment_duration": duration,
			"last_payment_unit":     string(unit),
		}).Error; err != nil {
			if IsUniqueViolation(err) {
				return ErrRoomOccupied
			}
			return wrap("reactivate tenant", err)
		}
		if err := s.Rooms.SetAvailable(tx, room.ID, false); err != nil {
			return err
		}
		log.Printf("tenant %s reassigned: room=%s lease_end=%s", t.ID, room.ID, end.Format(lease.DateLayout))
		return nil
	})
	if err != nil {
		s.logFailure("reassign", id, err)
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a non-active tenant for good. Bills and ledger entries keep their
// name snapshots; their tenant reference is cleared.
func (s *TenancyService) Delete(ctx context.Context, id string) (string, error) {
	var name string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.lockTenant(tx, id)
		if err != nil {
			return err
		}
		if _, err := nextStatus(t.Status, EventRemove); err != nil {
			return err
		}
		name = t.FullName
		if t.RoomID != nil {
			// Non-active tenants should never hold a room; release it unless
			// someone else is actually living there.
			var others int64
			if err := tx.Model(&models.Tenant{}).
				Where("room_id = ? AND status = ? AND id <> ?", *t.RoomID, models.TenancyActive, t.ID).
				Count(&others).Error; err != nil {
				return wrap("count room occupants", err)
			}
			if others == 0 {
				if err := s.Rooms.SetAvailable(tx, *t.RoomID, true); err != nil {
					return err
				}
			}
			log.Printf("tenant %s had status %s but still referenced room %s", t.ID, t.Status, *t.RoomID)
		}
		if err := tx.Model(&models.Bill{}).Where("tenant_id = ?", t.ID).Update("tenant_id", nil).Error; err != nil {
			return wrap("detach bills", err)
		}
		if err := tx.Model(&models.Transaction{}).Where("tenant_id = ?", t.ID).Update("tenant_id", nil).Error; err != nil {
			return wrap("detach transactions", err)
		}
		if err := tx.Delete(&models.Tenant{}, "id = ?", t.ID).Error; err != nil {
			return wrap("delete tenant", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("delete", id, err)
		return "", err
	}
	log.Printf("tenant %s (%s) deleted permanently", id, name)
	return name, nil
}

// unscopedRoom keeps soft-deleted rooms visible on historical tenant records.
func unscopedRoom(db *gorm.DB) *gorm.DB { return db.Unscoped() }

func (s *TenancyService) Get(ctx context.Context, id string) (*models.Tenant, error) {
	var t models.Tenant
	if err := s.DB.WithContext(ctx).Preload("Room", unscopedRoom).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, wrap("get tenant", err)
	}
	return &t, nil
}

// GetWithBills returns the tenant and its bills, newest due date first.
func (s *TenancyService) GetWithBills(ctx context.Context, id string) (*models.Tenant, []models.Bill, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var bills []models.Bill
	if err := s.DB.WithContext(ctx).Where("tenant_id = ?", id).Order("due_date DESC").Find(&bills).Error; err != nil {
		return nil, nil, wrap("list tenant bills", err)
	}
	return t, bills, nil
}

func (s *TenancyService) List(ctx context.Context, f TenantFilter) ([]models.Tenant, error) {
	q := s.DB.WithContext(ctx).Model(&models.Tenant{}).Preload("Room", unscopedRoom)
	if qText := strings.TrimSpace(f.Search); qText != "" {
		like := "%" + strings.ToLower(qText) + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR national_id LIKE ? OR phone LIKE ?", like, like, like)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RoomID != "" {
		q = q.Where("room_id = ?", f.RoomID)
	}
	var tenants []models.Tenant
	if err := q.Order("status DESC").Order("created_at DESC").Find(&tenants).Error; err != nil {
		return nil, wrap("list tenants", err)
	}
	return tenants, nil
}
