package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/lease"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
)

type EntryInput struct {
	TenantID      string
	RoomID        string
	Type          models.TransactionType
	Category      string
	AccountCode   string
	CashFlowIndex *int
	Description   string
	Amount        decimal.Decimal
	Date          time.Time
	PaymentMethod string
}

type EntryFilter struct {
	Type     models.TransactionType
	Category string
	Search   string
	From     *time.Time
	To       *time.Time
	TenantID string
	Limit    int
	Offset   int
	// Desc sorts newest first, the default for the dashboard.
	Desc bool
}

// LedgerService keeps the income and expense book. Entries are plain records; only
// the tenant and room names are copied in from live rows.
type LedgerService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db, Now: time.Now}
}

func (s *LedgerService) today() time.Time {
	if s.Now == nil {
		return lease.DateOnly(time.Now())
	}
	return lease.DateOnly(s.Now())
}

func (s *LedgerService) validate(in EntryInput) error {
	fields := map[string]string{}
	switch in.Type {
	case models.TransactionIncome, models.TransactionExpense:
	case "":
		fields["tipe_transaksi"] = "required"
	default:
		fields["tipe_transaksi"] = "must be Pemasukan or Pengeluaran"
	}
	if c := strings.TrimSpace(in.Category); c == "" {
		fields["kategori"] = "required"
	} else if len(c) > 100 {
		fields["kategori"] = "max 100 characters"
	}
	if strings.TrimSpace(in.Description) == "" {
		fields["deskripsi"] = "required"
	}
	if !in.Amount.IsPositive() {
		fields["jumlah"] = "must be greater than 0"
	}
	if in.Date.IsZero() {
		fields["tanggal_transaksi"] = "required"
	} else if lease.DateOnly(in.Date).After(s.today()) {
		fields["tanggal_transaksi"] = "must not be in the future"
	}
	if in.CashFlowIndex != nil && (*in.CashFlowIndex < models.CashFlowNone || *in.CashFlowIndex > models.CashFlowFinancing) {
		fields["cash_flow_index"] = "must be between 0 and 3"
	}
	return failIfInvalid(fields)
}

// snapshot copies tenant and room names onto e. A tenant reference without a room
// takes the tenant's current room.
func snapshot(tx *gorm.DB, e *models.Transaction) error {
	e.TenantName, e.RoomName = "", ""
	if e.TenantID != nil {
		var t models.Tenant
		err := tx.Select("id", "full_name", "room_id").Where("id = ?", *e.TenantID).First(&t).Error
		switch {
		case err == nil:
			e.TenantName = t.FullName
			if e.RoomID == nil && t.RoomID != nil {
				room := *t.RoomID
				e.RoomID = &room
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			return Validation("validation failed", map[string]string{"penghuni_id": "unknown tenant"})
		default:
			return wrap("load entry tenant", err)
		}
	}
	if e.RoomID != nil {
		var r models.Room
		err := tx.Unscoped().Select("id", "name").Where("id = ?", *e.RoomID).First(&r).Error
		switch {
		case err == nil:
			e.RoomName = r.Name
		case errors.Is(err, gorm.ErrRecordNotFound):
			return Validation("validation failed", map[string]string{"kamar_id": "unknown room"})
		default:
			return wrap("load entry room", err)
		}
	}
	return nil
}

func optionalID(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (in EntryInput) apply(e *models.Transaction) {
	e.TenantID = optionalID(in.TenantID)
	e.RoomID = optionalID(in.RoomID)
	e.Type = in.Type
	e.Category = strings.TrimSpace(in.Category)
	e.AccountCode = strings.TrimSpace(in.AccountCode)
	e.CashFlowIndex = in.CashFlowIndex
	e.Description = strings.TrimSpace(in.Description)
	e.Amount = in.Amount
	e.Date = lease.DateOnly(in.Date)
	e.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
}

func (s *LedgerService) Create(ctx context.Context, in EntryInput) (*models.Transaction, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	var e models.Transaction
	in.apply(&e)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := snapshot(tx, &e); err != nil {
			return err
		}
		if err := tx.Create(&e).Error; err != nil {
			return wrap("create transaction", err)
		}
		return nil
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			log.Printf("create transaction failed: %v", err)
		}
		return nil, err
	}
	return &e, nil
}

func (s *LedgerService) Update(ctx context.Context, id string, in EntryInput) (*models.Transaction, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	var e models.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&e).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return wrap("load transaction", err)
		}
		in.apply(&e)
		if err := snapshot(tx, &e); err != nil {
			return err
		}
		if err := tx.Save(&e).Error; err != nil {
			return wrap("update transaction", err)
		}
		return nil
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			log.Printf("update transaction %s failed: %v", id, err)
		}
		return nil, err
	}
	return &e, nil
}

func (s *LedgerService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	var e models.Transaction
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, wrap("get transaction", err)
	}
	return &e, nil
}

func (s *LedgerService) Delete(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Transaction{})
	if res.Error != nil {
		return wrap("delete transaction", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// List returns one page of entries plus the total matching count.
func (s *LedgerService) List(ctx context.Context, f EntryFilter) ([]models.Transaction, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Transaction{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.TenantID != "" {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", lease.DateOnly(*f.From))
	}
	if f.To != nil {
		q = q.Where("date <= ?", lease.DateOnly(*f.To))
	}
	if text := strings.TrimSpace(f.Search); text != "" {
		like := "%" + strings.ToLower(text) + "%"
		q = q.Where("LOWER(description) LIKE ? OR LOWER(tenant_name) LIKE ? OR LOWER(room_name) LIKE ? OR LOWER(category) LIKE ?",
			like, like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrap("count transactions", err)
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	q = q.Order("date " + dir).Order("created_at " + dir)
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var rows []models.Transaction
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, wrap("list transactions", err)
	}
	return rows, total, nil
}

// BackfillSnapshots fills empty tenant and room names on bills and transactions
// from the rows they still reference. It returns the number of rows changed.
func (s *LedgerService) BackfillSnapshots(ctx context.Context) (int, error) {
	changed := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		names, err := liveNames(tx)
		if err != nil {
			return err
		}
		var entries []models.Transaction
		if err := tx.Where("(tenant_name = '' OR tenant_name IS NULL) AND tenant_id IS NOT NULL").
			Or("(room_name = '' OR room_name IS NULL) AND room_id IS NOT NULL").
			Find(&entries).Error; err != nil {
			return wrap("load transactions without snapshot", err)
		}
		for _, e := range entries {
			upd := names.fill(e.TenantID, e.RoomID, e.TenantName, e.RoomName)
			if len(upd) == 0 {
				continue
			}
			if err := tx.Model(&models.Transaction{}).Where("id = ?", e.ID).Updates(upd).Error; err != nil {
				return wrap("backfill transaction", err)
			}
			changed++
		}
		var bills []models.Bill
		if err := tx.Where("(tenant_name = '' OR tenant_name IS NULL) AND tenant_id IS NOT NULL").
			Or("(room_name = '' OR room_name IS NULL) AND room_id IS NOT NULL").
			Find(&bills).Error; err != nil {
			return wrap("load bills without snapshot", err)
		}
		for _, b := range bills {
			upd := names.fill(b.TenantID, b.RoomID, b.TenantName, b.RoomName)
			if len(upd) == 0 {
				continue
			}
			if err := tx.Model(&models.Bill{}).Where("id = ?", b.ID).Updates(upd).Error; err != nil {
				return wrap("backfill bill", err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("snapshot backfill updated %d row(s)", changed)
	return changed, nil
}

type nameIndex struct {
	tenants map[string]string
	rooms   map[string]string
}

func liveNames(tx *gorm.DB) (*nameIndex, error) {
	idx := &nameIndex{tenants: map[string]string{}, rooms: map[string]string{}}
	var tenants []models.Tenant
	if err := tx.Select("id", "full_name").Find(&tenants).Error; err != nil {
		return nil, wrap("load tenant names", err)
	}
	for _, t := range tenants {
		idx.tenants[t.ID] = t.FullName
	}
	var rooms []models.Room
	if err := tx.Unscoped().Select("id", "name").Find(&rooms).Error; err != nil {
		return nil, wrap("load room names", err)
	}
	for _, r := range rooms {
		idx.rooms[r.ID] = r.Name
	}
	return idx, nil
}

func (n *nameIndex) fill(tenantID, roomID *string, tenantName, roomName string) map[string]any {
	upd := map[string]any{}
	if tenantName == "" && tenantID != nil {
		if name, ok := n.tenants[*tenantID]; ok {
			upd["tenant_name"] = name
		}
	}
	if roomName == "" && roomID != nil {
		if name, ok := n.rooms[*roomID]; ok {
			upd["room_name"] = name
		}
	}
	return upd
}
