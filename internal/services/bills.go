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
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/utils"
)

const (
	PreviewID         = "PREVIEW-TEMP"
	DefaultBillDueIn  = 7
	defaultBillDesc   = "Tagihan Kos"
	defaultPayMethod  = "Transfer"
	missingTenantName = "Penghuni Tidak Ditemukan"
	noRoomName        = "Tanpa Kamar"
	deletedTenantName = "Penghuni Terhapus"
	deletedRoomName   = "Kamar Terhapus"
)

// parkingFacilities are listed under "parkir" on receipts instead of "fasilitas".
var parkingFacilities = map[string]bool{
	"Motor":        true,
	"Mobil":        true,
	"Rental Motor": true,
	"Rental Mobil": true,
}

// AmountLabel is the coarse amount-in-words line printed on receipts.
func AmountLabel(amount decimal.Decimal) string {
	n := amount.Floor()
	switch {
	case n.GreaterThanOrEqual(decimal.NewFromInt(1_000_000_000)):
		return "Satu Milyar Lebih Rupiah"
	case n.GreaterThanOrEqual(decimal.NewFromInt(1_000_000)):
		return "Jutaan Rupiah"
	case n.GreaterThanOrEqual(decimal.NewFromInt(1_000)):
		return "Ratusan Ribu Rupiah"
	default:
		return "Jumlah Pembayaran"
	}
}

// SplitFacilities separates parking entries from the rest, keyed in snake_case.
func SplitFacilities(items []string) (facilities, parking map[string]bool) {
	facilities, parking = map[string]bool{}, map[string]bool{}
	for _, item := range items {
		key := strings.ToLower(strings.ReplaceAll(item, " ", "_"))
		if key == "" {
			continue
		}
		if parkingFacilities[item] {
			parking[key] = true
		} else {
			facilities[key] = true
		}
	}
	return facilities, parking
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// Receipt is the printable view of a bill, saved or previewed.
type Receipt struct {
	ID            string            `json:"id"`
	RoomID        *string           `json:"kamar_id"`
	ReceiptNumber string            `json:"nomor_kuitansi"`
	BillNumber    string            `json:"nomor_tagihan"`
	PaidOn        string            `json:"tanggal_bayar"`
	DueDate       string            `json:"jatuh_tempo"`
	Amount        decimal.Decimal   `json:"jumlah"`
	AmountInWords string            `json:"terbilang"`
	Description   string            `json:"deskripsi"`
	ShowDueDate   bool              `json:"tampilkan_jatuh_tempo,omitempty"`
	TenantName    string            `json:"nama_penghuni"`
	TenantID      *string           `json:"id_penghuni"`
	RoomName      string            `json:"nama_kamar"`
	Rent          decimal.Decimal   `json:"tarif_sewa"`
	RentPeriod    string            `json:"periode_sewa,omitempty"`
	NextDueDate   string            `json:"jatuh_tempo_berikut,omitempty"`
	PaymentStatus models.BillStatus `json:"status_pembayaran"`
	PaymentMethod string            `json:"metode_pembayaran"`
	DownPayment   decimal.Decimal   `json:"uang_muka"`
	Settlement    decimal.Decimal   `json:"pelunasan"`
	Refund        decimal.Decimal   `json:"refund"`
	Other         decimal.Decimal   `json:"lain_lain"`
	Notes         string            `json:"catatan,omitempty"`
	Facilities    map[string]bool   `json:"fasilitas"`
	Parking       map[string]bool   `json:"parkir"`
}

type BillInput struct {
	TenantID    string
	RoomID      string
	RoomName    string
	Number      string
	Description string
	Amount      decimal.Decimal
	DueDate     *time.Time
	Status      models.BillStatus
}

type BillService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewBillService(db *gorm.DB) *BillService {
	return &BillService{DB: db, Now: time.Now}
}

func (s *BillService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Create stores a bill with the tenant and room names copied from their current rows.
func (s *BillService) Create(ctx context.Context, in BillInput) (*models.Bill, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.TenantID) == "" {
		fields["penghuni_id"] = "required"
	}
	if strings.TrimSpace(in.Number) == "" {
		fields["nomor_kuitansi"] = "required"
	}
	if !in.Amount.IsPositive() {
		fields["jumlah"] = "must be greater than 0"
	}
	switch in.Status {
	case models.BillPaid, models.BillUnpaid:
	case "":
		fields["status_pembayaran"] = "required"
	default:
		fields["status_pembayaran"] = "must be Lunas or Belum Lunas"
	}
	if err := failIfInvalid(fields); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	tenantID := strings.TrimSpace(in.TenantID)
	bill := models.Bill{
		TenantID:    &tenantID,
		TenantName:  missingTenantName,
		RoomName:    noRoomName,
		Number:      strings.TrimSpace(in.Number),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Status:      in.Status,
	}
	if bill.Description == "" {
		bill.Description = defaultBillDesc
	}
	if in.RoomName != "" {
		bill.RoomName = in.RoomName
	}
	if id := strings.TrimSpace(in.RoomID); id != "" {
		bill.RoomID = &id
	}
	var tenant models.Tenant
	err := db.Preload("Room", unscopedRoom).Where("id = ?", tenantID).First(&tenant).Error
	switch {
	case err == nil:
		bill.TenantName = tenant.FullName
		if tenant.Room != nil {
			bill.RoomName = tenant.Room.Name
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		bill.TenantID = nil
	default:
		return nil, wrap("load bill tenant", err)
	}
	due := lease.DateOnly(s.now()).AddDate(0, 0, DefaultBillDueIn)
	if in.DueDate != nil {
		due = lease.DateOnly(*in.DueDate)
	}
	bill.DueDate = due

	if err := db.Create(&bill).Error; err != nil {
		log.Printf("store bill %s failed: %v", bill.Number, err)
		return nil, wrap("create bill", err)
	}
	return &bill, nil
}

// Receipt renders a saved bill. Rows written before name snapshots existed fall back
// to the live tenant and room.
func (s *BillService) Receipt(ctx context.Context, id string) (*Receipt, error) {
	db := s.DB.WithContext(ctx)
	var bill models.Bill
	if err := db.Where("id = ?", id).First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, wrap("load bill", err)
	}

	tenantName, roomName := bill.TenantName, bill.RoomName
	var room *models.Room
	if tenantName == "" || roomName == "" {
		var tenant models.Tenant
		found := bill.TenantID != nil &&
			db.Preload("Room", unscopedRoom).Where("id = ?", *bill.TenantID).First(&tenant).Error == nil
		if tenantName == "" {
			tenantName = deletedTenantName
			if found {
				tenantName = tenant.FullName
			}
		}
		if roomName == "" {
			roomName = deletedRoomName
			if found && tenant.Room != nil {
				roomName = tenant.Room.Name
			}
		}
		if found {
			room = tenant.Room
		}
	} else if bill.RoomID != nil {
		var r models.Room
		if err := db.Unscoped().Where("id = ?", *bill.RoomID).First(&r).Error; err == nil {
			room = &r
		}
	}

	var items []string
	if room != nil {
		items = room.Facilities
	}
	facilities, parking := SplitFacilities(items)
	return &Receipt{
		ID:            bill.ID,
		RoomID:        bill.RoomID,
		ReceiptNumber: bill.Number,
		BillNumber:    bill.Number,
		PaidOn:        bill.CreatedAt.Format(lease.DateLayout),
		DueDate:       bill.DueDate.Format(lease.DateLayout),
		Amount:        bill.Amount,
		AmountInWords: AmountLabel(bill.Amount),
		Description:   bill.Description,
		TenantName:    tenantName,
		TenantID:      bill.TenantID,
		RoomName:      roomName,
		Rent:          bill.Amount,
		PaymentStatus: bill.Status,
		PaymentMethod: defaultPayMethod,
		Settlement:    bill.Amount,
		Notes:         bill.Description,
		Facilities:    facilities,
		Parking:       parking,
	}, nil
}

// Preview builds an unsaved receipt for a tenant's next monthly rent.
func (s *BillService) Preview(ctx context.Context, tenantID string) (*Receipt, error) {
	var tenant models.Tenant
	err := s.DB.WithContext(ctx).Preload("Room", unscopedRoom).Where("id = ?", tenantID).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, wrap("load tenant", err)
	}

	now := s.now()
	number, err := utils.DocumentNumber("INV", now)
	if err != nil {
		return nil, wrap("generate invoice number", err)
	}
	today := lease.DateOnly(now)
	rec := &Receipt{
		ID:            PreviewID,
		ReceiptNumber: number,
		BillNumber:    number,
		PaidOn:        today.Format(lease.DateLayout),
		DueDate:       today.AddDate(0, 0, DefaultBillDueIn).Format(lease.DateLayout),
		ShowDueDate:   true,
		TenantName:    tenant.FullName,
		TenantID:      &tenant.ID,
		RoomName:      noRoomName,
		RentPeriod:    "Bulan " + indonesianMonths[today.Month()-1] + " " + today.Format("2006"),
		NextDueDate:   "N/A",
		PaymentStatus: models.BillUnpaid,
		PaymentMethod: defaultPayMethod,
	}
	if tenant.LeaseEndDate != nil {
		rec.NextDueDate = tenant.LeaseEndDate.Format(lease.DateLayout)
	}
	var items []string
	if tenant.Room != nil {
		rec.RoomID = &tenant.Room.ID
		rec.RoomName = tenant.Room.Name
		rec.Amount = tenant.Room.MonthlyPrice
		items = tenant.Room.Facilities
	}
	rec.Rent = rec.Amount
	rec.Settlement = rec.Amount
	rec.AmountInWords = AmountLabel(rec.Amount)
	rec.Description = strings.TrimSpace("Sewa Kamar " + rec.RoomName)
	if tenant.Room == nil {
		rec.Description = "Sewa Kamar"
	}
	rec.Facilities, rec.Parking = SplitFacilities(items)
	return rec, nil
}
