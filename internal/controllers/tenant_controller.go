package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/lease"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/services"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/utils"
)

type TenantController struct {
	Tenancy *services.TenancyService
	Bills   *services.BillService
}

type profileFields struct {
	FullName         string `json:"nama_lengkap" binding:"required,max=150"`
	NationalID       string `json:"no_ktp" binding:"required,max=17"`
	Phone            string `json:"no_hp" binding:"required,max=16"`
	Email            string `json:"email" binding:"omitempty,email,max=150"`
	Occupation       string `json:"pekerjaan" binding:"max=100"`
	EmergencyContact string `json:"pic_emergency" binding:"required,max=150"`
	Notes            string `json:"catatan"`
}

func (p profileFields) profile() services.Profile {
	return services.Profile{
		FullName:         p.FullName,
		NationalID:       p.NationalID,
		Phone:            p.Phone,
		Email:            p.Email,
		Occupation:       p.Occupation,
		EmergencyContact: p.EmergencyContact,
		Notes:            utils.StripTags(p.Notes),
	}
}

type createTenantRequest struct {
	profileFields
	RoomID          FlexibleString `json:"kamar_id" binding:"required"`
	MoveInDate      Date           `json:"tanggal_masuk"`
	InitialDuration FlexibleInt    `json:"initial_duration"`
	DurationUnit    string         `json:"duration_unit"`
}

type updateTenantRequest struct {
	profileFields
	RoomID     FlexibleString `json:"kamar_id"`
	MoveInDate Date           `json:"tanggal_masuk"`
}

type paymentRequest struct {
	Duration      FlexibleInt     `json:"duration"`
	Unit          string          `json:"unit" binding:"required,oneof=day week month year"`
	PaymentMethod string          `json:"payment_method" binding:"max=50"`
	Amount        decimal.Decimal `json:"jumlah"`
}

type checkoutRequest struct {
	MoveOutDate Date `json:"tanggal_keluar"`
}

type reassignRequest struct {
	RoomID          FlexibleString `json:"new_kamar_id" binding:"required"`
	MoveInDate      Date           `json:"tanggal_masuk_baru"`
	InitialDuration FlexibleInt    `json:"initial_duration"`
	DurationUnit    string         `json:"duration_unit"`
}

// unit normalises a wire unit. Unknown values pass through so the service can
// report them against the right field.
func unit(raw string) lease.Unit {
	u, _ := lease.ParseUnit(raw)
	return u
}

func (tc *TenantController) List(c *gin.Context) {
	f := services.TenantFilter{
		Search: c.Query("q"),
		Status: models.TenancyStatus(strings.TrimSpace(c.Query("status_sewa"))),
		RoomID: strings.TrimSpace(c.Query("kamar_id")),
	}
	tenants, err := tc.Tenancy.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, tenantJSON(t))
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "meta": gin.H{"total": len(out)}})
}

func (tc *TenantController) Create(c *gin.Context) {
	var req createTenantRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := tc.Tenancy.MoveIn(c.Request.Context(), services.MoveInInput{
		Profile:    req.profile(),
		RoomID:     req.RoomID.String(),
		MoveInDate: req.MoveInDate.Time,
		Duration:   int(req.InitialDuration),
		Unit:       unit(req.DurationUnit),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Penghuni berhasil ditambahkan", "data": tenantJSON(*t)})
}

func (tc *TenantController) Get(c *gin.Context) {
	id, ok := pathID(c, "tenant not found")
	if !ok {
		return
	}
	t, err := tc.Tenancy.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tenantJSON(*t)})
}

func (tc *TenantController) Update(c *gin.Context) {
	id, ok := pathID(c, "tenant not found")
	if !ok {
		return
	}
	var req updateTenantRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := tc.Tenancy.Update(c.Request.Context(), id, services.UpdateInput{
		Profile:    req.profile(),
		RoomID:     req.RoomID.String(),
		MoveInDate: req.MoveInDate.Time,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Data penghuni berhasil diperbarui", "data": tenantJSON(*t)})
}

func (tc *TenantController) Delete(c *gin.Context) {
	id, ok := pathID(c, "tenant not found")
	if !ok {
		return
	}
	name, err := tc.Tenancy.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Penghuni " + name + " berhasil dihapus permanen"})
}

func (tc *TenantController) RecordPayment(c *gin.Context) {
	id, ok := pathID(c, "tenant not found")
	if !ok {
		return
	}
	var req paymentRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := tc.Tenancy.RecordPayment(c.Request.Context(), id, services.PaymentInput{
		Duration:      int(req.Duration),
		Unit:          unit(req.Unit),
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pembayaran berhasil dicatat", "data": tenantJSON(*t)})
}

func (tc *TenantController) Checkout(c *gin.Context) {
	id, ok := pathID(c, "tenant not found")
	if !ok {
		return
	}
	var req checkoutRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	t, err := tc.Tenancy.Checkout(c.Request.Context(), id, req.MoveOutDate.Ptr())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Penghuni berhasil checkout", "data": tenantJSON(*t)})
}

func (tc *TenantController) Reassign(c *gin.Context) {
	id, ok := pathID(c, "tenant not found")
	if !ok {
		return
	}
	var req reassignRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := tc.Tenancy.Reassign(c.Request.Context(), id, services.ReassignInput{
		RoomID:     req.RoomID.String(),
		MoveInDate: req.MoveInDate.Time,
		Duration:   int(req.InitialDuration),
		Unit:       unit(req.DurationUnit),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Penghuni berhasil ditempatkan kembali", "data": tenantJSON(*t)})
}

// ListBills returns the tenant together with its bill history.
func (tc *TenantController) ListBills(c *gin.Context) {
	id, ok := pathID(c, "tenant not found")
	if !ok {
		return
	}
	t, bills, err := tc.Tenancy.GetWithBills(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	list := make([]gin.H, 0, len(bills))
	for _, b := range bills {
		list = append(list, billJSON(b))
	}
	out := tenantJSON(*t)
	out["tagihans"] = list
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (tc *TenantController) ReceiptPreview(c *gin.Context) {
	id, ok := pathID(c, "tenant not found")
	if !ok {
		return
	}
	rec, err := tc.Bills.Preview(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}
