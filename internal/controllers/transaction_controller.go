package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/services"
)

type TransactionController struct {
	Ledger *services.LedgerService
}

type transactionRequest struct {
	TenantID      FlexibleString  `json:"penghuni_id"`
	RoomID        FlexibleString  `json:"kamar_id"`
	Type          string          `json:"tipe_transaksi" binding:"required"`
	Category      string          `json:"kategori" binding:"required,max=100"`
	AccountCode   string          `json:"account_code" binding:"max=20"`
	CashFlowIndex *int            `json:"cash_flow_index"`
	Description   string          `json:"deskripsi" binding:"required"`
	Amount        decimal.Decimal `json:"jumlah"`
	Date          Date            `json:"tanggal_transaksi"`
	PaymentMethod string          `json:"metode_pembayaran" binding:"max=50"`
}

func (r transactionRequest) input() services.EntryInput {
	return services.EntryInput{
		TenantID:      r.TenantID.String(),
		RoomID:        r.RoomID.String(),
		Type:          models.TransactionType(strings.TrimSpace(r.Type)),
		Category:      r.Category,
		AccountCode:   r.AccountCode,
		CashFlowIndex: r.CashFlowIndex,
		Description:   r.Description,
		Amount:        r.Amount,
		Date:          r.Date.Time,
		PaymentMethod: r.PaymentMethod,
	}
}

func (tc *TransactionController) List(c *gin.Context) {
	p := parseListParams(c, 20, "tanggal_transaksi", map[string]string{"tanggal_transaksi": "date"})
	from, ok := queryDate(c, "start_date")
	if !ok {
		return
	}
	to, ok := queryDate(c, "end_date")
	if !ok {
		return
	}
	f := services.EntryFilter{
		Type:     models.TransactionType(strings.TrimSpace(c.Query("tipe_transaksi"))),
		Category: strings.TrimSpace(c.Query("kategori")),
		Search:   strings.TrimSpace(c.Query("q")),
		TenantID: strings.TrimSpace(c.Query("penghuni_id")),
		From:     from,
		To:       to,
		Desc:     p.SortDir == "DESC",
	}
	if !p.All {
		f.Limit, f.Offset = p.Limit, p.Offset()
	}
	rows, total, err := tc.Ledger.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, e := range rows {
		out = append(out, transactionJSON(e))
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "meta": p.Meta(total)})
}

func (tc *TransactionController) Create(c *gin.Context) {
	var req transactionRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := tc.Ledger.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Transaksi berhasil dicatat", "data": transactionJSON(*e)})
}

func (tc *TransactionController) Get(c *gin.Context) {
	id, ok := pathID(c, "transaction not found")
	if !ok {
		return
	}
	e, err := tc.Ledger.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": transactionJSON(*e)})
}

func (tc *TransactionController) Update(c *gin.Context) {
	id, ok := pathID(c, "transaction not found")
	if !ok {
		return
	}
	var req transactionRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := tc.Ledger.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaksi berhasil diperbarui", "data": transactionJSON(*e)})
}

func (tc *TransactionController) Delete(c *gin.Context) {
	id, ok := pathID(c, "transaction not found")
	if !ok {
		return
	}
	if err := tc.Ledger.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaksi berhasil dihapus"})
}
