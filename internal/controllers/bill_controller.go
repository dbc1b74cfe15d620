package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/services"
)

type BillController struct {
	Bills *services.BillService
}

type billRequest struct {
	TenantID    FlexibleString  `json:"penghuni_id" binding:"required"`
	RoomID      FlexibleString  `json:"kamar_id"`
	RoomName    string          `json:"nama_kamar" binding:"max=100"`
	Number      string          `json:"nomor_kuitansi" binding:"required,max=100"`
	Description string          `json:"deskripsi" binding:"max=255"`
	Amount      decimal.Decimal `json:"jumlah"`
	DueDate     Date            `json:"jatuh_tempo"`
	Status      string          `json:"status_pembayaran" binding:"required"`
}

func (bc *BillController) Create(c *gin.Context) {
	var req billRequest
	if !bindJSON(c, &req) {
		return
	}
	bill, err := bc.Bills.Create(c.Request.Context(), services.BillInput{
		TenantID:    req.TenantID.String(),
		RoomID:      req.RoomID.String(),
		RoomName:    req.RoomName,
		Number:      req.Number,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     req.DueDate.Ptr(),
		Status:      models.BillStatus(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Tagihan berhasil disimpan", "data": billJSON(*bill)})
}

func (bc *BillController) ReceiptData(c *gin.Context) {
	id, ok := pathID(c, "bill not found")
	if !ok {
		return
	}
	rec, err := bc.Bills.Receipt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}
