package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/lease"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
)

func roomJSON(r models.Room) gin.H {
	facilities := []string(r.Facilities)
	if facilities == nil {
		facilities = []string{}
	}
	out := gin.H{
		"id":                  r.ID,
		"nama_kamar":          r.Name,
		"harga_bulanan":       r.MonthlyPrice,
		"luas_kamar":          r.Area,
		"is_available":        bool(r.IsAvailable),
		"deskripsi_fasilitas": facilities,
		"blok":                r.Block,
		"lantai":              r.Floor,
		"type":                r.Type,
		"created_at":          r.CreatedAt,
		"updated_at":          r.UpdatedAt,
	}
	if r.DeletedAt.Valid {
		out["deleted_at"] = r.DeletedAt.Time
	}
	return out
}

// roomWithOccupant adds the active tenant summary shown on the room list.
func roomWithOccupant(r models.Room, occupant *models.Tenant) gin.H {
	out := roomJSON(r)
	if occupant == nil {
		out["penghuni_aktif"] = nil
		return out
	}
	out["penghuni_aktif"] = gin.H{
		"id":                 occupant.ID,
		"nama_lengkap":       occupant.FullName,
		"no_hp":              occupant.Phone,
		"tanggal_masuk":      occupant.MoveInDate.Format(lease.DateLayout),
		"masa_berakhir_sewa": lease.FormatDate(occupant.LeaseEndDate),
	}
	return out
}

func tenantJSON(t models.Tenant) gin.H {
	out := gin.H{
		"id":                    t.ID,
		"nama_lengkap":          t.FullName,
		"no_ktp":                t.NationalID,
		"no_hp":                 t.Phone,
		"email":                 t.Email,
		"pekerjaan":             t.Occupation,
		"pic_emergency":         t.EmergencyContact,
		"catatan":               t.Notes,
		"kamar_id":              t.RoomID,
		"tanggal_masuk":         t.MoveInDate.Format(lease.DateLayout),
		"tanggal_keluar":        nullableDate(t.MoveOutDate),
		"masa_berakhir_sewa":    nullableDate(t.LeaseEndDate),
		"status_sewa":           t.Status,
		"durasi_bayar_terakhir": t.LastPaymentDuration,
		"unit_bayar_terakhir":   t.LastPaymentUnit,
		"created_at":            t.CreatedAt,
		"updated_at":            t.UpdatedAt,
		"kamar":                 nil,
	}
	if t.Room != nil {
		out["kamar"] = roomJSON(*t.Room)
	}
	return out
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(lease.DateLayout)
}

func billJSON(b models.Bill) gin.H {
	return gin.H{
		"id":            b.ID,
		"penghuni_id":   b.TenantID,
		"nama_penghuni": b.TenantName,
		"kamar_id":      b.RoomID,
		"nama_kamar":    b.RoomName,
		"nomor_tagihan": b.Number,
		"deskripsi":     b.Description,
		"jumlah":        b.Amount,
		"jatuh_tempo":   b.DueDate.Format(lease.DateLayout),
		"status":        b.Status,
		"created_at":    b.CreatedAt,
	}
}

func transactionJSON(e models.Transaction) gin.H {
	return gin.H{
		"id":                e.ID,
		"penghuni_id":       e.TenantID,
		"nama_penghuni":     e.TenantName,
		"kamar_id":          e.RoomID,
		"nama_kamar":        e.RoomName,
		"tipe_transaksi":    e.Type,
		"kategori":          e.Category,
		"account_code":      e.AccountCode,
		"cash_flow_index":   e.CashFlowIndex,
		"deskripsi":         e.Description,
		"jumlah":            e.Amount,
		"tanggal_transaksi": e.Date.Format(lease.DateLayout),
		"metode_pembayaran": e.PaymentMethod,
		"created_at":        e.CreatedAt,
		"updated_at":        e.UpdatedAt,
	}
}

func userJSON(u models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"role":       u.Role,
		"active":     u.Active,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}
