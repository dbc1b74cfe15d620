package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/services"
)

type ReportController struct {
	Reports *services.ReportService
}

// period reads start_date/end_date. A missing bound falls back to the current month.
func (rc *ReportController) period(c *gin.Context) (services.Period, bool) {
	month := rc.Reports.CurrentMonth()
	start, ok := queryDate(c, "start_date")
	if !ok {
		return services.Period{}, false
	}
	end, ok := queryDate(c, "end_date")
	if !ok {
		return services.Period{}, false
	}
	from, to := month.Start, month.End
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	p, err := services.NewPeriod(from, to)
	if err != nil {
		respondError(c, err)
		return services.Period{}, false
	}
	return p, true
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + " value"})
		return 0, false
	}
	return n, true
}

func (rc *ReportController) DashboardStats(c *gin.Context) {
	stats, err := rc.Reports.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (rc *ReportController) RoomOccupancy(c *gin.Context) {
	p, ok := rc.period(c)
	if !ok {
		return
	}
	rep, err := rc.Reports.RoomOccupancy(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (rc *ReportController) OccupancyTrend(c *gin.Context) {
	p, ok := rc.period(c)
	if !ok {
		return
	}
	trend, err := rc.Reports.OccupancyTrend(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

func (rc *ReportController) FinancialSummary(c *gin.Context) {
	p, ok := rc.period(c)
	if !ok {
		return
	}
	months, ok := queryInt(c, "trend_limit", services.DefaultTrendMonths)
	if !ok {
		return
	}
	sum, err := rc.Reports.FinancialSummary(c.Request.Context(), p, months)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (rc *ReportController) TenantDetails(c *gin.Context) {
	status := models.TenancyStatus(strings.TrimSpace(c.Query("status_sewa")))
	rep, err := rc.Reports.TenantDetails(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (rc *ReportController) DueSoon(c *gin.Context) {
	days, ok := queryInt(c, "days", services.DueSoonDays)
	if !ok {
		return
	}
	includeOverdue, ok := queryBool(c, "include_overdue")
	if !ok {
		return
	}
	rows, err := rc.Reports.DueSoon(c.Request.Context(), days, includeOverdue == nil || *includeOverdue)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "meta": gin.H{"days": days, "total": len(rows)}})
}

func (rc *ReportController) ProfitLoss(c *gin.Context) {
	p, ok := rc.period(c)
	if !ok {
		return
	}
	rep, err := rc.Reports.ProfitLoss(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
