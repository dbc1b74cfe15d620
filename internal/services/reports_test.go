package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
)

func newReports(db *gorm.DB) *ReportService {
	svc := NewReportService(db)
	svc.Now = clock
	return svc
}

func newLedger(db *gorm.DB) *LedgerService {
	svc := NewLedgerService(db)
	svc.Now = clock
	return svc
}

func mustEntry(t *testing.T, db *gorm.DB, typ models.TransactionType, category, code, date string, amount int64) *models.Transaction {
	t.Helper()
	e, err := newLedger(db).Create(context.Background(), EntryInput{
		Type:        typ,
		Category:    category,
		AccountCode: code,
		Description: category,
		Amount:      decimal.NewFromInt(amount),
		Date:        day(t, date),
	})
	require.NoError(t, err)
	return e
}

func TestOccupiedDays(t *testing.T) {
	march := Period{Start: day(t, "2025-03-01"), End: day(t, "2025-03-31")}
	out := day(t, "2025-03-10")
	before := day(t, "2025-02-20")

	assert.Equal(t, 31, march.Days())
	assert.Equal(t, 11, OccupiedDays(day(t, "2025-03-21"), nil, march))
	assert.Equal(t, 35, percent(11, march.Days()))
	assert.Equal(t, 31, OccupiedDays(day(t, "2025-01-01"), nil, march))
	assert.Equal(t, 10, OccupiedDays(day(t, "2025-01-01"), &out, march))
	assert.Equal(t, 0, OccupiedDays(day(t, "2025-01-01"), &before, march))
	assert.Equal(t, 0, OccupiedDays(day(t, "2025-04-01"), nil, march))
	assert.Equal(t, 1, OccupiedDays(day(t, "2025-03-31"), nil, march))
}

func TestPeriodHelpers(t *testing.T) {
	p := MonthOf(day(t, "2024-02-10"))
	assert.Equal(t, "2024-02-01", p.Start.Format("2006-01-02"))
	assert.Equal(t, "2024-02-29", p.End.Format("2006-01-02"))
	assert.Equal(t, 29, p.Days())

	_, err := NewPeriod(day(t, "2025-03-10"), day(t, "2025-03-01"))
	requireKind(t, err, KindValidation)

	assert.Equal(t, DefaultTrendMonths, ClampTrendMonths(0))
	assert.Equal(t, 1, ClampTrendMonths(-4))
	assert.Equal(t, MaxTrendMonths, ClampTrendMonths(40))
	assert.Equal(t, 3, ClampTrendMonths(3))
}

func TestRoomOccupancyReport(t *testing.T) {
	db := setupTestDB(t)
	tenancy := newTenancy(db)
	busy := mustRoom(t, db, "Kamar 101")
	mustRoom(t, db, "Kamar 102")
	mustMoveIn(t, tenancy, "Ani", busy.ID, "2025-03-21")

	p, err := NewPeriod(day(t, "2025-03-01"), day(t, "2025-03-31"))
	require.NoError(t, err)
	rep, err := newReports(db).RoomOccupancy(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, rep.Data, 2)
	assert.Equal(t, 31, rep.Period.TotalDays)
	first := rep.Data[0]
	assert.Equal(t, "Kamar 101", first.RoomName)
	assert.Equal(t, 11, first.DaysOccupied)
	assert.Equal(t, 35, first.ActualPercentage)
	assert.Equal(t, PlanPercentage, first.PlanPercentage)
	assert.Equal(t, 0, rep.Data[1].DaysOccupied)
	assert.Equal(t, 2, rep.Summary.TotalRooms)
	assert.Equal(t, 18, rep.Summary.AverageOccupancy)
}

func TestOccupancyTrend(t *testing.T) {
	db := setupTestDB(t)
	tenancy := newTenancy(db)
	busy := mustRoom(t, db, "Kamar 201")
	mustRoom(t, db, "Kamar 202")
	mustMoveIn(t, tenancy, "Budi", busy.ID, "2025-03-21")

	p, err := NewPeriod(day(t, "2025-03-19"), day(t, "2025-03-22"))
	require.NoError(t, err)
	trend, err := newReports(db).OccupancyTrend(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, trend.Data, 4)
	rates := []int{}
	for _, d := range trend.Data {
		assert.Equal(t, 2, d.TotalRooms)
		rates = append(rates, d.OccupancyRate)
	}
	assert.Equal(t, []int{0, 0, 50, 50}, rates)
	assert.Equal(t, "2025-03-21", trend.Data[2].Date)
	assert.Equal(t, "21 Mar", trend.Data[2].DateFormatted)
}

func TestFinancialSummary(t *testing.T) {
	db := setupTestDB(t)
	mustEntry(t, db, models.TransactionIncome, "Sewa Kamar", "4-111", "2025-03-05", 1_000_000)
	mustEntry(t, db, models.TransactionExpense, "Listrik", "5-210", "2025-03-06", 250_000)
	mustEntry(t, db, models.TransactionIncome, "Sewa Kamar", "4-111", "2025-01-15", 500_000)

	p, err := NewPeriod(day(t, "2025-03-01"), day(t, "2025-03-31"))
	require.NoError(t, err)
	sum, err := newReports(db).FinancialSummary(context.Background(), p, 3)
	require.NoError(t, err)

	assert.True(t, sum.Summary.Income.Equal(decimal.NewFromInt(1_000_000)), sum.Summary.Income.String())
	assert.True(t, sum.Summary.Expense.Equal(decimal.NewFromInt(250_000)))
	assert.True(t, sum.Summary.Net.Equal(decimal.NewFromInt(750_000)))
	require.Len(t, sum.IncomeByCategory, 1)
	assert.Equal(t, "Sewa Kamar", sum.IncomeByCategory[0].Category)
	require.Len(t, sum.ExpenseByCategory, 1)

	require.Len(t, sum.MonthlyTrend, 3)
	assert.Equal(t, "2025-01", sum.MonthlyTrend[0].Key)
	assert.Equal(t, "Jan 2025", sum.MonthlyTrend[0].Month)
	assert.True(t, sum.MonthlyTrend[0].Income.Equal(decimal.NewFromInt(500_000)))
	assert.True(t, sum.MonthlyTrend[1].Net.IsZero())
	assert.True(t, sum.MonthlyTrend[2].Net.Equal(decimal.NewFromInt(750_000)))
}

func TestProfitLoss(t *testing.T) {
	db := setupTestDB(t)
	mustEntry(t, db, models.TransactionIncome, "Sewa Kamar", "4-111", "2025-03-01", 1_200_000)
	mustEntry(t, db, models.TransactionIncome, "Sewa Kamar", "4-111", "2025-03-02", 900_000)
	mustEntry(t, db, models.TransactionIncome, "Denda", "4-900", "2025-03-03", 50_000)
	mustEntry(t, db, models.TransactionExpense, "Air", "5-220", "2025-03-04", 100_000)
	mustEntry(t, db, models.TransactionExpense, "Listrik", "5-210", "2025-03-05", 300_000)

	p := MonthOf(fixedToday)
	rep, err := newReports(db).ProfitLoss(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, rep.Income, 2)
	assert.Equal(t, "4-111", rep.Income[0].AccountCode)
	assert.True(t, rep.Income[0].Total.Equal(decimal.NewFromInt(2_100_000)))
	require.Len(t, rep.Expense, 2)
	assert.Equal(t, "5-210", rep.Expense[0].AccountCode)
	assert.True(t, rep.TotalIncome.Equal(decimal.NewFromInt(2_150_000)))
	assert.True(t, rep.TotalExpense.Equal(decimal.NewFromInt(400_000)))
	assert.True(t, rep.Net.Equal(decimal.NewFromInt(1_750_000)))
}

func TestDueSoonAndDashboard(t *testing.T) {
	db := setupTestDB(t)
	tenancy := newTenancy(db)
	r1 := mustRoom(t, db, "Kamar 301")
	r2 := mustRoom(t, db, "Kamar 302")
	mustRoom(t, db, "Kamar 303")
	soon := mustMoveIn(t, tenancy, "Citra", r1.ID, "2025-02-14") // ends 2025-03-14
	late := mustMoveIn(t, tenancy, "Dedi", r2.ID, "2025-02-05")  // ends 2025-03-05
	mustEntry(t, db, models.TransactionIncome, "Sewa Kamar", "4-111", "2025-03-02", 1_200_000)

	reports := newReports(db)
	ctx := context.Background()

	due, err := reports.DueSoon(ctx, 7, false)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, soon.ID, due[0].ID)
	assert.Equal(t, 4, due[0].DaysRemaining)
	assert.False(t, due[0].Overdue)
	assert.Equal(t, "Kamar 301", due[0].RoomName)

	due, err = reports.DueSoon(ctx, 7, true)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, late.ID, due[0].ID)
	assert.True(t, due[0].Overdue)
	assert.Equal(t, -5, due[0].DaysRemaining)

	stats, err := reports.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRooms)
	assert.Equal(t, 2, stats.OccupiedRooms)
	assert.Equal(t, 1, stats.EmptyRooms)
	assert.Equal(t, 67, stats.OccupancyRate)
	assert.Equal(t, 2, stats.ActiveTenants)
	assert.Equal(t, 1, stats.DueSoon)
	assert.True(t, stats.MonthIncome.Equal(decimal.NewFromInt(1_200_000)))
}

func TestTenantDetails(t *testing.T) {
	db := setupTestDB(t)
	tenancy := newTenancy(db)
	r1 := mustRoom(t, db, "Kamar 401")
	r2 := mustRoom(t, db, "Kamar 402")
	mustMoveIn(t, tenancy, "Eka", r1.ID, "2025-03-01")
	gone := mustMoveIn(t, tenancy, "Fajar", r2.ID, "2025-02-01")
	out := day(t, "2025-02-11")
	_, err := tenancy.Checkout(context.Background(), gone.ID, &out)
	require.NoError(t, err)

	rep, err := newReports(db).TenantDetails(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, TenantSummary{Total: 2, Active: 1, Inactive: 1}, rep.Summary)
	byName := map[string]TenantDetail{}
	for _, d := range rep.Data {
		byName[d.FullName] = d
	}
	assert.Equal(t, 9, byName["Eka"].DaysStayed)
	assert.Equal(t, "Kamar 401", byName["Eka"].RoomName)
	assert.Equal(t, 10, byName["Fajar"].DaysStayed)
	assert.Equal(t, "-", byName["Fajar"].RoomName)

	active, err := newReports(db).TenantDetails(context.Background(), models.TenancyActive)
	require.NoError(t, err)
	assert.Len(t, active.Data, 1)
}

func TestRoomOccupancyBoundedStay(t *testing.T) {
	db := setupTestDB(t)
	room := mustRoom(t, db, "Kamar 105")
	// legacy rows keep their room after the stay ended
	out := day(t, "2025-01-20")
	require.NoError(t, db.Create(&models.Tenant{
		FullName:    "Gita",
		NationalID:  "3171000000000002",
		Phone:       "081200000002",
		RoomID:      &room.ID,
		MoveInDate:  day(t, "2025-01-10"),
		MoveOutDate: &out,
		Status:      models.TenancyInactive,
	}).Error)

	p, err := NewPeriod(day(t, "2025-01-01"), day(t, "2025-01-31"))
	require.NoError(t, err)
	rep, err := newReports(db).RoomOccupancy(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, rep.Data, 1)
	assert.Equal(t, 31, rep.Data[0].TotalDays)
	assert.Equal(t, 11, rep.Data[0].DaysOccupied)
	assert.Equal(t, 35, rep.Data[0].ActualPercentage)
}

func TestReportsCountRoomsThatExistedDuringPeriod(t *testing.T) {
	db := setupTestDB(t)
	reports := newReports(db)
	ctx := context.Background()
	mustRoom(t, db, "Kamar 1")
	midJanuary := mustRoom(t, db, "Kamar 2")
	lastYear := mustRoom(t, db, "Kamar 3")
	require.NoError(t, db.Model(&models.Room{}).Where("id = ?", midJanuary.ID).
		Update("deleted_at", day(t, "2025-01-15")).Error)
	require.NoError(t, db.Model(&models.Room{}).Where("id = ?", lastYear.ID).
		Update("deleted_at", day(t, "2024-12-01")).Error)

	p, err := NewPeriod(day(t, "2025-01-01"), day(t, "2025-01-03"))
	require.NoError(t, err)

	rep, err := reports.RoomOccupancy(ctx, p)
	require.NoError(t, err)
	names := []string{}
	for _, r := range rep.Data {
		names = append(names, r.RoomName)
	}
	assert.Equal(t, []string{"Kamar 1", "Kamar 2"}, names)
	assert.Equal(t, 2, rep.Summary.TotalRooms)

	trend, err := reports.OccupancyTrend(ctx, p)
	require.NoError(t, err)
	require.Len(t, trend.Data, 3)
	assert.Equal(t, 2, trend.Data[0].TotalRooms)

	stats, err := reports.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRooms)
}

func TestOccupancyTrendRejectsLongRange(t *testing.T) {
	db := setupTestDB(t)
	reports := newReports(db)

	p, err := NewPeriod(day(t, "2024-01-01"), day(t, "2024-12-31"))
	require.NoError(t, err)
	_, err = reports.OccupancyTrend(context.Background(), p)
	require.NoError(t, err)

	p, err = NewPeriod(day(t, "2000-01-01"), day(t, "2025-03-10"))
	require.NoError(t, err)
	_, err = reports.OccupancyTrend(context.Background(), p)
	requireKind(t, err, KindValidation)
}
