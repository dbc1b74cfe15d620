package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/lease"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
)

// PlanPercentage is the occupancy target shown next to every actual figure.
const PlanPercentage = 90

const (
	DefaultTrendMonths = 6
	MaxTrendMonths     = 12
	MaxTrendDays       = 366
	DueSoonDays        = 7
)

// Period is an inclusive range of calendar days.
type Period struct {
	Start time.Time
	End   time.Time
}

func NewPeriod(start, end time.Time) (Period, error) {
	p := Period{Start: lease.DateOnly(start), End: lease.DateOnly(end)}
	if p.End.Before(p.Start) {
		return p, Validation("validation failed", map[string]string{"end_date": "must not precede start_date"})
	}
	return p, nil
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	d := lease.DateOnly(t)
	return Period{Start: now.With(d).BeginningOfMonth(), End: lease.DateOnly(now.With(d).EndOfMonth())}
}

func (p Period) Days() int { return lease.DaysBetween(p.Start, p.End) + 1 }

// OccupiedDays is the number of days in p covered by a stay from moveIn to moveOut,
// both inclusive. A nil moveOut is an open stay.
func OccupiedDays(moveIn time.Time, moveOut *time.Time, p Period) int {
	from := lease.DateOnly(moveIn)
	if from.Before(p.Start) {
		from = p.Start
	}
	to := p.End
	if moveOut != nil && lease.DateOnly(*moveOut).Before(to) {
		to = lease.DateOnly(*moveOut)
	}
	if to.Before(from) {
		return 0
	}
	return lease.DaysBetween(from, to) + 1
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

type ReportService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{DB: db, Now: time.Now}
}

func (s *ReportService) today() time.Time {
	if s.Now == nil {
		return lease.DateOnly(time.Now())
	}
	return lease.DateOnly(s.Now())
}

// CurrentMonth is the default period of every ranged report.
func (s *ReportService) CurrentMonth() Period { return MonthOf(s.today()) }

type PeriodInfo struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	TotalDays int    `json:"total_days,omitempty"`
}

func (p Period) info(withDays bool) PeriodInfo {
	out := PeriodInfo{StartDate: p.Start.Format(lease.DateLayout), EndDate: p.End.Format(lease.DateLayout)}
	if withDays {
		out.TotalDays = p.Days()
	}
	return out
}

type RoomOccupancy struct {
	RoomID           string `json:"kamar_id"`
	RoomName         string `json:"nama_kamar"`
	Block            string `json:"blok"`
	Floor            int    `json:"lantai"`
	TotalDays        int    `json:"total_days"`
	DaysOccupied     int    `json:"days_occupied"`
	ActualPercentage int    `json:"actual_percentage"`
	PlanPercentage   int    `json:"plan_percentage"`
}

type OccupancySummary struct {
	TotalRooms       int `json:"total_rooms"`
	AverageOccupancy int `json:"average_occupancy"`
}

type OccupancyReport struct {
	Period  PeriodInfo       `json:"period"`
	Data    []RoomOccupancy  `json:"data"`
	Summary OccupancySummary `json:"summary"`
}

// overlapping returns tenancies whose stay touches p.
func overlapping(db *gorm.DB, p Period) *gorm.DB {
	return db.Model(&models.Tenant{}).
		Where("move_in_date <= ?", p.End).
		Where("move_out_date IS NULL OR move_out_date >= ?", p.Start)
}

// roomsDuring selects the rooms that count toward p: live rooms and rooms soft-deleted
// on or after its first day.
func roomsDuring(db *gorm.DB, p Period) *gorm.DB {
	return db.Unscoped().Model(&models.Room{}).Where("deleted_at IS NULL OR deleted_at >= ?", p.Start)
}

// RoomOccupancy sums, per room, the days its tenancies occupied it within p.
func (s *ReportService) RoomOccupancy(ctx context.Context, p Period) (*OccupancyReport, error) {
	db := s.DB.WithContext(ctx)
	var rooms []models.Room
	if err := roomsDuring(db, p).Order("name").Find(&rooms).Error; err != nil {
		return nil, wrap("load rooms", err)
	}
	var stays []models.Tenant
	if err := overlapping(db, p).Where("room_id IS NOT NULL").
		Select("id", "room_id", "move_in_date", "move_out_date").Find(&stays).Error; err != nil {
		return nil, wrap("load stays", err)
	}
	days := map[string]int{}
	for _, t := range stays {
		days[*t.RoomID] += OccupiedDays(t.MoveInDate, t.MoveOutDate, p)
	}

	rep := &OccupancyReport{Period: p.info(true), Data: make([]RoomOccupancy, 0, len(rooms))}
	total := p.Days()
	sum := 0
	for _, r := range rooms {
		row := RoomOccupancy{
			RoomID:           r.ID,
			RoomName:         r.Name,
			Block:            r.Block,
			Floor:            r.Floor,
			TotalDays:        total,
			DaysOccupied:     days[r.ID],
			ActualPercentage: percent(days[r.ID], total),
			PlanPercentage:   PlanPercentage,
		}
		sum += row.ActualPercentage
		rep.Data = append(rep.Data, row)
	}
	rep.Summary.TotalRooms = len(rooms)
	if len(rooms) > 0 {
		rep.Summary.AverageOccupancy = int(math.Round(float64(sum) / float64(len(rooms))))
	}
	return rep, nil
}

type DailyOccupancy struct {
	Date          string `json:"date"`
	DateFormatted string `json:"date_formatted"`
	OccupiedRooms int    `json:"occupied_rooms"`
	TotalRooms    int    `json:"total_rooms"`
	OccupancyRate int    `json:"occupancy_rate"`
	PlanRate      int    `json:"plan_rate"`
}

type OccupancyTrend struct {
	Period PeriodInfo       `json:"period"`
	Data   []DailyOccupancy `json:"data"`
}

// OccupancyTrend counts, for every day of p, the distinct rooms held by an active
// tenancy on that day. p may span at most MaxTrendDays days.
func (s *ReportService) OccupancyTrend(ctx context.Context, p Period) (*OccupancyTrend, error) {
	if p.Days() > MaxTrendDays {
		return nil, Validation("validation failed", map[string]string{
			"end_date": fmt.Sprintf("range must not exceed %d days", MaxTrendDays),
		})
	}
	db := s.DB.WithContext(ctx)
	var totalRooms int64
	if err := roomsDuring(db, p).Count(&totalRooms).Error; err != nil {
		return nil, wrap("count rooms", err)
	}
	var stays []models.Tenant
	if err := overlapping(db, p).Where("status = ? AND room_id IS NOT NULL", models.TenancyActive).
		Select("id", "room_id", "move_in_date", "move_out_date").Find(&stays).Error; err != nil {
		return nil, wrap("load active stays", err)
	}

	out := &OccupancyTrend{Period: p.info(false), Data: make([]DailyOccupancy, 0, p.Days())}
	for day := p.Start; !day.After(p.End); day = day.AddDate(0, 0, 1) {
		held := map[string]struct{}{}
		for _, t := range stays {
			if OccupiedDays(t.MoveInDate, t.MoveOutDate, Period{Start: day, End: day}) > 0 {
				held[*t.RoomID] = struct{}{}
			}
		}
		out.Data = append(out.Data, DailyOccupancy{
			Date:          day.Format(lease.DateLayout),
			DateFormatted: day.Format("02 Jan"),
			OccupiedRooms: len(held),
			TotalRooms:    int(totalRooms),
			OccupancyRate: percent(len(held), int(totalRooms)),
			PlanRate:      PlanPercentage,
		})
	}
	return out, nil
}

type CategoryTotal struct {
	Category string          `json:"kategori"`
	Total    decimal.Decimal `json:"total"`
}

type MonthlyFinance struct {
	Key     string          `json:"month_key"`
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"pemasukan"`
	Expense decimal.Decimal `json:"pengeluaran"`
	Net     decimal.Decimal `json:"laba_rugi"`
}

type FinanceTotals struct {
	Income  decimal.Decimal `json:"total_pemasukan"`
	Expense decimal.Decimal `json:"total_pengeluaran"`
	Net     decimal.Decimal `json:"laba_rugi"`
}

type FinancialSummary struct {
	Period            PeriodInfo       `json:"period"`
	Summary           FinanceTotals    `json:"summary"`
	IncomeByCategory  []CategoryTotal  `json:"pemasukan_per_kategori"`
	ExpenseByCategory []CategoryTotal  `json:"pengeluaran_per_kategori"`
	MonthlyTrend      []MonthlyFinance `json:"monthly_trend"`
}

// ClampTrendMonths bounds the trend window to [1, 12]; zero means the default.
func ClampTrendMonths(n int) int {
	if n == 0 {
		return DefaultTrendMonths
	}
	if n < 1 {
		return 1
	}
	if n > MaxTrendMonths {
		return MaxTrendMonths
	}
	return n
}

func (s *ReportService) sum(db *gorm.DB, typ models.TransactionType, p Period) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("type = ? AND date BETWEEN ? AND ?", typ, p.Start, p.End).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, wrap("sum "+string(typ), err)
	}
	return row.Total, nil
}

func (s *ReportService) totals(db *gorm.DB, p Period) (FinanceTotals, error) {
	in, err := s.sum(db, models.TransactionIncome, p)
	if err != nil {
		return FinanceTotals{}, err
	}
	out, err := s.sum(db, models.TransactionExpense, p)
	if err != nil {
		return FinanceTotals{}, err
	}
	return FinanceTotals{Income: in, Expense: out, Net: in.Sub(out)}, nil
}

func (s *ReportService) byCategory(db *gorm.DB, typ models.TransactionType, p Period) ([]CategoryTotal, error) {
	rows := []CategoryTotal{}
	err := db.Model(&models.Transaction{}).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Where("type = ? AND date BETWEEN ? AND ?", typ, p.Start, p.End).
		Group("category").Order("category").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("group "+string(typ)+" by category", err)
	}
	return rows, nil
}

// FinancialSummary totals transactions in p by type and category, plus a trend of the
// last months ending with the current one.
func (s *ReportService) FinancialSummary(ctx context.Context, p Period, trendMonths int) (*FinancialSummary, error) {
	db := s.DB.WithContext(ctx)
	totals, err := s.totals(db, p)
	if err != nil {
		return nil, err
	}
	income, err := s.byCategory(db, models.TransactionIncome, p)
	if err != nil {
		return nil, err
	}
	expense, err := s.byCategory(db, models.TransactionExpense, p)
	if err != nil {
		return nil, err
	}
	trend, err := s.monthlyTrend(db, ClampTrendMonths(trendMonths))
	if err != nil {
		return nil, err
	}
	return &FinancialSummary{
		Period:            p.info(false),
		Summary:           totals,
		IncomeByCategory:  income,
		ExpenseByCategory: expense,
		MonthlyTrend:      trend,
	}, nil
}

func (s *ReportService) monthlyTrend(db *gorm.DB, months int) ([]MonthlyFinance, error) {
	current := MonthOf(s.today()).Start
	first := current.AddDate(0, -(months - 1), 0)

	var entries []models.Transaction
	if err := db.Select("type", "amount", "date").Where("date >= ?", first).Find(&entries).Error; err != nil {
		return nil, wrap("load trend transactions", err)
	}
	buckets := make(map[string]*MonthlyFinance, months)
	trend := make([]MonthlyFinance, months)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i, 0)
		trend[i] = MonthlyFinance{Key: m.Format("2006-01"), Month: m.Format("Jan 2006")}
		buckets[trend[i].Key] = &trend[i]
	}
	for _, e := range entries {
		b, ok := buckets[e.Date.Format("2006-01")]
		if !ok {
			continue
		}
		switch e.Type {
		case models.TransactionIncome:
			b.Income = b.Income.Add(e.Amount)
		case models.TransactionExpense:
			b.Expense = b.Expense.Add(e.Amount)
		}
	}
	for i := range trend {
		trend[i].Net = trend[i].Income.Sub(trend[i].Expense)
	}
	return trend, nil
}

type DashboardStats struct {
	TotalRooms    int             `json:"total_kamar"`
	OccupiedRooms int             `json:"kamar_terisi"`
	EmptyRooms    int             `json:"kamar_kosong"`
	OccupancyRate int             `json:"occupancy_rate"`
	ActiveTenants int             `json:"penghuni_aktif"`
	DueSoon       int             `json:"due_soon"`
	MonthIncome   decimal.Decimal `json:"pemasukan_bulan_ini"`
	MonthExpense  decimal.Decimal `json:"pengeluaran_bulan_ini"`
	MonthNet      decimal.Decimal `json:"laba_rugi_bulan_ini"`
}

// DashboardStats describes today, so only live rooms count.
func (s *ReportService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := s.DB.WithContext(ctx)
	today := s.today()

	var rooms, occupied, active, dueSoon int64
	if err := db.Model(&models.Room{}).Count(&rooms).Error; err != nil {
		return nil, wrap("count rooms", err)
	}
	if err := db.Model(&models.Tenant{}).Where("status = ? AND room_id IS NOT NULL", models.TenancyActive).
		Distinct("room_id").Count(&occupied).Error; err != nil {
		return nil, wrap("count occupied rooms", err)
	}
	if err := db.Model(&models.Tenant{}).Where("status = ?", models.TenancyActive).Count(&active).Error; err != nil {
		return nil, wrap("count active tenants", err)
	}
	if err := db.Model(&models.Tenant{}).
		Where("status = ? AND lease_end_date BETWEEN ? AND ?", models.TenancyActive, today, today.AddDate(0, 0, DueSoonDays)).
		Count(&dueSoon).Error; err != nil {
		return nil, wrap("count due soon", err)
	}
	month, err := s.totals(db, MonthOf(today))
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalRooms:    int(rooms),
		OccupiedRooms: int(occupied),
		EmptyRooms:    int(rooms - occupied),
		OccupancyRate: percent(int(occupied), int(rooms)),
		ActiveTenants: int(active),
		DueSoon:       int(dueSoon),
		MonthIncome:   month.Income,
		MonthExpense:  month.Expense,
		MonthNet:      month.Net,
	}, nil
}

type TenantDetail struct {
	ID           string `json:"id"`
	FullName     string `json:"nama_lengkap"`
	MoveInDate   string `json:"tanggal_masuk"`
	MoveOutDate  string `json:"tanggal_keluar,omitempty"`
	LeaseEndDate string `json:"masa_berakhir_sewa,omitempty"`
	Status       string `json:"status_sewa"`
	RoomName     string `json:"kamar_nama"`
	DaysStayed   int    `json:"jumlah_hari"`
	Phone        string `json:"no_hp"`
	Email        string `json:"email"`
}

type TenantSummary struct {
	Total    int `json:"total_tenants"`
	Active   int `json:"active_tenants"`
	Inactive int `json:"inactive_tenants"`
}

type TenantDetailReport struct {
	Data    []TenantDetail `json:"data"`
	Summary TenantSummary  `json:"summary"`
}

// TenantDetails lists tenancies, optionally of one status, with the length of the
// current or last stay.
func (s *ReportService) TenantDetails(ctx context.Context, status models.TenancyStatus) (*TenantDetailReport, error) {
	q := s.DB.WithContext(ctx).Preload("Room", unscopedRoom)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var tenants []models.Tenant
	if err := q.Order("created_at DESC").Find(&tenants).Error; err != nil {
		return nil, wrap("load tenants", err)
	}
	today := s.today()
	rep := &TenantDetailReport{Data: make([]TenantDetail, 0, len(tenants))}
	for _, t := range tenants {
		until := today
		if t.MoveOutDate != nil {
			until = *t.MoveOutDate
		}
		roomName := "-"
		if t.Room != nil {
			roomName = t.Room.Name
		}
		rep.Data = append(rep.Data, TenantDetail{
			ID:           t.ID,
			FullName:     t.FullName,
			MoveInDate:   t.MoveInDate.Format(lease.DateLayout),
			MoveOutDate:  lease.FormatDate(t.MoveOutDate),
			LeaseEndDate: lease.FormatDate(t.LeaseEndDate),
			Status:       string(t.Status),
			RoomName:     roomName,
			DaysStayed:   max(0, lease.DaysBetween(t.MoveInDate, until)),
			Phone:        t.Phone,
			Email:        t.Email,
		})
		switch t.Status {
		case models.TenancyActive:
			rep.Summary.Active++
		case models.TenancyInactive:
			rep.Summary.Inactive++
		}
	}
	rep.Summary.Total = len(rep.Data)
	return rep, nil
}

type DueTenant struct {
	ID            string          `json:"id"`
	FullName      string          `json:"nama_lengkap"`
	Phone         string          `json:"no_hp"`
	RoomName      string          `json:"nama_kamar"`
	MonthlyPrice  decimal.Decimal `json:"harga_bulanan"`
	LeaseEndDate  string          `json:"masa_berakhir_sewa"`
	DaysRemaining int             `json:"sisa_hari"`
	Overdue       bool            `json:"terlambat"`
}

// DueSoon lists active tenants whose lease ends within the next days days, soonest
// first. Leases that already ended are included only when includeOverdue is set.
func (s *ReportService) DueSoon(ctx context.Context, days int, includeOverdue bool) ([]DueTenant, error) {
	if days <= 0 {
		days = DueSoonDays
	}
	today := s.today()
	q := s.DB.WithContext(ctx).Preload("Room", unscopedRoom).
		Where("status = ? AND lease_end_date IS NOT NULL AND lease_end_date <= ?", models.TenancyActive, today.AddDate(0, 0, days))
	if !includeOverdue {
		q = q.Where("lease_end_date >= ?", today)
	}
	var tenants []models.Tenant
	if err := q.Order("lease_end_date").Find(&tenants).Error; err != nil {
		return nil, wrap("load due tenants", err)
	}
	out := make([]DueTenant, 0, len(tenants))
	for _, t := range tenants {
		d := DueTenant{
			ID:            t.ID,
			FullName:      t.FullName,
			Phone:         t.Phone,
			LeaseEndDate:  lease.FormatDate(t.LeaseEndDate),
			DaysRemaining: lease.DaysBetween(today, *t.LeaseEndDate),
		}
		d.Overdue = d.DaysRemaining < 0
		if t.Room != nil {
			d.RoomName = t.Room.Name
			d.MonthlyPrice = t.Room.MonthlyPrice
		}
		out = append(out, d)
	}
	return out, nil
}

type AccountLine struct {
	AccountCode string          `json:"account_code"`
	Category    string          `json:"kategori"`
	Total       decimal.Decimal `json:"total"`
}

type ProfitLoss struct {
	Period       PeriodInfo      `json:"period"`
	Income       []AccountLine   `json:"pendapatan"`
	Expense      []AccountLine   `json:"beban"`
	TotalIncome  decimal.Decimal `json:"total_pendapatan"`
	TotalExpense decimal.Decimal `json:"total_beban"`
	Net          decimal.Decimal `json:"laba_bersih"`
}

// ProfitLoss groups the period's transactions by account code and category.
func (s *ReportService) ProfitLoss(ctx context.Context, p Period) (*ProfitLoss, error) {
	var rows []struct {
		Type        models.TransactionType
		AccountCode string
		Category    string
		Total       decimal.Decimal
	}
	err := s.DB.WithContext(ctx).Model(&models.Transaction{}).
		Select("type, account_code, category, COALESCE(SUM(amount), 0) AS total").
		Where("date BETWEEN ? AND ?", p.Start, p.End).
		Group("type, account_code, category").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("group profit and loss", err)
	}
	rep := &ProfitLoss{Period: p.info(false), Income: []AccountLine{}, Expense: []AccountLine{}}
	for _, r := range rows {
		line := AccountLine{AccountCode: r.AccountCode, Category: r.Category, Total: r.Total}
		switch r.Type {
		case models.TransactionIncome:
			rep.Income = append(rep.Income, line)
			rep.TotalIncome = rep.TotalIncome.Add(r.Total)
		case models.TransactionExpense:
			rep.Expense = append(rep.Expense, line)
			rep.TotalExpense = rep.TotalExpense.Add(r.Total)
		}
	}
	byCode := func(lines []AccountLine) {
		sort.Slice(lines, func(i, j int) bool {
			if lines[i].AccountCode != lines[j].AccountCode {
				return lines[i].AccountCode < lines[j].AccountCode
			}
			return lines[i].Category < lines[j].Category
		})
	}
	byCode(rep.Income)
	byCode(rep.Expense)
	rep.Net = rep.TotalIncome.Sub(rep.TotalExpense)
	return rep, nil
}
