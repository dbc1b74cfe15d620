package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
)

func TestLedgerValidation(t *testing.T) {
	db := setupTestDB(t)
	ledger := newLedger(db)
	bad := -1

	_, err := ledger.Create(context.Background(), EntryInput{
		Type:          "Hutang",
		Amount:        decimal.NewFromInt(-5),
		Date:          day(t, "2025-03-11"),
		CashFlowIndex: &bad,
	})
	requireKind(t, err, KindValidation)
	fields := err.(*Error).Fields
	assert.Equal(t, "must be Pemasukan or Pengeluaran", fields["tipe_transaksi"])
	assert.Equal(t, "required", fields["kategori"])
	assert.Equal(t, "required", fields["deskripsi"])
	assert.Equal(t, "must be greater than 0", fields["jumlah"])
	assert.Equal(t, "must not be in the future", fields["tanggal_transaksi"])
	assert.Contains(t, fields, "cash_flow_index")

	_, err = ledger.Create(context.Background(), EntryInput{
		Type:        models.TransactionIncome,
		Category:    "Sewa Kamar",
		Description: "Sewa",
		Amount:      decimal.NewFromInt(10),
		Date:        day(t, "2025-03-10"),
		TenantID:    "7d8c1c1e-0000-4000-8000-000000000003",
	})
	requireKind(t, err, KindValidation)
	assert.Equal(t, "unknown tenant", err.(*Error).Fields["penghuni_id"])
}

func TestLedgerSnapshotsTenantRoom(t *testing.T) {
	db := setupTestDB(t)
	room := mustRoom(t, db, "Kamar 101")
	tenant := mustMoveIn(t, newTenancy(db), "Joko", room.ID, "2025-03-01")
	ledger := newLedger(db)

	e, err := ledger.Create(context.Background(), EntryInput{
		TenantID:    tenant.ID,
		Type:        models.TransactionIncome,
		Category:    "Deposit",
		Description: "Deposit kamar",
		Amount:      decimal.NewFromInt(500_000),
		Date:        day(t, "2025-03-01"),
	})
	require.NoError(t, err)
	require.NotNil(t, e.RoomID)
	assert.Equal(t, room.ID, *e.RoomID)
	assert.Equal(t, "Joko", e.TenantName)
	assert.Equal(t, "Kamar 101", e.RoomName)

	upd, err := ledger.Update(context.Background(), e.ID, EntryInput{
		Type:        models.TransactionExpense,
		Category:    "Refund",
		Description: "Refund deposit",
		Amount:      decimal.NewFromInt(200_000),
		Date:        day(t, "2025-03-02"),
	})
	require.NoError(t, err)
	assert.Nil(t, upd.TenantID)
	assert.Empty(t, upd.TenantName)
	assert.Equal(t, models.TransactionExpense, upd.Type)

	_, err = ledger.Update(context.Background(), "7d8c1c1e-0000-4000-8000-000000000004", EntryInput{
		Type:        models.TransactionExpense,
		Category:    "Refund",
		Description: "x",
		Amount:      decimal.NewFromInt(1),
		Date:        day(t, "2025-03-02"),
	})
	requireKind(t, err, KindNotFound)
}

func TestLedgerListFilters(t *testing.T) {
	db := setupTestDB(t)
	mustEntry(t, db, models.TransactionIncome, "Sewa Kamar", "4-111", "2025-03-01", 1_200_000)
	mustEntry(t, db, models.TransactionIncome, "Denda", "4-900", "2025-03-05", 50_000)
	mustEntry(t, db, models.TransactionExpense, "Listrik", "5-210", "2025-02-20", 300_000)
	ledger := newLedger(db)
	ctx := context.Background()

	rows, total, err := ledger.List(ctx, EntryFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rows, 3)
	assert.Equal(t, "Listrik", rows[0].Category)

	rows, total, err = ledger.List(ctx, EntryFilter{Type: models.TransactionIncome, Desc: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "Denda", rows[0].Category)

	from := day(t, "2025-03-01")
	rows, total, err = ledger.List(ctx, EntryFilter{From: &from, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 1)

	rows, _, err = ledger.List(ctx, EntryFilter{Search: "listrik"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "5-210", rows[0].AccountCode)

	rows, _, err = ledger.List(ctx, EntryFilter{Category: "Denda"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLedgerGetDelete(t *testing.T) {
	db := setupTestDB(t)
	e := mustEntry(t, db, models.TransactionExpense, "Air", "5-220", "2025-03-04", 100_000)
	ledger := newLedger(db)
	ctx := context.Background()

	got, err := ledger.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(100_000)))

	require.NoError(t, ledger.Delete(ctx, e.ID))
	requireKind(t, ledger.Delete(ctx, e.ID), KindNotFound)
	_, err = ledger.Get(ctx, e.ID)
	requireKind(t, err, KindNotFound)
}

func TestBackfillSnapshots(t *testing.T) {
	db := setupTestDB(t)
	room := mustRoom(t, db, "Kamar 301")
	tenant := mustMoveIn(t, newTenancy(db), "Kiki", room.ID, "2025-03-01")

	entry := models.Transaction{
		TenantID:    &tenant.ID,
		Type:        models.TransactionIncome,
		Category:    "Sewa Kamar",
		Description: "legacy",
		Amount:      decimal.NewFromInt(1_000),
		Date:        day(t, "2025-03-01"),
	}
	require.NoError(t, db.Create(&entry).Error)
	bill := models.Bill{TenantID: &tenant.ID, RoomID: &room.ID, Number: "KW-9", Amount: decimal.NewFromInt(1_000), Status: models.BillPaid, DueDate: day(t, "2025-03-08")}
	require.NoError(t, db.Create(&bill).Error)

	n, err := newLedger(db).BackfillSnapshots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var gotEntry models.Transaction
	require.NoError(t, db.Where("id = ?", entry.ID).First(&gotEntry).Error)
	assert.Equal(t, "Kiki", gotEntry.TenantName)
	var gotBill models.Bill
	require.NoError(t, db.Where("id = ?", bill.ID).First(&gotBill).Error)
	assert.Equal(t, "Kiki", gotBill.TenantName)
	assert.Equal(t, "Kamar 301", gotBill.RoomName)

	n, err = newLedger(db).BackfillSnapshots(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
