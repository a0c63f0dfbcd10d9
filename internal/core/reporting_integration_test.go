package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cantina-ledger/internal/core"
)

// seedPeriod writes one paid sale (12.75), one credit sale with its debt
// (10.00), one manual debt (7.50), and one pending reservation (6.00).
func seedPeriod(t *testing.T, catalog core.CatalogService, clients core.ClientService, ledger core.LedgerService, reservations core.ReservationService) {
	t.Helper()
	ctx := context.Background()

	coxinha := mustProduct(t, catalog, "Coxinha", "5.00")
	pastel := mustProduct(t, catalog, "Pastel", "4.25")
	ana := mustClient(t, clients, "Ana")

	if _, err := ledger.RecordCashSale(ctx, core.CashSaleInput{
		ProductID: pastel.ID, Quantity: 3, Method: core.MethodPix,
	}); err != nil {
		t.Fatalf("seed cash sale: %v", err)
	}
	if _, err := ledger.RecordCreditSale(ctx, core.CreditSaleInput{
		ClientID: ana.ID, ProductID: coxinha.ID, Quantity: 2,
	}); err != nil {
		t.Fatalf("seed credit sale: %v", err)
	}
	if _, err := ledger.AddManualDebt(ctx, ana.ID, decimal.RequireFromString("7.50"), "Refrigerante"); err != nil {
		t.Fatalf("seed manual debt: %v", err)
	}
	if _, err := reservations.CreateReservation(ctx, core.ReservationInput{
		ClientName:    "Ana",
		ProductName:   "Torta",
		Amount:        decimal.RequireFromString("6.00"),
		ScheduledDate: time.Now(),
	}); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
}

func TestReporting_HistoryTotalsAndFilters(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)
	clients := core.NewClientService(pool)
	ledger := core.NewLedgerService(pool)
	reservations := core.NewReservationService(pool, clients)
	reporting := core.NewReportingService(pool)

	seedPeriod(t, catalog, clients, ledger, reservations)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(24 * time.Hour)

	report, err := reporting.History(ctx, from, to, nil)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}

	// 2 sales + 2 debts + 1 reservation.
	if len(report.Rows) != 5 {
		t.Fatalf("expected 5 history rows, got %d", len(report.Rows))
	}
	if !report.TotalReceived.Equal(decimal.RequireFromString("12.75")) {
		t.Errorf("expected received 12.75, got %s", report.TotalReceived)
	}
	if !report.TotalOutstanding.Equal(decimal.RequireFromString("17.50")) {
		t.Errorf("expected outstanding 17.50, got %s", report.TotalOutstanding)
	}
	if !report.TotalReservations.Equal(decimal.RequireFromString("6.00")) {
		t.Errorf("expected reservations total 6.00, got %s", report.TotalReservations)
	}

	// Rows are newest first.
	for i := 1; i < len(report.Rows); i++ {
		if report.Rows[i].Date.After(report.Rows[i-1].Date) {
			t.Errorf("rows out of order at index %d", i)
		}
	}

	// Type filter narrows rows without changing their shape.
	filter := core.HistoryDebt
	debtsOnly, err := reporting.History(ctx, from, to, &filter)
	if err != nil {
		t.Fatalf("History with filter failed: %v", err)
	}
	if len(debtsOnly.Rows) != 2 {
		t.Fatalf("expected 2 debt rows, got %d", len(debtsOnly.Rows))
	}
	for _, row := range debtsOnly.Rows {
		if row.Type != core.HistoryDebt {
			t.Errorf("unexpected row type %s under debt filter", row.Type)
		}
		if row.Details != "Ana" {
			t.Errorf("expected resolved client name in details, got %q", row.Details)
		}
		if row.Status != "Em aberto" {
			t.Errorf("expected status Em aberto, got %q", row.Status)
		}
	}

	// The credit sale row reads Fiado; the paid one Pago.
	saleFilter := core.HistorySale
	salesOnly, err := reporting.History(ctx, from, to, &saleFilter)
	if err != nil {
		t.Fatalf("History with sale filter failed: %v", err)
	}
	statuses := map[string]int{}
	for _, row := range salesOnly.Rows {
		statuses[row.Status]++
	}
	if statuses["Pago"] != 1 || statuses["Fiado"] != 1 {
		t.Errorf("expected one Pago and one Fiado sale, got %v", statuses)
	}
}

func TestReporting_HistoryIsRepeatable(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)
	clients := core.NewClientService(pool)
	ledger := core.NewLedgerService(pool)
	reservations := core.NewReservationService(pool, clients)
	reporting := core.NewReportingService(pool)

	seedPeriod(t, catalog, clients, ledger, reservations)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(24 * time.Hour)

	first, err := reporting.History(ctx, from, to, nil)
	if err != nil {
		t.Fatalf("first History failed: %v", err)
	}
	second, err := reporting.History(ctx, from, to, nil)
	if err != nil {
		t.Fatalf("second History failed: %v", err)
	}

	if len(first.Rows) != len(second.Rows) {
		t.Fatalf("row counts differ: %d vs %d", len(first.Rows), len(second.Rows))
	}
	for i := range first.Rows {
		a, b := first.Rows[i], second.Rows[i]
		if a.ID != b.ID || a.Type != b.Type || a.Description != b.Description ||
			a.Status != b.Status || a.Details != b.Details || !a.Amount.Equal(b.Amount) {
			t.Errorf("row %d differs between identical queries: %+v vs %+v", i, a, b)
		}
	}
	if !first.TotalReceived.Equal(second.TotalReceived) ||
		!first.TotalOutstanding.Equal(second.TotalOutstanding) ||
		!first.TotalReservations.Equal(second.TotalReservations) {
		t.Error("totals differ between identical queries")
	}
}

func TestReporting_HistoryExcludesOutOfRange(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)
	ledger := core.NewLedgerService(pool)
	reporting := core.NewReportingService(pool)

	pastel := mustProduct(t, catalog, "Pastel", "4.25")
	if _, err := ledger.RecordCashSale(ctx, core.CashSaleInput{
		ProductID: pastel.ID, Quantity: 1, Method: core.MethodDinheiro,
	}); err != nil {
		t.Fatalf("record sale: %v", err)
	}

	// A window entirely in the past sees nothing.
	report, err := reporting.History(ctx,
		time.Now().AddDate(0, 0, -10), time.Now().AddDate(0, 0, -5), nil)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(report.Rows) != 0 {
		t.Errorf("expected empty report, got %d rows", len(report.Rows))
	}
	if !report.TotalReceived.IsZero() || !report.TotalOutstanding.IsZero() || !report.TotalReservations.IsZero() {
		t.Error("expected zero totals for empty period")
	}
}

func TestReporting_Dashboard(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)
	clients := core.NewClientService(pool)
	ledger := core.NewLedgerService(pool)
	reservations := core.NewReservationService(pool, clients)
	reporting := core.NewReportingService(pool)

	seedPeriod(t, catalog, clients, ledger, reservations)

	sum, err := reporting.Dashboard(ctx, time.Now())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if !sum.ReceivedToday.Equal(decimal.RequireFromString("12.75")) {
		t.Errorf("expected received today 12.75, got %s", sum.ReceivedToday)
	}
	if !sum.CreditToday.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected credit today 10.00, got %s", sum.CreditToday)
	}
	if !sum.TotalSoldToday.Equal(decimal.RequireFromString("22.75")) {
		t.Errorf("expected total sold today 22.75, got %s", sum.TotalSoldToday)
	}
	if sum.PendingReservations != 1 {
		t.Errorf("expected 1 pending reservation today, got %d", sum.PendingReservations)
	}
}
