package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"cantina-ledger/internal/core"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx,
		"TRUNCATE TABLE debts, sales, reservations, clients, products, users CASCADE")
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return pool
}

func mustProduct(t *testing.T, catalog core.CatalogService, name string, price string) *core.Product {
	t.Helper()
	p, err := catalog.CreateProduct(context.Background(), name, decimal.RequireFromString(price))
	if err != nil {
		t.Fatalf("CreateProduct(%q) failed: %v", name, err)
	}
	return p
}

func mustClient(t *testing.T, clients core.ClientService, name string) *core.Client {
	t.Helper()
	c, err := clients.CreateClient(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateClient(%q) failed: %v", name, err)
	}
	return c
}

func TestLedger_CreditSaleAndSettlement(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)
	clients := core.NewClientService(pool)
	ledger := core.NewLedgerService(pool)

	coxinha := mustProduct(t, catalog, "Coxinha", "5.00")
	ana := mustClient(t, clients, "Ana")

	// 1. Credit sale: 2 × 5.00 = 10.00 on Ana's tab.
	res, err := ledger.RecordCreditSale(ctx, core.CreditSaleInput{
		ClientID: ana.ID, ProductID: coxinha.ID, Quantity: 2,
	})
	if err != nil {
		t.Fatalf("RecordCreditSale failed: %v", err)
	}
	if res.Sale.Paid {
		t.Error("credit sale must be created unpaid")
	}
	if !res.Sale.TotalPrice.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected sale total 10.00, got %s", res.Sale.TotalPrice)
	}
	if !res.Debt.Amount.Equal(res.Sale.TotalPrice) {
		t.Errorf("debt amount %s must equal sale total %s", res.Debt.Amount, res.Sale.TotalPrice)
	}
	if res.Debt.SaleID == nil || *res.Debt.SaleID != res.Sale.ID {
		t.Error("debt must reference the originating sale")
	}
	if res.Debt.Description != "2x Coxinha" {
		t.Errorf("expected debt description %q, got %q", "2x Coxinha", res.Debt.Description)
	}
	if !res.NewBalance.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected balance 10.00 after credit sale, got %s", res.NewBalance)
	}

	originalSaleDate := res.Sale.CreatedAt

	// 2. Settle Ana's tab.
	settlement, err := ledger.SettleClientDebts(ctx, ana.ID)
	if err != nil {
		t.Fatalf("SettleClientDebts failed: %v", err)
	}
	if settlement.DebtsSettled != 1 || settlement.SalesMarked != 1 {
		t.Errorf("expected 1 debt / 1 sale settled, got %d / %d",
			settlement.DebtsSettled, settlement.SalesMarked)
	}
	if !settlement.AmountPaid.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected settled amount 10.00, got %s", settlement.AmountPaid)
	}
	if !settlement.NewBalance.IsZero() {
		t.Errorf("expected zero balance after settlement, got %s", settlement.NewBalance)
	}

	// 3. The linked sale is paid, with its original date untouched.
	var paid bool
	var paidAtSet bool
	var saleDateUnchanged bool
	err = pool.QueryRow(ctx, `
		SELECT s.paid, d.paid_at IS NOT NULL, s.created_at = $2
		FROM sales s JOIN debts d ON d.sale_id = s.id
		WHERE s.id = $1`,
		res.Sale.ID, originalSaleDate,
	).Scan(&paid, &paidAtSet, &saleDateUnchanged)
	if err != nil {
		t.Fatalf("fetch settled sale: %v", err)
	}
	if !paid {
		t.Error("linked sale must be marked paid after settlement")
	}
	if !paidAtSet {
		t.Error("settled debt must carry a paid_at timestamp")
	}
	if !saleDateUnchanged {
		t.Error("settlement must not alter the sale's original created_at")
	}

	// 4. No open debts remain; a second settle is rejected.
	if _, err := ledger.SettleClientDebts(ctx, ana.ID); err == nil {
		t.Error("expected error settling a client with no open debts")
	} else if !errors.Is(err, core.ErrNoOpenDebts) {
		t.Errorf("expected ErrNoOpenDebts, got %v", err)
	}
}

func TestLedger_ManualDebt(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	clients := core.NewClientService(pool)
	ledger := core.NewLedgerService(pool)

	bruno := mustClient(t, clients, "Bruno")

	debt, err := ledger.AddManualDebt(ctx, bruno.ID, decimal.RequireFromString("7.50"), "Refrigerante emprestado")
	if err != nil {
		t.Fatalf("AddManualDebt failed: %v", err)
	}
	if debt.SaleID != nil {
		t.Error("manual debt must have no originating sale")
	}
	if debt.Description != "Refrigerante emprestado" {
		t.Errorf("manual debt must keep the supplied description, got %q", debt.Description)
	}

	after, err := clients.GetClient(ctx, bruno.ID)
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if !after.TotalDebt.Equal(decimal.RequireFromString("7.50")) {
		t.Errorf("expected balance 7.50 after manual debt, got %s", after.TotalDebt)
	}

	// Zero and negative amounts are rejected before any write.
	if _, err := ledger.AddManualDebt(ctx, bruno.ID, decimal.Zero, "x"); err == nil {
		t.Error("expected error for zero-amount manual debt")
	}
}

func TestLedger_CashSaleWritesNoDebt(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)
	clients := core.NewClientService(pool)
	ledger := core.NewLedgerService(pool)

	pastel := mustProduct(t, catalog, "Pastel", "4.25")
	carla := mustClient(t, clients, "Carla")

	sale, err := ledger.RecordCashSale(ctx, core.CashSaleInput{
		ProductID: pastel.ID, Quantity: 3, Method: core.MethodPix, ClientID: &carla.ID,
	})
	if err != nil {
		t.Fatalf("RecordCashSale failed: %v", err)
	}
	if !sale.Paid {
		t.Error("cash sale must be created paid")
	}
	if !sale.TotalPrice.Equal(decimal.RequireFromString("12.75")) {
		t.Errorf("expected total 12.75, got %s", sale.TotalPrice)
	}

	var debtCount int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM debts").Scan(&debtCount); err != nil {
		t.Fatalf("count debts: %v", err)
	}
	if debtCount != 0 {
		t.Errorf("cash sale must not create debts, found %d", debtCount)
	}

	after, err := clients.GetClient(ctx, carla.ID)
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if !after.TotalDebt.IsZero() {
		t.Errorf("cash sale must not change client balance, got %s", after.TotalDebt)
	}

	// Fiado is not an immediate payment method.
	if _, err := ledger.RecordCashSale(ctx, core.CashSaleInput{
		ProductID: pastel.ID, Quantity: 1, Method: core.MethodFiado,
	}); err == nil {
		t.Error("expected error recording a cash sale with method fiado")
	}
}

// TestLedger_BalanceMatchesOpenDebts drives a mixed sequence of credit
// sales, manual debts, and settlements and checks the denormalized counter
// against the sum of open debt rows after every step.
func TestLedger_BalanceMatchesOpenDebts(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)
	clients := core.NewClientService(pool)
	ledger := core.NewLedgerService(pool)

	cafe := mustProduct(t, catalog, "Café", "3.00")
	duda := mustClient(t, clients, "Duda")

	checkInvariant := func(step string) {
		t.Helper()
		var counter, openSum decimal.Decimal
		err := pool.QueryRow(ctx, `
			SELECT c.total_debt,
			       COALESCE((SELECT SUM(amount) FROM debts WHERE client_id = c.id AND paid = false), 0)
			FROM clients c WHERE c.id = $1`,
			duda.ID,
		).Scan(&counter, &openSum)
		if err != nil {
			t.Fatalf("%s: invariant query failed: %v", step, err)
		}
		if !counter.Equal(openSum) {
			t.Errorf("%s: total_debt %s != open debt sum %s", step, counter, openSum)
		}
	}

	if _, err := ledger.RecordCreditSale(ctx, core.CreditSaleInput{ClientID: duda.ID, ProductID: cafe.ID, Quantity: 4}); err != nil {
		t.Fatalf("credit sale 1: %v", err)
	}
	checkInvariant("after credit sale")

	if _, err := ledger.AddManualDebt(ctx, duda.ID, decimal.RequireFromString("2.50"), ""); err != nil {
		t.Fatalf("manual debt: %v", err)
	}
	checkInvariant("after manual debt")

	if _, err := ledger.SettleClientDebts(ctx, duda.ID); err != nil {
		t.Fatalf("settlement: %v", err)
	}
	checkInvariant("after settlement")

	if _, err := ledger.RecordCreditSale(ctx, core.CreditSaleInput{ClientID: duda.ID, ProductID: cafe.ID, Quantity: 1}); err != nil {
		t.Fatalf("credit sale 2: %v", err)
	}
	checkInvariant("after post-settlement credit sale")
}

// TestLedger_SaleSnapshotSurvivesCatalogEdit verifies that renaming or
// repricing a product never rewrites sales already recorded.
func TestLedger_SaleSnapshotSurvivesCatalogEdit(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)
	clients := core.NewClientService(pool)
	ledger := core.NewLedgerService(pool)

	bolo := mustProduct(t, catalog, "Bolo", "8.00")
	eva := mustClient(t, clients, "Eva")

	res, err := ledger.RecordCreditSale(ctx, core.CreditSaleInput{ClientID: eva.ID, ProductID: bolo.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("RecordCreditSale failed: %v", err)
	}

	if _, err := catalog.UpdateProduct(ctx, bolo.ID, "Bolo de Cenoura", decimal.RequireFromString("9.50")); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}

	var name string
	var unitPrice decimal.Decimal
	err = pool.QueryRow(ctx,
		"SELECT product_name, unit_price FROM sales WHERE id = $1", res.Sale.ID,
	).Scan(&name, &unitPrice)
	if err != nil {
		t.Fatalf("fetch sale: %v", err)
	}
	if name != "Bolo" {
		t.Errorf("sale must keep the product name at sale time, got %q", name)
	}
	if !unitPrice.Equal(decimal.RequireFromString("8.00")) {
		t.Errorf("sale must keep the unit price at sale time, got %s", unitPrice)
	}
}
