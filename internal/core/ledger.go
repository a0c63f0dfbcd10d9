package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNoOpenDebts is returned by SettleClientDebts when the client has
// nothing outstanding.
var ErrNoOpenDebts = errors.New("client has no open debts")

// LedgerService is the write side of the ledger. Each operation is one
// database transaction: a sale, its debt, and the client's running balance
// either all land or none do. Partial state is not representable.
type LedgerService interface {
	// RecordCreditSale inserts a Sale(paid=false), a Debt referencing it,
	// and increments the client's total_debt, atomically.
	RecordCreditSale(ctx context.Context, in CreditSaleInput) (*CreditSaleResult, error)

	// RecordCashSale inserts a Sale(paid=true) with the given payment
	// method. No debt is written and no balance changes.
	RecordCashSale(ctx context.Context, in CashSaleInput) (*Sale, error)

	// AddManualDebt inserts a Debt with no originating sale and increments
	// the client's total_debt, atomically.
	AddManualDebt(ctx context.Context, clientID uuid.UUID, amount decimal.Decimal, description string) (*Debt, error)

	// SettleClientDebts marks every unpaid debt of the client paid, marks
	// the referenced sales paid (original created_at untouched), and
	// decrements total_debt by the settled sum, atomically.
	SettleClientDebts(ctx context.Context, clientID uuid.UUID) (*SettlementResult, error)
}

// CreditSaleInput describes one on-the-tab checkout line.
type CreditSaleInput struct {
	ClientID  uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// CreditSaleResult carries the rows written by RecordCreditSale together
// with the client's balance after the transaction committed.
type CreditSaleResult struct {
	Sale       Sale            `json:"sale"`
	Debt       Debt            `json:"debt"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// CashSaleInput describes an immediately-paid checkout. ClientID is
// optional; Method must be a non-fiado payment method.
type CashSaleInput struct {
	ProductID uuid.UUID
	Quantity  int
	Method    PaymentMethod
	ClientID  *uuid.UUID
}

// SettlementResult summarizes one settle-all action.
type SettlementResult struct {
	DebtsSettled int             `json:"debts_settled"`
	SalesMarked  int             `json:"sales_marked"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	NewBalance   decimal.Decimal `json:"new_balance"`
}

type ledgerService struct {
	pool *pgxpool.Pool
}

// NewLedgerService constructs a LedgerService backed by PostgreSQL.
func NewLedgerService(pool *pgxpool.Pool) LedgerService {
	return &ledgerService{pool: pool}
}

// debtDescription builds the auto-generated debt text, e.g. "2x Coxinha".
func debtDescription(quantity int, productName string) string {
	return fmt.Sprintf("%dx %s", quantity, productName)
}

// saleTotal computes quantity × unit price, rounded to two places at the
// currency boundary.
func saleTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// snapshotProduct reads the product's current name and price inside the
// transaction; the sale row carries the snapshot so later catalog edits
// never rewrite history.
func snapshotProduct(ctx context.Context, tx pgx.Tx, productID uuid.UUID) (string, decimal.Decimal, error) {
	var name string
	var price decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT name, price FROM products WHERE id = $1 AND active = true", productID,
	).Scan(&name, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", decimal.Zero, ErrProductNotFound
		}
		return "", decimal.Zero, fmt.Errorf("snapshot product %s: %w", productID, err)
	}
	return name, price, nil
}

// lockClientBalance locks the client row FOR UPDATE and returns the current
// balance. Holding the lock serializes concurrent credit sales and
// settlements for the same client.
func lockClientBalance(ctx context.Context, tx pgx.Tx, clientID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT total_debt FROM clients WHERE id = $1 FOR UPDATE", clientID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrClientNotFound
		}
		return decimal.Zero, fmt.Errorf("lock client %s: %w", clientID, err)
	}
	return balance, nil
}

func (s *ledgerService) RecordCreditSale(ctx context.Context, in CreditSaleInput) (*CreditSaleResult, error) {
	if in.Quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin credit sale: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockClientBalance(ctx, tx, in.ClientID); err != nil {
		return nil, err
	}

	productName, unitPrice, err := snapshotProduct(ctx, tx, in.ProductID)
	if err != nil {
		return nil, err
	}
	total := saleTotal(unitPrice, in.Quantity)

	res := &CreditSaleResult{}
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (product_id, product_name, quantity, unit_price, total_price, paid, client_id, payment_method)
		VALUES ($1, $2, $3, $4, $5, false, $6, NULL)
		RETURNING id, product_id, product_name, quantity, unit_price, total_price, paid, client_id, payment_method, created_at`,
		in.ProductID, productName, in.Quantity, unitPrice, total, in.ClientID,
	).Scan(&res.Sale.ID, &res.Sale.ProductID, &res.Sale.ProductName, &res.Sale.Quantity,
		&res.Sale.UnitPrice, &res.Sale.TotalPrice, &res.Sale.Paid, &res.Sale.ClientID,
		&res.Sale.PaymentMethod, &res.Sale.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert credit sale: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO debts (client_id, sale_id, amount, description, paid, payment_method)
		VALUES ($1, $2, $3, $4, false, $5)
		RETURNING id, client_id, sale_id, amount, description, paid, payment_method, created_at, paid_at`,
		in.ClientID, res.Sale.ID, total, debtDescription(in.Quantity, productName), string(MethodFiado),
	).Scan(&res.Debt.ID, &res.Debt.ClientID, &res.Debt.SaleID, &res.Debt.Amount,
		&res.Debt.Description, &res.Debt.Paid, &res.Debt.PaymentMethod,
		&res.Debt.CreatedAt, &res.Debt.PaidAt)
	if err != nil {
		return nil, fmt.Errorf("insert debt for sale %s: %w", res.Sale.ID, err)
	}

	err = tx.QueryRow(ctx, `
		UPDATE clients SET total_debt = total_debt + $2
		WHERE id = $1
		RETURNING total_debt`,
		in.ClientID, total,
	).Scan(&res.NewBalance)
	if err != nil {
		return nil, fmt.Errorf("increment balance for client %s: %w", in.ClientID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit credit sale: %w", err)
	}
	return res, nil
}

func (s *ledgerService) RecordCashSale(ctx context.Context, in CashSaleInput) (*Sale, error) {
	if in.Quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	if !in.Method.Valid() || in.Method == MethodFiado {
		return nil, fmt.Errorf("invalid payment method %q for immediate sale", in.Method)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cash sale: %w", err)
	}
	defer tx.Rollback(ctx)

	productName, unitPrice, err := snapshotProduct(ctx, tx, in.ProductID)
	if err != nil {
		return nil, err
	}
	total := saleTotal(unitPrice, in.Quantity)

	sale := &Sale{}
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (product_id, product_name, quantity, unit_price, total_price, paid, client_id, payment_method)
		VALUES ($1, $2, $3, $4, $5, true, $6, $7)
		RETURNING id, product_id, product_name, quantity, unit_price, total_price, paid, client_id, payment_method, created_at`,
		in.ProductID, productName, in.Quantity, unitPrice, total, in.ClientID, string(in.Method),
	).Scan(&sale.ID, &sale.ProductID, &sale.ProductName, &sale.Quantity, &sale.UnitPrice,
		&sale.TotalPrice, &sale.Paid, &sale.ClientID, &sale.PaymentMethod, &sale.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert cash sale: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cash sale: %w", err)
	}
	return sale, nil
}

func (s *ledgerService) AddManualDebt(ctx context.Context, clientID uuid.UUID, amount decimal.Decimal, description string) (*Debt, error) {
	if !amount.IsPositive() {
		return nil, errors.New("debt amount must be positive")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = "Débito manual"
	}
	amount = amount.Round(2)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin manual debt: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockClientBalance(ctx, tx, clientID); err != nil {
		return nil, err
	}

	debt := &Debt{}
	err = tx.QueryRow(ctx, `
		INSERT INTO debts (client_id, sale_id, amount, description, paid, payment_method)
		VALUES ($1, NULL, $2, $3, false, NULL)
		RETURNING id, client_id, sale_id, amount, description, paid, payment_method, created_at, paid_at`,
		clientID, amount, description,
	).Scan(&debt.ID, &debt.ClientID, &debt.SaleID, &debt.Amount, &debt.Description,
		&debt.Paid, &debt.PaymentMethod, &debt.CreatedAt, &debt.PaidAt)
	if err != nil {
		return nil, fmt.Errorf("insert manual debt: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE clients SET total_debt = total_debt + $2 WHERE id = $1",
		clientID, amount); err != nil {
		return nil, fmt.Errorf("increment balance for client %s: %w", clientID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit manual debt: %w", err)
	}
	return debt, nil
}

// SettleClientDebts pays the whole tab in one transaction. The balance is
// decremented by the settled sum rather than forced to zero: a credit sale
// committed between two settlements can never be silently absorbed, because
// both paths contend on the client row lock.
func (s *ledgerService) SettleClientDebts(ctx context.Context, clientID uuid.UUID) (*SettlementResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockClientBalance(ctx, tx, clientID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		UPDATE debts
		SET paid = true, paid_at = NOW()
		WHERE client_id = $1 AND paid = false
		RETURNING amount, sale_id`,
		clientID)
	if err != nil {
		return nil, fmt.Errorf("settle debts for client %s: %w", clientID, err)
	}

	res := &SettlementResult{}
	var saleIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for rows.Next() {
		var amount decimal.Decimal
		var saleID *uuid.UUID
		if err := rows.Scan(&amount, &saleID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan settled debt: %w", err)
		}
		res.DebtsSettled++
		res.AmountPaid = res.AmountPaid.Add(amount)
		if saleID != nil && !seen[*saleID] {
			seen[*saleID] = true
			saleIDs = append(saleIDs, *saleID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settled debts: %w", err)
	}

	if res.DebtsSettled == 0 {
		return nil, ErrNoOpenDebts
	}

	if len(saleIDs) > 0 {
		// Only the paid flag changes; created_at stays the original sale date.
		tag, err := tx.Exec(ctx,
			"UPDATE sales SET paid = true WHERE id = ANY($1)", saleIDs)
		if err != nil {
			return nil, fmt.Errorf("mark sales paid for client %s: %w", clientID, err)
		}
		res.SalesMarked = int(tag.RowsAffected())
	}

	err = tx.QueryRow(ctx, `
		UPDATE clients SET total_debt = total_debt - $2
		WHERE id = $1
		RETURNING total_debt`,
		clientID, res.AmountPaid,
	).Scan(&res.NewBalance)
	if err != nil {
		return nil, fmt.Errorf("decrement balance for client %s: %w", clientID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit settlement: %w", err)
	}
	return res, nil
}
