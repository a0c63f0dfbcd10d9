package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cantina-ledger/internal/core"
)

// CashSaleRequest records an immediately-paid checkout. ClientName, when
// set, attaches the sale to a client (created by name if unknown).
type CashSaleRequest struct {
	ProductID  uuid.UUID          `json:"product_id"`
	Quantity   int                `json:"quantity"`
	Method     core.PaymentMethod `json:"payment_method"`
	ClientID   *uuid.UUID         `json:"client_id,omitempty"`
	ClientName string             `json:"client_name,omitempty"`
}

// CreditSaleRequest records an on-the-tab checkout. Exactly one of ClientID
// or ClientName identifies the debtor; a fresh client is created from the
// name when no case-insensitive match exists.
type CreditSaleRequest struct {
	ProductID  uuid.UUID  `json:"product_id"`
	Quantity   int        `json:"quantity"`
	ClientID   *uuid.UUID `json:"client_id,omitempty"`
	ClientName string     `json:"client_name,omitempty"`
}

// ManualDebtRequest notes a debit with no originating sale.
type ManualDebtRequest struct {
	ClientID    uuid.UUID       `json:"client_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ReservationRequest books a future order.
type ReservationRequest struct {
	ClientName    string          `json:"client_name"`
	ProductName   string          `json:"product_name"`
	Amount        decimal.Decimal `json:"amount"`
	ScheduledDate time.Time       `json:"scheduled_date"`
}
