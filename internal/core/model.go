package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a sale was settled. MethodFiado is reserved
// for credit sales: the sale stays unpaid and a Debt row tracks it.
type PaymentMethod string

const (
	MethodDinheiro      PaymentMethod = "dinheiro"
	MethodPix           PaymentMethod = "pix"
	MethodCartaoDebito  PaymentMethod = "cartao_debito"
	MethodCartaoCredito PaymentMethod = "cartao_credito"
	MethodFiado         PaymentMethod = "fiado"
)

// Valid reports whether m is one of the known payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodDinheiro, MethodPix, MethodCartaoDebito, MethodCartaoCredito, MethodFiado:
		return true
	}
	return false
}

// Label returns the human-readable Portuguese label used in history rows
// and the PDF export.
func (m PaymentMethod) Label() string {
	switch m {
	case MethodDinheiro:
		return "Dinheiro"
	case MethodPix:
		return "PIX"
	case MethodCartaoDebito:
		return "Débito"
	case MethodCartaoCredito:
		return "Crédito"
	case MethodFiado:
		return "Fiado"
	}
	return string(m)
}

// Product is a catalog item. Deletion is soft: the row stays (history rows
// reference it) and Active is cleared instead.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

// Client is a known customer. TotalDebt is a denormalized running sum of the
// client's unpaid Debt amounts; it is only ever written inside the same
// transaction that writes the Debt rows, so it cannot drift from them.
type Client struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	TotalDebt decimal.Decimal `json:"total_debt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Sale is one checkout action. ProductName and UnitPrice are captured at
// sale time so later catalog edits never rewrite history. Paid flips to true
// when a linked debt is settled; CreatedAt is never altered by settlement.
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Paid          bool            `json:"paid"`
	ClientID      *uuid.UUID      `json:"client_id,omitempty"`
	PaymentMethod *PaymentMethod  `json:"payment_method,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Debt is an open tab entry. SaleID links back to the originating credit
// sale; manual debts have no sale. Settlement is all-or-nothing per client.
type Debt struct {
	ID            uuid.UUID       `json:"id"`
	ClientID      uuid.UUID       `json:"client_id"`
	SaleID        *uuid.UUID      `json:"sale_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Paid          bool            `json:"paid"`
	PaymentMethod *PaymentMethod  `json:"payment_method,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

// ReservationStatus is the reservation lifecycle state.
//
//	pending → completed_paid | completed_debt | missed
//
// The three right-hand states are terminal; no transition leaves them.
type ReservationStatus string

const (
	ReservationPending       ReservationStatus = "pending"
	ReservationCompletedPaid ReservationStatus = "completed_paid"
	ReservationCompletedDebt ReservationStatus = "completed_debt"
	ReservationMissed        ReservationStatus = "missed"
)

// Terminal reports whether s is one of the three end states.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationCompletedPaid, ReservationCompletedDebt, ReservationMissed:
		return true
	}
	return false
}

// Label returns the display label used in history rows.
func (s ReservationStatus) Label() string {
	switch s {
	case ReservationPending:
		return "Pendente"
	case ReservationCompletedPaid:
		return "Concluída (Pago)"
	case ReservationCompletedDebt:
		return "Concluída (Fiado)"
	case ReservationMissed:
		return "Não compareceu"
	}
	return string(s)
}

// Reservation is a pre-booked future order. ClientName and ProductName are
// free-text snapshots, not foreign keys: renaming a client or product never
// touches past reservations.
type Reservation struct {
	ID            uuid.UUID         `json:"id"`
	ClientName    string            `json:"client_name"`
	ProductName   string            `json:"product_name"`
	Amount        decimal.Decimal   `json:"amount"`
	ScheduledDate time.Time         `json:"scheduled_date"`
	Status        ReservationStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
}

// User is an operator account. Sessions carry only the identity needed to
// gate the UI and show a display name.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
