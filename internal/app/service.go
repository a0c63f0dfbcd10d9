package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cantina-ledger/internal/core"
)

// ApplicationService is the single interface the web adapter calls. It
// decouples presentation from business logic; implementations contain no
// HTTP types and no display logic.
type ApplicationService interface {
	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)
	// GetUser returns the operator account for the given id.
	GetUser(ctx context.Context, id uuid.UUID) (*core.User, error)

	// Catalog
	ListProducts(ctx context.Context) ([]core.Product, error)
	CreateProduct(ctx context.Context, name string, price decimal.Decimal) (*core.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, name string, price decimal.Decimal) (*core.Product, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) error

	// Clients
	ListClients(ctx context.Context) ([]core.Client, error)
	CreateClient(ctx context.Context, name string) (*core.Client, error)
	GetClientDetail(ctx context.Context, id uuid.UUID) (*ClientDetail, error)
	ListDebtors(ctx context.Context) ([]core.ClientWithDebts, error)

	// Ledger writes — each is one atomic operation.
	RecordCashSale(ctx context.Context, req CashSaleRequest) (*core.Sale, error)
	RecordCreditSale(ctx context.Context, req CreditSaleRequest) (*core.CreditSaleResult, error)
	AddManualDebt(ctx context.Context, req ManualDebtRequest) (*core.Debt, error)
	SettleClientDebts(ctx context.Context, clientID uuid.UUID) (*core.SettlementResult, error)

	// Reservations
	ListUpcomingReservations(ctx context.Context) ([]core.Reservation, error)
	CreateReservation(ctx context.Context, req ReservationRequest) (*core.Reservation, error)
	ResolveReservation(ctx context.Context, id uuid.UUID, status core.ReservationStatus) (*core.Reservation, error)

	// Reporting
	GetHistory(ctx context.Context, from, to time.Time, typeFilter *core.HistoryType) (*core.HistoryReport, error)
	ExportHistoryPDF(ctx context.Context, from, to time.Time, typeFilter *core.HistoryType) ([]byte, error)
	GetDashboard(ctx context.Context) (*core.DashboardSummary, error)
}

// UserSession is the identity carried by an authenticated session:
// populated on login, discarded on logout. Nothing identity-related is
// stored client side beyond the token cookie.
type UserSession struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// ClientDetail is a client plus their open tab, as shown on the client
// screen before a settle-all action.
type ClientDetail struct {
	Client    core.Client     `json:"client"`
	OpenDebts []core.Debt     `json:"open_debts"`
	OpenTotal decimal.Decimal `json:"open_total"`
}
