package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"cantina-ledger/internal/core"
	"cantina-ledger/internal/pdf"
)

// ErrInvalidCredentials is returned for unknown users and wrong passwords
// alike, so login failures don't reveal which half was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

type appService struct {
	users        core.UserService
	catalog      core.CatalogService
	clients      core.ClientService
	ledger       core.LedgerService
	reservations core.ReservationService
	reporting    core.ReportingService
}

// NewAppService wires the domain services into the single façade the web
// adapter consumes.
func NewAppService(
	users core.UserService,
	catalog core.CatalogService,
	clients core.ClientService,
	ledger core.LedgerService,
	reservations core.ReservationService,
	reporting core.ReportingService,
) ApplicationService {
	return &appService{
		users:        users,
		catalog:      catalog,
		clients:      clients,
		ledger:       ledger,
		reservations: reservations,
		reporting:    reporting,
	}
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &UserSession{UserID: user.ID, Username: user.Username, Email: user.Email}, nil
}

func (s *appService) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	return s.users.GetByID(ctx, id)
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (s *appService) ListProducts(ctx context.Context) ([]core.Product, error) {
	return s.catalog.ListProducts(ctx)
}

func (s *appService) CreateProduct(ctx context.Context, name string, price decimal.Decimal) (*core.Product, error) {
	return s.catalog.CreateProduct(ctx, name, price)
}

func (s *appService) UpdateProduct(ctx context.Context, id uuid.UUID, name string, price decimal.Decimal) (*core.Product, error) {
	return s.catalog.UpdateProduct(ctx, id, name, price)
}

func (s *appService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	return s.catalog.DeactivateProduct(ctx, id)
}

// ── Clients ───────────────────────────────────────────────────────────────────

func (s *appService) ListClients(ctx context.Context) ([]core.Client, error) {
	return s.clients.ListClients(ctx)
}

func (s *appService) CreateClient(ctx context.Context, name string) (*core.Client, error) {
	return s.clients.CreateClient(ctx, name)
}

func (s *appService) GetClientDetail(ctx context.Context, id uuid.UUID) (*ClientDetail, error) {
	client, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	debts, err := s.clients.OpenDebts(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &ClientDetail{Client: *client, OpenDebts: debts}
	for _, d := range debts {
		detail.OpenTotal = detail.OpenTotal.Add(d.Amount)
	}
	return detail, nil
}

func (s *appService) ListDebtors(ctx context.Context) ([]core.ClientWithDebts, error) {
	return s.clients.ClientsWithOpenDebts(ctx)
}

// ── Ledger ────────────────────────────────────────────────────────────────────

// resolveClient turns an optional id-or-name pair into a client id.
// Returns nil when neither is given.
func (s *appService) resolveClient(ctx context.Context, id *uuid.UUID, name string) (*uuid.UUID, error) {
	if id != nil {
		return id, nil
	}
	if name == "" {
		return nil, nil
	}
	client, err := s.clients.EnsureByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve client %q: %w", name, err)
	}
	return &client.ID, nil
}

func (s *appService) RecordCashSale(ctx context.Context, req CashSaleRequest) (*core.Sale, error) {
	clientID, err := s.resolveClient(ctx, req.ClientID, req.ClientName)
	if err != nil {
		return nil, err
	}
	return s.ledger.RecordCashSale(ctx, core.CashSaleInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Method:    req.Method,
		ClientID:  clientID,
	})
}

func (s *appService) RecordCreditSale(ctx context.Context, req CreditSaleRequest) (*core.CreditSaleResult, error) {
	clientID, err := s.resolveClient(ctx, req.ClientID, req.ClientName)
	if err != nil {
		return nil, err
	}
	if clientID == nil {
		return nil, errors.New("credit sale requires a client")
	}
	return s.ledger.RecordCreditSale(ctx, core.CreditSaleInput{
		ClientID:  *clientID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
}

func (s *appService) AddManualDebt(ctx context.Context, req ManualDebtRequest) (*core.Debt, error) {
	return s.ledger.AddManualDebt(ctx, req.ClientID, req.Amount, req.Description)
}

func (s *appService) SettleClientDebts(ctx context.Context, clientID uuid.UUID) (*core.SettlementResult, error) {
	return s.ledger.SettleClientDebts(ctx, clientID)
}

// ── Reservations ──────────────────────────────────────────────────────────────

func (s *appService) ListUpcomingReservations(ctx context.Context) ([]core.Reservation, error) {
	return s.reservations.ListUpcoming(ctx)
}

func (s *appService) CreateReservation(ctx context.Context, req ReservationRequest) (*core.Reservation, error) {
	return s.reservations.CreateReservation(ctx, core.ReservationInput{
		ClientName:    req.ClientName,
		ProductName:   req.ProductName,
		Amount:        req.Amount,
		ScheduledDate: req.ScheduledDate,
	})
}

func (s *appService) ResolveReservation(ctx context.Context, id uuid.UUID, status core.ReservationStatus) (*core.Reservation, error) {
	return s.reservations.UpdateStatus(ctx, id, status)
}

// ── Reporting ─────────────────────────────────────────────────────────────────

func (s *appService) GetHistory(ctx context.Context, from, to time.Time, typeFilter *core.HistoryType) (*core.HistoryReport, error) {
	return s.reporting.History(ctx, from, to, typeFilter)
}

func (s *appService) ExportHistoryPDF(ctx context.Context, from, to time.Time, typeFilter *core.HistoryType) ([]byte, error) {
	report, err := s.reporting.History(ctx, from, to, typeFilter)
	if err != nil {
		return nil, err
	}
	return pdf.Render(report)
}

func (s *appService) GetDashboard(ctx context.Context) (*core.DashboardSummary, error) {
	return s.reporting.Dashboard(ctx, time.Now())
}
