package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrReservationNotFound is returned when a reservation id does not resolve.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationService manages pre-booked orders. Completing a reservation
// never writes Sale or Debt rows; the operator records the actual checkout
// separately through the ledger.
type ReservationService interface {
	// CreateReservation inserts a pending reservation, upserting the client
	// list by name so future lookups find the customer.
	CreateReservation(ctx context.Context, in ReservationInput) (*Reservation, error)
	// ListUpcoming returns reservations scheduled from the start of today
	// onward, soonest first.
	ListUpcoming(ctx context.Context) ([]Reservation, error)
	// UpdateStatus transitions a pending reservation to one of the terminal
	// states. Terminal reservations reject further transitions.
	UpdateStatus(ctx context.Context, id uuid.UUID, status ReservationStatus) (*Reservation, error)
}

// ReservationInput describes a new booking. ClientName and ProductName are
// stored as given (denormalized snapshots).
type ReservationInput struct {
	ClientName    string
	ProductName   string
	Amount        decimal.Decimal
	ScheduledDate time.Time
}

type reservationService struct {
	pool    *pgxpool.Pool
	clients ClientService
}

// NewReservationService constructs a ReservationService backed by PostgreSQL.
func NewReservationService(pool *pgxpool.Pool, clients ClientService) ReservationService {
	return &reservationService{pool: pool, clients: clients}
}

func (s *reservationService) CreateReservation(ctx context.Context, in ReservationInput) (*Reservation, error) {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ProductName = strings.TrimSpace(in.ProductName)
	if in.ClientName == "" || in.ProductName == "" {
		return nil, errors.New("client and product names must not be empty")
	}
	if !in.Amount.IsPositive() {
		return nil, errors.New("reservation amount must be positive")
	}
	if in.ScheduledDate.IsZero() {
		return nil, errors.New("scheduled date is required")
	}

	// Keep the client list populated for future lookups. The reservation
	// itself stores only the name: a later rename or merge of the client
	// record never retouches past bookings.
	client, err := s.clients.EnsureByName(ctx, in.ClientName)
	if err != nil {
		return nil, fmt.Errorf("ensure client for reservation: %w", err)
	}

	r := &Reservation{}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO reservations (client_name, product_name, amount, scheduled_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, client_name, product_name, amount, scheduled_date, status, created_at`,
		client.Name, in.ProductName, in.Amount.Round(2), in.ScheduledDate, string(ReservationPending),
	).Scan(&r.ID, &r.ClientName, &r.ProductName, &r.Amount, &r.ScheduledDate, &r.Status, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create reservation for %q: %w", client.Name, err)
	}
	return r, nil
}

func (s *reservationService) ListUpcoming(ctx context.Context) ([]Reservation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_name, product_name, amount, scheduled_date, status, created_at
		FROM reservations
		WHERE scheduled_date >= date_trunc('day', NOW())
		ORDER BY scheduled_date`)
	if err != nil {
		return nil, fmt.Errorf("list upcoming reservations: %w", err)
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.ClientName, &r.ProductName, &r.Amount,
			&r.ScheduledDate, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *reservationService) UpdateStatus(ctx context.Context, id uuid.UUID, status ReservationStatus) (*Reservation, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("reservation %s cannot transition to %s: not a terminal status", id, status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reservation update: %w", err)
	}
	defer tx.Rollback(ctx)

	var current ReservationStatus
	err = tx.QueryRow(ctx,
		"SELECT status FROM reservations WHERE id = $1 FOR UPDATE", id,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("lock reservation %s: %w", id, err)
	}
	if current != ReservationPending {
		return nil, fmt.Errorf("reservation %s cannot transition to %s: status is %s (must be pending)", id, status, current)
	}

	r := &Reservation{}
	err = tx.QueryRow(ctx, `
		UPDATE reservations SET status = $2
		WHERE id = $1
		RETURNING id, client_name, product_name, amount, scheduled_date, status, created_at`,
		id, string(status),
	).Scan(&r.ID, &r.ClientName, &r.ProductName, &r.Amount, &r.ScheduledDate, &r.Status, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("update reservation %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reservation update: %w", err)
	}
	return r, nil
}
