package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrClientNotFound is returned when a client id does not resolve to a row.
var ErrClientNotFound = errors.New("client not found")

// ClientWithDebts is a client together with their currently unpaid debts.
// OpenTotal is computed from the debt rows, not read from the denormalized
// counter, so the payments screen always shows what would actually be settled.
type ClientWithDebts struct {
	Client
	Debts     []Debt          `json:"debts"`
	OpenTotal decimal.Decimal `json:"open_total"`
}

// ClientService manages the customer list. Names are not unique in the
// store; EnsureByName deduplicates case-insensitively on the way in, which
// is how reservations and quick checkout keep the list from fragmenting.
type ClientService interface {
	CreateClient(ctx context.Context, name string) (*Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (*Client, error)
	// ListClients returns all clients ordered by name.
	ListClients(ctx context.Context) ([]Client, error)
	// EnsureByName returns the existing client whose name matches
	// case-insensitively, or creates one with a zero balance.
	EnsureByName(ctx context.Context, name string) (*Client, error)
	// OpenDebts returns the client's unpaid debts, newest first.
	OpenDebts(ctx context.Context, clientID uuid.UUID) ([]Debt, error)
	// ClientsWithOpenDebts groups all unpaid debts by client, ordered by
	// open total descending.
	ClientsWithOpenDebts(ctx context.Context) ([]ClientWithDebts, error)
}

type clientService struct {
	pool *pgxpool.Pool
}

// NewClientService constructs a ClientService backed by PostgreSQL.
func NewClientService(pool *pgxpool.Pool) ClientService {
	return &clientService{pool: pool}
}

func (s *clientService) CreateClient(ctx context.Context, name string) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("client name must not be empty")
	}

	c := &Client{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO clients (name, total_debt)
		VALUES ($1, 0)
		RETURNING id, name, total_debt, created_at`,
		name,
	).Scan(&c.ID, &c.Name, &c.TotalDebt, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create client %q: %w", name, err)
	}
	return c, nil
}

func (s *clientService) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	c := &Client{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, total_debt, created_at FROM clients WHERE id = $1", id,
	).Scan(&c.ID, &c.Name, &c.TotalDebt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	return c, nil
}

func (s *clientService) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, total_debt, created_at FROM clients ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.TotalDebt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *clientService) EnsureByName(ctx context.Context, name string) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("client name must not be empty")
	}

	c := &Client{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, total_debt, created_at
		FROM clients
		WHERE lower(name) = lower($1)
		ORDER BY created_at
		LIMIT 1`,
		name,
	).Scan(&c.ID, &c.Name, &c.TotalDebt, &c.CreatedAt)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("look up client %q: %w", name, err)
	}
	return s.CreateClient(ctx, name)
}

func (s *clientService) OpenDebts(ctx context.Context, clientID uuid.UUID) ([]Debt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_id, sale_id, amount, description, paid, payment_method, created_at, paid_at
		FROM debts
		WHERE client_id = $1 AND paid = false
		ORDER BY created_at DESC`,
		clientID)
	if err != nil {
		return nil, fmt.Errorf("open debts for client %s: %w", clientID, err)
	}
	defer rows.Close()
	return scanDebts(rows)
}

// ClientsWithOpenDebts fetches all unpaid debts once and resolves the
// distinct client set with a single membership query, mirroring how the
// reporting side batches name lookups.
func (s *clientService) ClientsWithOpenDebts(ctx context.Context) ([]ClientWithDebts, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_id, sale_id, amount, description, paid, payment_method, created_at, paid_at
		FROM debts
		WHERE paid = false
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list open debts: %w", err)
	}
	defer rows.Close()

	debts, err := scanDebts(rows)
	if err != nil {
		return nil, err
	}
	if len(debts) == 0 {
		return nil, nil
	}

	byClient := make(map[uuid.UUID][]Debt)
	ids := make([]uuid.UUID, 0, len(byClient))
	for _, d := range debts {
		if _, seen := byClient[d.ClientID]; !seen {
			ids = append(ids, d.ClientID)
		}
		byClient[d.ClientID] = append(byClient[d.ClientID], d)
	}

	crows, err := s.pool.Query(ctx,
		"SELECT id, name, total_debt, created_at FROM clients WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("resolve debtor clients: %w", err)
	}
	defer crows.Close()

	var out []ClientWithDebts
	for crows.Next() {
		var c Client
		if err := crows.Scan(&c.ID, &c.Name, &c.TotalDebt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan debtor client: %w", err)
		}
		cw := ClientWithDebts{Client: c, Debts: byClient[c.ID]}
		for _, d := range cw.Debts {
			cw.OpenTotal = cw.OpenTotal.Add(d.Amount)
		}
		out = append(out, cw)
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}

	// Biggest tabs first.
	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenTotal.GreaterThan(out[j].OpenTotal)
	})
	return out, nil
}

func scanDebts(rows pgx.Rows) ([]Debt, error) {
	var debts []Debt
	for rows.Next() {
		var d Debt
		if err := rows.Scan(&d.ID, &d.ClientID, &d.SaleID, &d.Amount, &d.Description,
			&d.Paid, &d.PaymentMethod, &d.CreatedAt, &d.PaidAt); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}
