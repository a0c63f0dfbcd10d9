package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// HistoryType marks which record kind a history row was derived from.
type HistoryType string

const (
	HistorySale        HistoryType = "sale"
	HistoryDebt        HistoryType = "debt"
	HistoryReservation HistoryType = "reservation"
)

// HistoryRow is the common row shape all three record kinds denormalize
// into. Status and Details carry resolved display text (client name,
// payment-method label), so a row is renderable without further lookups.
type HistoryRow struct {
	Type        HistoryType     `json:"type"`
	ID          uuid.UUID       `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Details     string          `json:"details,omitempty"`
	Payment     string          `json:"payment,omitempty"`
}

// HistoryReport is the rows for one period plus its computed subtotals.
// TotalReceived sums paid sales, TotalOutstanding sums still-open debts,
// TotalReservations sums every reservation in range.
type HistoryReport struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	Rows              []HistoryRow    `json:"rows"`
	TotalReceived     decimal.Decimal `json:"total_received"`
	TotalOutstanding  decimal.Decimal `json:"total_outstanding"`
	TotalReservations decimal.Decimal `json:"total_reservations"`
}

// DashboardSummary is the landing-screen snapshot for the current day.
type DashboardSummary struct {
	ReceivedToday       decimal.Decimal `json:"received_today"`
	CreditToday         decimal.Decimal `json:"credit_today"`
	TotalSoldToday      decimal.Decimal `json:"total_sold_today"`
	PendingReservations int             `json:"pending_reservations"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only aggregation over sales, debts, and
// reservations. Reads have no side effects: the same range and filter with
// no intervening writes always yields the same rows in the same order.
type ReportingService interface {
	// History returns the denormalized rows for [from, to], newest first.
	// typeFilter restricts to one record kind; nil means all three.
	History(ctx context.Context, from, to time.Time, typeFilter *HistoryType) (*HistoryReport, error)

	// Dashboard returns today's totals and the count of today's pending
	// reservations.
	Dashboard(ctx context.Context, now time.Time) (*DashboardSummary, error)
}

// ── Implementation ────────────────────────────────────────────────────────────

type reportingService struct {
	pool *pgxpool.Pool
}

// NewReportingService constructs a ReportingService backed by the given pool.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) History(ctx context.Context, from, to time.Time, typeFilter *HistoryType) (*HistoryReport, error) {
	report := &HistoryReport{From: from, To: to}

	include := func(t HistoryType) bool { return typeFilter == nil || *typeFilter == t }

	// Client names are resolved once per distinct id seen in the period,
	// not once per row.
	names := newClientNameCache(s.pool)

	if include(HistorySale) {
		if err := s.appendSales(ctx, report, names, from, to); err != nil {
			return nil, err
		}
	}
	if include(HistoryDebt) {
		if err := s.appendDebts(ctx, report, names, from, to); err != nil {
			return nil, err
		}
	}
	if include(HistoryReservation) {
		if err := s.appendReservations(ctx, report, from, to); err != nil {
			return nil, err
		}
	}

	// Newest first; id as tiebreaker so equal timestamps still order
	// deterministically.
	sort.SliceStable(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID.String() < b.ID.String()
	})
	return report, nil
}

func (s *reportingService) appendSales(ctx context.Context, report *HistoryReport, names *clientNameCache, from, to time.Time) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_name, quantity, unit_price, total_price, paid, client_id, payment_method, created_at
		FROM sales
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC`,
		from, to)
	if err != nil {
		return fmt.Errorf("query sales history: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sr Sale
		if err := rows.Scan(&sr.ID, &sr.ProductName, &sr.Quantity, &sr.UnitPrice,
			&sr.TotalPrice, &sr.Paid, &sr.ClientID, &sr.PaymentMethod, &sr.CreatedAt); err != nil {
			return fmt.Errorf("scan sale history row: %w", err)
		}
		if sr.ClientID != nil {
			names.want(*sr.ClientID)
		}
		sales = append(sales, sr)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if err := names.resolve(ctx); err != nil {
		return err
	}

	for _, sr := range sales {
		status := "Fiado"
		if sr.Paid {
			status = "Pago"
			report.TotalReceived = report.TotalReceived.Add(sr.TotalPrice)
		}
		var parts []string
		if sr.ClientID != nil {
			if n := names.get(*sr.ClientID); n != "" {
				parts = append(parts, n)
			}
		}
		parts = append(parts, fmt.Sprintf("R$ %s cada", sr.UnitPrice.StringFixed(2)))
		payment := ""
		if sr.PaymentMethod != nil {
			payment = sr.PaymentMethod.Label()
		}
		report.Rows = append(report.Rows, HistoryRow{
			Type:        HistorySale,
			ID:          sr.ID,
			Date:        sr.CreatedAt,
			Description: fmt.Sprintf("%dx %s", sr.Quantity, sr.ProductName),
			Amount:      sr.TotalPrice,
			Status:      status,
			Details:     strings.Join(parts, " - "),
			Payment:     payment,
		})
	}
	return nil
}

func (s *reportingService) appendDebts(ctx context.Context, report *HistoryReport, names *clientNameCache, from, to time.Time) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_id, amount, description, paid, payment_method, created_at
		FROM debts
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC`,
		from, to)
	if err != nil {
		return fmt.Errorf("query debts history: %w", err)
	}
	defer rows.Close()

	var debts []Debt
	for rows.Next() {
		var d Debt
		if err := rows.Scan(&d.ID, &d.ClientID, &d.Amount, &d.Description,
			&d.Paid, &d.PaymentMethod, &d.CreatedAt); err != nil {
			return fmt.Errorf("scan debt history row: %w", err)
		}
		names.want(d.ClientID)
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if err := names.resolve(ctx); err != nil {
		return err
	}

	for _, d := range debts {
		status := "Em aberto"
		if d.Paid {
			status = "Pago"
		} else {
			report.TotalOutstanding = report.TotalOutstanding.Add(d.Amount)
		}
		clientName := names.get(d.ClientID)
		if clientName == "" {
			clientName = "Cliente"
		}
		payment := ""
		if d.PaymentMethod != nil {
			payment = d.PaymentMethod.Label()
		}
		report.Rows = append(report.Rows, HistoryRow{
			Type:        HistoryDebt,
			ID:          d.ID,
			Date:        d.CreatedAt,
			Description: d.Description,
			Amount:      d.Amount,
			Status:      status,
			Details:     clientName,
			Payment:     payment,
		})
	}
	return nil
}

// appendReservations ranges on scheduled_date, not created_at: a booking
// belongs to the period it was booked for.
func (s *reportingService) appendReservations(ctx context.Context, report *HistoryReport, from, to time.Time) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_name, product_name, amount, scheduled_date, status, created_at
		FROM reservations
		WHERE scheduled_date >= $1 AND scheduled_date <= $2
		ORDER BY scheduled_date DESC`,
		from, to)
	if err != nil {
		return fmt.Errorf("query reservations history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.ClientName, &r.ProductName, &r.Amount,
			&r.ScheduledDate, &r.Status, &r.CreatedAt); err != nil {
			return fmt.Errorf("scan reservation history row: %w", err)
		}
		report.TotalReservations = report.TotalReservations.Add(r.Amount)
		report.Rows = append(report.Rows, HistoryRow{
			Type:        HistoryReservation,
			ID:          r.ID,
			Date:        r.ScheduledDate,
			Description: fmt.Sprintf("%s - %s", r.ProductName, r.ClientName),
			Amount:      r.Amount,
			Status:      r.Status.Label(),
			Details:     r.ScheduledDate.Format("02/01/2006 15:04"),
		})
	}
	return rows.Err()
}

func (s *reportingService) Dashboard(ctx context.Context, now time.Time) (*DashboardSummary, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	sum := &DashboardSummary{}
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_price) FILTER (WHERE paid), 0),
		       COALESCE(SUM(total_price) FILTER (WHERE NOT paid), 0),
		       COALESCE(SUM(total_price), 0)
		FROM sales
		WHERE created_at >= $1 AND created_at < $2`,
		dayStart, dayEnd,
	).Scan(&sum.ReceivedToday, &sum.CreditToday, &sum.TotalSoldToday)
	if err != nil {
		return nil, fmt.Errorf("query today's sales totals: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM reservations
		WHERE scheduled_date >= $1 AND scheduled_date < $2 AND status = 'pending'`,
		dayStart, dayEnd,
	).Scan(&sum.PendingReservations)
	if err != nil {
		return nil, fmt.Errorf("query today's reservations: %w", err)
	}
	return sum, nil
}

// ── Client name batch lookup ──────────────────────────────────────────────────

// clientNameCache accumulates client ids across history queries and resolves
// them with one membership query per resolve call.
type clientNameCache struct {
	pool    *pgxpool.Pool
	pending []uuid.UUID
	byID    map[uuid.UUID]string
}

func newClientNameCache(pool *pgxpool.Pool) *clientNameCache {
	return &clientNameCache{pool: pool, byID: make(map[uuid.UUID]string)}
}

func (c *clientNameCache) want(id uuid.UUID) {
	if _, ok := c.byID[id]; ok {
		return
	}
	c.byID[id] = ""
	c.pending = append(c.pending, id)
}

func (c *clientNameCache) resolve(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}
	rows, err := c.pool.Query(ctx,
		"SELECT id, name FROM clients WHERE id = ANY($1)", c.pending)
	if err != nil {
		return fmt.Errorf("resolve client names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("scan client name: %w", err)
		}
		c.byID[id] = name
	}
	c.pending = c.pending[:0]
	return rows.Err()
}

func (c *clientNameCache) get(id uuid.UUID) string {
	return c.byID[id]
}
