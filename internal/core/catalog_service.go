package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when a product id does not resolve to an
// active catalog row.
var ErrProductNotFound = errors.New("product not found")

// CatalogService manages the product catalog. Products are never physically
// removed: Deactivate clears the active flag so historical sales keep a
// valid reference.
type CatalogService interface {
	CreateProduct(ctx context.Context, name string, price decimal.Decimal) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, name string, price decimal.Decimal) (*Product, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) error
	// GetProduct returns an active product by id.
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	// ListProducts returns all active products ordered by name.
	ListProducts(ctx context.Context) ([]Product, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

// NewCatalogService constructs a CatalogService backed by PostgreSQL.
func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) CreateProduct(ctx context.Context, name string, price decimal.Decimal) (*Product, error) {
	if name == "" {
		return nil, errors.New("product name must not be empty")
	}
	if price.IsNegative() {
		return nil, errors.New("product price must not be negative")
	}

	p := &Product{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (name, price, active)
		VALUES ($1, $2, true)
		RETURNING id, name, price, active, created_at`,
		name, price.Round(2),
	).Scan(&p.ID, &p.Name, &p.Price, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create product %q: %w", name, err)
	}
	return p, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, name string, price decimal.Decimal) (*Product, error) {
	if name == "" {
		return nil, errors.New("product name must not be empty")
	}
	if price.IsNegative() {
		return nil, errors.New("product price must not be negative")
	}

	p := &Product{}
	err := s.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $2, price = $3
		WHERE id = $1 AND active = true
		RETURNING id, name, price, active, created_at`,
		id, name, price.Round(2),
	).Scan(&p.ID, &p.Name, &p.Price, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	return p, nil
}

func (s *catalogService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE products SET active = false WHERE id = $1 AND active = true", id)
	if err != nil {
		return fmt.Errorf("deactivate product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p := &Product{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, price, active, created_at
		FROM products
		WHERE id = $1 AND active = true`,
		id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, price, active, created_at
		FROM products
		WHERE active = true
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
