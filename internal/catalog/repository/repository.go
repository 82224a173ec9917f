package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealer_ops_backend/platform/apperr"
)

const priceNotFoundMessage = "catalog price not found"

// Repo implements the catalog repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const priceColumns = `id, model, cash_price, active, created_at, updated_at`

func scanPrice(row pgx.Row) (CatalogPrice, error) {
	var price CatalogPrice
	var createdAt, updatedAt time.Time
	if err := row.Scan(
		&price.ID, &price.Model, &price.CashPrice, &price.Active, &createdAt, &updatedAt,
	); err != nil {
		return CatalogPrice{}, err
	}
	price.CreatedAt = createdAt.Format(time.RFC3339)
	price.UpdatedAt = updatedAt.Format(time.RFC3339)
	return price, nil
}

// List returns every catalog price, active or not.
func (r *Repo) List(ctx context.Context) ([]CatalogPrice, error) {
	return r.list(ctx, `SELECT `+priceColumns+` FROM catalog_prices ORDER BY model`)
}

// ListActive returns the prices available for financing resolution.
func (r *Repo) ListActive(ctx context.Context) ([]CatalogPrice, error) {
	return r.list(ctx, `SELECT `+priceColumns+` FROM catalog_prices WHERE active ORDER BY model`)
}

func (r *Repo) list(ctx context.Context, query string) ([]CatalogPrice, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list catalog prices: %w", err)
	}
	defer rows.Close()

	var prices []CatalogPrice
	for rows.Next() {
		price, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog price: %w", err)
		}
		prices = append(prices, price)
	}
	return prices, rows.Err()
}

// GetByID fetches one catalog price.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (CatalogPrice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+priceColumns+` FROM catalog_prices WHERE id = $1`, id)
	price, err := scanPrice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CatalogPrice{}, apperr.NotFound(priceNotFoundMessage)
		}
		return CatalogPrice{}, fmt.Errorf("get catalog price: %w", err)
	}
	return price, nil
}

// Create inserts a catalog price. The model is a unique key.
func (r *Repo) Create(ctx context.Context, params CreatePriceParams) (CatalogPrice, error) {
	query := `
		INSERT INTO catalog_prices (model, cash_price)
		VALUES ($1, $2)
		RETURNING ` + priceColumns

	price, err := scanPrice(r.pool.QueryRow(ctx, query, params.Model, params.CashPrice))
	if err != nil {
		if isUniqueViolation(err) {
			return CatalogPrice{}, apperr.Conflict("model already exists in catalog")
		}
		return CatalogPrice{}, fmt.Errorf("create catalog price: %w", err)
	}
	return price, nil
}

// Update applies a partial update to a catalog price.
func (r *Repo) Update(ctx context.Context, params UpdatePriceParams) (CatalogPrice, error) {
	query := `
		UPDATE catalog_prices SET
			model = COALESCE($2, model),
			cash_price = COALESCE($3, cash_price),
			active = COALESCE($4, active),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + priceColumns

	price, err := scanPrice(r.pool.QueryRow(ctx, query,
		params.ID, params.Model, params.CashPrice, params.Active,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CatalogPrice{}, apperr.NotFound(priceNotFoundMessage)
		}
		if isUniqueViolation(err) {
			return CatalogPrice{}, apperr.Conflict("model already exists in catalog")
		}
		return CatalogPrice{}, fmt.Errorf("update catalog price: %w", err)
	}
	return price, nil
}

// Deactivate soft-deactivates a catalog price.
func (r *Repo) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE catalog_prices SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate catalog price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(priceNotFoundMessage)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
