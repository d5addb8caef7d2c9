package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/valuelens/valuelens-api/internal/models"
)

// SQLiteProductRepository implements ProductRepository for SQLite.
type SQLiteProductRepository struct {
	db *sql.DB
}

// NewSQLiteProductRepository creates a new SQLite product repository.
func NewSQLiteProductRepository(db *sql.DB) *SQLiteProductRepository {
	return &SQLiteProductRepository{db: db}
}

const productColumns = `id, name, description, url, status, created_at, updated_at`

func (r *SQLiteProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	return r.scanProduct(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteProductRepository) GetByURL(ctx context.Context, url string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE url = ?`
	return r.scanProduct(r.db.QueryRowContext(ctx, query, url))
}

// ReplaceVariants locates or creates the product by URL, deletes its entire
// existing variant set and inserts the new one, all in one transaction. A
// failure anywhere rolls the whole batch back, leaving the prior variant set
// untouched.
func (r *SQLiteProductRepository) ReplaceVariants(ctx context.Context, product *models.Product, variants []*models.Variant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	now := time.Now()
	if product.ID == "" {
		product.ID = ulid.Make().String()
	}
	product.Status = models.ProductStatusCompleted
	product.UpdatedAt = now
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}

	// The unique url constraint makes concurrent writers converge on one
	// row; the last replace wins
	var id string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO products (id, name, description, url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			status = excluded.status,
			updated_at = excluded.updated_at
		RETURNING id
	`,
		product.ID,
		product.Name,
		nullString(product.Description),
		product.URL,
		product.Status,
		product.CreatedAt.Format(time.RFC3339),
		product.UpdatedAt.Format(time.RFC3339),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	product.ID = id

	if _, err := tx.ExecContext(ctx, `DELETE FROM variants WHERE product_id = ?`, product.ID); err != nil {
		return fmt.Errorf("failed to delete existing variants: %w", err)
	}

	for i, v := range variants {
		v.ID = ulid.Make().String()
		v.ProductID = product.ID
		v.Position = i
		v.CreatedAt = now

		_, err := tx.ExecContext(ctx, `
			INSERT INTO variants (id, product_id, name, quantity_text, quantity_numeric,
				price_cents, currency, price_per_unit, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			v.ID,
			v.ProductID,
			v.Name,
			nullStringPtr(v.QuantityText),
			nullFloat(v.QuantityNumeric),
			v.PriceCents,
			v.Currency,
			nullInt(v.PricePerUnit),
			v.Position,
			v.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert variant %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}

// UpsertStatus locates or creates the product for url and sets its status.
// Used by the pipeline to mark products processing or failed outside the
// variant-replace transaction.
func (r *SQLiteProductRepository) UpsertStatus(ctx context.Context, url, defaultName string, status models.ProductStatus) (*models.Product, error) {
	now := time.Now().Format(time.RFC3339)

	query := `
		INSERT INTO products (id, name, url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
		RETURNING ` + productColumns

	return r.scanProduct(r.db.QueryRowContext(ctx, query,
		ulid.Make().String(),
		defaultName,
		url,
		status,
		now,
		now,
	))
}

func (r *SQLiteProductRepository) GetVariants(ctx context.Context, productID string) ([]*models.Variant, error) {
	query := `
		SELECT id, product_id, name, quantity_text, quantity_numeric,
			price_cents, currency, price_per_unit, position, created_at
		FROM variants WHERE product_id = ? ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []*models.Variant
	for rows.Next() {
		var v models.Variant
		var quantityText sql.NullString
		var quantityNumeric sql.NullFloat64
		var pricePerUnit sql.NullInt64
		var createdAt string

		err := rows.Scan(
			&v.ID, &v.ProductID, &v.Name, &quantityText, &quantityNumeric,
			&v.PriceCents, &v.Currency, &pricePerUnit, &v.Position, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}

		if quantityText.Valid {
			v.QuantityText = &quantityText.String
		}
		if quantityNumeric.Valid {
			v.QuantityNumeric = &quantityNumeric.Float64
		}
		if pricePerUnit.Valid {
			v.PricePerUnit = &pricePerUnit.Int64
		}
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		variants = append(variants, &v)
	}
	return variants, rows.Err()
}

func (r *SQLiteProductRepository) scanProduct(row *sql.Row) (*models.Product, error) {
	var p models.Product
	var description sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &description, &p.URL, &p.Status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	p.Description = description.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &p, nil
}
