package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sahaayak/internal/domain"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for catalog data access.
// Visible listings are those whose wholesaler is approved.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListVisible(ctx context.Context) ([]domain.ProductView, error)
	RecordView(ctx context.Context, id uuid.UUID) (*domain.ProductView, error)
	Like(ctx context.Context, id uuid.UUID) (*domain.ProductView, error)
	UpdateStock(ctx context.Context, id, wholesalerID uuid.UUID, stock int) (*domain.Product, error)
	Delete(ctx context.Context, id, wholesalerID uuid.UUID) error
	ListByWholesaler(ctx context.Context, wholesalerID uuid.UUID) ([]*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type productRepository struct {
	store *Store
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(store *Store) ProductRepository {
	return &productRepository{store: store}
}

const productColumns = `p.id, p.wholesaler_id, p.name, p.category, p.unit, p.price, p.original_price,
	p.bulk_quantity, p.stock, p.group_buy, p.image_url, p.views, p.likes, p.created_at, p.updated_at`

func productFields(p *domain.Product) []any {
	return []any{
		&p.ID,
		&p.WholesalerID,
		&p.Name,
		&p.Category,
		&p.Unit,
		&p.Price,
		&p.OriginalPrice,
		&p.BulkQuantity,
		&p.Stock,
		&p.GroupBuy,
		&p.ImageURL,
		&p.Views,
		&p.Likes,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func scanProductView(row interface{ Scan(...any) error }) (domain.ProductView, error) {
	var v domain.ProductView
	err := row.Scan(append(productFields(&v.Product), &v.WholesalerName, &v.TrustScore)...)
	return v, err
}

// Create inserts a new listing
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, wholesaler_id, name, category, unit, price, original_price,
			bulk_quantity, stock, group_buy, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.store.run(ctx, "create product", func(ctx context.Context) error {
		return r.store.db.QueryRowContext(
			ctx,
			query,
			product.ID,
			product.WholesalerID,
			product.Name,
			product.Category,
			product.Unit,
			domain.RoundMoney(product.Price),
			domain.RoundMoney(product.OriginalPrice),
			product.BulkQuantity,
			product.Stock,
			product.GroupBuy,
			product.ImageURL,
		).Scan(&product.CreatedAt, &product.UpdatedAt)
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("wholesaler %s: %w", product.WholesalerID, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// FindByID retrieves a listing regardless of its wholesaler's approval
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	product := &domain.Product{}
	err := r.store.run(ctx, "find product", func(ctx context.Context) error {
		return r.store.db.QueryRowContext(ctx, query, id).Scan(productFields(product)...)
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// ListVisible returns every listing of an approved wholesaler, oldest first
func (r *productRepository) ListVisible(ctx context.Context) ([]domain.ProductView, error) {
	query := `
		SELECT ` + productColumns + `, w.name, w.trust_score
		FROM products p
		JOIN wholesalers w ON w.id = p.wholesaler_id
		WHERE w.approved
		ORDER BY p.created_at, p.id
	`

	var views []domain.ProductView
	err := r.store.run(ctx, "list catalog", func(ctx context.Context) error {
		rows, err := r.store.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		views = []domain.ProductView{}
		for rows.Next() {
			v, err := scanProductView(rows)
			if err != nil {
				return err
			}
			views = append(views, v)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return views, nil
}

// RecordView increments the view counter of a visible listing and returns it
func (r *productRepository) RecordView(ctx context.Context, id uuid.UUID) (*domain.ProductView, error) {
	return r.bumpCounter(ctx, "views", id)
}

// Like increments the like counter of a visible listing and returns it
func (r *productRepository) Like(ctx context.Context, id uuid.UUID) (*domain.ProductView, error) {
	return r.bumpCounter(ctx, "likes", id)
}

func (r *productRepository) bumpCounter(ctx context.Context, column string, id uuid.UUID) (*domain.ProductView, error) {
	query := fmt.Sprintf(`
		UPDATE products p
		SET %[1]s = p.%[1]s + 1
		FROM wholesalers w
		WHERE p.id = $1 AND w.id = p.wholesaler_id AND w.approved
		RETURNING %[2]s, w.name, w.trust_score
	`, column, productColumns)

	var view domain.ProductView
	err := r.store.run(ctx, "update product "+column, func(ctx context.Context) error {
		var err error
		view, err = scanProductView(r.store.db.QueryRowContext(ctx, query, id))
		return err
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product %s: %w", column, err)
	}

	return &view, nil
}

// UpdateStock sets the stock of a listing owned by wholesalerID
func (r *productRepository) UpdateStock(ctx context.Context, id, wholesalerID uuid.UUID, stock int) (*domain.Product, error) {
	query := `
		UPDATE products p
		SET stock = $3
		WHERE p.id = $1 AND p.wholesaler_id = $2
		RETURNING ` + productColumns

	product := &domain.Product{}
	err := r.store.run(ctx, "update stock", func(ctx context.Context) error {
		return r.store.db.QueryRowContext(ctx, query, id, wholesalerID, stock).Scan(productFields(product)...)
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyOwnership(ctx, id)
		}
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	return product, nil
}

// Delete removes a listing owned by wholesalerID; listings with orders are kept
func (r *productRepository) Delete(ctx context.Context, id, wholesalerID uuid.UUID) error {
	var rowsAffected int64
	err := r.store.run(ctx, "delete product", func(ctx context.Context) error {
		result, err := r.store.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND wholesaler_id = $2`, id, wholesalerID)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("product %s has orders: %w", id, domain.ErrProductInUse)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if rowsAffected == 0 {
		return r.classifyOwnership(ctx, id)
	}

	return nil
}

// classifyOwnership explains why a conditional write on id matched nothing
func (r *productRepository) classifyOwnership(ctx context.Context, id uuid.UUID) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrNotAuthorized
}

// ListByWholesaler returns a wholesaler's own listings, newest first
func (r *productRepository) ListByWholesaler(ctx context.Context, wholesalerID uuid.UUID) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.wholesaler_id = $1 ORDER BY p.created_at DESC, p.id`

	var products []*domain.Product
	err := r.store.run(ctx, "list wholesaler products", func(ctx context.Context) error {
		rows, err := r.store.db.QueryContext(ctx, query, wholesalerID)
		if err != nil {
			return err
		}
		defer rows.Close()

		products = []*domain.Product{}
		for rows.Next() {
			product := &domain.Product{}
			if err := rows.Scan(productFields(product)...); err != nil {
				return err
			}
			products = append(products, product)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list wholesaler products: %w", err)
	}

	return products, nil
}

// Categories returns the distinct categories of visible listings
func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT p.category
		FROM products p
		JOIN wholesalers w ON w.id = p.wholesaler_id
		WHERE w.approved
		ORDER BY p.category
	`

	var categories []string
	err := r.store.run(ctx, "list categories", func(ctx context.Context) error {
		rows, err := r.store.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		categories = []string{}
		for rows.Next() {
			var c string
			if err := rows.Scan(&c); err != nil {
				return err
			}
			categories = append(categories, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return categories, nil
}
