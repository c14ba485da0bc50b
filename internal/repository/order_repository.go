package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sahaayak/internal/domain"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Place(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*domain.Order, error)
	ListByWholesaler(ctx context.Context, wholesalerID uuid.UUID) ([]*domain.Order, error)
	RecentItems(ctx context.Context, vendorID uuid.UUID, limit int) ([]*domain.RecentItem, error)
	UpdateStatus(ctx context.Context, id, wholesalerID uuid.UUID, next domain.OrderStatus) (*domain.Order, error)
}

type orderRepository struct {
	store *Store
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(store *Store) OrderRepository {
	return &orderRepository{store: store}
}

const orderColumns = `o.id, o.wholesaler_id, o.vendor_id, o.product_id, p.name, o.quantity, o.unit_price,
	o.total, o.status, o.created_at, o.updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID,
		&o.WholesalerID,
		&o.VendorID,
		&o.ProductID,
		&o.ProductName,
		&o.Quantity,
		&o.UnitPrice,
		&o.Total,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

// Place reserves stock and records a pending order in one transaction.
// order must carry ID, VendorID, ProductID and Quantity; the rest is filled in.
func (r *orderRepository) Place(ctx context.Context, order *domain.Order) error {
	err := r.store.inTx(ctx, "place order", func(ctx context.Context, tx *sql.Tx) error {
		var (
			stock int
			name  string
		)
		err := tx.QueryRowContext(ctx, `
			SELECT p.wholesaler_id, p.price, p.stock, p.name
			FROM products p
			JOIN wholesalers w ON w.id = p.wholesaler_id
			WHERE p.id = $1 AND w.approved
			FOR UPDATE OF p
		`, order.ProductID).Scan(&order.WholesalerID, &order.UnitPrice, &stock, &name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		if stock < order.Quantity {
			return fmt.Errorf("available=%d, requested=%d: %w", stock, order.Quantity, domain.ErrInsufficientStock)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`,
			order.Quantity, order.ProductID)
		if err != nil {
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return domain.ErrInsufficientStock
		}

		order.ProductName = name
		order.Total = domain.RoundMoney(float64(order.Quantity) * order.UnitPrice)
		order.Status = domain.OrderPending

		return tx.QueryRowContext(ctx, `
			INSERT INTO orders (id, wholesaler_id, vendor_id, product_id, quantity, unit_price, total, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at
		`,
			order.ID,
			order.WholesalerID,
			order.VendorID,
			order.ProductID,
			order.Quantity,
			order.UnitPrice,
			order.Total,
			order.Status,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, domain.ErrInsufficientStock) {
			return err
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("vendor %s: %w", order.VendorID, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to place order: %w", err)
	}

	return nil
}

// FindByID retrieves an order by ID
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN products p ON p.id = o.product_id WHERE o.id = $1`

	var order *domain.Order
	err := r.store.run(ctx, "find order", func(ctx context.Context) error {
		var err error
		order, err = scanOrder(r.store.db.QueryRowContext(ctx, query, id))
		return err
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	return order, nil
}

// ListByVendor returns a vendor's orders, newest first
func (r *orderRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*domain.Order, error) {
	return r.list(ctx, "o.vendor_id", vendorID)
}

// ListByWholesaler returns orders received by a wholesaler, newest first
func (r *orderRepository) ListByWholesaler(ctx context.Context, wholesalerID uuid.UUID) ([]*domain.Order, error) {
	return r.list(ctx, "o.wholesaler_id", wholesalerID)
}

func (r *orderRepository) list(ctx context.Context, column string, id uuid.UUID) ([]*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders o
		JOIN products p ON p.id = o.product_id
		WHERE %s = $1
		ORDER BY o.created_at DESC, o.id
	`, orderColumns, column)

	var orders []*domain.Order
	err := r.store.run(ctx, "list orders", func(ctx context.Context) error {
		rows, err := r.store.db.QueryContext(ctx, query, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		orders = []*domain.Order{}
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			orders = append(orders, o)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// RecentItems aggregates a vendor's past orders per product for quick reordering
func (r *orderRepository) RecentItems(ctx context.Context, vendorID uuid.UUID, limit int) ([]*domain.RecentItem, error) {
	query := `
		SELECT p.id, p.name, p.category, p.unit, p.price, COUNT(*) AS order_count, MAX(o.created_at) AS last_ordered
		FROM orders o
		JOIN products p ON p.id = o.product_id
		WHERE o.vendor_id = $1 AND o.status <> 'cancelled'
		GROUP BY p.id, p.name, p.category, p.unit, p.price
		ORDER BY last_ordered DESC, p.id
		LIMIT $2
	`

	var items []*domain.RecentItem
	err := r.store.run(ctx, "recent items", func(ctx context.Context) error {
		rows, err := r.store.db.QueryContext(ctx, query, vendorID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		items = []*domain.RecentItem{}
		for rows.Next() {
			item := &domain.RecentItem{}
			if err := rows.Scan(
				&item.ProductID,
				&item.Name,
				&item.Category,
				&item.Unit,
				&item.Price,
				&item.OrderCount,
				&item.LastOrderedAt,
			); err != nil {
				return err
			}
			items = append(items, item)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list recent items: %w", err)
	}

	return items, nil
}

// UpdateStatus moves an order along its lifecycle; cancelling returns the stock
func (r *orderRepository) UpdateStatus(ctx context.Context, id, wholesalerID uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	var order *domain.Order
	err := r.store.inTx(ctx, "update order status", func(ctx context.Context, tx *sql.Tx) error {
		var err error
		order, err = scanOrder(tx.QueryRowContext(ctx, `
			SELECT `+orderColumns+`
			FROM orders o
			JOIN products p ON p.id = o.product_id
			WHERE o.id = $1
			FOR UPDATE OF o
		`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		if order.WholesalerID != wholesalerID {
			return domain.ErrNotAuthorized
		}
		if !order.Status.CanTransitionTo(next) {
			return fmt.Errorf("%s to %s: %w", order.Status, next, domain.ErrInvalidTransition)
		}

		if next == domain.OrderCancelled {
			if _, err := tx.ExecContext(ctx,
				`UPDATE products SET stock = stock + $1 WHERE id = $2`,
				order.Quantity, order.ProductID); err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}
		}

		order.Status = next
		return tx.QueryRowContext(ctx,
			`UPDATE orders SET status = $2 WHERE id = $1 RETURNING updated_at`,
			id, next).Scan(&order.UpdatedAt)
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}
