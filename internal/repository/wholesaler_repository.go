package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"sahaayak/internal/domain"

	"github.com/google/uuid"
)

// Wholesaler list orderings
const (
	WholesalerSortName   = "name"
	WholesalerSortRating = "rating"
	WholesalerSortTrust  = "trust"
)

// WholesalerRepository defines the interface for wholesaler data access
type WholesalerRepository interface {
	Create(ctx context.Context, wholesaler *domain.Wholesaler) error
	FindByPhone(ctx context.Context, phone string) (*domain.Wholesaler, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Wholesaler, error)
	ListApproved(ctx context.Context, sortBy string) ([]*domain.Wholesaler, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
}

type wholesalerRepository struct {
	store *Store
}

// NewWholesalerRepository creates a new instance of WholesalerRepository
func NewWholesalerRepository(store *Store) WholesalerRepository {
	return &wholesalerRepository{store: store}
}

const wholesalerColumns = `id, name, phone, password_hash, shop_name, documents, sourcing, location, approved,
	trust_score, response_rate, delivery_rate, profile_image, created_at, updated_at`

func scanWholesaler(row interface{ Scan(...any) error }) (*domain.Wholesaler, error) {
	w := &domain.Wholesaler{}
	var documents []byte
	err := row.Scan(
		&w.ID,
		&w.Name,
		&w.Phone,
		&w.PasswordHash,
		&w.ShopName,
		&documents,
		&w.Sourcing,
		&w.Location,
		&w.Approved,
		&w.TrustScore,
		&w.ResponseRate,
		&w.DeliveryRate,
		&w.ProfileImage,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(documents, &w.Documents); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return w, nil
}

// Create inserts a wholesaler; a taken phone number yields ErrAlreadyExists
func (r *wholesalerRepository) Create(ctx context.Context, wholesaler *domain.Wholesaler) error {
	documents := wholesaler.Documents
	if documents == nil {
		documents = []string{}
	}
	docs, err := json.Marshal(documents)
	if err != nil {
		return fmt.Errorf("failed to encode documents: %w", err)
	}

	query := `
		INSERT INTO wholesalers (id, name, phone, password_hash, shop_name, documents, sourcing, location,
			approved, trust_score, response_rate, delivery_rate, profile_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err = r.store.run(ctx, "create wholesaler", func(ctx context.Context) error {
		return r.store.db.QueryRowContext(
			ctx,
			query,
			wholesaler.ID,
			wholesaler.Name,
			wholesaler.Phone,
			wholesaler.PasswordHash,
			wholesaler.ShopName,
			string(docs),
			wholesaler.Sourcing,
			wholesaler.Location,
			wholesaler.Approved,
			wholesaler.TrustScore,
			wholesaler.ResponseRate,
			wholesaler.DeliveryRate,
			wholesaler.ProfileImage,
		).Scan(&wholesaler.CreatedAt, &wholesaler.UpdatedAt)
	})

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("wholesaler with phone %s: %w", wholesaler.Phone, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create wholesaler: %w", err)
	}

	return nil
}

// FindByPhone retrieves a wholesaler by login phone
func (r *wholesalerRepository) FindByPhone(ctx context.Context, phone string) (*domain.Wholesaler, error) {
	return r.findOne(ctx, "find wholesaler by phone", `SELECT `+wholesalerColumns+` FROM wholesalers WHERE phone = $1`, phone)
}

// FindByID retrieves a wholesaler by ID
func (r *wholesalerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Wholesaler, error) {
	return r.findOne(ctx, "find wholesaler by id", `SELECT `+wholesalerColumns+` FROM wholesalers WHERE id = $1`, id)
}

func (r *wholesalerRepository) findOne(ctx context.Context, op, query string, arg any) (*domain.Wholesaler, error) {
	var wholesaler *domain.Wholesaler
	err := r.store.run(ctx, op, func(ctx context.Context) error {
		var err error
		wholesaler, err = scanWholesaler(r.store.db.QueryRowContext(ctx, query, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	return wholesaler, nil
}

// ListApproved returns approved wholesalers; rating and trust sort by trust score descending
func (r *wholesalerRepository) ListApproved(ctx context.Context, sortBy string) ([]*domain.Wholesaler, error) {
	orderBy := "name, id"
	switch sortBy {
	case WholesalerSortRating, WholesalerSortTrust:
		orderBy = "trust_score DESC, delivery_rate DESC, name, id"
	}

	query := fmt.Sprintf(`SELECT %s FROM wholesalers WHERE approved ORDER BY %s`, wholesalerColumns, orderBy)

	var wholesalers []*domain.Wholesaler
	err := r.store.run(ctx, "list wholesalers", func(ctx context.Context) error {
		rows, err := r.store.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		wholesalers = []*domain.Wholesaler{}
		for rows.Next() {
			w, err := scanWholesaler(rows)
			if err != nil {
				return err
			}
			wholesalers = append(wholesalers, w)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list wholesalers: %w", err)
	}

	return wholesalers, nil
}

// SetApproved grants or withdraws a wholesaler's approval
func (r *wholesalerRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	var rowsAffected int64
	err := r.store.run(ctx, "approve wholesaler", func(ctx context.Context) error {
		result, err := r.store.db.ExecContext(ctx, `UPDATE wholesalers SET approved = $2 WHERE id = $1`, id, approved)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("failed to update wholesaler approval: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
