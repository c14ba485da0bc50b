package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sahaayak/internal/domain"

	"github.com/google/uuid"
)

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	List(ctx context.Context, wholesalerID *uuid.UUID) ([]*domain.Review, error)
	Reply(ctx context.Context, id, wholesalerID uuid.UUID, text string) (*domain.Review, error)
}

type reviewRepository struct {
	store *Store
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(store *Store) ReviewRepository {
	return &reviewRepository{store: store}
}

const reviewColumns = `r.id, r.wholesaler_id, r.vendor_id, v.name, w.name, r.rating, r.comment, r.reply,
	r.replied_at, r.created_at`

const reviewFrom = `
	FROM reviews r
	JOIN vendors v ON v.id = r.vendor_id
	JOIN wholesalers w ON w.id = r.wholesaler_id`

func scanReview(row interface{ Scan(...any) error }) (*domain.Review, error) {
	rv := &domain.Review{}
	var (
		reply     sql.NullString
		repliedAt sql.NullTime
	)
	err := row.Scan(
		&rv.ID,
		&rv.WholesalerID,
		&rv.VendorID,
		&rv.VendorName,
		&rv.WholesalerName,
		&rv.Rating,
		&rv.Comment,
		&reply,
		&repliedAt,
		&rv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rv.Reply = nullStringPtr(reply)
	rv.RepliedAt = nullTimePtr(repliedAt)
	return rv, nil
}

// Create records a review and refreshes the wholesaler's trust score in the same transaction
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	err := r.store.inTx(ctx, "create review", func(ctx context.Context, tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT name FROM wholesalers WHERE id = $1 FOR UPDATE`,
			review.WholesalerID).Scan(&review.WholesalerName)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("wholesaler %s: %w", review.WholesalerID, domain.ErrNotFound)
			}
			return err
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO reviews (id, wholesaler_id, vendor_id, rating, comment)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`, review.ID, review.WholesalerID, review.VendorID, review.Rating, review.Comment).Scan(&review.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE wholesalers
			SET trust_score = (SELECT ROUND(AVG(rating)::numeric, 2) FROM reviews WHERE wholesaler_id = $1)
			WHERE id = $1
		`, review.WholesalerID)
		return err
	})

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("vendor %s: %w", review.VendorID, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// FindByID retrieves a review by ID
func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + reviewFrom + ` WHERE r.id = $1`

	var review *domain.Review
	err := r.store.run(ctx, "find review", func(ctx context.Context) error {
		var err error
		review, err = scanReview(r.store.db.QueryRowContext(ctx, query, id))
		return err
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}

	return review, nil
}

// List returns reviews newest first, optionally for one wholesaler
func (r *reviewRepository) List(ctx context.Context, wholesalerID *uuid.UUID) ([]*domain.Review, error) {
	query := `SELECT ` + reviewColumns + reviewFrom + `
		WHERE ($1::uuid IS NULL OR r.wholesaler_id = $1)
		ORDER BY r.created_at DESC, r.id`

	filter := uuid.NullUUID{}
	if wholesalerID != nil {
		filter = uuid.NullUUID{UUID: *wholesalerID, Valid: true}
	}

	var reviews []*domain.Review
	err := r.store.run(ctx, "list reviews", func(ctx context.Context) error {
		rows, err := r.store.db.QueryContext(ctx, query, filter)
		if err != nil {
			return err
		}
		defer rows.Close()

		reviews = []*domain.Review{}
		for rows.Next() {
			rv, err := scanReview(rows)
			if err != nil {
				return err
			}
			reviews = append(reviews, rv)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, nil
}

// Reply sets the single reply of a review addressed to wholesalerID
func (r *reviewRepository) Reply(ctx context.Context, id, wholesalerID uuid.UUID, text string) (*domain.Review, error) {
	var rowsAffected int64
	err := r.store.run(ctx, "reply to review", func(ctx context.Context) error {
		result, err := r.store.db.ExecContext(ctx, `
			UPDATE reviews
			SET reply = $3, replied_at = NOW()
			WHERE id = $1 AND wholesaler_id = $2 AND reply IS NULL
		`, id, wholesalerID, text)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})

	if err != nil {
		return nil, fmt.Errorf("failed to reply to review: %w", err)
	}

	review, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		if review.WholesalerID != wholesalerID {
			return nil, domain.ErrNotAuthorized
		}
		return nil, domain.ErrAlreadyReplied
	}

	return review, nil
}
