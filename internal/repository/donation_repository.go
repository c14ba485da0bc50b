package repository

import (
	"context"
	"fmt"

	"sahaayak/internal/domain"
)

// DonationRepository defines the interface for food donation data access
type DonationRepository interface {
	Create(ctx context.Context, donation *domain.Donation) error
	List(ctx context.Context, status *domain.DonationStatus) ([]*domain.Donation, error)
}

type donationRepository struct {
	store *Store
}

// NewDonationRepository creates a new instance of DonationRepository
func NewDonationRepository(store *Store) DonationRepository {
	return &donationRepository{store: store}
}

const donationColumns = `id, donor_id, donor_role, donor_name, food_type, quantity, expiry_time, location,
	status, created_at`

func scanDonation(row interface{ Scan(...any) error }) (*domain.Donation, error) {
	d := &domain.Donation{}
	err := row.Scan(
		&d.ID,
		&d.DonorID,
		&d.DonorRole,
		&d.DonorName,
		&d.FoodType,
		&d.Quantity,
		&d.ExpiryTime,
		&d.Location,
		&d.Status,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *donationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	query := `
		INSERT INTO food_donations (id, donor_id, donor_role, donor_name, food_type, quantity, expiry_time, location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.store.run(ctx, "create donation", func(ctx context.Context) error {
		return r.store.db.QueryRowContext(ctx, query,
			donation.ID,
			donation.DonorID,
			donation.DonorRole,
			donation.DonorName,
			donation.FoodType,
			donation.Quantity,
			donation.ExpiryTime,
			donation.Location,
			donation.Status,
		).Scan(&donation.CreatedAt)
	})

	if err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}

	return nil
}

// List returns donations newest first, optionally only those in one status
func (r *donationRepository) List(ctx context.Context, status *domain.DonationStatus) ([]*domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM food_donations
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, id`

	var filter *string
	if status != nil {
		s := string(*status)
		filter = &s
	}

	var donations []*domain.Donation
	err := r.store.run(ctx, "list donations", func(ctx context.Context) error {
		rows, err := r.store.db.QueryContext(ctx, query, filter)
		if err != nil {
			return err
		}
		defer rows.Close()

		donations = []*domain.Donation{}
		for rows.Next() {
			d, err := scanDonation(rows)
			if err != nil {
				return err
			}
			donations = append(donations, d)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}

	return donations, nil
}
