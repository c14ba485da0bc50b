package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sahaayak/internal/domain"

	"github.com/google/uuid"
)

// VendorRepository defines the interface for vendor data access
type VendorRepository interface {
	Create(ctx context.Context, vendor *domain.Vendor) error
	FindByPhone(ctx context.Context, phone string) (*domain.Vendor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Vendor, error)
	ListApproved(ctx context.Context) ([]*domain.Vendor, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
}

type vendorRepository struct {
	store *Store
}

// NewVendorRepository creates a new instance of VendorRepository
func NewVendorRepository(store *Store) VendorRepository {
	return &vendorRepository{store: store}
}

const vendorColumns = `id, name, phone, password_hash, location, approved, created_at, updated_at`

func scanVendor(row interface{ Scan(...any) error }) (*domain.Vendor, error) {
	v := &domain.Vendor{}
	err := row.Scan(
		&v.ID,
		&v.Name,
		&v.Phone,
		&v.PasswordHash,
		&v.Location,
		&v.Approved,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	return v, err
}

// Create inserts a vendor; a taken phone number yields ErrAlreadyExists
func (r *vendorRepository) Create(ctx context.Context, vendor *domain.Vendor) error {
	query := `
		INSERT INTO vendors (id, name, phone, password_hash, location, approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.store.run(ctx, "create vendor", func(ctx context.Context) error {
		return r.store.db.QueryRowContext(
			ctx,
			query,
			vendor.ID,
			vendor.Name,
			vendor.Phone,
			vendor.PasswordHash,
			vendor.Location,
			vendor.Approved,
		).Scan(&vendor.CreatedAt, &vendor.UpdatedAt)
	})

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("vendor with phone %s: %w", vendor.Phone, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create vendor: %w", err)
	}

	return nil
}

// FindByPhone retrieves a vendor by login phone
func (r *vendorRepository) FindByPhone(ctx context.Context, phone string) (*domain.Vendor, error) {
	return r.findOne(ctx, "find vendor by phone", `SELECT `+vendorColumns+` FROM vendors WHERE phone = $1`, phone)
}

// FindByID retrieves a vendor by ID
func (r *vendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Vendor, error) {
	return r.findOne(ctx, "find vendor by id", `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id)
}

func (r *vendorRepository) findOne(ctx context.Context, op, query string, arg any) (*domain.Vendor, error) {
	var vendor *domain.Vendor
	err := r.store.run(ctx, op, func(ctx context.Context) error {
		var err error
		vendor, err = scanVendor(r.store.db.QueryRowContext(ctx, query, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	return vendor, nil
}

// ListApproved returns approved vendors ordered by name
func (r *vendorRepository) ListApproved(ctx context.Context) ([]*domain.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE approved ORDER BY name, id`

	var vendors []*domain.Vendor
	err := r.store.run(ctx, "list vendors", func(ctx context.Context) error {
		rows, err := r.store.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		vendors = []*domain.Vendor{}
		for rows.Next() {
			v, err := scanVendor(rows)
			if err != nil {
				return err
			}
			vendors = append(vendors, v)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}

	return vendors, nil
}

// SetApproved grants or withdraws a vendor's approval
func (r *vendorRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	var rowsAffected int64
	err := r.store.run(ctx, "approve vendor", func(ctx context.Context) error {
		result, err := r.store.db.ExecContext(ctx, `UPDATE vendors SET approved = $2 WHERE id = $1`, id, approved)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("failed to update vendor approval: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
