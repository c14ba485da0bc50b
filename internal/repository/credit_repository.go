package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sahaayak/internal/domain"

	"github.com/google/uuid"
)

// CreditRepository defines the interface for the pay-later ledger
type CreditRepository interface {
	Enroll(ctx context.Context, vendorID uuid.UUID, limit, rate float64, bank domain.BankDetails) (*domain.CreditAccount, error)
	Get(ctx context.Context, vendorID uuid.UUID) (*domain.CreditAccount, error)
	Draw(ctx context.Context, vendorID uuid.UUID, amount float64, dueDate time.Time) (*domain.CreditAccount, error)
	Repay(ctx context.Context, vendorID uuid.UUID, amount float64, nextDue time.Time) (*domain.CreditAccount, error)
	BlockDelinquent(ctx context.Context, cutoff time.Time, vendorID *uuid.UUID) ([]uuid.UUID, error)
	Transactions(ctx context.Context, vendorID uuid.UUID, limit int) ([]*domain.CreditTransaction, error)
}

type creditRepository struct {
	store *Store
}

// NewCreditRepository creates a new instance of CreditRepository
func NewCreditRepository(store *Store) CreditRepository {
	return &creditRepository{store: store}
}

const creditColumns = `vendor_id, credit_limit, used_credit, due_date, interest_rate, enrolled, blocked,
	bank_details, created_at, updated_at`

func scanCreditAccount(row interface{ Scan(...any) error }) (*domain.CreditAccount, error) {
	a := &domain.CreditAccount{}
	var (
		due  sql.NullTime
		bank []byte
	)
	err := row.Scan(
		&a.VendorID,
		&a.CreditLimit,
		&a.UsedCredit,
		&due,
		&a.InterestRate,
		&a.Enrolled,
		&a.Blocked,
		&bank,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.DueDate = nullTimePtr(due)
	if err := json.Unmarshal(bank, &a.BankDetails); err != nil {
		return nil, fmt.Errorf("failed to decode bank details: %w", err)
	}
	return a, nil
}

// bankPatch encodes only the non-empty fields so a JSONB merge keeps stored values
func bankPatch(b domain.BankDetails) (string, error) {
	patch := map[string]string{}
	for key, value := range map[string]string{
		"aadhar":        b.Aadhar,
		"pan":           b.PAN,
		"accountNumber": b.AccountNumber,
		"ifsc":          b.IFSC,
		"upi":           b.UPI,
	} {
		if value != "" {
			patch[key] = value
		}
	}
	raw, err := json.Marshal(patch)
	return string(raw), err
}

func insertTransaction(ctx context.Context, tx *sql.Tx, vendorID uuid.UUID, kind domain.TransactionType, amount float64, description string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (id, vendor_id, type, amount, description)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), vendorID, kind, domain.RoundMoney(amount), description)
	if err != nil {
		return fmt.Errorf("failed to record %s transaction: %w", kind, err)
	}
	return nil
}

// Enroll opens an account or merges new bank details into an existing one.
// Limit and balance of an existing account are left untouched.
func (r *creditRepository) Enroll(ctx context.Context, vendorID uuid.UUID, limit, rate float64, bank domain.BankDetails) (*domain.CreditAccount, error) {
	patch, err := bankPatch(bank)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bank details: %w", err)
	}

	query := `
		INSERT INTO credit_accounts (vendor_id, credit_limit, used_credit, interest_rate, enrolled, blocked, bank_details)
		VALUES ($1, $2, 0, $3, TRUE, FALSE, $4::jsonb)
		ON CONFLICT (vendor_id) DO UPDATE
		SET bank_details = credit_accounts.bank_details || EXCLUDED.bank_details,
		    enrolled = TRUE
		WHERE NOT credit_accounts.enrolled
		   OR credit_accounts.bank_details IS DISTINCT FROM credit_accounts.bank_details || EXCLUDED.bank_details
		RETURNING ` + creditColumns

	// a repeat enrollment that changes nothing leaves the row, updated_at included, untouched
	current := `SELECT ` + creditColumns + ` FROM credit_accounts WHERE vendor_id = $1`

	var account *domain.CreditAccount
	err = r.store.run(ctx, "enroll", func(ctx context.Context) error {
		var err error
		account, err = scanCreditAccount(r.store.db.QueryRowContext(ctx, query, vendorID, domain.RoundMoney(limit), rate, patch))
		if errors.Is(err, sql.ErrNoRows) {
			account, err = scanCreditAccount(r.store.db.QueryRowContext(ctx, current, vendorID))
		}
		return err
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("vendor %s: %w", vendorID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}

	return account, nil
}

// Get retrieves a vendor's account
func (r *creditRepository) Get(ctx context.Context, vendorID uuid.UUID) (*domain.CreditAccount, error) {
	query := `SELECT ` + creditColumns + ` FROM credit_accounts WHERE vendor_id = $1`

	var account *domain.CreditAccount
	err := r.store.run(ctx, "get credit account", func(ctx context.Context) error {
		var err error
		account, err = scanCreditAccount(r.store.db.QueryRowContext(ctx, query, vendorID))
		return err
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get credit account: %w", err)
	}

	return account, nil
}

// Draw consumes credit with a single conditional update so concurrent draws never pass the limit.
// dueDate applies only when the balance was zero.
func (r *creditRepository) Draw(ctx context.Context, vendorID uuid.UUID, amount float64, dueDate time.Time) (*domain.CreditAccount, error) {
	amount = domain.RoundMoney(amount)

	var account *domain.CreditAccount
	err := r.store.inTx(ctx, "draw credit", func(ctx context.Context, tx *sql.Tx) error {
		var err error
		account, err = scanCreditAccount(tx.QueryRowContext(ctx, `
			UPDATE credit_accounts
			SET used_credit = used_credit + $2,
			    due_date = CASE WHEN used_credit = 0 OR due_date IS NULL THEN $3 ELSE due_date END
			WHERE vendor_id = $1
			  AND enrolled
			  AND NOT blocked
			  AND used_credit + $2 <= credit_limit
			RETURNING `+creditColumns,
			vendorID, amount, dueDate))
		if errors.Is(err, sql.ErrNoRows) {
			return errDrawRejected
		}
		if err != nil {
			return err
		}

		return insertTransaction(ctx, tx, vendorID, domain.TxPurchase, amount, "pay later purchase")
	})

	if errors.Is(err, errDrawRejected) {
		return nil, r.classifyRejectedDraw(ctx, vendorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to draw credit: %w", err)
	}

	return account, nil
}

var errDrawRejected = errors.New("draw rejected")

func (r *creditRepository) classifyRejectedDraw(ctx context.Context, vendorID uuid.UUID) error {
	account, err := r.Get(ctx, vendorID)
	if err != nil {
		return err
	}
	switch {
	case !account.Enrolled:
		return domain.ErrNotEnrolled
	case account.Blocked:
		return domain.ErrAccountBlocked
	default:
		return fmt.Errorf("available %.2f: %w", account.Available(), domain.ErrLimitExceeded)
	}
}

// Repay reduces the balance (never below zero) and lifts any block.
// The due date is cleared once the balance is settled, otherwise it moves to nextDue.
func (r *creditRepository) Repay(ctx context.Context, vendorID uuid.UUID, amount float64, nextDue time.Time) (*domain.CreditAccount, error) {
	amount = domain.RoundMoney(amount)

	var account *domain.CreditAccount
	err := r.store.inTx(ctx, "repay credit", func(ctx context.Context, tx *sql.Tx) error {
		var (
			used     float64
			enrolled bool
		)
		err := tx.QueryRowContext(ctx,
			`SELECT used_credit, enrolled FROM credit_accounts WHERE vendor_id = $1 FOR UPDATE`,
			vendorID).Scan(&used, &enrolled)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !enrolled) {
			return domain.ErrNotEnrolled
		}
		if err != nil {
			return err
		}

		applied := amount
		if applied > used {
			applied = used
		}
		remaining := domain.RoundMoney(used - applied)

		var due sql.NullTime
		if remaining > 0 {
			due = sql.NullTime{Time: nextDue, Valid: true}
		}

		account, err = scanCreditAccount(tx.QueryRowContext(ctx, `
			UPDATE credit_accounts
			SET used_credit = $2, blocked = FALSE, due_date = $3
			WHERE vendor_id = $1
			RETURNING `+creditColumns,
			vendorID, remaining, due))
		if err != nil {
			return err
		}

		return insertTransaction(ctx, tx, vendorID, domain.TxRepayment, applied, "pay later repayment")
	})

	if err != nil {
		if errors.Is(err, domain.ErrNotEnrolled) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to repay credit: %w", err)
	}

	return account, nil
}

// BlockDelinquent blocks every unblocked account with a balance due before cutoff,
// or only vendorID's account when given, and returns the vendors it blocked.
func (r *creditRepository) BlockDelinquent(ctx context.Context, cutoff time.Time, vendorID *uuid.UUID) ([]uuid.UUID, error) {
	query := `
		WITH blocked AS (
			UPDATE credit_accounts
			SET blocked = TRUE
			WHERE NOT blocked
			  AND used_credit > 0
			  AND due_date < $1
			  AND ($2::uuid IS NULL OR vendor_id = $2)
			RETURNING vendor_id, used_credit
		)
		INSERT INTO credit_transactions (id, vendor_id, type, amount, description)
		SELECT gen_random_uuid(), vendor_id, 'block', used_credit, 'blocked: repayment overdue'
		FROM blocked
		RETURNING vendor_id
	`

	filter := uuid.NullUUID{}
	if vendorID != nil {
		filter = uuid.NullUUID{UUID: *vendorID, Valid: true}
	}

	var blocked []uuid.UUID
	err := r.store.run(ctx, "block delinquent", func(ctx context.Context) error {
		rows, err := r.store.db.QueryContext(ctx, query, cutoff, filter)
		if err != nil {
			return err
		}
		defer rows.Close()

		blocked = []uuid.UUID{}
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				return err
			}
			blocked = append(blocked, id)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to block delinquent accounts: %w", err)
	}

	return blocked, nil
}

// Transactions lists ledger entries newest first
func (r *creditRepository) Transactions(ctx context.Context, vendorID uuid.UUID, limit int) ([]*domain.CreditTransaction, error) {
	query := `
		SELECT id, vendor_id, type, amount, description, created_at
		FROM credit_transactions
		WHERE vendor_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	var txns []*domain.CreditTransaction
	err := r.store.run(ctx, "list credit transactions", func(ctx context.Context) error {
		rows, err := r.store.db.QueryContext(ctx, query, vendorID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		txns = []*domain.CreditTransaction{}
		for rows.Next() {
			t := &domain.CreditTransaction{}
			if err := rows.Scan(&t.ID, &t.VendorID, &t.Type, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
				return err
			}
			txns = append(txns, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}

	return txns, nil
}
