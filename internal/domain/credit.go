package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Interest is charged per started billing cycle of this many days past due.
const InterestCycleDays = 30

// BankDetails is the KYC and payout bundle captured at enrollment
type BankDetails struct {
	Aadhar        string `json:"aadhar"`
	PAN           string `json:"pan"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
	UPI           string `json:"upi"`
}

// Merge overwrites fields of b with the non-empty fields of update
func (b BankDetails) Merge(update BankDetails) BankDetails {
	if update.Aadhar != "" {
		b.Aadhar = update.Aadhar
	}
	if update.PAN != "" {
		b.PAN = update.PAN
	}
	if update.AccountNumber != "" {
		b.AccountNumber = update.AccountNumber
	}
	if update.IFSC != "" {
		b.IFSC = update.IFSC
	}
	if update.UPI != "" {
		b.UPI = update.UPI
	}
	return b
}

// Masked hides all but the last four characters of identity numbers
func (b BankDetails) Masked() BankDetails {
	return BankDetails{
		Aadhar:        mask(b.Aadhar),
		PAN:           mask(b.PAN),
		AccountNumber: mask(b.AccountNumber),
		IFSC:          b.IFSC,
		UPI:           b.UPI,
	}
}

func mask(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return s
	}
	out := make([]rune, len(r))
	for i := range r {
		if i < len(r)-4 && r[i] != ' ' {
			out[i] = 'X'
		} else {
			out[i] = r[i]
		}
	}
	return string(out)
}

// CreditAccount is a vendor's pay-later facility
type CreditAccount struct {
	VendorID     uuid.UUID   `json:"vendorId" db:"vendor_id"`
	CreditLimit  float64     `json:"totalCreditLimit" db:"credit_limit"`
	UsedCredit   float64     `json:"usedCredit" db:"used_credit"`
	DueDate      *time.Time  `json:"dueDate" db:"due_date"`
	InterestRate float64     `json:"interestRate" db:"interest_rate"`
	Enrolled     bool        `json:"isEnrolled" db:"enrolled"`
	Blocked      bool        `json:"isBlocked" db:"blocked"`
	BankDetails  BankDetails `json:"bankDetails" db:"bank_details"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

// Available is the credit that can still be drawn
func (a *CreditAccount) Available() float64 {
	if a.UsedCredit >= a.CreditLimit {
		return 0
	}
	return RoundMoney(a.CreditLimit - a.UsedCredit)
}

// IsOverdue reports whether an outstanding balance is past its due date
func (a *CreditAccount) IsOverdue(now time.Time) bool {
	return a.UsedCredit > 0 && a.DueDate != nil && now.After(*a.DueDate)
}

// IsDelinquent reports whether the account is overdue by more than grace
func (a *CreditAccount) IsDelinquent(now time.Time, grace time.Duration) bool {
	return a.UsedCredit > 0 && a.DueDate != nil && a.DueDate.Before(now.Add(-grace))
}

// DaysOverdue counts whole or partial days since the due date
func (a *CreditAccount) DaysOverdue(now time.Time) int {
	if !a.IsOverdue(now) {
		return 0
	}
	return int(math.Ceil(now.Sub(*a.DueDate).Hours() / 24))
}

// AccruedInterest charges the interest rate once per started cycle past due
func (a *CreditAccount) AccruedInterest(now time.Time) float64 {
	days := a.DaysOverdue(now)
	if days == 0 {
		return 0
	}
	cycles := math.Ceil(float64(days) / InterestCycleDays)
	return RoundMoney(a.UsedCredit * a.InterestRate * cycles)
}

// TotalPayable is the outstanding balance plus accrued interest
func (a *CreditAccount) TotalPayable(now time.Time) float64 {
	return RoundMoney(a.UsedCredit + a.AccruedInterest(now))
}

// CreditSummary is an account together with its figures at a point in time
type CreditSummary struct {
	*CreditAccount
	AvailableCredit float64 `json:"availableCredit"`
	Overdue         bool    `json:"isOverdue"`
	DaysOverdue     int     `json:"daysOverdue"`
	AccruedInterest float64 `json:"accruedInterest"`
	TotalPayable    float64 `json:"totalPayable"`
}

// Summarize computes the derived figures of a as of now
func (a *CreditAccount) Summarize(now time.Time) CreditSummary {
	return CreditSummary{
		CreditAccount:   a,
		AvailableCredit: a.Available(),
		Overdue:         a.IsOverdue(now),
		DaysOverdue:     a.DaysOverdue(now),
		AccruedInterest: a.AccruedInterest(now),
		TotalPayable:    a.TotalPayable(now),
	}
}

// TransactionType classifies a credit ledger entry
type TransactionType string

const (
	TxPurchase  TransactionType = "purchase"
	TxRepayment TransactionType = "repayment"
	TxInterest  TransactionType = "interest"
	TxBlock     TransactionType = "block"
)

// CreditTransaction is an append-only ledger entry
type CreditTransaction struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	VendorID    uuid.UUID       `json:"vendorId" db:"vendor_id"`
	Type        TransactionType `json:"type" db:"type"`
	Amount      float64         `json:"amount" db:"amount"`
	Description string          `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"date" db:"created_at"`
}
