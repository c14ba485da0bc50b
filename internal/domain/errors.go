package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyExists      = errors.New("already exists")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials or account not approved")
	ErrBadCredential      = errors.New("bad credential")
	ErrNotApproved        = errors.New("account not approved")

	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrProductInUse      = errors.New("product has orders")

	ErrReviewNotFound = errors.New("review not found")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrAlreadyReplied = errors.New("review already has a reply")

	ErrNotEnrolled    = errors.New("not enrolled in pay later")
	ErrAccountBlocked = errors.New("pay later account is blocked")
	ErrLimitExceeded  = errors.New("credit limit exceeded")
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
)

// AuthError hides the reason a login failed behind one generic message.
// Kind is one of ErrNotFound, ErrBadCredential or ErrNotApproved.
type AuthError struct {
	Kind error
}

func (e *AuthError) Error() string {
	return ErrInvalidCredentials.Error()
}

func (e *AuthError) Unwrap() []error {
	return []error{ErrInvalidCredentials, e.Kind}
}

// NewAuthError wraps kind in an AuthError
func NewAuthError(kind error) error {
	return &AuthError{Kind: kind}
}
