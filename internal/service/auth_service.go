package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sahaayak/internal/domain"
	"sahaayak/internal/metrics"
	"sahaayak/internal/repository"
	"sahaayak/internal/telemetry"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	DefaultSessionTTL = time.Hour
)

// dummyHash is compared against when the phone is unknown
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("sahaayak-timing"), BcryptCost)

// AuthService authenticates vendors and wholesalers and manages their sessions
type AuthService interface {
	Authenticate(ctx context.Context, phone, password string, role domain.Role) (*domain.Session, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*domain.Identity, error)
	RegisterVendor(ctx context.Context, input RegisterVendorInput) (*domain.Vendor, error)
	RegisterWholesaler(ctx context.Context, input RegisterWholesalerInput) (*domain.Wholesaler, error)
	SetApproval(ctx context.Context, role domain.Role, id uuid.UUID, approved bool) error
}

// Claims represents the JWT claims
type Claims struct {
	UserID uuid.UUID   `json:"user_id"`
	Name   string      `json:"name"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// RegisterVendorInput carries a vendor sign-up
type RegisterVendorInput struct {
	Name     string
	Phone    string
	Password string
	Location string
}

// RegisterWholesalerInput carries a wholesaler sign-up
type RegisterWholesalerInput struct {
	Name      string
	Phone     string
	Password  string
	ShopName  string
	Documents []string
	Sourcing  string
	Location  string
}

type authService struct {
	vendorRepo     repository.VendorRepository
	wholesalerRepo repository.WholesalerRepository
	sessionRepo    repository.SessionRepository
	jwtSecret      []byte
	sessionTTL     time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(
	vendorRepo repository.VendorRepository,
	wholesalerRepo repository.WholesalerRepository,
	sessionRepo repository.SessionRepository,
	jwtSecret string,
	sessionTTL time.Duration,
	logger *zap.Logger,
) AuthService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &authService{
		vendorRepo:     vendorRepo,
		wholesalerRepo: wholesalerRepo,
		sessionRepo:    sessionRepo,
		jwtSecret:      []byte(jwtSecret),
		sessionTTL:     sessionTTL,
		logger:         logger,
		now:            time.Now,
	}
}

// account is the credential view shared by both roles
type account struct {
	identity     domain.Identity
	passwordHash string
	approved     bool
}

func (s *authService) lookup(ctx context.Context, phone string, role domain.Role) (*account, error) {
	switch role {
	case domain.RoleVendor:
		v, err := s.vendorRepo.FindByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		return &account{identity: v.Principal(), passwordHash: v.PasswordHash, approved: v.Approved}, nil
	case domain.RoleWholesaler:
		w, err := s.wholesalerRepo.FindByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		return &account{identity: w.Principal(), passwordHash: w.PasswordHash, approved: w.Approved}, nil
	default:
		return nil, domain.ErrNotFound
	}
}

// Authenticate verifies phone and password for the claimed role and issues a session token.
// Every rejection carries the same message; the reason is only logged.
func (s *authService) Authenticate(ctx context.Context, phone, password string, role domain.Role) (session *domain.Session, err error) {
	ctx, span := telemetry.StartSpan(ctx, "auth.authenticate", attribute.String("role", string(role)))
	defer func() {
		telemetry.EndSpan(span, err)
		metrics.LoginAttemptsTotal.WithLabelValues(string(role), metrics.Outcome(err)).Inc()
	}()

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, domain.NewAuthError(domain.ErrNotFound)
	}

	acct, err := s.lookup(ctx, phone, role)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			s.logger.Debug("Login rejected", zap.String("role", string(role)), zap.String("reason", "not found"))
			return nil, domain.NewAuthError(domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.passwordHash), []byte(password)); err != nil {
		s.logger.Debug("Login rejected", zap.String("role", string(role)), zap.String("reason", "bad credential"))
		return nil, domain.NewAuthError(domain.ErrBadCredential)
	}

	if !acct.approved {
		s.logger.Debug("Login rejected", zap.String("role", string(role)), zap.String("reason", "not approved"))
		return nil, domain.NewAuthError(domain.ErrNotApproved)
	}

	session, err = s.issue(acct.identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.logger.Info("User logged in",
		zap.String("user_id", acct.identity.ID.String()),
		zap.String("role", string(role)),
	)
	return session, nil
}

func (s *authService) issue(identity domain.Identity) (*domain.Session, error) {
	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	tokenID := uuid.NewString()

	claims := &Claims{
		UserID: identity.ID,
		Name:   identity.Name,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   identity.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &domain.Session{
		Identity:  identity,
		Token:     token,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}, nil
}

// parse validates signature and expiry
func (s *authService) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" || !claims.Role.Valid() {
		return nil, domain.ErrUnauthenticated
	}

	return claims, nil
}

// CurrentUser returns the identity of a live, unrevoked session
func (s *authService) CurrentUser(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.sessionRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrUnauthenticated
	}

	return &domain.Identity{ID: claims.UserID, Name: claims.Name, Role: claims.Role}, nil
}

// Logout revokes the session until its natural expiry
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		// An invalid or expired token is already unusable.
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.sessionRepo.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.logger.Info("User logged out", zap.String("user_id", claims.UserID.String()))
	return nil
}

// RegisterVendor creates an unapproved vendor account
func (s *authService) RegisterVendor(ctx context.Context, input RegisterVendorInput) (*domain.Vendor, error) {
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	vendor := &domain.Vendor{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Location:     input.Location,
	}

	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		return nil, err
	}

	s.logger.Info("Vendor registered", zap.String("vendor_id", vendor.ID.String()))
	return vendor, nil
}

// RegisterWholesaler creates an unapproved wholesaler account
func (s *authService) RegisterWholesaler(ctx context.Context, input RegisterWholesalerInput) (*domain.Wholesaler, error) {
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	wholesaler := &domain.Wholesaler{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		ShopName:     input.ShopName,
		Documents:    input.Documents,
		Sourcing:     input.Sourcing,
		Location:     input.Location,
	}

	if err := s.wholesalerRepo.Create(ctx, wholesaler); err != nil {
		return nil, err
	}

	s.logger.Info("Wholesaler registered", zap.String("wholesaler_id", wholesaler.ID.String()))
	return wholesaler, nil
}

// SetApproval grants or withdraws an account's approval
func (s *authService) SetApproval(ctx context.Context, role domain.Role, id uuid.UUID, approved bool) error {
	var err error
	switch role {
	case domain.RoleVendor:
		err = s.vendorRepo.SetApproved(ctx, id, approved)
	case domain.RoleWholesaler:
		err = s.wholesalerRepo.SetApproved(ctx, id, approved)
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	if err != nil {
		return err
	}

	s.logger.Info("Account approval changed",
		zap.String("role", string(role)),
		zap.String("id", id.String()),
		zap.Bool("approved", approved),
	)
	return nil
}

// hashPassword hashes a password using bcrypt with cost factor 10
func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
