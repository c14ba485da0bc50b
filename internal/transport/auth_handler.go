package transport

import (
	"net/http"
	"time"

	"sahaayak/internal/domain"
	"sahaayak/internal/middleware"
	"sahaayak/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
	UserType string `json:"user_type" validate:"required,oneof=vendor wholesaler"`
}

// RegisterVendorRequest represents a vendor sign-up
type RegisterVendorRequest struct {
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"required,numeric,min=10,max=15"`
	Password string `json:"password" validate:"required,min=6"`
	Location string `json:"location"`
}

// RegisterWholesalerRequest represents a wholesaler sign-up
type RegisterWholesalerRequest struct {
	Name      string   `json:"name" validate:"required"`
	Phone     string   `json:"phone" validate:"required,numeric,min=10,max=15"`
	Password  string   `json:"password" validate:"required,min=6"`
	ShopName  string   `json:"shopName" validate:"required"`
	Documents []string `json:"documents"`
	Sourcing  string   `json:"sourcing"`
	Location  string   `json:"location"`
}

// UserSummary is the public part of an identity returned at login
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Success   bool        `json:"success"`
	UserType  string      `json:"user_type"`
	User      UserSummary `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// CurrentUserResponse represents the /user response
type CurrentUserResponse struct {
	Success bool            `json:"success"`
	User    domain.Identity `json:"user"`
}

// AuthHandler handles login, logout and sign-up
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth routes. loginLimiter throttles login attempts per client.
func (h *AuthHandler) RegisterRoutes(r chi.Router, loginLimiter func(http.Handler) http.Handler) {
	r.With(loginLimiter).Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/user", h.CurrentUser)
	r.Post("/register/vendor", h.RegisterVendor)
	r.Post("/register/wholesaler", h.RegisterWholesaler)
}

// Login handles authentication for both roles
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	session, err := h.authService.Authenticate(r.Context(), req.Phone, req.Password, domain.Role(req.UserType))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		UserType:  string(session.Identity.Role),
		User:      UserSummary{ID: session.Identity.ID.String(), Name: session.Identity.Name},
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout revokes the bearer token's session. A missing or dead token is not an error.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.BearerToken(r); ok {
		if err := h.authService.Logout(r.Context(), token); err != nil {
			middleware.RespondWithDomainError(w, r, h.logger, err)
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CurrentUser returns the identity behind the bearer token
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	identity, err := h.authService.CurrentUser(r.Context(), token)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CurrentUserResponse{Success: true, User: *identity})
}

// RegisterVendor handles vendor sign-up; the account awaits approval
func (h *AuthHandler) RegisterVendor(w http.ResponseWriter, r *http.Request) {
	var req RegisterVendorRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	vendor, err := h.authService.RegisterVendor(r.Context(), service.RegisterVendorInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
		Location: req.Location,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, vendor)
}

// RegisterWholesaler handles wholesaler sign-up; the account awaits approval
func (h *AuthHandler) RegisterWholesaler(w http.ResponseWriter, r *http.Request) {
	var req RegisterWholesalerRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	wholesaler, err := h.authService.RegisterWholesaler(r.Context(), service.RegisterWholesalerInput{
		Name:      req.Name,
		Phone:     req.Phone,
		Password:  req.Password,
		ShopName:  req.ShopName,
		Documents: req.Documents,
		Sourcing:  req.Sourcing,
		Location:  req.Location,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, wholesaler)
}
