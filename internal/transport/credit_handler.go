package transport

import (
	"context"
	"net/http"

	"sahaayak/internal/domain"
	"sahaayak/internal/middleware"
	"sahaayak/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EnrollRequest carries the KYC and payout details captured at enrollment
type EnrollRequest struct {
	BankDetails domain.BankDetails `json:"bankDetails"`
}

// AmountRequest carries a draw or repayment amount
type AmountRequest struct {
	Amount float64 `json:"amount"`
}

// CreditResponse wraps an account after a change
type CreditResponse struct {
	Success bool                  `json:"success"`
	Data    *domain.CreditSummary `json:"data"`
}

// CreditHandler exposes the pay-later ledger to vendors
type CreditHandler struct {
	credit service.CreditService
	logger *zap.Logger
}

// NewCreditHandler creates a new CreditHandler
func NewCreditHandler(credit service.CreditService, logger *zap.Logger) *CreditHandler {
	return &CreditHandler{credit: credit, logger: logger}
}

// RegisterRoutes registers the pay-later routes; vendors only
func (h *CreditHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/pay-later", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireRole(h.logger, domain.RoleVendor))
		r.Get("/", h.Get)
		r.Post("/enroll", h.Enroll)
		r.Post("/draw", h.Draw)
		r.Post("/repay", h.Repay)
		r.Get("/transactions", h.Transactions)
	})
}

// masked hides identity numbers before a summary leaves the server
func masked(summary *domain.CreditSummary) *domain.CreditSummary {
	if summary != nil && summary.CreditAccount != nil {
		summary.BankDetails = summary.BankDetails.Masked()
	}
	return summary
}

func (h *CreditHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	summary, err := h.credit.Get(r.Context(), caller.ID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, masked(summary))
}

func (h *CreditHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req EnrollRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	summary, err := h.credit.Enroll(r.Context(), caller.ID, req.BankDetails)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, CreditResponse{Success: true, Data: masked(summary)})
}

func (h *CreditHandler) Draw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.credit.Draw)
}

func (h *CreditHandler) Repay(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.credit.Repay)
}

func (h *CreditHandler) move(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, vendorID uuid.UUID, amount float64) (*domain.CreditSummary, error)) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req AmountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	summary, err := apply(r.Context(), caller.ID, req.Amount)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, CreditResponse{Success: true, Data: masked(summary)})
}

func (h *CreditHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	txns, err := h.credit.Transactions(r.Context(), caller.ID, queryInt(r, "limit"))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"transactions": txns})
}
