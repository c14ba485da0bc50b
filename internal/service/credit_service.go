package service

import (
	"context"
	"time"

	"sahaayak/internal/config"
	"sahaayak/internal/domain"
	"sahaayak/internal/events"
	"sahaayak/internal/metrics"
	"sahaayak/internal/repository"
	"sahaayak/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DefaultCreditLimit      = 3000
	DefaultInterestRate     = 0.05
	DefaultCreditPeriodDays = 30
	DefaultTransactionLimit = 50
)

// CreditService runs the pay-later ledger: enrollment, draws, repayments and blocking
type CreditService interface {
	Enroll(ctx context.Context, vendorID uuid.UUID, bank domain.BankDetails) (*domain.CreditSummary, error)
	Get(ctx context.Context, vendorID uuid.UUID) (*domain.CreditSummary, error)
	Draw(ctx context.Context, vendorID uuid.UUID, amount float64) (*domain.CreditSummary, error)
	Repay(ctx context.Context, vendorID uuid.UUID, amount float64) (*domain.CreditSummary, error)
	Transactions(ctx context.Context, vendorID uuid.UUID, limit int) ([]*domain.CreditTransaction, error)
	SweepDelinquent(ctx context.Context) ([]uuid.UUID, error)
}

type creditService struct {
	creditRepo repository.CreditRepository
	publisher  events.Publisher
	limit      float64
	rate       float64
	period     time.Duration
	grace      time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewCreditService creates a new instance of CreditService. Zero config values fall back to defaults.
func NewCreditService(creditRepo repository.CreditRepository, publisher events.Publisher, cfg config.CreditConfig, logger *zap.Logger) CreditService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultCreditLimit
	}
	if cfg.InterestRate <= 0 {
		cfg.InterestRate = DefaultInterestRate
	}
	if cfg.PeriodDays <= 0 {
		cfg.PeriodDays = DefaultCreditPeriodDays
	}
	if cfg.BlockGraceDays < 0 {
		cfg.BlockGraceDays = 0
	}

	return &creditService{
		creditRepo: creditRepo,
		publisher:  publisher,
		limit:      cfg.DefaultLimit,
		rate:       cfg.InterestRate,
		period:     time.Duration(cfg.PeriodDays) * 24 * time.Hour,
		grace:      time.Duration(cfg.BlockGraceDays) * 24 * time.Hour,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *creditService) summarize(account *domain.CreditAccount) *domain.CreditSummary {
	summary := account.Summarize(s.now())
	return &summary
}

// Enroll opens the vendor's pay-later account or merges new bank details into it
func (s *creditService) Enroll(ctx context.Context, vendorID uuid.UUID, bank domain.BankDetails) (summary *domain.CreditSummary, err error) {
	ctx, span := telemetry.StartSpan(ctx, "credit.enroll", attribute.String("vendor_id", vendorID.String()))
	defer func() {
		telemetry.EndSpan(span, err)
		metrics.CreditOperationsTotal.WithLabelValues("enroll", metrics.Outcome(err)).Inc()
	}()

	account, err := s.creditRepo.Enroll(ctx, vendorID, s.limit, s.rate, bank)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Vendor enrolled in pay later", zap.String("vendor_id", vendorID.String()))
	return s.summarize(account), nil
}

// applyBlockRule blocks vendorID's account when its balance is overdue past the grace period
func (s *creditService) applyBlockRule(ctx context.Context, vendorID uuid.UUID) error {
	blocked, err := s.creditRepo.BlockDelinquent(ctx, s.now().Add(-s.grace), &vendorID)
	if err != nil {
		return err
	}
	s.recordBlocked(ctx, blocked)
	return nil
}

func (s *creditService) recordBlocked(ctx context.Context, vendorIDs []uuid.UUID) {
	for _, id := range vendorIDs {
		metrics.AccountsBlockedTotal.Inc()
		s.logger.Info("Pay later account blocked", zap.String("vendor_id", id.String()))
		publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeAccountBlocked, id, map[string]string{
			"reason": "repayment overdue",
		}))
	}
}

// Get returns the vendor's account with its derived figures as of now
func (s *creditService) Get(ctx context.Context, vendorID uuid.UUID) (*domain.CreditSummary, error) {
	if err := s.applyBlockRule(ctx, vendorID); err != nil {
		return nil, err
	}

	account, err := s.creditRepo.Get(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return s.summarize(account), nil
}

// Draw charges amount against the vendor's available credit
func (s *creditService) Draw(ctx context.Context, vendorID uuid.UUID, amount float64) (summary *domain.CreditSummary, err error) {
	ctx, span := telemetry.StartSpan(ctx, "credit.draw",
		attribute.String("vendor_id", vendorID.String()),
		attribute.Float64("amount", amount),
	)
	defer func() {
		telemetry.EndSpan(span, err)
		metrics.CreditOperationsTotal.WithLabelValues("draw", metrics.Outcome(err)).Inc()
	}()

	amount = domain.RoundMoney(amount)
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	if err := s.applyBlockRule(ctx, vendorID); err != nil {
		return nil, err
	}

	account, err := s.creditRepo.Draw(ctx, vendorID, amount, s.now().Add(s.period))
	if err != nil {
		return nil, err
	}

	metrics.CreditAmountTotal.WithLabelValues("draw").Add(amount)
	s.logger.Info("Pay later credit drawn",
		zap.String("vendor_id", vendorID.String()),
		zap.Float64("amount", amount),
		zap.Float64("used", account.UsedCredit),
	)

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeCreditDrawn, vendorID, map[string]float64{
		"amount":     amount,
		"usedCredit": account.UsedCredit,
	}))
	return s.summarize(account), nil
}

// Repay reduces the vendor's balance and lifts any block
func (s *creditService) Repay(ctx context.Context, vendorID uuid.UUID, amount float64) (summary *domain.CreditSummary, err error) {
	ctx, span := telemetry.StartSpan(ctx, "credit.repay",
		attribute.String("vendor_id", vendorID.String()),
		attribute.Float64("amount", amount),
	)
	defer func() {
		telemetry.EndSpan(span, err)
		metrics.CreditOperationsTotal.WithLabelValues("repay", metrics.Outcome(err)).Inc()
	}()

	amount = domain.RoundMoney(amount)
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	account, err := s.creditRepo.Repay(ctx, vendorID, amount, s.now().Add(s.period))
	if err != nil {
		return nil, err
	}

	metrics.CreditAmountTotal.WithLabelValues("repay").Add(amount)
	s.logger.Info("Pay later repayment received",
		zap.String("vendor_id", vendorID.String()),
		zap.Float64("amount", amount),
		zap.Float64("used", account.UsedCredit),
	)

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeCreditRepaid, vendorID, map[string]float64{
		"amount":     amount,
		"usedCredit": account.UsedCredit,
	}))
	return s.summarize(account), nil
}

func (s *creditService) Transactions(ctx context.Context, vendorID uuid.UUID, limit int) ([]*domain.CreditTransaction, error) {
	if limit <= 0 || limit > 500 {
		limit = DefaultTransactionLimit
	}
	return s.creditRepo.Transactions(ctx, vendorID, limit)
}

// SweepDelinquent blocks every delinquent account and returns the vendors blocked
func (s *creditService) SweepDelinquent(ctx context.Context) ([]uuid.UUID, error) {
	blocked, err := s.creditRepo.BlockDelinquent(ctx, s.now().Add(-s.grace), nil)
	if err != nil {
		return nil, err
	}
	s.recordBlocked(ctx, blocked)
	return blocked, nil
}
