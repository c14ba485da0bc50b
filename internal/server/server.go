package server

import (
	"fmt"
	"net/http"
	"time"

	"sahaayak/internal/config"
	"sahaayak/internal/database"
	"sahaayak/internal/events"
	custommiddleware "sahaayak/internal/middleware"
	"sahaayak/internal/repository"
	"sahaayak/internal/service"
	"sahaayak/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config    *config.Config
	logger    *zap.Logger
	db        database.Service
	redis     *redis.Client
	publisher events.Publisher
}

// Services bundles the business services the HTTP layer is built on
type Services struct {
	Auth      service.AuthService
	Directory service.DirectoryService
	Catalog   service.CatalogService
	Orders    service.OrderService
	Reviews   service.ReviewService
	Credit    service.CreditService
	Donations service.DonationService
}

// NewServices wires repositories over the shared store into the business services
func NewServices(cfg *config.Config, logger *zap.Logger, store *repository.Store, redisClient *redis.Client, publisher events.Publisher) Services {
	vendorRepo := repository.NewVendorRepository(store)
	wholesalerRepo := repository.NewWholesalerRepository(store)
	productRepo := repository.NewProductRepository(store)
	orderRepo := repository.NewOrderRepository(store)
	reviewRepo := repository.NewReviewRepository(store)
	creditRepo := repository.NewCreditRepository(store)
	donationRepo := repository.NewDonationRepository(store)
	sessionRepo := repository.NewSessionRepository(redisClient)

	sessionTTL := time.Duration(cfg.JWT.AccessExpiry) * time.Minute

	return Services{
		Auth:      service.NewAuthService(vendorRepo, wholesalerRepo, sessionRepo, cfg.JWT.Secret, sessionTTL, logger),
		Directory: service.NewDirectoryService(vendorRepo, wholesalerRepo),
		Catalog:   service.NewCatalogService(productRepo, cfg.Catalog.RestockThreshold, logger),
		Orders:    service.NewOrderService(orderRepo, publisher, logger),
		Reviews:   service.NewReviewService(reviewRepo, publisher, logger),
		Credit:    service.NewCreditService(creditRepo, publisher, cfg.Credit, logger),
		Donations: service.NewDonationService(donationRepo, logger),
	}
}

// NewRouter builds the HTTP surface: /health, /metrics and the /api routes
func NewRouter(cfg *config.Config, logger *zap.Logger, svc Services, redisClient *redis.Client, health func() map[string]string) http.Handler {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.MetricsMiddleware)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if stats := health(); stats["status"] == "down" {
				logger.Warn("Health check failed", zap.String("error", stats["error"]))
				custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())

	authMiddleware := custommiddleware.AuthMiddleware(svc.Auth, logger)
	loginLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "ratelimit:login",
	}, logger)

	router.Route("/api", func(r chi.Router) {
		transport.NewAuthHandler(svc.Auth, logger).RegisterRoutes(r, loginLimiter)
		transport.NewDirectoryHandler(svc.Directory, logger).RegisterRoutes(r)
		transport.NewCatalogHandler(svc.Catalog, logger).RegisterRoutes(r, authMiddleware)
		transport.NewOrderHandler(svc.Orders, logger).RegisterRoutes(r, authMiddleware)
		transport.NewReviewHandler(svc.Reviews, logger).RegisterRoutes(r, authMiddleware)
		transport.NewCreditHandler(svc.Credit, logger).RegisterRoutes(r, authMiddleware)
		transport.NewDonationHandler(svc.Donations, logger).RegisterRoutes(r, authMiddleware)
	})

	return router
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client, publisher events.Publisher) *Server {
	store := repository.NewStore(db.DB(), cfg.Database.QueryTimeout)
	svc := NewServices(cfg, logger, store, redisClient, publisher)
	router := NewRouter(cfg, logger, svc, redisClient, db.Health)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      otelhttp.NewHandler(router, "sahaayak-api"),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:    cfg,
		logger:    logger,
		db:        db,
		redis:     redisClient,
		publisher: publisher,
	}
}

// Close releases the event writer, redis and database connections
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.publisher.Close(); err != nil {
		s.logger.Error("Failed to close event publisher", zap.Error(err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
