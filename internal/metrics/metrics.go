package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sahaayak_login_attempts_total",
		Help: "Login attempts by role and outcome",
	}, []string{"role", "outcome"})

	CatalogQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sahaayak_catalog_queries_total",
		Help: "Catalog queries by sort order",
	}, []string{"sort_by"})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sahaayak_orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sahaayak_orders_failed_total",
		Help: "Rejected order placements",
	}, []string{"reason"})

	OrderStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sahaayak_order_status_changes_total",
		Help: "Order status transitions by target status",
	}, []string{"status"})

	ReviewsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sahaayak_reviews_added_total",
		Help: "Total number of reviews added",
	})

	CreditOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sahaayak_credit_operations_total",
		Help: "Pay-later operations by kind and outcome",
	}, []string{"operation", "outcome"})

	CreditAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sahaayak_credit_amount_total",
		Help: "Rupees drawn or repaid through pay later",
	}, []string{"operation"})

	AccountsBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sahaayak_credit_accounts_blocked_total",
		Help: "Accounts blocked for overdue repayment",
	})

	DonationsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sahaayak_food_donations_total",
		Help: "Food donations offered by donor role",
	}, []string{"role"})

	EventsPublishFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sahaayak_events_publish_failed_total",
		Help: "Events that could not be published",
	}, []string{"type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

// Outcome labels a result for the counters above
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
