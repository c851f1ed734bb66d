package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SubmissionsCreatedTotal   metric.Int64Counter
	SubmissionsRejectedTotal  metric.Int64Counter
	CheckoutSessionsTotal     metric.Int64Counter
	WebhookEventsTotal        metric.Int64Counter
	NotificationsSentTotal    metric.Int64Counter
	NotificationFailuresTotal metric.Int64Counter
	DBQueryErrorsTotal        metric.Int64Counter
	StripeRequestDuration     metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider, so it must run after
// the providers are installed to export anything.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("atl-vibes-views")
		m := &AppMetrics{}

		m.SubmissionsCreatedTotal = mustCounter(meter, "submissions_created_total",
			"Total number of listing submissions persisted", "{submission}")
		m.SubmissionsRejectedTotal = mustCounter(meter, "submissions_invalid_total",
			"Total number of submissions refused by validation", "{submission}")
		m.CheckoutSessionsTotal = mustCounter(meter, "checkout_sessions_total",
			"Total number of checkout session attempts by outcome", "{session}")
		m.WebhookEventsTotal = mustCounter(meter, "payment_webhook_events_total",
			"Total number of payment webhook deliveries by type and outcome", "{event}")
		m.NotificationsSentTotal = mustCounter(meter, "notifications_sent_total",
			"Total number of notifications accepted by the delivery endpoint", "{notification}")
		m.NotificationFailuresTotal = mustCounter(meter, "notification_failures_total",
			"Total number of notifications that could not be delivered", "{notification}")
		m.DBQueryErrorsTotal = mustCounter(meter, "db_query_errors_total",
			"Total number of database query errors", "{error}")

		var err error
		m.StripeRequestDuration, err = meter.Float64Histogram(
			"stripe_request_duration_seconds",
			metric.WithDescription("Duration of payment processor API calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create stripe_request_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global AppMetrics, initializing it against the current provider on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func mustCounter(meter metric.Meter, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}
