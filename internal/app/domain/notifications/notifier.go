// Package notifications relays submission events to an external delivery channel.
// Every implementation is best effort: delivery problems are logged and never
// returned to the caller.
package notifications

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/models"
	"github.com/atlvibes/atl-vibes-views/internal/pkg/config"
)

const (
	ProviderWebhook = "webhook"
	ProviderResend  = "resend"
)

// Notifier delivers a single notification. Implementations must not block beyond
// their own network call and must never panic on delivery failure.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// New picks the configured delivery channel. An unusable resend configuration falls
// back to the webhook relay.
func New(cfg config.NotificationConfig, logger *zap.Logger) Notifier {
	switch strings.ToLower(cfg.Provider) {
	case ProviderResend:
		if cfg.ResendAPIKey != "" {
			return NewResendNotifier(cfg.ResendAPIKey, cfg.FromAddress, logger)
		}
		logger.Warn("RESEND_API_KEY not set, falling back to webhook notifications")
	case ProviderWebhook, "":
	default:
		logger.Warn("Unknown notification provider, using webhook", zap.String("provider", cfg.Provider))
	}
	return NewWebhookNotifier(cfg.WebhookURL, cfg.MaxRetries, cfg.Timeout, logger)
}
