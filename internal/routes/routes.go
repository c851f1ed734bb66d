package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/domain/checkout"
	"github.com/atlvibes/atl-vibes-views/internal/app/domain/listings"
	"github.com/atlvibes/atl-vibes-views/internal/app/domain/notifications"
	"github.com/atlvibes/atl-vibes-views/internal/app/domain/pricing"
	"github.com/atlvibes/atl-vibes-views/internal/app/domain/submissions"
	"github.com/atlvibes/atl-vibes-views/internal/app/domain/webhooks"
	stripeprovider "github.com/atlvibes/atl-vibes-views/internal/app/services/stripe"
	database "github.com/atlvibes/atl-vibes-views/internal/db"
	"github.com/atlvibes/atl-vibes-views/internal/pkg/background"
	"github.com/atlvibes/atl-vibes-views/internal/pkg/config"
)

// Dependencies are the process-level resources handlers are built from. Writer uses
// service-role credentials; Reader is the anonymous role and may be nil.
type Dependencies struct {
	Config   *config.Config
	Writer   database.DBTX
	Reader   database.DBTX
	Prices   *pricing.Table
	Runner   *background.Runner
	Notifier notifications.Notifier
	Payments *stripeprovider.StripeProvider
}

type AppHandlers struct {
	Submissions *submissions.Handler
	Checkout    *checkout.Handler
	Webhooks    *webhooks.Handler
}

func Setup(r *gin.Engine, deps Dependencies, log *zap.Logger) error {
	handlers, err := setupDependencies(deps, log)
	if err != nil {
		return err
	}
	setupRouter(r, handlers)
	return nil
}

func setupDependencies(deps Dependencies, log *zap.Logger) (*AppHandlers, error) {
	if deps.Config == nil || deps.Writer == nil || deps.Runner == nil {
		return nil, fmt.Errorf("routes: config, writer and runner are required")
	}
	cfg := deps.Config

	prices := deps.Prices
	if prices == nil {
		prices = pricing.LoadDefault()
	}
	payments := deps.Payments
	if payments == nil {
		payments = stripeprovider.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, log)
	}
	if payments.Enabled() {
		if err := prices.Validate(); err != nil {
			return nil, fmt.Errorf("price configuration: %w", err)
		}
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, checkout and webhooks will return 503")
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.New(cfg.Notifications, log)
	}

	// Create repositories
	submissionsRepo := submissions.NewRepository(deps.Writer, deps.Reader, log)
	listingsRepo := listings.NewRepository(deps.Writer, log)
	eventsRepo := webhooks.NewEventRepository(deps.Writer, log)

	// Create services
	submissionsService := submissions.NewService(submissionsRepo, notifier, deps.Runner, cfg.Notifications.AdminEmail, log)
	checkoutService := checkout.NewService(payments, submissionsRepo, prices, cfg.Server.PublicBaseURL, log)
	processor := webhooks.NewProcessor(payments, submissionsRepo, listingsRepo, eventsRepo, log)

	return &AppHandlers{
		Submissions: submissions.NewHandler(submissionsService, log),
		Checkout:    checkout.NewHandler(checkoutService, log),
		Webhooks:    webhooks.NewHandler(processor, log),
	}, nil
}

func setupRouter(r *gin.Engine, h *AppHandlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	preflight := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	r.POST("/submissions", h.Submissions.CreateSubmission)
	r.OPTIONS("/submissions", preflight)

	checkoutGroup := r.Group("/checkout-sessions")
	{
		checkoutGroup.POST("", h.Checkout.CreateCheckoutSession)
		checkoutGroup.OPTIONS("", preflight)
		checkoutGroup.GET("/:session_id/submission", h.Submissions.GetSubmissionBySession)
	}

	r.POST("/webhooks/payment", h.Webhooks.HandlePaymentWebhook)
}
