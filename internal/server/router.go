package server

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atlvibes/atl-vibes-views/internal/app/middleware"
	"github.com/atlvibes/atl-vibes-views/internal/routes"
)

const serviceName = "atl-vibes-views"

// SetupRouter configures and returns the Gin router with all middleware and routes
func SetupRouter(deps routes.Dependencies, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	allowLocalhost := deps.Config == nil || !deps.Config.IsProduction()
	var allowedOrigins []string
	if deps.Config != nil {
		allowedOrigins = deps.Config.CORS.AllowedOrigins
	}

	r.Use(middleware.RequestIDMiddleware())
	r.Use(ginzap.GinzapWithConfig(logger, &ginzap.Config{
		UTC:        true,
		TimeFormat: time.RFC3339,
		Context:    zapContextFunc(),
		SkipPaths:  []string{"/healthz"},
	}))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(middleware.OTELGinMiddleware(serviceName))
	r.Use(middleware.CORSMiddleware(allowedOrigins, allowLocalhost))
	r.Use(middleware.SecurityMiddleware())

	if err := routes.Setup(r, deps, logger); err != nil {
		return nil, err
	}

	return r, nil
}

// zapContextFunc adds request and trace ids to access logs. Bodies are never logged:
// they carry submitter PII and signed webhook payloads.
func zapContextFunc() ginzap.Fn {
	return func(c *gin.Context) []zapcore.Field {
		fields := []zapcore.Field{}

		if requestID := c.Writer.Header().Get(middleware.RequestIDHeader); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}

		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			fields = append(fields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}

		return fields
	}
}
