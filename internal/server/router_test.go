package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/domain/pricing"
	stripeprovider "github.com/atlvibes/atl-vibes-views/internal/app/services/stripe"
	"github.com/atlvibes/atl-vibes-views/internal/pkg/background"
	"github.com/atlvibes/atl-vibes-views/internal/pkg/config"
	"github.com/atlvibes/atl-vibes-views/internal/routes"
)

func testDeps(t *testing.T, env string) routes.Dependencies {
	t.Helper()
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return routes.Dependencies{
		Config: &config.Config{
			Server: config.ServerConfig{Env: env},
			CORS:   config.CORSConfig{AllowedOrigins: []string{"https://atlvibesandviews.com"}},
		},
		Writer:   db,
		Prices:   pricing.NewTable(nil),
		Runner:   background.NewRunner(zap.NewNop(), time.Second),
		Payments: stripeprovider.NewStripeProvider("", "", zap.NewNop()),
	}
}

func preflight(r http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/submissions", nil)
	req.Header.Set("Origin", origin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetupRouter_CORSByEnvironment(t *testing.T) {
	dev, err := SetupRouter(testDeps(t, "development"), zap.NewNop())
	require.NoError(t, err)
	prod, err := SetupRouter(testDeps(t, config.EnvProduction), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", preflight(dev, "http://localhost:3000").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, preflight(prod, "http://localhost:3000").Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "https://atlvibesandviews.com",
		preflight(prod, "https://atlvibesandviews.com").Header().Get("Access-Control-Allow-Origin"))
}

func TestSetupRouter_Healthz(t *testing.T) {
	r, err := SetupRouter(testDeps(t, "development"), zap.NewNop())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
