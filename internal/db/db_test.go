package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Repositories: config.RepositoriesConfig{
			Postgres: config.PostgresConfig{
				Host:        "db.internal",
				Port:        "5432",
				DB:          "atl_vibes",
				SSLMode:     "require",
				ServiceRole: config.DBRole{Username: "service_role", Password: "s3cr3t"},
			},
		},
	}
}

func TestNewDatabaseConfig(t *testing.T) {
	dbCfg, err := NewDatabaseConfig(testConfig(), zap.NewNop())
	require.NoError(t, err)

	u, err := url.Parse(dbCfg.ServiceRoleURL)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", u.Scheme)
	assert.Equal(t, "db.internal:5432", u.Host)
	assert.Equal(t, "service_role", u.User.Username())
	assert.Equal(t, "require", u.Query().Get("sslmode"))
	assert.Empty(t, dbCfg.AnonURL)
}

func TestNewDatabaseConfig_AnonRole(t *testing.T) {
	cfg := testConfig()
	cfg.Repositories.Postgres.Anon = config.DBRole{Username: "anon", Password: "public"}

	dbCfg, err := NewDatabaseConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	u, err := url.Parse(dbCfg.AnonURL)
	require.NoError(t, err)
	assert.Equal(t, "anon", u.User.Username())
}

func TestNewDatabaseConfig_Missing(t *testing.T) {
	_, err := NewDatabaseConfig(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewDatabaseConfig(&config.Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}
