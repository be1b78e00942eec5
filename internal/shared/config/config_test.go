package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	require.NoError(t, Init())
	require.NotNil(t, GlobalConfig)

	assert.Equal(t, "8080", GlobalConfig.Server.Port)
	assert.Equal(t, "development", GlobalConfig.Server.Environment)
	assert.Equal(t, "intel", GlobalConfig.Database.Name)
	assert.Equal(t, "migrations", GlobalConfig.Database.MigrationsPath)

	feeds := GlobalConfig.Feeds
	assert.Equal(t, "https://s256-us.ogame.gameforge.com/api", feeds.GameAPIBaseURL)
	assert.Equal(t, "https://ptre.chez.gg/scripts", feeds.IntelBaseURL)
	assert.Equal(t, "https://ogapi.faw-kes.de/v1", feeds.ReportAPIBaseURL)
	assert.Equal(t, "256", feeds.Universe)
	assert.Equal(t, "us", feeds.Country)
	assert.Equal(t, 10*time.Second, feeds.FetchTimeout)
	assert.Equal(t, 2.0, feeds.RequestsPerSecond)
}

func TestGameAPIBaseURLFollowsUniverse(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("FEED_UNIVERSE", "128")
	t.Setenv("FEED_COUNTRY", "de")

	require.NoError(t, Init())

	assert.Equal(t, "https://s128-de.ogame.gameforge.com/api", GlobalConfig.Feeds.GameAPIBaseURL)
}

func TestInitRejectsMissingOrShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.Error(t, Init())

	t.Setenv("JWT_SECRET", "too-short")
	assert.Error(t, Init())
}

func TestConnectionString(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "intel_test")

	require.NoError(t, Init())

	assert.Equal(t,
		"host=db.internal port=5432 user=postgres password=postgres dbname=intel_test sslmode=disable",
		GlobalConfig.ConnectionString(),
	)
}
