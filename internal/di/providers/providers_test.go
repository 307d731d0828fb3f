package providers

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveapp/hive-server/internal/auth"
	"github.com/hiveapp/hive-server/internal/config"
	"github.com/hiveapp/hive-server/internal/logger"
	"github.com/hiveapp/hive-server/internal/service"
)

func testInjector(t *testing.T, mutate func(*config.Config)) *do.RootScope {
	t.Helper()

	dataDir := t.TempDir()
	cfg := &config.Config{
		App:    config.AppConfig{Environment: "development"},
		Logger: config.LoggerConfig{Level: "error"},
		Data:   config.DataConfig{BasePath: dataDir},
		TMDB:   config.TMDBConfig{APIKey: "key", Timeout: time.Second},
		Sync:   config.SyncConfig{StaleAfter: time.Hour},
		Admission: config.AdmissionConfig{
			Limit:      2,
			Window:     time.Minute,
			Backend:    config.LimiterMemory,
			BadgerPath: filepath.Join(dataDir, "ratelimit"),
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, &LoggerHandle{Logger: logger.New(logger.Config{Writer: &bytes.Buffer{}})})
	do.Provide(injector, ProvideAuthKey)
	do.Provide(injector, ProvideTokenService)
	do.Provide(injector, ProvideStore)
	do.Provide(injector, ProvideAdmissionLimiter)
	do.Provide(injector, ProvideTMDBClient)
	do.Provide(injector, ProvidePlaceholderGenerator)
	do.Provide(injector, ProvideValidator)
	do.Provide(injector, ProvideTitleStore)
	do.Provide(injector, ProvideSeasonReconciler)
	do.Provide(injector, ProvideMembershipGuard)
	do.Provide(injector, ProvideAdmissionService)
	do.Provide(injector, ProvideHiveService)

	t.Cleanup(func() { injector.Shutdown() })
	return injector
}

func TestProvideAdmissionLimiter_Backends(t *testing.T) {
	for _, backend := range []string{config.LimiterMemory, config.LimiterBadger} {
		t.Run(backend, func(t *testing.T) {
			injector := testInjector(t, func(c *config.Config) { c.Admission.Backend = backend })

			limiter, err := do.Invoke[*LimiterHandle](injector)
			require.NoError(t, err)

			ctx := context.Background()
			for range 2 {
				d, err := limiter.CheckAndConsume(ctx, "admit:user-1")
				require.NoError(t, err)
				assert.True(t, d.Allowed)
			}
			d, err := limiter.CheckAndConsume(ctx, "admit:user-1")
			require.NoError(t, err)
			assert.False(t, d.Allowed)
			assert.Positive(t, d.RetryAfter)
		})
	}
}

func TestProvideAuthKey(t *testing.T) {
	t.Run("generated into data directory", func(t *testing.T) {
		injector := testInjector(t, nil)

		key, err := do.Invoke[AuthKey](injector)
		require.NoError(t, err)
		assert.Len(t, string(key), 64)

		tokens, err := do.Invoke[*auth.TokenService](injector)
		require.NoError(t, err)
		token, err := tokens.GenerateAccessToken("user-1", time.Minute)
		require.NoError(t, err)
		claims, err := tokens.VerifyAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Principal())
	})

	t.Run("configured key wins", func(t *testing.T) {
		const configured = "707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f"
		injector := testInjector(t, func(c *config.Config) { c.Auth.AccessTokenKey = configured })

		key, err := do.Invoke[AuthKey](injector)
		require.NoError(t, err)
		assert.Equal(t, AuthKey(configured), key)
	})
}

func TestServiceGraphResolves(t *testing.T) {
	injector := testInjector(t, nil)

	admission, err := do.Invoke[*service.AdmissionService](injector)
	require.NoError(t, err)
	assert.NotNil(t, admission)

	hive, err := do.Invoke[*service.HiveService](injector)
	require.NoError(t, err)

	items, err := hive.ListEntries(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	cfg := do.MustInvoke[*config.Config](injector)
	assert.FileExists(t, cfg.Data.DatabasePath())
}
