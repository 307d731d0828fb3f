// Package di provides dependency injection configuration for the hive server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/hiveapp/hive-server/internal/auth"
	"github.com/hiveapp/hive-server/internal/config"
	"github.com/hiveapp/hive-server/internal/di/providers"
	"github.com/hiveapp/hive-server/internal/media/images"
	"github.com/hiveapp/hive-server/internal/service"
	"github.com/hiveapp/hive-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideAdmissionLimiter)

	// Metadata layer
	do.Provide(injector, providers.ProvideTMDBClient)
	do.Provide(injector, providers.ProvidePlaceholderGenerator)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideTitleStore)
	do.Provide(injector, providers.ProvideSeasonReconciler)
	do.Provide(injector, providers.ProvideMembershipGuard)
	do.Provide(injector, providers.ProvideAdmissionService)
	do.Provide(injector, providers.ProvideHiveService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.LoggerHandle](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.LimiterHandle](injector)
	_ = do.MustInvoke[*providers.TMDBClientHandle](injector)
	_ = do.MustInvoke[*images.PlaceholderGenerator](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*service.TitleStore](injector)
	_ = do.MustInvoke[*service.SeasonReconciler](injector)
	_ = do.MustInvoke[*service.MembershipGuard](injector)
	_ = do.MustInvoke[*service.AdmissionService](injector)
	_ = do.MustInvoke[*service.HiveService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
