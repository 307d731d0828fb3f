package providers

import (
	"github.com/samber/do/v2"

	"github.com/hiveapp/hive-server/internal/config"
	"github.com/hiveapp/hive-server/internal/media/images"
	"github.com/hiveapp/hive-server/internal/service"
	"github.com/hiveapp/hive-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideTitleStore provides the title store.
func ProvideTitleStore(i do.Injector) (*service.TitleStore, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tmdbHandle := do.MustInvoke[*TMDBClientHandle](i)
	placeholders := do.MustInvoke[*images.PlaceholderGenerator](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewTitleStore(storeHandle.Store, tmdbHandle.Client, placeholders, cfg.Sync.StaleAfter, log.Logger.Logger), nil
}

// ProvideSeasonReconciler provides the season reconciler.
func ProvideSeasonReconciler(i do.Injector) (*service.SeasonReconciler, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tmdbHandle := do.MustInvoke[*TMDBClientHandle](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewSeasonReconciler(storeHandle.Store, tmdbHandle.Client, log.Logger.Logger), nil
}

// ProvideMembershipGuard provides the membership guard.
func ProvideMembershipGuard(i do.Injector) (*service.MembershipGuard, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewMembershipGuard(storeHandle.Store, storeHandle.Store, v, log.Logger.Logger), nil
}

// ProvideAdmissionService provides the add-to-hive orchestrator.
func ProvideAdmissionService(i do.Injector) (*service.AdmissionService, error) {
	limiter := do.MustInvoke[*LimiterHandle](i)
	titles := do.MustInvoke[*service.TitleStore](i)
	seasons := do.MustInvoke[*service.SeasonReconciler](i)
	guard := do.MustInvoke[*service.MembershipGuard](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewAdmissionService(limiter.Limiter, titles, seasons, guard, v, log.Logger.Logger), nil
}

// ProvideHiveService provides the hive read/remove service.
func ProvideHiveService(i do.Injector) (*service.HiveService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewHiveService(storeHandle.Store, storeHandle.Store, storeHandle.Store, log.Logger.Logger), nil
}
