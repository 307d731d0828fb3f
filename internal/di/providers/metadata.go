package providers

import (
	"github.com/samber/do/v2"

	"github.com/hiveapp/hive-server/internal/config"
	"github.com/hiveapp/hive-server/internal/media/images"
	"github.com/hiveapp/hive-server/internal/metadata/tmdb"
)

// TMDBClientHandle wraps the TMDB client with shutdown capability.
type TMDBClientHandle struct {
	*tmdb.Client
}

// Shutdown implements do.Shutdownable.
func (h *TMDBClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideTMDBClient provides the catalog client.
func ProvideTMDBClient(i do.Injector) (*TMDBClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	client := tmdb.New(tmdb.Config{
		BaseURL:         cfg.TMDB.BaseURL,
		APIKey:          cfg.TMDB.APIKey,
		Timeout:         cfg.TMDB.Timeout,
		RPS:             cfg.TMDB.RPS,
		Burst:           cfg.TMDB.Burst,
		BreakerFailures: uint32(max(cfg.TMDB.BreakerFailures, 0)), //nolint:gosec // clamped to non-negative
		BreakerTimeout:  cfg.TMDB.BreakerTimeout,
		NegativeTTL:     cfg.TMDB.NegativeTTL,
	}, log.Logger.Logger.With("component", "tmdb"))

	log.Info("TMDB client initialized", "rps", cfg.TMDB.RPS, "timeout", cfg.TMDB.Timeout)

	return &TMDBClientHandle{Client: client}, nil
}

// ProvidePlaceholderGenerator provides the poster BlurHash generator.
func ProvidePlaceholderGenerator(i do.Injector) (*images.PlaceholderGenerator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return images.NewPlaceholderGenerator(cfg.TMDB.ImageBaseURL, cfg.TMDB.Timeout, log.Logger.Logger), nil
}
