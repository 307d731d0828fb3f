package providers

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/do/v2"

	"github.com/hiveapp/hive-server/internal/config"
	"github.com/hiveapp/hive-server/internal/ratelimit"
	"github.com/hiveapp/hive-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the title database and applies migrations.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// LimiterHandle owns the admission limiter and whatever backs it.
type LimiterHandle struct {
	ratelimit.Limiter
	close func() error
}

// Shutdown implements do.Shutdownable.
func (h *LimiterHandle) Shutdown() error {
	return h.close()
}

// ProvideAdmissionLimiter provides the per-user admission limiter. The
// badger backend keeps counters on disk so restarts do not reset budgets.
func ProvideAdmissionLimiter(i do.Injector) (*LimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	limit, window := cfg.Admission.Limit, cfg.Admission.Window

	if cfg.Admission.Backend != config.LimiterBadger {
		limiter := ratelimit.NewWindow(limit, window)
		log.Info("Admission limiter ready", "backend", config.LimiterMemory, "limit", limit, "window", window)
		return &LimiterHandle{
			Limiter: limiter,
			close: func() error {
				limiter.Stop()
				return nil
			},
		}, nil
	}

	opts := badger.DefaultOptions(cfg.Admission.BadgerPath).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open limiter database: %w", err)
	}

	log.Info("Admission limiter ready",
		"backend", config.LimiterBadger,
		"path", cfg.Admission.BadgerPath,
		"limit", limit,
		"window", window,
	)
	return &LimiterHandle{
		Limiter: ratelimit.NewBadgerWindow(db, limit, window),
		close:   db.Close,
	}, nil
}
