package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hiveapp/hive-server/internal/domain"
	"github.com/hiveapp/hive-server/internal/id"
	"github.com/hiveapp/hive-server/internal/metrics"
)

// ReconcileResult lists the season rows a reconciliation wrote. Planned
// inserts lost to a concurrent reconciliation are not included.
type ReconcileResult struct {
	Inserted []domain.Season `json:"inserted"`
	Updated  []domain.Season `json:"updated"`
}

// SeasonReconciler brings a series' stored seasons in line with the catalog.
// It only adds and corrects seasons; it never removes one.
type SeasonReconciler struct {
	repo    SeasonRepository
	gateway TitleGateway
	now     func() time.Time
	logger  *slog.Logger
}

// NewSeasonReconciler creates a new season reconciler.
func NewSeasonReconciler(repo SeasonRepository, gateway TitleGateway, logger *slog.Logger) *SeasonReconciler {
	return &SeasonReconciler{
		repo:    repo,
		gateway: gateway,
		now:     time.Now,
		logger:  logger,
	}
}

// Sync fetches the catalog's season list for a series and reconciles it.
// Movies are skipped.
func (r *SeasonReconciler) Sync(ctx context.Context, title *domain.Title) (*ReconcileResult, error) {
	if !title.IsSeries() {
		return &ReconcileResult{}, nil
	}

	source, err := r.gateway.LookupSeasons(ctx, title.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("lookup seasons: %w", err)
	}
	return r.Reconcile(ctx, title, source)
}

// Reconcile diffs source against the stored seasons of title and writes the
// difference as one batch of inserts and one batch of updates.
func (r *SeasonReconciler) Reconcile(ctx context.Context, title *domain.Title, source []domain.SourceSeason) (*ReconcileResult, error) {
	if !title.IsSeries() {
		return &ReconcileResult{}, nil
	}

	local, err := r.repo.ListSeasons(ctx, title.ID)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}

	inserts, updates, err := PlanSeasonChanges(title.ID, local, FilterSourceSeasons(source), r.now())
	if err != nil {
		return nil, err
	}
	if len(inserts) == 0 && len(updates) == 0 {
		return &ReconcileResult{}, nil
	}

	inserted, err := r.repo.ApplySeasonChanges(ctx, title.ID, inserts, updates)
	if err != nil {
		return nil, fmt.Errorf("apply season changes: %w", err)
	}
	if skipped := len(inserts) - len(inserted); skipped > 0 {
		r.logger.Debug("season inserts already applied concurrently",
			"title_id", title.ID,
			"skipped", skipped,
		)
	}

	metrics.SeasonChanges.WithLabelValues("insert").Add(float64(len(inserted)))
	metrics.SeasonChanges.WithLabelValues("update").Add(float64(len(updates)))
	r.logger.Info("seasons reconciled",
		"title_id", title.ID,
		"inserted", len(inserted),
		"updated", len(updates),
	)

	return &ReconcileResult{Inserted: inserted, Updated: updates}, nil
}

// FilterSourceSeasons drops specials (season 0), seasons without an air date
// and seasons without episodes. When a season number repeats, the first wins.
func FilterSourceSeasons(source []domain.SourceSeason) []domain.SourceSeason {
	seen := make(map[int]struct{}, len(source))
	out := make([]domain.SourceSeason, 0, len(source))
	for _, s := range source {
		if !s.Reconcilable() {
			continue
		}
		if _, dup := seen[s.SeasonNumber]; dup {
			continue
		}
		seen[s.SeasonNumber] = struct{}{}
		out = append(out, s)
	}
	return out
}

// PlanSeasonChanges compares filtered source seasons with the stored ones by
// season number. Missing seasons become inserts; seasons whose episode count
// changed become updates carrying the new count and air date. Stored seasons
// absent from source are left alone.
func PlanSeasonChanges(titleID string, local []domain.Season, source []domain.SourceSeason, now time.Time) (inserts, updates []domain.Season, err error) {
	for _, src := range source {
		existing, ok := domain.FindSeason(local, src.SeasonNumber)
		if !ok {
			seasonID, err := id.Generate(id.PrefixSeason)
			if err != nil {
				return nil, nil, fmt.Errorf("generate season id: %w", err)
			}
			season := domain.Season{
				ID:           seasonID,
				TitleID:      titleID,
				SeasonNumber: src.SeasonNumber,
				EpisodeCount: src.EpisodeCount,
				AirDate:      src.AirDate,
			}
			season.InitTimestamps(now)
			inserts = append(inserts, season)
			continue
		}

		if existing.EpisodeCount != src.EpisodeCount {
			existing.EpisodeCount = src.EpisodeCount
			existing.AirDate = src.AirDate
			existing.Touch(now)
			updates = append(updates, existing)
		}
	}
	return inserts, updates, nil
}
