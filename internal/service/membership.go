package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hiveapp/hive-server/internal/domain"
	domainerrors "github.com/hiveapp/hive-server/internal/errors"
	"github.com/hiveapp/hive-server/internal/id"
	"github.com/hiveapp/hive-server/internal/store"
	"github.com/hiveapp/hive-server/internal/validation"
)

// HiveForm is what a user submits about their progress with a title.
// Which fields count depends on Status and the title's media kind.
type HiveForm struct {
	Status                string     `json:"status" validate:"required,watch_status"`
	CurrentSeason         int        `json:"current_season,omitempty" validate:"gte=0"`
	CurrentEpisode        int        `json:"current_episode,omitempty" validate:"gte=0"`
	CurrentRuntimeMinutes int        `json:"current_runtime_minutes,omitempty" validate:"gte=0"`
	StartedAt             *time.Time `json:"started_at,omitempty"`
	FinishedAt            *time.Time `json:"finished_at,omitempty"`
	Rating                int        `json:"rating,omitempty" validate:"gte=0,lte=10"`
	IsFavorite            bool       `json:"is_favorite,omitempty"`
}

func (f HiveForm) fields() domain.ProgressFields {
	return domain.ProgressFields{
		Status:                domain.WatchStatus(f.Status),
		CurrentSeason:         f.CurrentSeason,
		CurrentEpisode:        f.CurrentEpisode,
		CurrentRuntimeMinutes: f.CurrentRuntimeMinutes,
		StartedAt:             f.StartedAt,
		FinishedAt:            f.FinishedAt,
		Rating:                f.Rating,
	}
}

// MembershipGuard enforces one hive entry per user and title and validates
// progress before an entry is admitted.
type MembershipGuard struct {
	entries   HiveRepository
	seasons   SeasonRepository
	validator *validation.Validator
	now       func() time.Time
	logger    *slog.Logger
}

// NewMembershipGuard creates a new membership guard.
func NewMembershipGuard(entries HiveRepository, seasons SeasonRepository, validator *validation.Validator, logger *slog.Logger) *MembershipGuard {
	return &MembershipGuard{
		entries:   entries,
		seasons:   seasons,
		validator: validator,
		now:       time.Now,
		logger:    logger,
	}
}

// CheckNotMember returns ALREADY_MEMBER when the user already tracks the title.
func (g *MembershipGuard) CheckNotMember(ctx context.Context, userID, titleID string) error {
	exists, err := g.entries.HiveEntryExists(ctx, userID, titleID)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to check hive membership")
	}
	if exists {
		return domainerrors.AlreadyMember()
	}
	return nil
}

// ValidateForm checks the form against the title and returns the progress it
// describes. Malformed input yields VALIDATION; a position the title does not
// have yields INVALID_PROGRESS.
func (g *MembershipGuard) ValidateForm(ctx context.Context, title *domain.Title, form HiveForm) (domain.Progress, error) {
	if err := g.validator.Validate(form); err != nil {
		return nil, err
	}

	if form.StartedAt != nil && form.FinishedAt != nil && form.FinishedAt.Before(*form.StartedAt) {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"finished_at": "must not be before started_at",
		})
	}

	progress, err := domain.BuildProgress(form.fields(), title.MediaKind)
	if err != nil {
		return nil, domainerrors.Validationf("invalid progress: %v", err)
	}

	pos, tracked := domain.PositionOf(progress)
	if !tracked {
		return progress, nil
	}

	if title.IsSeries() {
		if err := g.checkEpisode(ctx, title, pos); err != nil {
			return nil, err
		}
	} else if title.RuntimeMinutes > 0 && pos.RuntimeMinutes > title.RuntimeMinutes {
		return nil, domainerrors.InvalidProgress(
			fmt.Sprintf("%s runs for %d minutes", title.Name, title.RuntimeMinutes),
			map[string]string{"current_runtime_minutes": "must not exceed " + strconv.Itoa(title.RuntimeMinutes)},
		)
	}

	return progress, nil
}

// checkEpisode verifies a series position against the stored seasons.
// Statuses that track a position must name an existing season and episode.
// Titles without any stored seasons cannot be checked; there a complete
// position or none at all is accepted.
func (g *MembershipGuard) checkEpisode(ctx context.Context, title *domain.Title, pos domain.Position) error {
	seasons, err := g.seasons.ListSeasons(ctx, title.ID)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load seasons")
	}

	if len(seasons) == 0 && pos.Season == 0 && pos.Episode == 0 {
		return nil
	}
	if pos.Season < 1 {
		return domainerrors.InvalidProgress("a season and episode are required",
			map[string]string{"current_season": "must be at least 1"})
	}
	if pos.Episode < 1 {
		return domainerrors.InvalidProgress("a season and episode are required",
			map[string]string{"current_episode": "must be at least 1"})
	}
	if len(seasons) == 0 {
		g.logger.Debug("no stored seasons, accepting position unchecked",
			"title_id", title.ID,
			"season", pos.Season,
			"episode", pos.Episode,
		)
		return nil
	}

	season, ok := domain.FindSeason(seasons, pos.Season)
	if !ok {
		return domainerrors.InvalidProgress(
			fmt.Sprintf("%s has no season %d", title.Name, pos.Season),
			map[string]string{"current_season": "does not exist"},
		)
	}
	if pos.Episode > season.EpisodeCount {
		return domainerrors.InvalidProgress(
			fmt.Sprintf("season %d of %s has %d episodes", pos.Season, title.Name, season.EpisodeCount),
			map[string]string{"current_episode": "must not exceed " + strconv.Itoa(season.EpisodeCount)},
		)
	}
	return nil
}

// Admit stores a new hive entry. A concurrent admission of the same pair
// surfaces as ALREADY_MEMBER.
func (g *MembershipGuard) Admit(ctx context.Context, userID string, title *domain.Title, progress domain.Progress, favorite bool) (*domain.HiveEntry, error) {
	entryID, err := id.Generate(id.PrefixEntry)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate entry id")
	}

	entry := &domain.HiveEntry{
		ID:         entryID,
		UserID:     userID,
		TitleID:    title.ID,
		Progress:   progress,
		IsFavorite: favorite,
	}
	entry.InitTimestamps(g.now())

	if err := g.entries.InsertHiveEntry(ctx, entry); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyMember()
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to store hive entry")
	}

	g.logger.Info("hive entry admitted",
		"entry_id", entry.ID,
		"user_id", userID,
		"title_id", title.ID,
		"status", progress.Status(),
	)
	return entry, nil
}
