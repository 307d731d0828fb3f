package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hiveapp/hive-server/internal/domain"
	domainerrors "github.com/hiveapp/hive-server/internal/errors"
	"github.com/hiveapp/hive-server/internal/id"
	"github.com/hiveapp/hive-server/internal/metadata/tmdb"
	"github.com/hiveapp/hive-server/internal/metrics"
	"github.com/hiveapp/hive-server/internal/normalize"
	"github.com/hiveapp/hive-server/internal/store"
)

// DefaultStaleAfter is how old a title may get before it is refreshed from the catalog.
const DefaultStaleAfter = 24 * time.Hour

// errUnusableRecord marks a catalog answer that cannot become a title.
var errUnusableRecord = errors.New("catalog record has no name")

// TitleStore owns the canonical title records: creation from the catalog and
// staleness-based refresh.
type TitleStore struct {
	repo         TitleRepository
	gateway      TitleGateway
	placeholders PlaceholderGenerator
	staleAfter   time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewTitleStore creates a new title store. placeholders may be nil, in which
// case titles are stored without a blur placeholder.
func NewTitleStore(repo TitleRepository, gateway TitleGateway, placeholders PlaceholderGenerator, staleAfter time.Duration, logger *slog.Logger) *TitleStore {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &TitleStore{
		repo:         repo,
		gateway:      gateway,
		placeholders: placeholders,
		staleAfter:   staleAfter,
		now:          time.Now,
		logger:       logger,
	}
}

// ResolveOrCreate returns the title for key, creating it from the catalog when
// it is not stored yet. The bool reports whether this call created it.
// Catalog failures, timeouts and unusable records yield METADATA_UNAVAILABLE
// and nothing is written.
func (s *TitleStore) ResolveOrCreate(ctx context.Context, key domain.TitleKey) (*domain.Title, bool, error) {
	existing, err := s.repo.GetTitleByKey(ctx, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to look up title")
	}

	rec, err := s.gateway.LookupTitle(ctx, key.ExternalID, key.MediaKind)
	if err != nil {
		s.logger.Warn("catalog lookup failed", "key", key.String(), "error", err)
		return nil, false, domainerrors.MetadataUnavailable(err)
	}

	attrs, err := mapRecord(key.MediaKind, rec)
	if err != nil {
		s.logger.Warn("catalog record unusable", "key", key.String(), "error", err)
		return nil, false, domainerrors.MetadataUnavailable(err)
	}
	attrs.PosterBlurPlaceholder = s.placeholder(ctx, attrs.PosterPath)

	titleID, err := id.Generate(id.PrefixTitle)
	if err != nil {
		return nil, false, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate title id")
	}

	title := &domain.Title{
		ID:         titleID,
		ExternalID: key.ExternalID,
		MediaKind:  key.MediaKind,
	}
	title.InitTimestamps(s.now())
	title.Apply(attrs)

	stored, created, err := s.repo.InsertTitleOrGet(ctx, title)
	if err != nil {
		return nil, false, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to store title")
	}

	if created {
		metrics.TitlesCreated.WithLabelValues(string(key.MediaKind)).Inc()
		s.logger.Info("title created",
			"title_id", stored.ID,
			"key", key.String(),
			"name", stored.Name,
		)
	}
	return stored, created, nil
}

// RefreshIfStale re-fetches a title whose record is older than the staleness
// threshold and rewrites its catalog attributes. It never fails: when the
// refresh cannot complete, the record passed in is returned unchanged.
// A fresh title is returned as-is without contacting the catalog.
func (s *TitleStore) RefreshIfStale(ctx context.Context, title *domain.Title) *domain.Title {
	now := s.now()
	if !title.IsStale(now, s.staleAfter) {
		return title
	}

	rec, err := s.gateway.LookupTitle(ctx, title.ExternalID, title.MediaKind)
	if err != nil {
		s.refreshFailed(title, "catalog lookup failed", err)
		return title
	}

	attrs, err := mapRecord(title.MediaKind, rec)
	if err != nil {
		s.refreshFailed(title, "catalog record unusable", err)
		return title
	}

	if attrs.PosterPath == title.PosterPath {
		attrs.PosterBlurPlaceholder = title.PosterBlurPlaceholder
	} else {
		attrs.PosterBlurPlaceholder = s.placeholder(ctx, attrs.PosterPath)
	}

	refreshed := *title
	refreshed.Apply(attrs)
	refreshed.Touch(now)

	if err := s.repo.UpdateTitleAttributes(ctx, &refreshed); err != nil {
		s.refreshFailed(title, "failed to store refreshed title", err)
		return title
	}

	metrics.TitleRefreshes.WithLabelValues("updated").Inc()
	s.logger.Debug("title refreshed", "title_id", title.ID, "key", title.Key().String())
	return &refreshed
}

// GetTitle returns a stored title by id.
func (s *TitleStore) GetTitle(ctx context.Context, titleID string) (*domain.Title, error) {
	title, err := s.repo.GetTitle(ctx, titleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("title %s not found", titleID)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load title")
	}
	return title, nil
}

func (s *TitleStore) refreshFailed(title *domain.Title, msg string, err error) {
	metrics.TitleRefreshes.WithLabelValues("failed").Inc()
	s.logger.Warn(msg+", keeping stale record",
		"title_id", title.ID,
		"key", title.Key().String(),
		"error", err,
	)
}

// placeholder computes the poster blur placeholder. Failures leave it empty.
func (s *TitleStore) placeholder(ctx context.Context, posterPath string) string {
	if s.placeholders == nil || posterPath == "" {
		return ""
	}
	hash, err := s.placeholders.Generate(ctx, posterPath)
	if err != nil {
		s.logger.Warn("poster placeholder failed", "poster", posterPath, "error", err)
		return ""
	}
	return hash
}

// mapRecord converts a catalog record to title attributes. Movies take their
// name and date from title/release_date, series from name/first_air_date.
func mapRecord(kind domain.MediaKind, rec *tmdb.Record) (domain.TitleAttributes, error) {
	if rec == nil {
		return domain.TitleAttributes{}, errUnusableRecord
	}

	var rawName, rawDate string
	var runtime int
	switch kind {
	case domain.MediaKindMovie:
		rawName, rawDate, runtime = rec.Title, rec.ReleaseDate, rec.Runtime
	case domain.MediaKindSeries:
		rawName, rawDate = rec.Name, rec.FirstAirDate
	default:
		return domain.TitleAttributes{}, fmt.Errorf("unknown media kind %q", kind)
	}

	name := normalize.Name(rawName)
	if name == "" {
		return domain.TitleAttributes{}, errUnusableRecord
	}

	attrs := domain.TitleAttributes{
		Name:           name,
		Description:    normalize.Text(rec.Overview),
		ReleaseDate:    tmdb.ParseDate(rawDate),
		PosterPath:     rec.PosterPath,
		RuntimeMinutes: max(runtime, 0),
		GenreIDs:       rec.GenreIDs,
	}

	year := 0
	if attrs.ReleaseDate != nil {
		year = attrs.ReleaseDate.Year()
	}
	attrs.Slug = normalize.Slug(name, year)

	if rec.VoteAverage != 0 {
		attrs.PublicRating = rec.VoteAverage
	}
	if rec.IMDbID != "" {
		imdb := rec.IMDbID
		attrs.ExternalSecondaryID = &imdb
	}
	return attrs, nil
}
