package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hiveapp/hive-server/internal/domain"
	domainerrors "github.com/hiveapp/hive-server/internal/errors"
	"github.com/hiveapp/hive-server/internal/genre"
	"github.com/hiveapp/hive-server/internal/store"
)

// HiveService reads and removes hive entries.
type HiveService struct {
	entries HiveRepository
	titles  TitleRepository
	seasons SeasonRepository
	logger  *slog.Logger
}

// NewHiveService creates a new hive service.
func NewHiveService(entries HiveRepository, titles TitleRepository, seasons SeasonRepository, logger *slog.Logger) *HiveService {
	return &HiveService{
		entries: entries,
		titles:  titles,
		seasons: seasons,
		logger:  logger,
	}
}

// HiveItem is a hive entry together with the title it tracks.
type HiveItem = domain.HiveItem

// TitleDetail is a title with its seasons and genre names resolved.
type TitleDetail struct {
	Title   *domain.Title   `json:"title"`
	Genres  []string        `json:"genres"`
	Seasons []domain.Season `json:"seasons"`
}

// ListEntries returns the user's hive, most recently updated first.
func (s *HiveService) ListEntries(ctx context.Context, userID string) ([]HiveItem, error) {
	items, err := s.entries.ListHiveItems(ctx, userID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list hive")
	}
	if items == nil {
		items = []HiveItem{}
	}
	return items, nil
}

// RemoveEntry deletes the user's entry for a title. The title stays stored.
func (s *HiveService) RemoveEntry(ctx context.Context, userID, titleID string) error {
	err := s.entries.DeleteHiveEntry(ctx, userID, titleID)
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("title %s is not in your hive", titleID)
	}
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to remove hive entry")
	}

	s.logger.Info("hive entry removed", "user_id", userID, "title_id", titleID)
	return nil
}

// GetTitleDetail returns a stored title with its seasons.
func (s *HiveService) GetTitleDetail(ctx context.Context, titleID string) (*TitleDetail, error) {
	title, err := s.titles.GetTitle(ctx, titleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("title %s not found", titleID)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load title")
	}

	detail := &TitleDetail{
		Title:   title,
		Genres:  genre.Names(title.GenreIDs),
		Seasons: []domain.Season{},
	}
	if title.IsSeries() {
		seasons, err := s.seasons.ListSeasons(ctx, title.ID)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load seasons")
		}
		if seasons != nil {
			detail.Seasons = seasons
		}
	}
	return detail, nil
}
