package service

import (
	"context"

	"github.com/hiveapp/hive-server/internal/domain"
	"github.com/hiveapp/hive-server/internal/metadata/tmdb"
)

//go:generate mockgen -destination=mock_ports_test.go -package=service . TitleGateway,PlaceholderGenerator

// TitleGateway looks titles up in the external catalog.
// Implemented by *tmdb.Client.
type TitleGateway interface {
	LookupTitle(ctx context.Context, externalID int64, kind domain.MediaKind) (*tmdb.Record, error)
	LookupSeasons(ctx context.Context, externalID int64) ([]domain.SourceSeason, error)
}

// PlaceholderGenerator turns a poster path into a blur placeholder.
// Implemented by *images.PlaceholderGenerator.
type PlaceholderGenerator interface {
	Generate(ctx context.Context, posterPath string) (string, error)
}

// TitleRepository persists titles.
type TitleRepository interface {
	GetTitle(ctx context.Context, id string) (*domain.Title, error)
	GetTitleByKey(ctx context.Context, key domain.TitleKey) (*domain.Title, error)
	InsertTitleOrGet(ctx context.Context, t *domain.Title) (*domain.Title, bool, error)
	UpdateTitleAttributes(ctx context.Context, t *domain.Title) error
}

// SeasonRepository persists seasons.
type SeasonRepository interface {
	ListSeasons(ctx context.Context, titleID string) ([]domain.Season, error)
	// ApplySeasonChanges returns the inserts that were actually written.
	ApplySeasonChanges(ctx context.Context, titleID string, inserts, updates []domain.Season) ([]domain.Season, error)
}

// HiveRepository persists hive entries.
type HiveRepository interface {
	InsertHiveEntry(ctx context.Context, e *domain.HiveEntry) error
	GetHiveEntry(ctx context.Context, userID, titleID string) (*domain.HiveEntry, error)
	HiveEntryExists(ctx context.Context, userID, titleID string) (bool, error)
	ListHiveItems(ctx context.Context, userID string) ([]domain.HiveItem, error)
	DeleteHiveEntry(ctx context.Context, userID, titleID string) error
}
