package api

import (
	"time"

	"github.com/hiveapp/hive-server/internal/domain"
	domainerrors "github.com/hiveapp/hive-server/internal/errors"
	"github.com/hiveapp/hive-server/internal/service"
)

const dateLayout = "2006-01-02"

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// TitleResponse is a title in API responses.
type TitleResponse struct {
	ID                    string    `json:"id" doc:"Title ID"`
	ExternalID            int64     `json:"external_id" doc:"Catalog ID"`
	MediaKind             string    `json:"media_kind" doc:"MOVIE or SERIES"`
	Name                  string    `json:"name" doc:"Display name"`
	Slug                  string    `json:"slug" doc:"URL slug"`
	Description           string    `json:"description,omitempty" doc:"Synopsis"`
	ReleaseDate           *string   `json:"release_date,omitempty" doc:"First release or air date (YYYY-MM-DD)"`
	PosterPath            string    `json:"poster_path,omitempty" doc:"Catalog poster path"`
	PosterBlurPlaceholder string    `json:"poster_blur_placeholder,omitempty" doc:"BlurHash of the poster"`
	RuntimeMinutes        int       `json:"runtime_minutes,omitempty" doc:"Movie runtime in minutes"`
	PublicRating          float64   `json:"public_rating,omitempty" doc:"Catalog rating, 0 when unrated"`
	GenreIDs              []int     `json:"genre_ids" doc:"Catalog genre IDs"`
	ExternalSecondaryID   *string   `json:"external_secondary_id,omitempty" doc:"Secondary catalog ID such as an IMDb ID"`
	UpdatedAt             time.Time `json:"updated_at" doc:"Last refresh from the catalog"`
}

// SeasonResponse is a season in API responses.
type SeasonResponse struct {
	SeasonNumber int     `json:"season_number" doc:"Season number, starting at 1"`
	EpisodeCount int     `json:"episode_count" doc:"Number of episodes"`
	AirDate      *string `json:"air_date,omitempty" doc:"First air date (YYYY-MM-DD)"`
}

// HiveEntryResponse is a hive entry in API responses. Progress is flattened;
// fields that do not apply to the status are omitted.
type HiveEntryResponse struct {
	ID                    string     `json:"id" doc:"Entry ID"`
	TitleID               string     `json:"title_id" doc:"Tracked title ID"`
	Status                string     `json:"status" doc:"Watch status"`
	CurrentSeason         int        `json:"current_season,omitempty" doc:"Current season (series)"`
	CurrentEpisode        int        `json:"current_episode,omitempty" doc:"Current episode (series)"`
	CurrentRuntimeMinutes int        `json:"current_runtime_minutes,omitempty" doc:"Minutes watched (movies)"`
	StartedAt             *time.Time `json:"started_at,omitempty" doc:"When watching started"`
	FinishedAt            *time.Time `json:"finished_at,omitempty" doc:"When watching finished"`
	Rating                int        `json:"rating,omitempty" doc:"User rating 1-10"`
	IsFavorite            bool       `json:"is_favorite" doc:"Marked as favorite"`
	CreatedAt             time.Time  `json:"created_at" doc:"When the entry was added"`
	UpdatedAt             time.Time  `json:"updated_at" doc:"Last update"`
}

// WarningResponse is a non-fatal problem reported alongside a success.
type WarningResponse struct {
	Code    string `json:"code" doc:"Machine-readable warning code"`
	Message string `json:"message" doc:"Human-readable explanation"`
}

// AddToHiveResponse is the result of adding a title to the hive.
type AddToHiveResponse struct {
	Status          string             `json:"status" doc:"ACCEPTED"`
	Entry           *HiveEntryResponse `json:"entry,omitempty" doc:"The new hive entry"`
	Title           TitleResponse      `json:"title" doc:"The resolved title"`
	TitleCreated    bool               `json:"title_created" doc:"Whether this request created the title"`
	SeasonsInserted int                `json:"seasons_inserted" doc:"Seasons added by reconciliation"`
	SeasonsUpdated  int                `json:"seasons_updated" doc:"Seasons corrected by reconciliation"`
	Warnings        []WarningResponse  `json:"warnings,omitempty" doc:"Non-fatal problems"`
}

// HiveItemResponse pairs an entry with its title.
type HiveItemResponse struct {
	Entry HiveEntryResponse `json:"entry"`
	Title TitleResponse     `json:"title"`
}

// HiveListResponse is the caller's hive.
type HiveListResponse struct {
	Items []HiveItemResponse `json:"items" doc:"Hive entries, most recently updated first"`
	Total int                `json:"total" doc:"Number of entries"`
}

// TitleDetailResponse is a title with its genres and seasons.
type TitleDetailResponse struct {
	Title   TitleResponse    `json:"title"`
	Genres  []string         `json:"genres" doc:"Genre names"`
	Seasons []SeasonResponse `json:"seasons" doc:"Known seasons, series only"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

func newTitleResponse(t *domain.Title) TitleResponse {
	return TitleResponse{
		ID:                    t.ID,
		ExternalID:            t.ExternalID,
		MediaKind:             t.MediaKind.String(),
		Name:                  t.Name,
		Slug:                  t.Slug,
		Description:           t.Description,
		ReleaseDate:           formatDate(t.ReleaseDate),
		PosterPath:            t.PosterPath,
		PosterBlurPlaceholder: t.PosterBlurPlaceholder,
		RuntimeMinutes:        t.RuntimeMinutes,
		PublicRating:          t.PublicRating,
		GenreIDs:              domain.NormalizeGenreIDs(t.GenreIDs),
		ExternalSecondaryID:   t.ExternalSecondaryID,
		UpdatedAt:             t.UpdatedAt,
	}
}

func newHiveEntryResponse(e *domain.HiveEntry) HiveEntryResponse {
	f := domain.Flatten(e.Progress)
	return HiveEntryResponse{
		ID:                    e.ID,
		TitleID:               e.TitleID,
		Status:                f.Status.String(),
		CurrentSeason:         f.CurrentSeason,
		CurrentEpisode:        f.CurrentEpisode,
		CurrentRuntimeMinutes: f.CurrentRuntimeMinutes,
		StartedAt:             f.StartedAt,
		FinishedAt:            f.FinishedAt,
		Rating:                f.Rating,
		IsFavorite:            e.IsFavorite,
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
	}
}

func newSeasonResponses(seasons []domain.Season) []SeasonResponse {
	out := make([]SeasonResponse, 0, len(seasons))
	for _, s := range seasons {
		out = append(out, SeasonResponse{
			SeasonNumber: s.SeasonNumber,
			EpisodeCount: s.EpisodeCount,
			AirDate:      formatDate(s.AirDate),
		})
	}
	return out
}

func newWarningResponses(warnings []*domainerrors.Error) []WarningResponse {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]WarningResponse, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, WarningResponse{Code: string(w.Code), Message: w.Code.Reason()})
	}
	return out
}

func newAddToHiveResponse(o *service.Outcome) AddToHiveResponse {
	resp := AddToHiveResponse{
		Status:       string(o.Status),
		Title:        newTitleResponse(o.Title),
		TitleCreated: o.TitleCreated,
		Warnings:     newWarningResponses(o.Warnings),
	}
	if o.Entry != nil {
		entry := newHiveEntryResponse(o.Entry)
		resp.Entry = &entry
	}
	if o.Seasons != nil {
		resp.SeasonsInserted = len(o.Seasons.Inserted)
		resp.SeasonsUpdated = len(o.Seasons.Updated)
	}
	return resp
}
