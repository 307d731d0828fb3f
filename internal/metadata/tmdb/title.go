package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/patrickmn/go-cache"

	"github.com/hiveapp/hive-server/internal/domain"
)

const dateLayout = "2006-01-02"

// LookupTitle retrieves a movie or series by TMDB id.
// Returns an *Error wrapping ErrNotFound when TMDB has no such record; ids
// recently reported missing are answered without a request. A series'
// seasons are kept briefly so the LookupSeasons call that follows is served
// from the same response.
func (c *Client) LookupTitle(ctx context.Context, externalID int64, kind domain.MediaKind) (*Record, error) {
	const op = "lookupTitle"
	if externalID <= 0 || !kind.IsValid() {
		return nil, wrapError(op, kind, externalID, ErrInvalidID)
	}

	key := domain.TitleKey{ExternalID: externalID, MediaKind: kind}.String()
	if _, missing := c.notFound.Get(key); missing {
		return nil, wrapError(op, kind, externalID, ErrNotFound)
	}

	query := url.Values{}
	query.Set("append_to_response", "external_ids")

	body, err := c.doRequest(ctx, titlePath(externalID, kind), query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.notFound.Set(key, struct{}{}, cache.DefaultExpiration)
		}
		return nil, wrapError(op, kind, externalID, err)
	}

	var rec *Record
	if kind == domain.MediaKindMovie {
		var raw rawMovie
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, wrapError(op, kind, externalID, fmt.Errorf("parse response: %w", err))
		}
		rec = rawMovieToRecord(&raw)
	} else {
		var raw rawSeries
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, wrapError(op, kind, externalID, fmt.Errorf("parse response: %w", err))
		}
		rec = rawSeriesToRecord(&raw)
	}

	if rec.ID == 0 {
		return nil, wrapError(op, kind, externalID, fmt.Errorf("%w: empty record", ErrNotFound))
	}
	if kind == domain.MediaKindSeries {
		c.seasons.Set(seasonsKey(externalID), rec.Seasons, cache.DefaultExpiration)
	}
	return rec, nil
}

// LookupSeasons retrieves the season summary of a series.
// Seasons come back as TMDB lists them, including specials and unaired seasons.
// Seasons left by a just-completed LookupTitle are used once instead of a request.
func (c *Client) LookupSeasons(ctx context.Context, externalID int64) ([]domain.SourceSeason, error) {
	const op = "lookupSeasons"
	kind := domain.MediaKindSeries
	if externalID <= 0 {
		return nil, wrapError(op, kind, externalID, ErrInvalidID)
	}

	key := seasonsKey(externalID)
	if cached, ok := c.seasons.Get(key); ok {
		c.seasons.Delete(key)
		if seasons, ok := cached.([]domain.SourceSeason); ok {
			return slices.Clone(seasons), nil
		}
	}

	body, err := c.doRequest(ctx, titlePath(externalID, kind), nil)
	if err != nil {
		return nil, wrapError(op, kind, externalID, err)
	}

	var raw struct {
		Seasons []rawSeason `json:"seasons"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, wrapError(op, kind, externalID, fmt.Errorf("parse response: %w", err))
	}

	return sourceSeasons(raw.Seasons), nil
}

func seasonsKey(externalID int64) string {
	return "tv:" + strconv.FormatInt(externalID, 10)
}

func sourceSeasons(raw []rawSeason) []domain.SourceSeason {
	seasons := make([]domain.SourceSeason, 0, len(raw))
	for _, s := range raw {
		seasons = append(seasons, domain.SourceSeason{
			SeasonNumber: s.SeasonNumber,
			EpisodeCount: s.EpisodeCount,
			AirDate:      parseDate(s.AirDate),
		})
	}
	return seasons
}

// ParseDate parses a TMDB calendar date. Empty or malformed dates yield nil.
func ParseDate(s string) *time.Time {
	return parseDate(&s)
}

func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}

func titlePath(externalID int64, kind domain.MediaKind) string {
	id := strconv.FormatInt(externalID, 10)
	if kind == domain.MediaKindMovie {
		return "/movie/" + id
	}
	return "/tv/" + id
}

// rawMovieToRecord converts a raw API response to a Record.
func rawMovieToRecord(m *rawMovie) *Record {
	rec := &Record{
		ID:          m.ID,
		MediaKind:   domain.MediaKindMovie,
		Title:       m.Title,
		ReleaseDate: m.ReleaseDate,
		Overview:    m.Overview,
		PosterPath:  deref(m.PosterPath),
		VoteAverage: m.VoteAverage,
		GenreIDs:    genreIDs(m.Genres),
	}
	if m.Runtime != nil {
		rec.Runtime = *m.Runtime
	}
	rec.IMDbID = deref(m.IMDbID)
	if rec.IMDbID == "" && m.ExternalIDs != nil {
		rec.IMDbID = deref(m.ExternalIDs.IMDbID)
	}
	return rec
}

// rawSeriesToRecord converts a raw API response to a Record.
func rawSeriesToRecord(s *rawSeries) *Record {
	rec := &Record{
		ID:           s.ID,
		MediaKind:    domain.MediaKindSeries,
		Name:         s.Name,
		FirstAirDate: s.FirstAirDate,
		Overview:     s.Overview,
		PosterPath:   deref(s.PosterPath),
		VoteAverage:  s.VoteAverage,
		GenreIDs:     genreIDs(s.Genres),
		Seasons:      sourceSeasons(s.Seasons),
	}
	if s.ExternalIDs != nil {
		rec.IMDbID = deref(s.ExternalIDs.IMDbID)
	}
	return rec
}

func genreIDs(genres []rawGenre) []int {
	ids := make([]int, 0, len(genres))
	for _, g := range genres {
		ids = append(ids, g.ID)
	}
	return ids
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
