package tmdb

import "github.com/hiveapp/hive-server/internal/domain"

// Record is a catalog entry as TMDB reports it. Movies fill Title and
// ReleaseDate, series fill Name, FirstAirDate and Seasons.
type Record struct {
	ID           int64
	MediaKind    domain.MediaKind
	Title        string
	ReleaseDate  string
	Name         string
	FirstAirDate string
	Overview     string
	PosterPath   string
	Runtime      int
	VoteAverage  float64
	GenreIDs     []int
	IMDbID       string
	Seasons      []domain.SourceSeason
}

// Raw API response types (internal)

type rawGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type rawExternalIDs struct {
	IMDbID *string `json:"imdb_id"`
}

type rawMovie struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	ReleaseDate string          `json:"release_date"`
	Overview    string          `json:"overview"`
	PosterPath  *string         `json:"poster_path"`
	Runtime     *int            `json:"runtime"`
	VoteAverage float64         `json:"vote_average"`
	Genres      []rawGenre      `json:"genres"`
	IMDbID      *string         `json:"imdb_id"`
	ExternalIDs *rawExternalIDs `json:"external_ids"`
}

type rawSeries struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	FirstAirDate string          `json:"first_air_date"`
	Overview     string          `json:"overview"`
	PosterPath   *string         `json:"poster_path"`
	VoteAverage  float64         `json:"vote_average"`
	Genres       []rawGenre      `json:"genres"`
	ExternalIDs  *rawExternalIDs `json:"external_ids"`
	Seasons      []rawSeason     `json:"seasons"`
}

type rawSeason struct {
	SeasonNumber int     `json:"season_number"`
	EpisodeCount int     `json:"episode_count"`
	AirDate      *string `json:"air_date"`
}
