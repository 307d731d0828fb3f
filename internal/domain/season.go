package domain

import "time"

// Season is one season of a series title. (TitleID, SeasonNumber) is unique.
type Season struct {
	Timestamps
	ID           string     `json:"id"`
	TitleID      string     `json:"title_id"`
	SeasonNumber int        `json:"season_number"`
	EpisodeCount int        `json:"episode_count"`
	AirDate      *time.Time `json:"air_date,omitempty"`
}

// SourceSeason is a season as reported by the catalog.
type SourceSeason struct {
	SeasonNumber int
	EpisodeCount int
	AirDate      *time.Time
}

// Reconcilable reports whether the catalog entry may become a local season.
// Specials (season 0), unaired seasons and empty seasons never do.
func (s SourceSeason) Reconcilable() bool {
	return s.SeasonNumber > 0 && s.AirDate != nil && s.EpisodeCount > 0
}

// FindSeason returns the season with the given number.
func FindSeason(seasons []Season, number int) (Season, bool) {
	for _, s := range seasons {
		if s.SeasonNumber == number {
			return s, true
		}
	}
	return Season{}, false
}
