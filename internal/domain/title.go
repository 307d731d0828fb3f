package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// MediaKind selects the attribute set and season logic that apply to a title.
type MediaKind string

const (
	MediaKindMovie  MediaKind = "MOVIE"
	MediaKindSeries MediaKind = "SERIES"
)

// String returns the string representation of the kind.
func (k MediaKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a recognized value.
func (k MediaKind) IsValid() bool {
	switch k {
	case MediaKindMovie, MediaKindSeries:
		return true
	default:
		return false
	}
}

// ParseMediaKind accepts the stored form as well as the catalog's "movie"/"tv" spellings.
func ParseMediaKind(s string) (MediaKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie":
		return MediaKindMovie, true
	case "series", "tv":
		return MediaKindSeries, true
	default:
		return "", false
	}
}

// TitleKey is the catalog identity of a title. At most one Title exists per key.
type TitleKey struct {
	ExternalID int64     `json:"external_id"`
	MediaKind  MediaKind `json:"media_kind"`
}

func (k TitleKey) String() string {
	return fmt.Sprintf("%s:%d", strings.ToLower(string(k.MediaKind)), k.ExternalID)
}

// TitleAttributes are the catalog-sourced fields of a title that a refresh may rewrite.
type TitleAttributes struct {
	Name                  string     `json:"name"`
	Slug                  string     `json:"slug"`
	Description           string     `json:"description,omitempty"`
	ReleaseDate           *time.Time `json:"release_date,omitempty"`
	PosterPath            string     `json:"poster_path,omitempty"`
	PosterBlurPlaceholder string     `json:"poster_blur_placeholder,omitempty"`
	RuntimeMinutes        int        `json:"runtime_minutes,omitempty"` // movies only
	PublicRating          float64    `json:"public_rating,omitempty"`   // 0 means unrated
	GenreIDs              []int      `json:"genre_ids"`
	ExternalSecondaryID   *string    `json:"external_secondary_id,omitempty"`
}

// Title is the canonical local record for one movie or series.
// Titles are shared by every user who tracks them and are never removed
// when a user drops their hive entry.
type Title struct {
	Timestamps
	TitleAttributes
	ID         string    `json:"id"`
	ExternalID int64     `json:"external_id"`
	MediaKind  MediaKind `json:"media_kind"`
}

// Key returns the catalog identity of the title.
func (t *Title) Key() TitleKey {
	return TitleKey{ExternalID: t.ExternalID, MediaKind: t.MediaKind}
}

// IsSeries reports whether season reconciliation applies.
func (t *Title) IsSeries() bool {
	return t.MediaKind == MediaKindSeries
}

// IsStale reports whether the record is old enough to be refreshed.
func (t *Title) IsStale(now time.Time, threshold time.Duration) bool {
	return now.Sub(t.UpdatedAt) >= threshold
}

// Apply overwrites the catalog-sourced fields. Identity is left untouched.
func (t *Title) Apply(attrs TitleAttributes) {
	attrs.GenreIDs = NormalizeGenreIDs(attrs.GenreIDs)
	t.TitleAttributes = attrs
}

// NormalizeGenreIDs turns a list of genre ids into a sorted set.
func NormalizeGenreIDs(ids []int) []int {
	out := slices.Clone(ids)
	if out == nil {
		return []int{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
