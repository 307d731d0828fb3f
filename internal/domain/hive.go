package domain

import (
	"fmt"
	"time"
)

// WatchStatus is where a user is with a title.
type WatchStatus string

const (
	StatusPending    WatchStatus = "PENDING"
	StatusWatching   WatchStatus = "WATCHING"
	StatusUnfinished WatchStatus = "UNFINISHED"
	StatusFinished   WatchStatus = "FINISHED"
	StatusDropped    WatchStatus = "DROPPED"
	StatusRewatching WatchStatus = "REWATCHING"
)

// MaxRating is the top of the 0-10 rating scale. 0 means unrated.
const MaxRating = 10

// String returns the string representation of the status.
func (s WatchStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a recognized value.
func (s WatchStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusWatching, StatusUnfinished, StatusFinished, StatusDropped, StatusRewatching:
		return true
	default:
		return false
	}
}

// TracksPosition reports whether the status carries a season/episode or runtime position.
func (s WatchStatus) TracksPosition() bool {
	switch s {
	case StatusWatching, StatusUnfinished, StatusFinished, StatusRewatching:
		return true
	default:
		return false
	}
}

// Position is how far into a title a user is. Season and Episode apply to
// series, RuntimeMinutes to movies.
type Position struct {
	Season         int `json:"season,omitempty"`
	Episode        int `json:"episode,omitempty"`
	RuntimeMinutes int `json:"runtime_minutes,omitempty"`
}

// Progress is the status-dependent part of a hive entry. Each status has its
// own variant carrying only the fields that mean something for it.
type Progress interface {
	Status() WatchStatus
	progress()
}

// Pending is a title the user plans to watch.
type Pending struct{}

// Active covers WATCHING, UNFINISHED and REWATCHING.
type Active struct {
	State     WatchStatus
	Position  Position
	StartedAt *time.Time
}

// Completion records when a title was finished and how it was rated.
// A rating only exists alongside a finish date.
type Completion struct {
	At     time.Time
	Rating int
}

// Finished is a title the user has completed.
type Finished struct {
	Position   Position
	StartedAt  *time.Time
	Completion *Completion
}

// Dropped is a title the user gave up on.
type Dropped struct {
	StartedAt *time.Time
}

func (Pending) Status() WatchStatus  { return StatusPending }
func (a Active) Status() WatchStatus { return a.State }
func (Finished) Status() WatchStatus { return StatusFinished }
func (Dropped) Status() WatchStatus  { return StatusDropped }

func (Pending) progress()  {}
func (Active) progress()   {}
func (Finished) progress() {}
func (Dropped) progress()  {}

// PositionOf returns the position carried by p, if its status has one.
func PositionOf(p Progress) (Position, bool) {
	switch v := p.(type) {
	case Active:
		return v.Position, true
	case Finished:
		return v.Position, true
	default:
		return Position{}, false
	}
}

// ProgressFields is the flat form of Progress used at the edges (forms, rows).
// Zero values mean "unset".
type ProgressFields struct {
	Status                WatchStatus
	CurrentSeason         int
	CurrentEpisode        int
	CurrentRuntimeMinutes int
	StartedAt             *time.Time
	FinishedAt            *time.Time
	Rating                int
}

// BuildProgress converts flat fields into the variant for their status.
// Fields that do not apply to the status or media kind are discarded, and a
// rating without a finish date is dropped.
func BuildProgress(f ProgressFields, kind MediaKind) (Progress, error) {
	if f.Rating < 0 || f.Rating > MaxRating {
		return nil, fmt.Errorf("rating %d outside 0-%d", f.Rating, MaxRating)
	}

	var pos Position
	if kind == MediaKindSeries {
		pos = Position{Season: f.CurrentSeason, Episode: f.CurrentEpisode}
	} else {
		pos = Position{RuntimeMinutes: f.CurrentRuntimeMinutes}
	}

	switch f.Status {
	case StatusPending:
		return Pending{}, nil
	case StatusWatching, StatusUnfinished, StatusRewatching:
		return Active{State: f.Status, Position: pos, StartedAt: f.StartedAt}, nil
	case StatusFinished:
		fin := Finished{Position: pos, StartedAt: f.StartedAt}
		if f.FinishedAt != nil {
			fin.Completion = &Completion{At: f.FinishedAt.UTC(), Rating: f.Rating}
		}
		return fin, nil
	case StatusDropped:
		return Dropped{StartedAt: f.StartedAt}, nil
	default:
		return nil, fmt.Errorf("unknown watch status %q", f.Status)
	}
}

// Flatten is the inverse of BuildProgress.
func Flatten(p Progress) ProgressFields {
	f := ProgressFields{Status: p.Status()}
	switch v := p.(type) {
	case Active:
		f.CurrentSeason, f.CurrentEpisode, f.CurrentRuntimeMinutes = v.Position.Season, v.Position.Episode, v.Position.RuntimeMinutes
		f.StartedAt = v.StartedAt
	case Finished:
		f.CurrentSeason, f.CurrentEpisode, f.CurrentRuntimeMinutes = v.Position.Season, v.Position.Episode, v.Position.RuntimeMinutes
		f.StartedAt = v.StartedAt
		if v.Completion != nil {
			at := v.Completion.At
			f.FinishedAt = &at
			f.Rating = v.Completion.Rating
		}
	case Dropped:
		f.StartedAt = v.StartedAt
	}
	return f
}

// HiveEntry is one user's relationship to one title. (UserID, TitleID) is unique.
type HiveEntry struct {
	Timestamps
	ID         string   `json:"id"`
	UserID     string   `json:"user_id"`
	TitleID    string   `json:"title_id"`
	Progress   Progress `json:"-"`
	IsFavorite bool     `json:"is_favorite"`
}

// HiveItem is a hive entry together with the title it tracks.
type HiveItem struct {
	Entry *HiveEntry `json:"entry"`
	Title *Title     `json:"title"`
}
