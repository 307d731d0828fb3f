package tmdb

import (
	"errors"
	"fmt"

	"github.com/hiveapp/hive-server/internal/domain"
)

// Sentinel errors for TMDB API operations.
var (
	ErrNotFound    = errors.New("tmdb: not found")
	ErrRateLimited = errors.New("tmdb: rate limited by server")
	ErrBadRequest  = errors.New("tmdb: bad request")
	ErrServer      = errors.New("tmdb: server error")
	ErrTimeout     = errors.New("tmdb: request timed out")
	// ErrUnavailable is returned without contacting TMDB while the circuit is open.
	ErrUnavailable = errors.New("tmdb: temporarily unavailable")
	ErrInvalidID   = errors.New("tmdb: invalid id")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op         string // Operation: "lookupTitle", "lookupSeasons"
	MediaKind  domain.MediaKind
	ExternalID int64
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("tmdb %s [%s:%d]: %v", e.Op, e.MediaKind, e.ExternalID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op string, kind domain.MediaKind, externalID int64, err error) error {
	return &Error{
		Op:         op,
		MediaKind:  kind,
		ExternalID: externalID,
		Err:        err,
	}
}
