package domain

import "time"

// Timestamps carries creation and modification times for stored records.
// It gets embedded in every domain type the store persists.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new record.
func (t *Timestamps) InitTimestamps(now time.Time) {
	now = now.UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
}

// Touch sets UpdatedAt to now.
func (t *Timestamps) Touch(now time.Time) {
	t.UpdatedAt = now.UTC()
}
