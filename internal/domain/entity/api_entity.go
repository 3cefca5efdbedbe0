package entity

import "time"

// APIEntry method and status values.
const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusDeprecated = "deprecated"
)

// APIEntry is one catalogued API endpoint owned by a user.
type APIEntry struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Endpoint    string
	Method      string // GET, POST, PUT, PATCH, DELETE
	Status      string // active, inactive, deprecated
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
