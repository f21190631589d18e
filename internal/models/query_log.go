package models

import "time"

// QueryLog represents one recorded weather lookup.
// Latitude and Longitude are both set or both nil, depending on whether
// the client IP could be geolocated at query time.
type QueryLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Query     string    `json:"query"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// UserLogs bundles a user's profile with their query history
type UserLogs struct {
	User *UserProfile `json:"user"`
	Logs []QueryLog   `json:"logs"`
}
