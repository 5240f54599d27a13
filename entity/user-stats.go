package entity

import "time"

// StatsMetric selects the leaderboard ordering column.
type StatsMetric string

const (
	MetricMessages StatsMetric = "messages"
	MetricRequests StatsMetric = "requests"
)

// UserStats holds cumulative per-user activity counters.
// One row per user, upserted on every qualifying event, never deleted.
type UserStats struct {
	UserId       int64     `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	MessageCount int64     `json:"message_count"`
	RequestCount int64     `json:"request_count"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

// ChatTotals is the aggregate view over the whole chat history.
type ChatTotals struct {
	MessageCount int64 `json:"message_count"`
	UserCount    int64 `json:"user_count"`
}
