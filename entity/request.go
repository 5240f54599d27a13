package entity

import "time"

// Request is an append-only log entry of a user invoking the
// "get link" control. Rows are never updated or deleted.
type Request struct {
	Id          int64     `json:"id"`
	LinkId      int64     `json:"link_id"`
	RequesterId int64     `json:"requester_id"`
	Username    string    `json:"username,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
