package entity

import "time"

// GroupMessage is one logged chat message from the announcement group.
// Stored append-only in MongoDB; UserStats counters are derived from it.
type GroupMessage struct {
	MessageId int64     `json:"message_id" bson:"message_id"`
	ChatId    int64     `json:"chat_id" bson:"chat_id"`
	UserId    int64     `json:"user_id" bson:"user_id"`
	Username  string    `json:"username,omitempty" bson:"username,omitempty"`
	Text      string    `json:"text,omitempty" bson:"text,omitempty"`
	Edited    bool      `json:"edited" bson:"edited"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
