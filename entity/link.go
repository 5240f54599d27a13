package entity

import (
	"net/http"
	"time"

	"linkbot/lib/validate"
)

// LinkState tracks the announcement lifecycle.
// State machine: pending → published → inactive. A link never leaves
// inactive; reminder flags are only raised while the link is published.
type LinkState string

const (
	StatePending   LinkState = "pending"   // stored, announcement not posted yet
	StatePublished LinkState = "published" // posted to the group, awaiting event
	StateInactive  LinkState = "inactive"  // removed, no reminders, not deliverable
)

// ReminderKind identifies one of the two pre-event reminders.
// The minute offsets are configuration (default 30/10), the kind only
// selects which sent-flag and timer key the reminder belongs to.
type ReminderKind int

const (
	ReminderFirst  ReminderKind = iota // earlier reminder (default 30 min before)
	ReminderSecond                     // later reminder (default 10 min before)
)

func (k ReminderKind) String() string {
	if k == ReminderFirst {
		return "first"
	}
	return "second"
}

// ChatRef identifies a posted message: chat plus message id.
type ChatRef struct {
	ChatId    int64 `json:"chat_id"`
	MessageId int64 `json:"message_id"`
}

func (r ChatRef) IsZero() bool {
	return r.ChatId == 0 && r.MessageId == 0
}

// Link is a stored announcement: a URL, optional event time and the
// lifecycle flags driving publication and reminders.
type Link struct {
	Id               int64      `json:"id"`
	Token            string     `json:"token"` // public deep-link token, uuid
	Url              string     `json:"url" validate:"required,url"`
	AnnouncementText string     `json:"announcement_text"`
	OwnerId          int64      `json:"owner_id"`
	OwnerName        string     `json:"owner_name"`
	EventTime        *time.Time `json:"event_time,omitempty"` // absolute UTC instant
	EventTimeDisplay string     `json:"event_time_display,omitempty"`
	State            LinkState  `json:"state"`
	PostedChatId     int64      `json:"posted_chat_id,omitempty"`
	PostedMessageId  int64      `json:"posted_message_id,omitempty"`
	Reminder30Sent   bool       `json:"reminder_30_sent"`
	Reminder10Sent   bool       `json:"reminder_10_sent"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (l *Link) IsActive() bool {
	return l.State != StateInactive
}

func (l *Link) IsPending() bool {
	return l.State == StatePending
}

func (l *Link) HasEventTime() bool {
	return l.EventTime != nil && !l.EventTime.IsZero()
}

func (l *Link) PostedRef() ChatRef {
	return ChatRef{ChatId: l.PostedChatId, MessageId: l.PostedMessageId}
}

// ReminderSent reports whether the reminder of the given kind already went out.
func (l *Link) ReminderSent(kind ReminderKind) bool {
	if kind == ReminderFirst {
		return l.Reminder30Sent
	}
	return l.Reminder10Sent
}

// LinkSubmission is the HTTP API payload for creating an announcement.
type LinkSubmission struct {
	Url              string `json:"url" validate:"required,url"`
	AnnouncementText string `json:"announcement_text" validate:"omitempty,max=2000"`
	OwnerId          int64  `json:"owner_id" validate:"omitempty"`
	OwnerName        string `json:"owner_name" validate:"omitempty,max=200"`
	EventDate        string `json:"event_date" validate:"omitempty"` // DD.MM or DD.MM.YYYY
	EventTime        string `json:"event_time" validate:"omitempty"` // HH:MM, local to configured location
}

func (s *LinkSubmission) Bind(_ *http.Request) error {
	return validate.Struct(s)
}
