// Package core wires the link store, the reminder scheduler and the
// Telegram publisher into one service. All lifecycle decisions live here;
// the bot and HTTP layers only translate transport events into calls on
// Core.
package core

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"linkbot/entity"
	"linkbot/internal/scheduler"
	"linkbot/lib/clock"
	"linkbot/lib/sl"
	"linkbot/lib/timeparse"
)

// Store is the persistent link/request/stats storage.
// Implemented by internal/database.MySql.
type Store interface {
	CreateLink(link *entity.Link) error
	GetLink(id int64) (*entity.Link, error)
	GetLinkByToken(token string) (*entity.Link, error)
	MarkPublished(id int64, ref entity.ChatRef) (bool, error)
	MarkReminderSent(id int64, kind entity.ReminderKind) (bool, error)
	Deactivate(id int64) (bool, error)
	ListDueForReminder(now time.Time) ([]*entity.Link, error)
	LinksByOwner(ownerId int64) ([]*entity.Link, error)
	LogRequest(req *entity.Request) error
	ListRecentRequests(limit int) ([]*entity.Request, error)
	UpsertMessageStats(userId int64, username string, at time.Time) error
	UpsertRequestStats(userId int64, username string, at time.Time) error
	UserStats(userId int64) (*entity.UserStats, error)
	TopBy(metric entity.StatsMetric, limit int) ([]*entity.UserStats, error)
	CountUsers() (int64, error)
}

// MessageLog is the append-only chat history store.
// Implemented by internal/database.MongoDB.
type MessageLog interface {
	SaveGroupMessage(msg *entity.GroupMessage) error
	CountGroupMessages() (int64, error)
}

// Publisher is the outbound Telegram surface. Implemented by bot.TgBot and
// connected after construction via SetPublisher, because the bot in turn
// calls back into Core.
type Publisher interface {
	Publish(link *entity.Link) (entity.ChatRef, error)
	SendReminder(link *entity.Link, minutes int) bool
	Retract(ref entity.ChatRef) bool
	DeliverLink(userId int64, link *entity.Link) error
	DisableControl(ref entity.ChatRef) bool
}

// Timers is the one-shot reminder scheduler.
type Timers interface {
	Schedule(key scheduler.Key, at time.Time, fn func()) error
	Cancel(key scheduler.Key)
}

type Options struct {
	FirstReminderMin  int // minutes before the event, default 30
	SecondReminderMin int // minutes before the event, default 10
	Location          *time.Location
	ApiToken          string
	ApiOperator       string
}

// User-facing response texts for the "get link" flow.
const (
	msgLinkSent        = "The link has been sent to you in a private message!"
	msgLinkUnavailable = "Sorry, this link is no longer available."
	msgStartFirst      = "I can't message you directly yet. Open a chat with me, send /start and press the button again."
	msgDeliveryFailed  = "Failed to send the link. Please try again later."
)

type Core struct {
	store   Store
	msgLog  MessageLog
	pub     Publisher
	timers  Timers
	clk     clock.Clock
	log     *slog.Logger
	first   time.Duration
	second  time.Duration
	loc     *time.Location
	token   string
	optName string
}

func New(store Store, timers Timers, clk clock.Clock, log *slog.Logger, opts Options) *Core {
	if store == nil {
		panic("store is nil")
	}
	if opts.FirstReminderMin == 0 {
		opts.FirstReminderMin = 30
	}
	if opts.SecondReminderMin == 0 {
		opts.SecondReminderMin = 10
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Core{
		store:   store,
		timers:  timers,
		clk:     clk,
		log:     log.With(sl.Module("core")),
		first:   time.Duration(opts.FirstReminderMin) * time.Minute,
		second:  time.Duration(opts.SecondReminderMin) * time.Minute,
		loc:     opts.Location,
		token:   opts.ApiToken,
		optName: opts.ApiOperator,
	}
}

// SetPublisher connects the outbound Telegram surface.
// Must be called before any link is added or recovered.
func (c *Core) SetPublisher(pub Publisher) {
	c.pub = pub
}

// SetMessageLog connects the optional chat history log.
func (c *Core) SetMessageLog(msgLog MessageLog) {
	c.msgLog = msgLog
}

func (c *Core) reminderOffset(kind entity.ReminderKind) time.Duration {
	if kind == entity.ReminderFirst {
		return c.first
	}
	return c.second
}

func (c *Core) reminderMinutes(kind entity.ReminderKind) int {
	return int(c.reminderOffset(kind) / time.Minute)
}

// AddLink stores a pending link, posts the announcement and schedules the
// reminders. A send that cannot be recorded in the store is compensated by
// retracting the posted message, so no orphan announcement survives.
func (c *Core) AddLink(ownerId int64, ownerName, url, text string, eventTime *time.Time, display string) (*entity.Link, error) {
	if c.pub == nil {
		return nil, fmt.Errorf("publisher not connected")
	}
	if text == "" {
		text = "Announcement"
	}

	link := &entity.Link{
		Token:            uuid.NewString(),
		Url:              url,
		AnnouncementText: text,
		OwnerId:          ownerId,
		OwnerName:        ownerName,
		EventTime:        eventTime,
		EventTimeDisplay: display,
	}
	if err := c.store.CreateLink(link); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	logger := c.log.With(sl.Link(link.Id))

	ref, err := c.pub.Publish(link)
	if err != nil {
		logger.Error("publishing announcement", sl.Err(err))
		return nil, fmt.Errorf("publish announcement: %w", err)
	}

	ok, err := c.store.MarkPublished(link.Id, ref)
	if err != nil || !ok {
		// Message is already in the group but the store does not know
		// about it. Most severe failure class: retract the orphan, and
		// if that also fails, escalate for manual cleanup.
		if err == nil {
			err = fmt.Errorf("link %d is not pending", link.Id)
		}
		logger.Error("recording publication", sl.Err(err))
		if !c.pub.Retract(ref) {
			logger.Error("orphan announcement left in chat, manual cleanup required",
				slog.Int64("chat_id", ref.ChatId),
				slog.Int64("message_id", ref.MessageId),
			)
		}
		return nil, fmt.Errorf("record publication: %w", err)
	}

	link.State = entity.StatePublished
	link.PostedChatId = ref.ChatId
	link.PostedMessageId = ref.MessageId

	c.ScheduleReminders(link)

	logger.With(
		slog.Int64("owner_id", ownerId),
		slog.Int64("message_id", ref.MessageId),
	).Info("link published")

	return link, nil
}

// SubmitLink is the HTTP entry point: validates the date/time pair, parses
// it in the configured location and runs the regular AddLink flow.
func (c *Core) SubmitLink(sub *entity.LinkSubmission) (*entity.Link, error) {
	if sub.EventDate != "" && sub.EventTime == "" {
		return nil, fmt.Errorf("event_date requires event_time")
	}

	var eventTime *time.Time
	var display string
	if sub.EventTime != "" {
		parsed, disp, err := timeparse.ParseEvent(sub.EventDate, sub.EventTime, c.clk.Now(), c.loc)
		if err != nil {
			return nil, err
		}
		eventTime = &parsed
		display = disp
	}

	return c.AddLink(sub.OwnerId, sub.OwnerName, sub.Url, sub.AnnouncementText, eventTime, display)
}

// ScheduleReminders derives the two reminder timers from the link's event
// time. Trigger times already in the past are skipped: a stale reminder
// sent late is worse than a missed one. Re-running for the same link
// replaces the timers instead of duplicating them.
func (c *Core) ScheduleReminders(link *entity.Link) {
	if c.timers == nil || !link.HasEventTime() || !link.IsActive() || link.IsPending() {
		return
	}

	now := c.clk.Now()
	for _, kind := range []entity.ReminderKind{entity.ReminderFirst, entity.ReminderSecond} {
		if link.ReminderSent(kind) {
			continue
		}
		at := link.EventTime.Add(-c.reminderOffset(kind))
		logger := c.log.With(
			sl.Link(link.Id),
			slog.String("kind", kind.String()),
		)
		if !at.After(now) {
			logger.Info("reminder time already passed, not scheduling")
			continue
		}
		key := scheduler.Key{LinkId: link.Id, Kind: kind}
		linkId := link.Id
		err := c.timers.Schedule(key, at, func() {
			c.fireReminder(linkId, kind)
		})
		if err != nil {
			logger.Warn("scheduling reminder", sl.Err(err))
		}
	}
}

// fireReminder runs when a timer goes off. The link is re-fetched and
// re-checked: deactivation or an earlier successful fire makes this a
// silent no-op. Delivery failures are logged and not retried.
func (c *Core) fireReminder(linkId int64, kind entity.ReminderKind) {
	logger := c.log.With(
		sl.Link(linkId),
		slog.String("kind", kind.String()),
	)

	link, err := c.store.GetLink(linkId)
	if err != nil {
		logger.Warn("loading link for reminder", sl.Err(err))
		return
	}
	if !link.IsActive() {
		logger.Info("link inactive, skipping reminder")
		return
	}
	if link.ReminderSent(kind) {
		logger.Info("reminder already sent, skipping")
		return
	}
	if c.pub == nil {
		logger.Error("publisher not connected")
		return
	}

	if !c.pub.SendReminder(link, c.reminderMinutes(kind)) {
		logger.Warn("reminder delivery failed, not retrying")
		return
	}

	if _, err = c.store.MarkReminderSent(linkId, kind); err != nil {
		logger.Error("recording sent reminder", sl.Err(err))
		return
	}
	logger.Info("reminder sent")
}

// Recover rebuilds reminder timers from storage. In-process timers do not
// survive a restart, so this must complete before new publications are
// accepted.
func (c *Core) Recover() error {
	links, err := c.store.ListDueForReminder(c.clk.Now())
	if err != nil {
		return fmt.Errorf("list due links: %w", err)
	}
	for _, link := range links {
		c.ScheduleReminders(link)
	}
	c.log.With(slog.Int("count", len(links))).Info("reminder timers recovered")
	return nil
}

// DeliverLink handles a "get link" button press: sends the URL privately
// and logs the request. The returned string is shown to the requester.
// origin is the message the press came from; when the link cannot be
// served anymore its control is stripped, best effort.
func (c *Core) DeliverLink(linkId, userId int64, username string, origin entity.ChatRef) (bool, string) {
	link, err := c.store.GetLink(linkId)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			c.log.Error("loading requested link", sl.Link(linkId), sl.Err(err))
		}
		// The row is gone but the message that produced the press is
		// still live; disable its control so nobody presses it again.
		if c.pub != nil && !origin.IsZero() {
			c.pub.DisableControl(origin)
		}
		return false, msgLinkUnavailable
	}
	return c.deliver(link, userId, username, origin)
}

// DeliverLinkByToken is the deep-link variant: users opening
// t.me/<bot>?start=<token> get the same delivery flow.
func (c *Core) DeliverLinkByToken(token string, userId int64, username string) (bool, string) {
	link, err := c.store.GetLinkByToken(token)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			c.log.Error("loading link by token", sl.Err(err))
		}
		return false, msgLinkUnavailable
	}
	return c.deliver(link, userId, username, entity.ChatRef{})
}

func (c *Core) deliver(link *entity.Link, userId int64, username string, origin entity.ChatRef) (bool, string) {
	logger := c.log.With(
		sl.Link(link.Id),
		slog.Int64("user_id", userId),
	)

	if !link.IsActive() {
		// Best effort: strip the dead button so nobody presses it again.
		ref := link.PostedRef()
		if ref.IsZero() {
			ref = origin
		}
		if c.pub != nil && !ref.IsZero() {
			c.pub.DisableControl(ref)
		}
		return false, msgLinkUnavailable
	}
	if c.pub == nil {
		return false, msgDeliveryFailed
	}

	if err := c.pub.DeliverLink(userId, link); err != nil {
		if errors.Is(err, entity.ErrRecipientUnreachable) {
			logger.Info("recipient unreachable, asking to start a conversation")
			return false, msgStartFirst
		}
		logger.Warn("delivering link", sl.Err(err))
		return false, msgDeliveryFailed
	}

	// Bookkeeping is best effort: the user already has the link, so a
	// failed log entry or stats row must not fail the operation.
	if err := c.store.LogRequest(&entity.Request{
		LinkId:      link.Id,
		RequesterId: userId,
		Username:    username,
		RequestedAt: c.clk.Now(),
	}); err != nil {
		logger.Error("logging link request", sl.Err(err))
	}
	if err := c.store.UpsertRequestStats(userId, username, c.clk.Now()); err != nil {
		logger.Error("updating request stats", sl.Err(err))
	}

	logger.Info("link delivered")
	return true, msgLinkSent
}

// DeactivateLink retires a link and cancels both of its reminder timers.
// Returns false when the link was already inactive or unknown.
func (c *Core) DeactivateLink(id int64) (bool, error) {
	ok, err := c.store.Deactivate(id)
	if err != nil {
		return false, fmt.Errorf("deactivate link: %w", err)
	}
	if ok && c.timers != nil {
		c.timers.Cancel(scheduler.Key{LinkId: id, Kind: entity.ReminderFirst})
		c.timers.Cancel(scheduler.Key{LinkId: id, Kind: entity.ReminderSecond})
		c.log.With(sl.Link(id)).Info("link deactivated, timers cancelled")
	}
	return ok, nil
}

// RecordGroupMessage logs one chat message and bumps the sender's message
// counter. Both writes are best effort; a stats hiccup must not disturb
// message handling.
func (c *Core) RecordGroupMessage(msg *entity.GroupMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = c.clk.Now()
	}
	if c.msgLog != nil {
		if err := c.msgLog.SaveGroupMessage(msg); err != nil {
			c.log.Warn("logging group message", sl.Err(err))
		}
	}
	if err := c.store.UpsertMessageStats(msg.UserId, msg.Username, msg.Timestamp); err != nil {
		c.log.Warn("updating message stats", sl.Err(err))
	}
}

func (c *Core) GetLinkInfo(id int64) (*entity.Link, error) {
	return c.store.GetLink(id)
}

func (c *Core) LinksByOwner(ownerId int64) ([]*entity.Link, error) {
	return c.store.LinksByOwner(ownerId)
}

// RecentRequests returns the latest "get link" request entries, newest
// first. Operator view over the otherwise append-only log.
func (c *Core) RecentRequests(limit int) ([]*entity.Request, error) {
	if limit <= 0 {
		limit = 20
	}
	return c.store.ListRecentRequests(limit)
}

func (c *Core) MyStats(userId int64) (*entity.UserStats, error) {
	return c.store.UserStats(userId)
}

func (c *Core) TopBy(metric entity.StatsMetric, limit int) ([]*entity.UserStats, error) {
	return c.store.TopBy(metric, limit)
}

// ChatTotals aggregates overall activity for the /chatstats view.
func (c *Core) ChatTotals() (*entity.ChatTotals, error) {
	users, err := c.store.CountUsers()
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	totals := &entity.ChatTotals{UserCount: users}
	if c.msgLog != nil {
		messages, err := c.msgLog.CountGroupMessages()
		if err != nil {
			c.log.Warn("counting group messages", sl.Err(err))
		} else {
			totals.MessageCount = messages
		}
	}
	return totals, nil
}

// AuthenticateByToken validates an API bearer token and returns the
// operator name bound to it.
func (c *Core) AuthenticateByToken(token string) (string, error) {
	if c.token == "" || token != c.token {
		return "", fmt.Errorf("invalid token")
	}
	return c.optName, nil
}
