package core

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"linkbot/entity"
	"linkbot/internal/scheduler"
)

// --- Fakes ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeStore struct {
	mu       sync.Mutex
	links    map[int64]*entity.Link
	nextId   int64
	requests []*entity.Request
	msgStats int
	reqStats int

	failCreate        bool
	failMarkPublished bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{links: make(map[int64]*entity.Link), nextId: 1}
}

func (s *fakeStore) CreateLink(link *entity.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return fmt.Errorf("store down")
	}
	link.Id = s.nextId
	s.nextId++
	link.State = entity.StatePending
	cp := *link
	s.links[link.Id] = &cp
	return nil
}

func (s *fakeStore) GetLink(id int64) (*entity.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *fakeStore) GetLinkByToken(token string) (*entity.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, link := range s.links {
		if link.Token == token {
			cp := *link
			return &cp, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (s *fakeStore) MarkPublished(id int64, ref entity.ChatRef) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMarkPublished {
		return false, fmt.Errorf("store down")
	}
	link, ok := s.links[id]
	if !ok || link.State != entity.StatePending {
		return false, nil
	}
	link.State = entity.StatePublished
	link.PostedChatId = ref.ChatId
	link.PostedMessageId = ref.MessageId
	return true, nil
}

func (s *fakeStore) MarkReminderSent(id int64, kind entity.ReminderKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[id]
	if !ok || link.State != entity.StatePublished {
		return false, nil
	}
	if link.ReminderSent(kind) {
		return true, nil
	}
	if kind == entity.ReminderFirst {
		link.Reminder30Sent = true
	} else {
		link.Reminder10Sent = true
	}
	return true, nil
}

func (s *fakeStore) Deactivate(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[id]
	if !ok || link.State == entity.StateInactive {
		return false, nil
	}
	link.State = entity.StateInactive
	return true, nil
}

func (s *fakeStore) ListDueForReminder(now time.Time) ([]*entity.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Link
	for _, link := range s.links {
		if link.State != entity.StatePublished || !link.HasEventTime() {
			continue
		}
		if link.EventTime.After(now) && !(link.Reminder30Sent && link.Reminder10Sent) {
			cp := *link
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) LinksByOwner(ownerId int64) ([]*entity.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Link
	for _, link := range s.links {
		if link.OwnerId == ownerId && link.State != entity.StateInactive {
			cp := *link
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) LogRequest(req *entity.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.Id = int64(len(s.requests) + 1)
	s.requests = append(s.requests, req)
	return nil
}

func (s *fakeStore) ListRecentRequests(limit int) ([]*entity.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Request
	for i := len(s.requests) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.requests[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeStore) UpsertMessageStats(int64, string, time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgStats++
	return nil
}

func (s *fakeStore) UpsertRequestStats(int64, string, time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqStats++
	return nil
}

func (s *fakeStore) UserStats(int64) (*entity.UserStats, error) {
	return nil, entity.ErrNotFound
}

func (s *fakeStore) TopBy(entity.StatsMetric, int) ([]*entity.UserStats, error) {
	return nil, nil
}

func (s *fakeStore) CountUsers() (int64, error) { return 0, nil }

func (s *fakeStore) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type fakePublisher struct {
	mu          sync.Mutex
	published   []int64
	reminders   []string // "<link_id>:<minutes>"
	retracted   []entity.ChatRef
	delivered   []int64
	disabled    []entity.ChatRef
	nextMsgId   int64
	publishErr  error
	reminderNOK bool
	deliverErr  error
}

func (p *fakePublisher) Publish(link *entity.Link) (entity.ChatRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishErr != nil {
		return entity.ChatRef{}, p.publishErr
	}
	p.nextMsgId++
	p.published = append(p.published, link.Id)
	return entity.ChatRef{ChatId: -100, MessageId: p.nextMsgId}, nil
}

func (p *fakePublisher) SendReminder(link *entity.Link, minutes int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reminderNOK {
		return false
	}
	p.reminders = append(p.reminders, fmt.Sprintf("%d:%d", link.Id, minutes))
	return true
}

func (p *fakePublisher) Retract(ref entity.ChatRef) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retracted = append(p.retracted, ref)
	return true
}

func (p *fakePublisher) DeliverLink(userId int64, link *entity.Link) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deliverErr != nil {
		return p.deliverErr
	}
	p.delivered = append(p.delivered, link.Id)
	return nil
}

func (p *fakePublisher) DisableControl(ref entity.ChatRef) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disabled = append(p.disabled, ref)
	return true
}

func (p *fakePublisher) reminderLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.reminders))
	copy(out, p.reminders)
	return out
}

// fakeTimers records scheduled callbacks and lets tests fire them by hand.
type fakeTimers struct {
	mu      sync.Mutex
	entries map[scheduler.Key]fakeTimer
}

type fakeTimer struct {
	at time.Time
	fn func()
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{entries: make(map[scheduler.Key]fakeTimer)}
}

func (f *fakeTimers) Schedule(key scheduler.Key, at time.Time, fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = fakeTimer{at: at, fn: fn}
	return nil
}

func (f *fakeTimers) Cancel(key scheduler.Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
}

func (f *fakeTimers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *fakeTimers) scheduledAt(key scheduler.Key) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	return e.at, ok
}

func (f *fakeTimers) fire(key scheduler.Key) bool {
	f.mu.Lock()
	e, ok := f.entries[key]
	if ok {
		delete(f.entries, key)
	}
	f.mu.Unlock()
	if !ok {
		return false
	}
	e.fn()
	return true
}

// --- Setup ---

var baseTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestCore(t *testing.T) (*Core, *fakeStore, *fakePublisher, *fakeTimers, *fakeClock) {
	t.Helper()
	store := newFakeStore()
	pub := &fakePublisher{}
	timers := newFakeTimers()
	clk := &fakeClock{now: baseTime}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	c := New(store, timers, clk, log, Options{})
	c.SetPublisher(pub)
	return c, store, pub, timers, clk
}

func addLinkAt(t *testing.T, c *Core, eventTime time.Time) *entity.Link {
	t.Helper()
	link, err := c.AddLink(7, "@owner", "https://example.com/room", "Interview", &eventTime, eventTime.Format("02.01 15:04"))
	if err != nil {
		t.Fatalf("add link: %v", err)
	}
	return link
}

// --- Publication ---

func TestAddLink_PublishesAndSchedulesReminders(t *testing.T) {
	c, store, pub, timers, _ := newTestCore(t)

	eventTime := baseTime.Add(2 * time.Hour)
	link := addLinkAt(t, c, eventTime)

	stored, err := store.GetLink(link.Id)
	if err != nil {
		t.Fatalf("get link: %v", err)
	}
	if stored.State != entity.StatePublished {
		t.Fatalf("state %s, want published", stored.State)
	}
	if stored.PostedMessageId == 0 {
		t.Fatal("posted message reference not recorded")
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d times", len(pub.published))
	}

	firstAt, ok := timers.scheduledAt(scheduler.Key{LinkId: link.Id, Kind: entity.ReminderFirst})
	if !ok || !firstAt.Equal(eventTime.Add(-30*time.Minute)) {
		t.Fatalf("first reminder at %v, ok=%v", firstAt, ok)
	}
	secondAt, ok := timers.scheduledAt(scheduler.Key{LinkId: link.Id, Kind: entity.ReminderSecond})
	if !ok || !secondAt.Equal(eventTime.Add(-10*time.Minute)) {
		t.Fatalf("second reminder at %v, ok=%v", secondAt, ok)
	}
}

func TestAddLink_NoEventTimeNoTimers(t *testing.T) {
	c, _, _, timers, _ := newTestCore(t)

	_, err := c.AddLink(7, "@owner", "https://example.com", "Plain link", nil, "")
	if err != nil {
		t.Fatalf("add link: %v", err)
	}
	if timers.count() != 0 {
		t.Fatalf("expected no timers, got %d", timers.count())
	}
}

func TestAddLink_RecordFailureRetractsAnnouncement(t *testing.T) {
	c, store, pub, timers, _ := newTestCore(t)
	store.failMarkPublished = true

	eventTime := baseTime.Add(time.Hour)
	_, err := c.AddLink(7, "@owner", "https://example.com", "Interview", &eventTime, "")
	if err == nil {
		t.Fatal("expected error when publication cannot be recorded")
	}
	if len(pub.retracted) != 1 {
		t.Fatalf("retracted %d messages, want 1", len(pub.retracted))
	}
	if timers.count() != 0 {
		t.Fatal("no timers may exist for an unrecorded publication")
	}
}

// --- Reminders ---

func TestFireReminder_SendsOnceAndRecords(t *testing.T) {
	c, store, pub, timers, _ := newTestCore(t)

	eventTime := baseTime.Add(time.Hour)
	link := addLinkAt(t, c, eventTime)
	key := scheduler.Key{LinkId: link.Id, Kind: entity.ReminderFirst}

	if !timers.fire(key) {
		t.Fatal("first reminder timer missing")
	}
	if got := pub.reminderLog(); len(got) != 1 || got[0] != fmt.Sprintf("%d:30", link.Id) {
		t.Fatalf("reminder log %v", got)
	}
	stored, _ := store.GetLink(link.Id)
	if !stored.Reminder30Sent {
		t.Fatal("sent flag not recorded")
	}

	// A duplicate fire of the same reminder is a silent no-op.
	c.fireReminder(link.Id, entity.ReminderFirst)
	if got := pub.reminderLog(); len(got) != 1 {
		t.Fatalf("reminder sent twice: %v", got)
	}
}

func TestFireReminder_SkipsInactiveLink(t *testing.T) {
	c, _, pub, timers, _ := newTestCore(t)

	link := addLinkAt(t, c, baseTime.Add(time.Hour))
	if _, err := c.DeactivateLink(link.Id); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// Simulate the race where the timer fired before the cancel landed.
	c.fireReminder(link.Id, entity.ReminderSecond)
	if len(pub.reminderLog()) != 0 {
		t.Fatal("reminder sent for inactive link")
	}
	if timers.count() != 0 {
		t.Fatalf("timers left after deactivation: %d", timers.count())
	}
}

func TestFireReminder_DeliveryFailureNotRecorded(t *testing.T) {
	c, store, pub, timers, _ := newTestCore(t)
	pub.reminderNOK = true

	link := addLinkAt(t, c, baseTime.Add(time.Hour))
	timers.fire(scheduler.Key{LinkId: link.Id, Kind: entity.ReminderFirst})

	stored, _ := store.GetLink(link.Id)
	if stored.Reminder30Sent {
		t.Fatal("failed reminder must not be marked sent")
	}
}

func TestScheduleReminders_SkipsPastTriggers(t *testing.T) {
	c, _, _, timers, clk := newTestCore(t)

	// Event 20 minutes out: the 30-minute trigger is already in the past
	// and must not fire late, only the 10-minute one gets a timer.
	clk.set(baseTime)
	eventTime := baseTime.Add(20 * time.Minute)
	link := addLinkAt(t, c, eventTime)

	if _, ok := timers.scheduledAt(scheduler.Key{LinkId: link.Id, Kind: entity.ReminderFirst}); ok {
		t.Fatal("stale first reminder scheduled")
	}
	if _, ok := timers.scheduledAt(scheduler.Key{LinkId: link.Id, Kind: entity.ReminderSecond}); !ok {
		t.Fatal("second reminder missing")
	}
}

func TestScheduleReminders_PastEventGetsNoTimers(t *testing.T) {
	c, _, _, timers, _ := newTestCore(t)

	// Event already over: neither reminder may be scheduled, a stale
	// reminder sent late is worse than a missed one.
	addLinkAt(t, c, baseTime.Add(-5*time.Minute))

	if timers.count() != 0 {
		t.Fatalf("timers scheduled for a past event: %d", timers.count())
	}
}

func TestScheduleReminders_TwoLinksIndependentTimers(t *testing.T) {
	c, _, pub, timers, _ := newTestCore(t)

	eventA := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	eventB := time.Date(2025, 6, 15, 15, 0, 0, 0, time.UTC)
	linkA := addLinkAt(t, c, eventA)
	linkB := addLinkAt(t, c, eventB)

	if timers.count() != 4 {
		t.Fatalf("expected 4 timers, got %d", timers.count())
	}

	atA, _ := timers.scheduledAt(scheduler.Key{LinkId: linkA.Id, Kind: entity.ReminderFirst})
	if !atA.Equal(time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC)) {
		t.Fatalf("link A first reminder at %v", atA)
	}
	atB, _ := timers.scheduledAt(scheduler.Key{LinkId: linkB.Id, Kind: entity.ReminderSecond})
	if !atB.Equal(time.Date(2025, 6, 15, 14, 50, 0, 0, time.UTC)) {
		t.Fatalf("link B second reminder at %v", atB)
	}

	// Firing A's reminders never touches B.
	timers.fire(scheduler.Key{LinkId: linkA.Id, Kind: entity.ReminderFirst})
	timers.fire(scheduler.Key{LinkId: linkA.Id, Kind: entity.ReminderSecond})
	for _, r := range pub.reminderLog() {
		if r == fmt.Sprintf("%d:30", linkB.Id) || r == fmt.Sprintf("%d:10", linkB.Id) {
			t.Fatalf("link B reminder fired early: %v", pub.reminderLog())
		}
	}
}

func TestRecover_RebuildsTimersSkippingSentAndPast(t *testing.T) {
	c, store, _, timers, clk := newTestCore(t)

	// Two published links. The first has its 30-minute reminder already
	// sent; the second's event has passed entirely by recovery time.
	link := addLinkAt(t, c, baseTime.Add(time.Hour))
	pastLink := addLinkAt(t, c, baseTime.Add(10*time.Minute))

	store.mu.Lock()
	store.links[link.Id].Reminder30Sent = true
	store.mu.Unlock()

	// Fresh timers, as after a restart. Recovery runs 20 minutes later, so
	// pastLink's event is over.
	timers.mu.Lock()
	timers.entries = make(map[scheduler.Key]fakeTimer)
	timers.mu.Unlock()
	clk.set(baseTime.Add(20 * time.Minute))

	if err := c.Recover(); err != nil {
		t.Fatalf("recover: %v", err)
	}

	if _, ok := timers.scheduledAt(scheduler.Key{LinkId: link.Id, Kind: entity.ReminderFirst}); ok {
		t.Fatal("already-sent reminder rescheduled")
	}
	if _, ok := timers.scheduledAt(scheduler.Key{LinkId: link.Id, Kind: entity.ReminderSecond}); !ok {
		t.Fatal("pending reminder not recovered")
	}
	for _, kind := range []entity.ReminderKind{entity.ReminderFirst, entity.ReminderSecond} {
		if _, ok := timers.scheduledAt(scheduler.Key{LinkId: pastLink.Id, Kind: kind}); ok {
			t.Fatalf("stale %s reminder rescheduled for finished event", kind)
		}
	}
}

// --- Delivery ---

func TestDeliverLink_SendsAndLogsRequest(t *testing.T) {
	c, store, pub, _, _ := newTestCore(t)

	link := addLinkAt(t, c, baseTime.Add(time.Hour))

	ok, msg := c.DeliverLink(link.Id, 42, "@user", entity.ChatRef{})
	if !ok {
		t.Fatalf("delivery failed: %s", msg)
	}
	if msg != msgLinkSent {
		t.Fatalf("message %q", msg)
	}
	if len(pub.delivered) != 1 || pub.delivered[0] != link.Id {
		t.Fatalf("delivered %v", pub.delivered)
	}
	if store.requestCount() != 1 {
		t.Fatalf("requests logged: %d", store.requestCount())
	}
	if store.reqStats != 1 {
		t.Fatalf("request stats updated %d times", store.reqStats)
	}
}

func TestDeliverLink_UnreachableRecipient(t *testing.T) {
	c, store, pub, _, _ := newTestCore(t)
	pub.deliverErr = entity.ErrRecipientUnreachable

	link := addLinkAt(t, c, baseTime.Add(time.Hour))

	ok, msg := c.DeliverLink(link.Id, 42, "@user", entity.ChatRef{})
	if ok {
		t.Fatal("delivery to unreachable recipient reported as success")
	}
	if msg != msgStartFirst {
		t.Fatalf("message %q, want start-first hint", msg)
	}
	if store.requestCount() != 0 {
		t.Fatal("failed delivery must not log a request")
	}
}

func TestDeliverLink_InactiveLinkUnavailable(t *testing.T) {
	c, _, pub, _, _ := newTestCore(t)

	link := addLinkAt(t, c, baseTime.Add(time.Hour))
	if _, err := c.DeactivateLink(link.Id); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	ok, msg := c.DeliverLink(link.Id, 42, "@user", entity.ChatRef{})
	if ok || msg != msgLinkUnavailable {
		t.Fatalf("ok=%v msg=%q", ok, msg)
	}
	if len(pub.disabled) != 1 {
		t.Fatalf("dead button not disabled: %v", pub.disabled)
	}
}

func TestDeliverLink_UnknownLink(t *testing.T) {
	c, _, _, _, _ := newTestCore(t)

	ok, msg := c.DeliverLink(999, 42, "@user", entity.ChatRef{})
	if ok || msg != msgLinkUnavailable {
		t.Fatalf("ok=%v msg=%q", ok, msg)
	}
}

func TestDeliverLink_UnknownLinkDisablesOriginButton(t *testing.T) {
	c, _, pub, _, _ := newTestCore(t)

	// The row is gone but the announcement message still carries a live
	// button. The press identifies that message, so its button gets removed.
	origin := entity.ChatRef{ChatId: -100, MessageId: 55}
	ok, msg := c.DeliverLink(999, 42, "@user", origin)
	if ok || msg != msgLinkUnavailable {
		t.Fatalf("ok=%v msg=%q", ok, msg)
	}
	if len(pub.disabled) != 1 || pub.disabled[0] != origin {
		t.Fatalf("origin button not disabled: %v", pub.disabled)
	}

	// Without a known origin there is nothing to disable.
	ok, _ = c.DeliverLink(999, 42, "@user", entity.ChatRef{})
	if ok || len(pub.disabled) != 1 {
		t.Fatalf("ok=%v disabled=%v", ok, pub.disabled)
	}
}

func TestDeliverLinkByToken(t *testing.T) {
	c, _, pub, _, _ := newTestCore(t)

	link := addLinkAt(t, c, baseTime.Add(time.Hour))

	ok, _ := c.DeliverLinkByToken(link.Token, 42, "@user")
	if !ok {
		t.Fatal("token delivery failed")
	}
	if len(pub.delivered) != 1 {
		t.Fatalf("delivered %v", pub.delivered)
	}

	ok, msg := c.DeliverLinkByToken("no-such-token", 42, "@user")
	if ok || msg != msgLinkUnavailable {
		t.Fatalf("ok=%v msg=%q", ok, msg)
	}
}

func TestRecentRequests(t *testing.T) {
	c, _, _, _, _ := newTestCore(t)

	link := addLinkAt(t, c, baseTime.Add(time.Hour))
	for _, userId := range []int64{42, 43, 44} {
		if ok, msg := c.DeliverLink(link.Id, userId, "@user", entity.ChatRef{}); !ok {
			t.Fatalf("delivery for %d failed: %s", userId, msg)
		}
	}

	requests, err := c.RecentRequests(2)
	if err != nil {
		t.Fatalf("recent requests: %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("got %d requests, want 2", len(requests))
	}
	if requests[0].RequesterId != 44 || requests[1].RequesterId != 43 {
		t.Fatalf("not newest first: %d, %d", requests[0].RequesterId, requests[1].RequesterId)
	}

	// A non-positive limit falls back to the default page size.
	requests, err = c.RecentRequests(0)
	if err != nil || len(requests) != 3 {
		t.Fatalf("default limit: got %d requests, err=%v", len(requests), err)
	}
}

// --- Deactivation ---

func TestDeactivateLink_CancelsTimers(t *testing.T) {
	c, _, _, timers, _ := newTestCore(t)

	link := addLinkAt(t, c, baseTime.Add(time.Hour))
	if timers.count() != 2 {
		t.Fatalf("timers before deactivation: %d", timers.count())
	}

	ok, err := c.DeactivateLink(link.Id)
	if err != nil || !ok {
		t.Fatalf("deactivate: ok=%v err=%v", ok, err)
	}
	if timers.count() != 0 {
		t.Fatalf("timers after deactivation: %d", timers.count())
	}

	// Second deactivation reports false without error.
	ok, err = c.DeactivateLink(link.Id)
	if err != nil || ok {
		t.Fatalf("repeat deactivate: ok=%v err=%v", ok, err)
	}
}

// --- Stats ---

func TestRecordGroupMessage_UpdatesStats(t *testing.T) {
	c, store, _, _, _ := newTestCore(t)

	c.RecordGroupMessage(&entity.GroupMessage{UserId: 42, Username: "@user", Text: "hello"})
	if store.msgStats != 1 {
		t.Fatalf("message stats updated %d times", store.msgStats)
	}
}

// --- API auth ---

func TestAuthenticateByToken(t *testing.T) {
	store := newFakeStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(store, newFakeTimers(), &fakeClock{now: baseTime}, log, Options{
		ApiToken:    "secret",
		ApiOperator: "ops",
	})

	operator, err := c.AuthenticateByToken("secret")
	if err != nil || operator != "ops" {
		t.Fatalf("operator=%q err=%v", operator, err)
	}
	if _, err = c.AuthenticateByToken("wrong"); err == nil {
		t.Fatal("wrong token accepted")
	}
	if _, err = c.AuthenticateByToken(""); err == nil {
		t.Fatal("empty token accepted")
	}
}
