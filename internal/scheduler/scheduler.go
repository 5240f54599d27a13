// Package scheduler runs one-shot callbacks at absolute wall-clock times.
//
// It is an in-process replacement for a job-scheduling service: a min-heap
// of (instant, key, callback) entries drained by a single goroutine. Keys
// are (link id, reminder kind) pairs and at most one timer exists per key;
// scheduling an existing key replaces its timer. Timers do not survive a
// restart — callers repopulate the heap from storage on startup.
package scheduler

import (
	"container/heap"
	"errors"
	"log/slog"
	"sync"
	"time"

	"linkbot/entity"
	"linkbot/lib/clock"
	"linkbot/lib/sl"
)

// ErrStopped is returned by Schedule after Stop; a stopped scheduler does
// not accept new timers.
var ErrStopped = errors.New("scheduler stopped")

// Key identifies a scheduled reminder: one timer per (link, kind).
type Key struct {
	LinkId int64
	Kind   entity.ReminderKind
}

type entry struct {
	key   Key
	at    time.Time
	fn    func()
	index int // heap position, maintained by heap.Interface
}

type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x interface{}) { e := x.(*entry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler fires registered callbacks once their instant has passed.
// Callbacks run on their own goroutine so a slow delivery never delays
// other timers. Late wake-ups still fire: the no-catch-up policy for stale
// reminders is enforced by callers at scheduling time, and the fired
// callback re-checks persistent state before acting.
type Scheduler struct {
	log    *slog.Logger
	clk    clock.Clock
	mu     sync.Mutex
	heap   entryHeap
	byKey  map[Key]*entry
	wake   chan struct{}
	stopCh chan struct{}
	done   chan struct{}
	closed bool
}

func New(clk clock.Clock, log *slog.Logger) *Scheduler {
	return &Scheduler{
		log:    log.With(sl.Module("scheduler")),
		clk:    clk,
		byKey:  make(map[Key]*entry),
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.run()
}

// Stop rejects further Schedule calls and waits for the run loop to exit.
// Callbacks already handed to their goroutine are left to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stopCh)
	<-s.done
	s.log.Info("scheduler stopped")
}

// Schedule registers fn to run at the given instant. An existing timer for
// the same key is replaced, keeping at most one timer per key even when
// publication handling runs twice.
func (s *Scheduler) Schedule(key Key, at time.Time, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStopped
	}

	if old, ok := s.byKey[key]; ok {
		heap.Remove(&s.heap, old.index)
	}
	e := &entry{key: key, at: at, fn: fn}
	heap.Push(&s.heap, e)
	s.byKey[key] = e

	s.log.With(
		sl.Link(key.LinkId),
		slog.String("kind", key.Kind.String()),
		slog.Time("at", at),
	).Debug("timer scheduled")

	s.signal()
	return nil
}

// Cancel removes the timer for key if one exists. Cancelling an unknown or
// already-fired key is a no-op; a timer concurrently being fired cannot be
// unscheduled here, the firing callback's own state re-check is the safety
// net for that race.
func (s *Scheduler) Cancel(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byKey[key]
	if !ok {
		return
	}
	heap.Remove(&s.heap, e.index)
	delete(s.byKey, key)

	s.log.With(
		sl.Link(key.LinkId),
		slog.String("kind", key.Kind.String()),
	).Debug("timer cancelled")

	s.signal()
}

// Len reports the number of pending timers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run() {
	defer close(s.done)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		now := s.clk.Now()

		s.mu.Lock()
		var due []*entry
		for s.heap.Len() > 0 && !s.heap[0].at.After(now) {
			e := heap.Pop(&s.heap).(*entry)
			delete(s.byKey, e.key)
			due = append(due, e)
		}
		var wait time.Duration
		if s.heap.Len() > 0 {
			wait = s.heap[0].at.Sub(now)
		}
		empty := s.heap.Len() == 0
		s.mu.Unlock()

		for _, e := range due {
			go e.fn()
		}

		if empty {
			// Nothing pending: sleep until a Schedule call wakes us.
			select {
			case <-s.wake:
			case <-s.stopCh:
				return
			}
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-timer.C:
		case <-s.wake:
		case <-s.stopCh:
			return
		}
	}
}
