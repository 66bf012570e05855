// Package scheduler owns all pending timed callbacks (alarms and study
// reminders): it arms their timers, fires each exactly once, and retains fired
// entries until the learner acknowledges them.
package scheduler

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/entities"
)

// Firing is the notification emitted when a scheduled entry's timer elapses.
type Firing struct {
	ID    int64
	Label string
	Kind  entities.AlarmKind
}

// Info converts the firing into the state machine's ringing info.
func (f Firing) Info() entities.RingingAlarmInfo {
	return entities.RingingAlarmInfo{ID: f.ID, Label: f.Label, Kind: f.Kind}
}

type pendingEntry struct {
	firing Firing
	timer  *clock.Timer
}

// Scheduler accepts scheduling requests, keeps them pending and cancellable,
// and fires each at the right wall-clock moment exactly once. Fired entries
// stack up until dismissed: the most recently fired occupies the visible
// ringing slot, earlier ones re-ring after dismissal. No firing is dropped.
type Scheduler struct {
	mu      sync.Mutex
	cond    *sync.Cond
	clock   clock.Clock
	nextID  int64
	pending map[int64]*pendingEntry
	fired   []Firing // acknowledgement stack, last element is the visible slot
	queue   []Firing // undelivered notifications, drained in fire order
	firings chan Firing
	done    chan struct{}
	closed  bool
	logger  *zap.Logger
}

// New creates a Scheduler driven by the given clock. Tests pass a mock clock
// to advance virtual time deterministically.
func New(clk clock.Clock, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		clock:   clk,
		pending: make(map[int64]*pendingEntry),
		firings: make(chan Firing, 64),
		done:    make(chan struct{}),
		logger:  logger,
	}
	s.cond = sync.NewCond(&s.mu)
	go s.deliver()
	return s
}

// Schedule arms a timer that fires after delay. Negative delays clamp to zero
// so scheduling never fails for normal inputs. The returned id is unique and
// monotonically increasing.
func (s *Scheduler) Schedule(kind entities.AlarmKind, label string, delay time.Duration) int64 {
	if delay < 0 {
		s.logger.Warn("Clamping negative schedule delay to zero",
			zap.String("label", label),
			zap.Duration("delay", delay))
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Warn("Ignoring schedule request after shutdown", zap.String("label", label))
		return 0
	}

	s.nextID++
	id := s.nextID
	entry := &pendingEntry{firing: Firing{ID: id, Label: label, Kind: kind}}
	entry.timer = s.clock.AfterFunc(delay, func() { s.fire(id) })
	s.pending[id] = entry

	s.logger.Info("Scheduled entry",
		zap.Int64("id", id),
		zap.String("kind", string(kind)),
		zap.String("label", label),
		zap.Duration("delay", delay))
	return id
}

// ScheduleAt arms a timer for an absolute wall-clock instant. Instants in the
// past clamp to an immediate fire.
func (s *Scheduler) ScheduleAt(kind entities.AlarmKind, label string, at time.Time) int64 {
	return s.Schedule(kind, label, at.Sub(s.clock.Now()))
}

// Cancel removes a pending entry and disarms its timer. It is a silent no-op
// when the id is unknown or the entry already fired.
func (s *Scheduler) Cancel(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[id]
	if !ok {
		return
	}
	entry.timer.Stop()
	delete(s.pending, id)
	s.logger.Info("Cancelled entry", zap.Int64("id", id))
}

// Firings is the notification channel: exactly one Firing per fired entry, in
// fire order. The orchestration loop consumes it and drives the state machine.
func (s *Scheduler) Firings() <-chan Firing {
	return s.firings
}

// CurrentRinging returns the firing occupying the visible ringing slot, or
// nil when nothing has fired undismissed.
func (s *Scheduler) CurrentRinging() *Firing {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fired) == 0 {
		return nil
	}
	top := s.fired[len(s.fired)-1]
	return &top
}

// DismissCurrent acknowledges and discards the visibly ringing entry. It
// returns the firing that takes over the ringing slot, or nil when the queue
// is empty. Calling it when nothing is ringing is a no-op returning nil.
func (s *Scheduler) DismissCurrent() *Firing {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.fired) == 0 {
		return nil
	}
	dismissed := s.fired[len(s.fired)-1]
	s.fired = s.fired[:len(s.fired)-1]
	s.logger.Info("Dismissed entry",
		zap.Int64("id", dismissed.ID),
		zap.String("label", dismissed.Label))

	if len(s.fired) == 0 {
		return nil
	}
	next := s.fired[len(s.fired)-1]
	return &next
}

// PendingCount returns the number of armed, not-yet-fired entries.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Shutdown disarms every pending timer without firing and stops notification
// delivery; the firing channel is closed once the delivery queue drains.
// Further Schedule calls are ignored after shutdown.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, entry := range s.pending {
		entry.timer.Stop()
		delete(s.pending, id)
	}
	close(s.done)
	s.cond.Signal()
	s.logger.Info("Scheduler shut down")
}

func (s *Scheduler) fire(id int64) {
	s.mu.Lock()
	entry, ok := s.pending[id]
	if !ok || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.fired = append(s.fired, entry.firing)
	s.queue = append(s.queue, entry.firing)
	s.cond.Signal()
	s.mu.Unlock()

	s.logger.Info("Entry fired",
		zap.Int64("id", entry.firing.ID),
		zap.String("label", entry.firing.Label),
		zap.String("kind", string(entry.firing.Kind)))
}

// deliver is the single notification drainer: it hands queued firings to the
// channel strictly in fire order, regardless of buffer pressure, and never
// touches the channel after shutdown tears delivery down.
func (s *Scheduler) deliver() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			close(s.firings)
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.firings <- next:
		case <-s.done:
			return
		}
	}
}
