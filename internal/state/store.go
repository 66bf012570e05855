// Package state owns the global MochiState and the rules governing its
// transitions. Every orchestration component reads and mutates state through
// the Store; presentational components only observe it via subscriptions.
package state

import (
	"sync"

	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/entities"
)

// Snapshot is one observable instant of the application state. The invariant
// holds at every snapshot: State == alarm_ringing iff Ringing != nil.
type Snapshot struct {
	State   entities.MochiState
	Ringing *entities.RingingAlarmInfo
}

// Store is the shared, explicitly-owned state container passed by reference to
// the components that need it.
type Store struct {
	mu      sync.Mutex
	state   entities.MochiState
	ringing *entities.RingingAlarmInfo
	subs    map[int]chan Snapshot
	nextSub int
	logger  *zap.Logger
}

// New creates a Store in the idle state.
func New(logger *zap.Logger) *Store {
	return &Store{
		state:  entities.StateIdle,
		subs:   make(map[int]chan Snapshot),
		logger: logger,
	}
}

// State returns the current state.
func (s *Store) State() entities.MochiState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ringing returns the info of the currently ringing entry, or nil.
func (s *Store) Ringing() *entities.RingingAlarmInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ringing == nil {
		return nil
	}
	info := *s.ringing
	return &info
}

// Current returns a consistent snapshot of state and ringing info.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Set transitions to a non-ringing state. Entering alarm_ringing through Set
// is rejected because the ringing info must be set first; use SetRinging.
// While an alarm rings, Set is also rejected: once fired, only dismissal (or
// a newer firing) leaves alarm_ringing, so a speech playback draining after
// the ring cannot silently cancel the undismissed alarm.
func (s *Store) Set(next entities.MochiState) {
	if !next.Valid() {
		s.logger.Warn("Ignoring transition to unknown state", zap.String("state", string(next)))
		return
	}
	if next == entities.StateAlarmRinging {
		s.logger.Warn("Ignoring direct transition to alarm_ringing without ringing info")
		return
	}

	s.mu.Lock()
	if s.state == entities.StateAlarmRinging {
		s.mu.Unlock()
		s.logger.Warn("Ignoring transition while alarm is ringing; dismissal required",
			zap.String("state", string(next)))
		return
	}
	if s.state == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// SetRinging records the firing info and then transitions to alarm_ringing,
// in that order, so no observer ever sees the ringing state without its info.
// It overrides whatever state was active.
func (s *Store) SetRinging(info entities.RingingAlarmInfo) {
	s.mu.Lock()
	s.ringing = &info
	s.state = entities.StateAlarmRinging
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("Alarm ringing",
		zap.Int64("id", info.ID),
		zap.String("label", info.Label),
		zap.String("kind", string(info.Kind)))
	s.notify(snap)
}

// Dismiss leaves alarm_ringing for idle and clears the ringing info. Dismissal
// always returns to idle, never the prior state. It is idempotent: dismissing
// when nothing is ringing is a no-op.
func (s *Store) Dismiss() {
	s.mu.Lock()
	if s.state != entities.StateAlarmRinging {
		s.mu.Unlock()
		return
	}
	s.state = entities.StateIdle
	s.ringing = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Subscribe registers an observer. The returned channel receives a snapshot
// after every transition; the cancel func must be called to release it. The
// channel is never closed: notify sends outside the mutex, and closing under
// cancel would race a concurrent send. Cancelled channels stop receiving and
// are left to the garbage collector.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 16)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
	return ch, cancel
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state}
	if s.ringing != nil {
		info := *s.ringing
		snap.Ringing = &info
	}
	return snap
}

func (s *Store) notify(snap Snapshot) {
	s.mu.Lock()
	subs := make([]chan Snapshot, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
			s.logger.Warn("Dropping state notification for slow subscriber",
				zap.String("state", string(snap.State)))
		}
	}
}
