package scheduler

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/entities"
)

func newTestScheduler() (*Scheduler, *clock.Mock) {
	mock := clock.NewMock()
	return New(mock, zap.NewNop()), mock
}

func receiveFiring(t *testing.T, s *Scheduler) Firing {
	t.Helper()
	select {
	case f := <-s.Firings():
		return f
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for firing notification")
		return Firing{}
	}
}

func TestScheduleFiresOnce(t *testing.T) {
	s, mock := newTestScheduler()

	id := s.Schedule(entities.KindReminder, "Ôn bài", time.Second)
	if id == 0 {
		t.Fatal("Expected a non-zero id")
	}
	if s.PendingCount() != 1 {
		t.Fatalf("Expected 1 pending entry, got %d", s.PendingCount())
	}

	mock.Add(time.Second)

	f := receiveFiring(t, s)
	if f.ID != id || f.Label != "Ôn bài" || f.Kind != entities.KindReminder {
		t.Errorf("Unexpected firing %+v", f)
	}
	if s.PendingCount() != 0 {
		t.Errorf("Fired entry must leave the pending set, got %d pending", s.PendingCount())
	}

	// No second notification for the same entry.
	mock.Add(time.Hour)
	select {
	case extra := <-s.Firings():
		t.Errorf("Entry fired more than once: %+v", extra)
	default:
	}
}

func TestScheduleIDsMonotonic(t *testing.T) {
	s, _ := newTestScheduler()
	first := s.Schedule(entities.KindAlarm, "a", time.Minute)
	second := s.Schedule(entities.KindAlarm, "b", time.Minute)
	if second <= first {
		t.Errorf("Expected monotonically increasing ids, got %d then %d", first, second)
	}
}

func TestNegativeDelayClampsToImmediate(t *testing.T) {
	s, mock := newTestScheduler()
	s.Schedule(entities.KindAlarm, "ngay bây giờ", -5*time.Second)
	mock.Add(0)

	f := receiveFiring(t, s)
	if f.Label != "ngay bây giờ" {
		t.Errorf("Expected clamped entry to fire immediately, got %+v", f)
	}
}

func TestScheduleAt(t *testing.T) {
	s, mock := newTestScheduler()
	s.ScheduleAt(entities.KindAlarm, "báo thức", mock.Now().Add(2*time.Minute))

	mock.Add(time.Minute)
	select {
	case f := <-s.Firings():
		t.Fatalf("Entry fired early: %+v", f)
	default:
	}

	mock.Add(time.Minute)
	f := receiveFiring(t, s)
	if f.Label != "báo thức" {
		t.Errorf("Unexpected firing %+v", f)
	}
}

func TestCancelDisarmsTimer(t *testing.T) {
	s, mock := newTestScheduler()
	id := s.Schedule(entities.KindReminder, "sẽ huỷ", time.Second)
	s.Cancel(id)

	if s.PendingCount() != 0 {
		t.Errorf("Expected no pending entries after cancel, got %d", s.PendingCount())
	}

	mock.Add(time.Hour)
	select {
	case f := <-s.Firings():
		t.Errorf("Cancelled entry must not fire, got %+v", f)
	default:
	}
}

func TestCancelUnknownIDIsNoop(t *testing.T) {
	s, _ := newTestScheduler()
	s.Cancel(12345) // must not panic or error
}

func TestCancelAfterFireIsNoop(t *testing.T) {
	s, mock := newTestScheduler()
	id := s.Schedule(entities.KindReminder, "đã kêu", time.Second)
	mock.Add(time.Second)
	receiveFiring(t, s)

	s.Cancel(id)
	if s.CurrentRinging() == nil {
		t.Error("Cancel after fire must not discard the fired entry; only dismissal applies")
	}
}

func TestSimultaneousFiringsBothNotify(t *testing.T) {
	s, mock := newTestScheduler()
	first := s.Schedule(entities.KindAlarm, "thứ nhất", time.Second)
	second := s.Schedule(entities.KindAlarm, "thứ hai", time.Second)

	mock.Add(time.Second)

	got := map[int64]bool{}
	got[receiveFiring(t, s).ID] = true
	got[receiveFiring(t, s).ID] = true
	if !got[first] || !got[second] {
		t.Errorf("Both entries must produce independent notifications, got %v", got)
	}

	// Last-fired entry wins the visible ringing slot; the earlier one stays
	// queued and re-rings after dismissal.
	current := s.CurrentRinging()
	if current == nil {
		t.Fatal("Expected a visible ringing entry")
	}

	next := s.DismissCurrent()
	if next == nil {
		t.Fatal("Dismissing the first ring must surface the queued entry, not drop it")
	}
	if next.ID == current.ID {
		t.Error("Queued entry must differ from the dismissed one")
	}

	if s.DismissCurrent() != nil {
		t.Error("Second dismiss must empty the queue")
	}
}

func TestDismissCurrentIdempotent(t *testing.T) {
	s, mock := newTestScheduler()
	s.Schedule(entities.KindReminder, "Ôn bài", time.Second)
	mock.Add(time.Second)
	receiveFiring(t, s)

	if next := s.DismissCurrent(); next != nil {
		t.Errorf("Expected empty queue after dismiss, got %+v", next)
	}
	if next := s.DismissCurrent(); next != nil {
		t.Errorf("Repeated dismiss must stay a no-op, got %+v", next)
	}
	if s.CurrentRinging() != nil {
		t.Error("Expected no ringing entry after dismissal")
	}
}

func TestShutdownStopsPendingTimers(t *testing.T) {
	s, mock := newTestScheduler()
	s.Schedule(entities.KindAlarm, "không bao giờ", time.Second)
	s.Shutdown()

	mock.Add(time.Hour)
	if f, ok := <-s.Firings(); ok {
		t.Errorf("Pending entry must not fire after shutdown, got %+v", f)
	}

	if id := s.Schedule(entities.KindAlarm, "muộn", time.Second); id != 0 {
		t.Errorf("Schedule after shutdown must be ignored, got id %d", id)
	}
}

func TestBurstFiringsDeliveredInOrder(t *testing.T) {
	s, mock := newTestScheduler()
	defer s.Shutdown()

	// Well past the notification buffer size, so delivery pressure cannot
	// reorder or drop anything.
	const n = 100
	for i := 0; i < n; i++ {
		s.Schedule(entities.KindReminder, "Ôn bài", time.Duration(i+1)*time.Millisecond)
	}
	mock.Add(time.Second)

	var last int64
	for i := 0; i < n; i++ {
		f := receiveFiring(t, s)
		if f.ID <= last {
			t.Fatalf("Firing %d out of order: id %d after %d", i, f.ID, last)
		}
		last = f.ID
	}
}

func TestShutdownWithUndeliveredBacklog(t *testing.T) {
	s, mock := newTestScheduler()

	for i := 0; i < 80; i++ {
		s.Schedule(entities.KindReminder, "Ôn bài", time.Duration(i+1)*time.Millisecond)
	}
	mock.Add(time.Second)

	// Nothing consumed the notifications; shutdown must tear delivery down
	// without panicking on the backlog.
	s.Shutdown()
	s.Shutdown() // idempotent
}
