package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/entities"
	"github.com/xuanvuong/mochi/server/domain/repositories"
	"github.com/xuanvuong/mochi/server/internal/audio"
	"github.com/xuanvuong/mochi/server/internal/scheduler"
	"github.com/xuanvuong/mochi/server/internal/state"
)

// Vietnamese fallback lines spoken in the transcript when a turn cannot
// complete normally.
const (
	msgNoSession   = "Phiên trò chuyện chưa được bắt đầu. Vui lòng chọn một chủ đề trước."
	msgStreamError = "Mochi đang gặp sự cố nhỏ, bạn thử lại sau nhé."
)

// EventKind discriminates TutorService events.
type EventKind string

const (
	// EventChatMessage carries a transcript message snapshot, emitted on the
	// user turn, on every streamed delta, and on finalization.
	EventChatMessage EventKind = "chat_message"
	// EventReminderSet confirms a reminder the model scheduled mid-turn.
	EventReminderSet EventKind = "reminder_set"
)

// Event is one observable occurrence pushed to connected clients.
type Event struct {
	Kind     EventKind
	Message  entities.ChatMessage
	Reminder ReminderInfo
}

// ReminderInfo describes a scheduled reminder in an Event.
type ReminderInfo struct {
	ID    int64
	Label string
	Delay time.Duration
}

// TutorService coordinates one learner's conversation with the tutor model:
// it owns the transcript, drives the state machine through each turn, routes
// replies into the speech pipeline, and reacts to scheduler firings. All of
// its methods are safe for concurrent use, but turns are serialized: a new
// message is rejected upstream while one is in flight.
type TutorService struct {
	model    repositories.TutorModel
	tts      repositories.TextToSpeech
	pipeline *audio.Pipeline
	sched    *scheduler.Scheduler
	state    *state.Store
	profiles repositories.ProfileStore
	logger   *zap.Logger

	transcript *entities.Transcript
	events     chan Event

	mu       sync.Mutex
	session  repositories.ChatSession
	profile  *entities.UserProfile
	subject  entities.Subject
	toneStop func()
}

// NewTutorService wires the coordinator. The stored profile, if any, is
// loaded eagerly so a returning learner skips onboarding.
func NewTutorService(
	model repositories.TutorModel,
	tts repositories.TextToSpeech,
	pipeline *audio.Pipeline,
	sched *scheduler.Scheduler,
	stateStore *state.Store,
	profiles repositories.ProfileStore,
	logger *zap.Logger,
) *TutorService {
	s := &TutorService{
		model:      model,
		tts:        tts,
		pipeline:   pipeline,
		sched:      sched,
		state:      stateStore,
		profiles:   profiles,
		logger:     logger,
		transcript: entities.NewTranscript(),
		events:     make(chan Event, 64),
	}

	profile, err := profiles.Load()
	if err != nil {
		logger.Warn("Failed to load stored profile", zap.Error(err))
	} else if profile != nil {
		s.profile = profile
	}
	return s
}

// Events is the stream of transcript and reminder events for broadcast.
func (s *TutorService) Events() <-chan Event {
	return s.events
}

// Transcript exposes the conversation transcript for read access.
func (s *TutorService) Transcript() *entities.Transcript {
	return s.transcript
}

// Profile returns the active learner profile, or nil before onboarding.
func (s *TutorService) Profile() *entities.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// SetProfile validates, persists, and activates the learner profile.
func (s *TutorService) SetProfile(profile entities.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	if err := s.profiles.Save(&profile); err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = &profile
	s.mu.Unlock()

	s.logger.Info("Activated learner profile", zap.String("name", profile.Name))
	return nil
}

// StartChatSession opens a fresh session for the subject, discarding the
// previous session and transcript. The learner must have a profile.
func (s *TutorService) StartChatSession(ctx context.Context, subject entities.Subject) error {
	s.mu.Lock()
	profile := s.profile
	s.mu.Unlock()
	if profile == nil {
		return repositories.ErrSessionNotStarted
	}

	session, err := s.model.StartSession(ctx, *profile, subject)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.session = session
	s.subject = subject
	s.mu.Unlock()

	s.transcript.Clear()
	s.state.Set(entities.StateIdle)

	s.logger.Info("Started chat session",
		zap.String("subject", string(subject)),
		zap.String("learner", profile.Name))
	return nil
}

// Subject returns the subject of the active session.
func (s *TutorService) Subject() entities.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

// SendMessage runs one full conversational turn: append the user message,
// stream the model reply into the transcript, synthesize it, and play it.
// The state machine walks thinking, then speaking while audio plays, and
// settles back to idle. Failures surface as a spoken-style apology in the
// transcript plus the error state; the error is also returned.
func (s *TutorService) SendMessage(ctx context.Context, text string) error {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session == nil {
		s.logger.Warn("Message received before any session was started")
		s.emitMessage(s.transcript.AppendAssistant(msgNoSession))
		s.state.Set(entities.StateError)
		return repositories.ErrSessionNotStarted
	}

	s.emitMessage(s.transcript.AppendUser(text))
	s.state.Set(entities.StateThinking)

	reply, err := session.SendMessageStream(ctx, text, func(chunk string) {
		s.emitMessage(s.transcript.AppendAssistantChunk(chunk))
	})
	if err != nil {
		s.logger.Error("Model stream failed", zap.Error(err))
		s.transcript.FinalizeAssistant()
		s.emitMessage(s.transcript.AppendAssistant(msgStreamError))
		s.state.Set(entities.StateError)
		return err
	}

	if msg, ok := s.transcript.FinalizeAssistant(); ok {
		s.emitMessage(msg)
	}

	if strings.TrimSpace(reply) == "" {
		s.state.Set(entities.StateIdle)
		return nil
	}

	pcm, err := s.tts.Synthesize(ctx, reply)
	if err != nil {
		s.logger.Error("Speech synthesis failed", zap.Error(err))
		s.state.Set(entities.StateIdle)
		return nil
	}
	if len(pcm) == 0 {
		// Synthesis unavailable; the reply stays text-only.
		s.state.Set(entities.StateIdle)
		return nil
	}

	if err := s.pipeline.Speak(ctx, pcm); err != nil {
		s.logger.Error("Playback failed", zap.Error(err))
	}
	return nil
}

// SetReminder implements repositories.ReminderDispatcher: the model's
// set_reminder tool calls land here and arm a scheduler entry.
func (s *TutorService) SetReminder(delay time.Duration, label string) int64 {
	id := s.sched.Schedule(entities.KindReminder, label, delay)
	s.emit(Event{Kind: EventReminderSet, Reminder: ReminderInfo{ID: id, Label: label, Delay: delay}})
	return id
}

// ScheduleEntry arms an alarm or reminder requested directly by the client.
func (s *TutorService) ScheduleEntry(kind entities.AlarmKind, label string, delay time.Duration) int64 {
	return s.sched.Schedule(kind, label, delay)
}

// CancelReminder disarms a pending entry.
func (s *TutorService) CancelReminder(id int64) {
	s.sched.Cancel(id)
}

// DismissAlarm acknowledges the currently ringing entry. When earlier firings
// are still queued the next one rings immediately; otherwise the state machine
// returns to idle regardless of what was active before the ring.
func (s *TutorService) DismissAlarm() {
	s.stopTone()

	next := s.sched.DismissCurrent()
	if next != nil {
		s.logger.Info("Queued firing re-rings after dismissal", zap.Int64("id", next.ID))
		s.ring(*next)
		return
	}
	s.state.Dismiss()
}

// Run consumes scheduler firings until ctx is cancelled. Each firing overrides
// whatever the learner was doing with the ringing state and the alarm tone.
func (s *TutorService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.stopTone()
			return
		case firing, ok := <-s.sched.Firings():
			if !ok {
				return
			}
			s.logger.Info("Entry fired",
				zap.Int64("id", firing.ID),
				zap.String("kind", string(firing.Kind)),
				zap.String("label", firing.Label))
			s.ring(firing)
		}
	}
}

func (s *TutorService) ring(firing scheduler.Firing) {
	s.stopTone()
	s.state.SetRinging(firing.Info())

	s.mu.Lock()
	s.toneStop = s.pipeline.StartAlarmLoop()
	s.mu.Unlock()
}

func (s *TutorService) stopTone() {
	s.mu.Lock()
	stop := s.toneStop
	s.toneStop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (s *TutorService) emitMessage(msg entities.ChatMessage) {
	s.emit(Event{Kind: EventChatMessage, Message: msg})
}

func (s *TutorService) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("Dropping event, broadcast buffer full", zap.String("kind", string(ev.Kind)))
	}
}
