package repositories

import (
	"context"
	"time"

	"github.com/xuanvuong/mochi/server/domain/entities"
)

// TutorModel abstracts the hosted language model behind the tutor.
type TutorModel interface {
	// StartSession opens a fresh server-side chat context scoped to the
	// (profile, subject) pair. Any previous session is discarded.
	StartSession(ctx context.Context, profile entities.UserProfile, subject entities.Subject) (ChatSession, error)
}

// ChatSession is one live conversational context. A new session replaces the
// old one when the learner switches subject; prior history is not carried over.
type ChatSession interface {
	// SendMessageStream sends one user message and streams the reply. onChunk
	// is invoked for every incremental text delta in arrival order; the
	// concatenated full text is returned once the stream terminates.
	SendMessageStream(ctx context.Context, text string, onChunk func(chunk string)) (string, error)
}

// ReminderDispatcher receives set_reminder tool invocations issued by the
// model mid-turn and routes them into the alarm scheduler.
type ReminderDispatcher interface {
	SetReminder(delay time.Duration, label string) int64
}
