package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuanvuong/mochi/server/domain/entities"
	"github.com/xuanvuong/mochi/server/domain/repositories"
)

// MockTutorModel is a placeholder tutor used when no Gemini API key is
// configured, so the rest of the system stays exercisable offline.
type MockTutorModel struct {
	dispatcher repositories.ReminderDispatcher
}

// NewMockTutorModel creates a mock tutor model.
func NewMockTutorModel(dispatcher repositories.ReminderDispatcher) repositories.TutorModel {
	return &MockTutorModel{dispatcher: dispatcher}
}

// StartSession implements repositories.TutorModel.
func (m *MockTutorModel) StartSession(ctx context.Context, profile entities.UserProfile, subject entities.Subject) (repositories.ChatSession, error) {
	return &mockSession{model: m, profile: profile, subject: subject}, nil
}

type mockSession struct {
	model   *MockTutorModel
	profile entities.UserProfile
	subject entities.Subject
}

// SendMessageStream implements repositories.ChatSession with a canned reply
// delivered as word-by-word chunks. Messages mentioning a reminder schedule a
// one-minute mock reminder through the dispatcher.
func (s *mockSession) SendMessageStream(ctx context.Context, text string, onChunk func(chunk string)) (string, error) {
	reply := fmt.Sprintf(
		"Chào %s! Mình là gia sư Mochi. Hôm nay chúng ta cùng học môn %s nhé. Bạn vừa nói: %q.",
		s.profile.Name, s.subject, text)

	if strings.Contains(strings.ToLower(text), "nhắc") && s.model.dispatcher != nil {
		s.model.dispatcher.SetReminder(time.Minute, "Ôn bài")
		reply += " Mình đã đặt lời nhắc cho bạn rồi đó!"
	}

	var full strings.Builder
	for _, word := range strings.SplitAfter(reply, " ") {
		select {
		case <-ctx.Done():
			return full.String(), ctx.Err()
		default:
		}
		full.WriteString(word)
		onChunk(word)
	}
	return full.String(), nil
}
