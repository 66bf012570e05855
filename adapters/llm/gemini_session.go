package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xuanvuong/mochi/server/domain/entities"
	"github.com/xuanvuong/mochi/server/domain/repositories"
)

const (
	setReminderTool = "set_reminder"
	// maxToolRounds bounds the tool-call/response exchange within one turn.
	maxToolRounds = 4
)

// setReminderDeclaration describes the one tool the model may invoke: asking
// the scheduler for a future alarm or study reminder.
func setReminderDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        setReminderTool,
		Description: "Đặt lời nhắc học tập hoặc báo thức cho một thời điểm trong tương lai. Tính toán thời gian từ bây giờ đến lúc đó bằng phút.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"delay_minutes": {
					Type:        genai.TypeNumber,
					Description: "Số phút kể từ bây giờ cho đến khi báo thức hoặc lời nhắc vang lên.",
				},
				"label": {
					Type:        genai.TypeString,
					Description: `Nội dung của lời nhắc. Ví dụ: "Ôn tập Toán" hoặc "Nghỉ giải lao".`,
				},
			},
			Required: []string{"delay_minutes", "label"},
		},
	}
}

// geminiSession is one live chat context scoped to a (profile, subject) pair.
// History lives client-side; replacing the session discards it.
type geminiSession struct {
	mu      sync.Mutex
	tutor   *GeminiTutor
	config  *genai.GenerateContentConfig
	history []*genai.Content
	logger  *zap.Logger
}

var _ repositories.ChatSession = (*geminiSession)(nil)

func newGeminiSession(tutor *GeminiTutor, profile entities.UserProfile, subject entities.Subject) *geminiSession {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction(profile, subject), genai.RoleUser),
		Temperature:       genai.Ptr(tutor.temperature),
		Tools: []*genai.Tool{
			{FunctionDeclarations: []*genai.FunctionDeclaration{setReminderDeclaration()}},
		},
	}
	return &geminiSession{
		tutor:  tutor,
		config: config,
		logger: tutor.logger,
	}
}

// SendMessageStream sends one user message and streams the reply. Text deltas
// reach onChunk in arrival order; set_reminder calls are dispatched into the
// scheduler and answered back to the model so the turn can finish verbally.
func (s *geminiSession) SendMessageStream(ctx context.Context, text string, onChunk func(chunk string)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := append(copyContents(s.history), genai.NewContentFromText(text, genai.RoleUser))
	var fullText string

	for round := 0; round < maxToolRounds; round++ {
		modelParts, calls, err := s.streamOnce(ctx, turn, &fullText, onChunk)
		if err != nil {
			return "", err
		}
		if len(modelParts) > 0 {
			turn = append(turn, genai.NewContentFromParts(modelParts, genai.RoleModel))
		}
		if len(calls) == 0 {
			break
		}
		turn = append(turn, s.dispatchCalls(calls))
	}

	s.history = turn
	s.logger.Info("Turn completed",
		zap.Int("history_length", len(s.history)),
		zap.Int("reply_length", len(fullText)))
	return fullText, nil
}

// streamOnce runs one streaming generation pass, forwarding text deltas and
// collecting any tool calls the model issued.
func (s *geminiSession) streamOnce(ctx context.Context, contents []*genai.Content, fullText *string, onChunk func(string)) ([]*genai.Part, []*genai.FunctionCall, error) {
	var (
		modelParts []*genai.Part
		calls      []*genai.FunctionCall
	)

	for resp, err := range s.tutor.client.Models.GenerateContentStream(ctx, s.tutor.model, contents, s.config) {
		if err != nil {
			s.logger.Error("Model stream failed", zap.Error(err))
			return nil, nil, fmt.Errorf("%w: %v", repositories.ErrStreamFailure, err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				*fullText += part.Text
				onChunk(part.Text)
				modelParts = append(modelParts, genai.NewPartFromText(part.Text))
			}
			if part.FunctionCall != nil {
				calls = append(calls, part.FunctionCall)
				modelParts = append(modelParts, genai.NewPartFromFunctionCall(part.FunctionCall.Name, part.FunctionCall.Args))
			}
		}
	}
	return modelParts, calls, nil
}

// dispatchCalls routes set_reminder invocations into the scheduler and builds
// the tool-response content confirming each scheduling.
func (s *geminiSession) dispatchCalls(calls []*genai.FunctionCall) *genai.Content {
	parts := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		if call.Name != setReminderTool {
			s.logger.Warn("Ignoring unknown tool call", zap.String("name", call.Name))
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, map[string]any{
				"error": "unknown function",
			}))
			continue
		}

		minutes, _ := call.Args["delay_minutes"].(float64)
		label, _ := call.Args["label"].(string)
		delay := time.Duration(minutes * float64(time.Minute))
		id := s.tutor.dispatcher.SetReminder(delay, label)

		s.logger.Info("Dispatched reminder tool call",
			zap.Float64("delay_minutes", minutes),
			zap.String("label", label),
			zap.Int64("id", id))
		parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, map[string]any{
			"status": "scheduled",
			"id":     id,
		}))
	}
	return genai.NewContentFromParts(parts, genai.RoleUser)
}

func copyContents(contents []*genai.Content) []*genai.Content {
	out := make([]*genai.Content, len(contents))
	copy(out, contents)
	return out
}
