package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xuanvuong/mochi/server/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client-to-server message types
const (
	MessageTypeProfileSubmit  MessageType = "profile_submit"
	MessageTypeSelectSubject  MessageType = "select_subject"
	MessageTypeSendMessage    MessageType = "send_message"
	MessageTypeDismissAlarm   MessageType = "dismiss_alarm"
	MessageTypeSetReminder    MessageType = "set_reminder"
	MessageTypeCancelReminder MessageType = "cancel_reminder"
	MessageTypeListeningStart MessageType = "listening_start"
	MessageTypeListeningEnd   MessageType = "listening_end"
	MessageTypeEnterSleep     MessageType = "enter_deep_sleep"
	MessageTypeWakeUp         MessageType = "wake_up"
	MessageTypePing           MessageType = "ping"
)

// Server-to-client message types
const (
	MessageTypeStateUpdate   MessageType = "state_update"
	MessageTypeChatMessage   MessageType = "chat_message"
	MessageTypeReminderSet   MessageType = "reminder_set"
	MessageTypeTranscription MessageType = "transcription"
	MessageTypeError         MessageType = "error"
	MessageTypePong          MessageType = "pong"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
}

// NewBaseMessage stamps an outbound envelope with a fresh id and timestamp.
func NewBaseMessage(t MessageType) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: uuid.NewString(),
	}
}

// ProfileSubmitMessage carries the onboarding form.
type ProfileSubmitMessage struct {
	BaseMessage
	Name       string `json:"name"`
	GradeLevel string `json:"grade_level"`
	WakeWord   string `json:"wake_word,omitempty"`
}

// SelectSubjectMessage starts a fresh tutoring session on a subject.
type SelectSubjectMessage struct {
	BaseMessage
	Subject string `json:"subject"`
}

// SendMessageMessage is one typed user turn.
type SendMessageMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// DismissAlarmMessage acknowledges the ringing alarm or reminder.
type DismissAlarmMessage struct {
	BaseMessage
}

// SetReminderMessage arms a reminder directly from the client.
type SetReminderMessage struct {
	BaseMessage
	DelayMinutes float64 `json:"delay_minutes"`
	Label        string  `json:"label"`
	Kind         string  `json:"kind,omitempty"` // "alarm" or "reminder", defaults to reminder
}

// CancelReminderMessage disarms a pending entry by id.
type CancelReminderMessage struct {
	BaseMessage
	ID int64 `json:"id"`
}

// ListeningStartMessage opens a voice capture session; binary frames that
// follow carry the audio until listening_end.
type ListeningStartMessage struct {
	BaseMessage
	SampleRate int    `json:"sample_rate,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
	Language   string `json:"language,omitempty"`
}

// ListeningEndMessage closes the capture session and triggers transcription.
type ListeningEndMessage struct {
	BaseMessage
}

// EnterSleepMessage puts the tutor into deep sleep; the browser sends it when
// the learner leaves the companion unattended.
type EnterSleepMessage struct {
	BaseMessage
}

// WakeUpMessage returns the tutor to idle, typically on wake-word detection.
type WakeUpMessage struct {
	BaseMessage
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
}

// StateUpdateMessage broadcasts the application state after every transition.
type StateUpdateMessage struct {
	BaseMessage
	State   entities.MochiState        `json:"state"`
	Ringing *entities.RingingAlarmInfo `json:"ringing_alarm,omitempty"`
}

// ChatMessageMessage broadcasts one transcript message snapshot. Streaming
// replies re-broadcast the same growing message until is_streaming drops.
type ChatMessageMessage struct {
	BaseMessage
	Speaker     entities.Speaker `json:"speaker"`
	Text        string           `json:"text"`
	IsStreaming bool             `json:"is_streaming"`
}

// ReminderSetMessage confirms a scheduled reminder.
type ReminderSetMessage struct {
	BaseMessage
	ID           int64   `json:"id"`
	Label        string  `json:"label"`
	DelayMinutes float64 `json:"delay_minutes"`
}

// TranscriptionMessage returns the recognized text of a voice capture.
type TranscriptionMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// ErrorMessage reports a rejected or failed request.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// PongMessage answers a client ping.
type PongMessage struct {
	BaseMessage
}

// MessageValidator parses and validates incoming messages.
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage parses an incoming frame into its typed message.
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeProfileSubmit:
		var msg ProfileSubmitMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid profile message: %w", err)
		}
		if msg.Name == "" {
			return nil, fmt.Errorf("name is required")
		}
		if msg.GradeLevel == "" {
			return nil, fmt.Errorf("grade_level is required")
		}
		return &msg, nil

	case MessageTypeSelectSubject:
		var msg SelectSubjectMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid subject message: %w", err)
		}
		if !entities.ValidSubject(entities.Subject(msg.Subject)) {
			return nil, fmt.Errorf("unknown subject: %s", msg.Subject)
		}
		return &msg, nil

	case MessageTypeSendMessage:
		var msg SendMessageMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid chat message: %w", err)
		}
		if msg.Text == "" {
			return nil, fmt.Errorf("text is required")
		}
		return &msg, nil

	case MessageTypeDismissAlarm:
		var msg DismissAlarmMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid dismiss message: %w", err)
		}
		return &msg, nil

	case MessageTypeSetReminder:
		var msg SetReminderMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid reminder message: %w", err)
		}
		if msg.DelayMinutes <= 0 {
			return nil, fmt.Errorf("delay_minutes must be positive")
		}
		if msg.Label == "" {
			return nil, fmt.Errorf("label is required")
		}
		if msg.Kind != "" && msg.Kind != string(entities.KindAlarm) && msg.Kind != string(entities.KindReminder) {
			return nil, fmt.Errorf("kind must be alarm or reminder")
		}
		return &msg, nil

	case MessageTypeCancelReminder:
		var msg CancelReminderMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid cancel message: %w", err)
		}
		if msg.ID <= 0 {
			return nil, fmt.Errorf("id is required")
		}
		return &msg, nil

	case MessageTypeListeningStart:
		var msg ListeningStartMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid listening message: %w", err)
		}
		if msg.SampleRate != 0 && (msg.SampleRate < 8000 || msg.SampleRate > 48000) {
			return nil, fmt.Errorf("sample_rate must be between 8000 and 48000")
		}
		return &msg, nil

	case MessageTypeListeningEnd:
		var msg ListeningEndMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid listening message: %w", err)
		}
		return &msg, nil

	case MessageTypeEnterSleep:
		var msg EnterSleepMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid sleep message: %w", err)
		}
		return &msg, nil

	case MessageTypeWakeUp:
		var msg WakeUpMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid wake message: %w", err)
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}
