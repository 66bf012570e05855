package websocket

import (
	"testing"
)

func TestMessageValidator_ProfileSubmit(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{
			name: "valid profile",
			message: `{
				"type": "profile_submit",
				"name": "Minh",
				"grade_level": "lớp 8",
				"wake_word": "mochi ơi"
			}`,
			wantErr: false,
		},
		{
			name: "missing name",
			message: `{
				"type": "profile_submit",
				"grade_level": "lớp 8"
			}`,
			wantErr: true,
		},
		{
			name: "missing grade level",
			message: `{
				"type": "profile_submit",
				"name": "Minh"
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageValidator_SelectSubject(t *testing.T) {
	validator := NewMessageValidator()

	valid := `{"type": "select_subject", "subject": "Toán"}`
	if _, err := validator.ValidateMessage([]byte(valid)); err != nil {
		t.Errorf("Valid subject rejected: %v", err)
	}

	unknown := `{"type": "select_subject", "subject": "Thiên văn"}`
	if _, err := validator.ValidateMessage([]byte(unknown)); err == nil {
		t.Error("Unknown subject must be rejected")
	}
}

func TestMessageValidator_SetReminder(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{
			name:    "valid reminder",
			message: `{"type": "set_reminder", "delay_minutes": 15, "label": "Ôn bài Toán"}`,
			wantErr: false,
		},
		{
			name:    "valid alarm kind",
			message: `{"type": "set_reminder", "delay_minutes": 1, "label": "Dậy", "kind": "alarm"}`,
			wantErr: false,
		},
		{
			name:    "zero delay",
			message: `{"type": "set_reminder", "delay_minutes": 0, "label": "Ôn bài"}`,
			wantErr: true,
		},
		{
			name:    "missing label",
			message: `{"type": "set_reminder", "delay_minutes": 5}`,
			wantErr: true,
		},
		{
			name:    "bad kind",
			message: `{"type": "set_reminder", "delay_minutes": 5, "label": "x", "kind": "timer"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageValidator_SendMessage(t *testing.T) {
	validator := NewMessageValidator()

	parsed, err := validator.ValidateMessage([]byte(`{"type": "send_message", "text": "2 + 2 bằng mấy?"}`))
	if err != nil {
		t.Fatalf("Valid message rejected: %v", err)
	}
	msg, ok := parsed.(*SendMessageMessage)
	if !ok {
		t.Fatalf("Expected *SendMessageMessage, got %T", parsed)
	}
	if msg.Text != "2 + 2 bằng mấy?" {
		t.Errorf("Unexpected text: %q", msg.Text)
	}

	if _, err := validator.ValidateMessage([]byte(`{"type": "send_message"}`)); err == nil {
		t.Error("Empty text must be rejected")
	}
}

func TestMessageValidator_ListeningStart(t *testing.T) {
	validator := NewMessageValidator()

	if _, err := validator.ValidateMessage([]byte(`{"type": "listening_start", "sample_rate": 16000}`)); err != nil {
		t.Errorf("Valid listening_start rejected: %v", err)
	}
	if _, err := validator.ValidateMessage([]byte(`{"type": "listening_start", "sample_rate": 100000}`)); err == nil {
		t.Error("Out-of-range sample rate must be rejected")
	}
	// Defaults apply when fields are omitted.
	if _, err := validator.ValidateMessage([]byte(`{"type": "listening_start"}`)); err != nil {
		t.Errorf("Bare listening_start rejected: %v", err)
	}
}

func TestMessageValidator_SleepAndWake(t *testing.T) {
	validator := NewMessageValidator()

	parsed, err := validator.ValidateMessage([]byte(`{"type": "enter_deep_sleep"}`))
	if err != nil {
		t.Fatalf("enter_deep_sleep rejected: %v", err)
	}
	if _, ok := parsed.(*EnterSleepMessage); !ok {
		t.Errorf("Expected *EnterSleepMessage, got %T", parsed)
	}

	if _, err := validator.ValidateMessage([]byte(`{"type": "wake_up"}`)); err != nil {
		t.Errorf("wake_up rejected: %v", err)
	}
}

func TestMessageValidator_UnknownType(t *testing.T) {
	validator := NewMessageValidator()

	if _, err := validator.ValidateMessage([]byte(`{"type": "self_destruct"}`)); err == nil {
		t.Error("Unsupported type must be rejected")
	}
	if _, err := validator.ValidateMessage([]byte(`not json`)); err == nil {
		t.Error("Malformed JSON must be rejected")
	}
}

func TestNewBaseMessageStampsEnvelope(t *testing.T) {
	msg := NewBaseMessage(MessageTypeStateUpdate)
	if msg.Type != MessageTypeStateUpdate {
		t.Errorf("Unexpected type %q", msg.Type)
	}
	if msg.MessageID == "" {
		t.Error("Expected a message id")
	}
	if msg.Timestamp == "" {
		t.Error("Expected a timestamp")
	}
}
