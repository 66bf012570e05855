package api

import "github.com/xuanvuong/mochi/server/domain/entities"

// ProfileRequest represents the onboarding form payload
type ProfileRequest struct {
	Name       string `json:"name"`
	GradeLevel string `json:"grade_level"`
	WakeWord   string `json:"wake_word,omitempty"`
}

// ProfileResponse represents the stored learner profile
type ProfileResponse struct {
	Name       string `json:"name"`
	GradeLevel string `json:"grade_level"`
	WakeWord   string `json:"wake_word"`
}

// SubjectsResponse lists the selectable tutoring subjects
type SubjectsResponse struct {
	Subjects []entities.Subject `json:"subjects"`
}

// StateResponse reports the current application state
type StateResponse struct {
	State   entities.MochiState        `json:"state"`
	Ringing *entities.RingingAlarmInfo `json:"ringing_alarm,omitempty"`
}

// TranscriptResponse returns the conversation transcript
type TranscriptResponse struct {
	Messages []entities.ChatMessage `json:"messages"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
