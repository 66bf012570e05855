package entities

import (
	"errors"
	"strings"
)

// MochiState is the single authoritative cross-component state of the tutor.
// Exactly one value holds at any instant.
type MochiState string

const (
	StateIdle              MochiState = "idle"
	StateListening         MochiState = "listening"
	StateThinking          MochiState = "thinking"
	StateSpeaking          MochiState = "speaking"
	StateLoading           MochiState = "loading"
	StateError             MochiState = "error"
	StateAlarmRinging      MochiState = "alarm_ringing"
	StateEnteringDeepSleep MochiState = "entering_deep_sleep"
)

// Valid reports whether s is one of the known states.
func (s MochiState) Valid() bool {
	switch s {
	case StateIdle, StateListening, StateThinking, StateSpeaking,
		StateLoading, StateError, StateAlarmRinging, StateEnteringDeepSleep:
		return true
	}
	return false
}

// Speaker identifies who produced a chat message.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerMochi Speaker = "mochi"
)

// ChatMessage is a single entry in the conversation transcript. The
// assistant's message is mutated in place while its reply streams in.
type ChatMessage struct {
	Speaker     Speaker `json:"speaker"`
	Text        string  `json:"text"`
	IsStreaming bool    `json:"is_streaming,omitempty"`
}

// AlarmKind distinguishes alarms from study reminders.
type AlarmKind string

const (
	KindAlarm    AlarmKind = "alarm"
	KindReminder AlarmKind = "reminder"
)

// RingingAlarmInfo describes the scheduled entry currently occupying the
// visible ringing slot. It exists exactly while the state is alarm_ringing.
type RingingAlarmInfo struct {
	ID    int64     `json:"id"`
	Label string    `json:"label"`
	Kind  AlarmKind `json:"kind"`
}

// DefaultWakeWord is used when the learner did not configure one.
const DefaultWakeWord = "wake phrase"

// UserProfile is the single local learner record, created at onboarding and
// replaced wholesale on resubmission.
type UserProfile struct {
	Name       string `json:"name"`
	GradeLevel string `json:"grade_level"`
	WakeWord   string `json:"wake_word,omitempty"`
}

// Validate validates the profile data.
func (p *UserProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(p.GradeLevel) == "" {
		return errors.New("grade level is required")
	}
	return nil
}

// WakeWordOrDefault returns the configured wake word, falling back to the
// default phrase.
func (p *UserProfile) WakeWordOrDefault() string {
	if strings.TrimSpace(p.WakeWord) == "" {
		return DefaultWakeWord
	}
	return p.WakeWord
}

// Subject is a tutoring subject the learner can pick. Labels are the
// Vietnamese display names shown in the UI.
type Subject string

const (
	SubjectGeneral    Subject = "Trò chuyện chung"
	SubjectMath       Subject = "Toán"
	SubjectPhysics    Subject = "Vật Lý"
	SubjectChemistry  Subject = "Hóa Học"
	SubjectBiology    Subject = "Sinh Học"
	SubjectLiterature Subject = "Ngữ Văn"
	SubjectHistory    Subject = "Lịch Sử"
	SubjectGeography  Subject = "Địa Lý"
	SubjectEnglish    Subject = "Tiếng Anh"
	SubjectIT         Subject = "Tin Học"
)

// Subjects lists every selectable subject in display order.
func Subjects() []Subject {
	return []Subject{
		SubjectGeneral,
		SubjectMath,
		SubjectPhysics,
		SubjectChemistry,
		SubjectBiology,
		SubjectLiterature,
		SubjectHistory,
		SubjectGeography,
		SubjectEnglish,
		SubjectIT,
	}
}

// ValidSubject reports whether s is a known subject.
func ValidSubject(s Subject) bool {
	for _, candidate := range Subjects() {
		if s == candidate {
			return true
		}
	}
	return false
}
