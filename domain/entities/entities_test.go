package entities

import "testing"

func TestUserProfileValidation(t *testing.T) {
	profile := &UserProfile{Name: "Minh", GradeLevel: "lớp 8"}
	if err := profile.Validate(); err != nil {
		t.Errorf("Valid profile should not have validation errors, got: %v", err)
	}

	profile.Name = "  "
	if err := profile.Validate(); err == nil {
		t.Error("Profile with blank name should have validation error")
	}

	profile.Name = "Minh"
	profile.GradeLevel = ""
	if err := profile.Validate(); err == nil {
		t.Error("Profile with empty grade level should have validation error")
	}
}

func TestWakeWordDefault(t *testing.T) {
	profile := &UserProfile{Name: "Minh", GradeLevel: "lớp 8"}
	if got := profile.WakeWordOrDefault(); got != DefaultWakeWord {
		t.Errorf("Expected default wake word %q, got %q", DefaultWakeWord, got)
	}

	profile.WakeWord = "mochi ơi"
	if got := profile.WakeWordOrDefault(); got != "mochi ơi" {
		t.Errorf("Expected configured wake word, got %q", got)
	}
}

func TestMochiStateValid(t *testing.T) {
	for _, s := range []MochiState{
		StateIdle, StateListening, StateThinking, StateSpeaking,
		StateLoading, StateError, StateAlarmRinging, StateEnteringDeepSleep,
	} {
		if !s.Valid() {
			t.Errorf("State %q should be valid", s)
		}
	}
	if MochiState("dancing").Valid() {
		t.Error("Unknown state should not be valid")
	}
}

func TestSubjects(t *testing.T) {
	subjects := Subjects()
	if len(subjects) != 10 {
		t.Fatalf("Expected 10 subjects, got %d", len(subjects))
	}
	if subjects[0] != SubjectGeneral {
		t.Errorf("Expected general chat first, got %q", subjects[0])
	}
	if !ValidSubject(SubjectMath) {
		t.Error("Math should be a valid subject")
	}
	if ValidSubject(Subject("Thiên văn")) {
		t.Error("Unknown subject should not be valid")
	}
}
