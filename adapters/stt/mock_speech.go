package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/repositories"
)

// MockSpeechToText is a placeholder recognizer used when Google Cloud
// credentials are not configured.
type MockSpeechToText struct {
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a mock recognizer.
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{logger: logger}
}

// TranscribeAudio implements repositories.SpeechToText.
func (m *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	m.logger.Info("Mock transcription", zap.Int("bytes", len(audioData)))
	return "Xin chào Mochi", nil
}

// InitTranscribeStreaming implements repositories.SpeechToText.
func (m *MockSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	return &mockStream{}, nil
}

type mockStream struct {
	chunks int
}

func (s *mockStream) Stream(data []byte) error {
	if len(data) > 0 {
		s.chunks++
	}
	return nil
}

func (s *mockStream) End() (string, error) {
	if s.chunks == 0 {
		return "", fmt.Errorf("no audio data received")
	}
	return "Xin chào Mochi", nil
}
