package stt_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/adapters/stt"
	"github.com/xuanvuong/mochi/server/domain/repositories"
)

var (
	_ repositories.SpeechToText = &stt.GoogleSpeechToText{}
	_ repositories.SpeechToText = &stt.MockSpeechToText{}
)

func TestMockStreamRequiresAudio(t *testing.T) {
	mock := stt.NewMockSpeechToText(zap.NewNop())

	stream, err := mock.InitTranscribeStreaming(context.Background(), repositories.AudioConfig{
		SampleRate: 16000,
		Encoding:   "LINEAR16",
		Language:   "vi-VN",
	})
	if err != nil {
		t.Fatalf("InitTranscribeStreaming failed: %v", err)
	}

	if _, err := stream.End(); err == nil {
		t.Error("Ending a stream with no audio must fail")
	}
}

func TestMockStreamTranscribes(t *testing.T) {
	mock := stt.NewMockSpeechToText(zap.NewNop())

	stream, err := mock.InitTranscribeStreaming(context.Background(), repositories.AudioConfig{})
	if err != nil {
		t.Fatalf("InitTranscribeStreaming failed: %v", err)
	}
	if err := stream.Stream([]byte{0x00, 0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	text, err := stream.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if text == "" {
		t.Error("Expected a transcription")
	}
}
