package tts

import (
	"context"

	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/repositories"
)

// NullSpeech reports synthesis as unavailable for every request, keeping the
// conversation text-only when no TTS provider is configured.
type NullSpeech struct {
	logger *zap.Logger
}

var _ repositories.TextToSpeech = (*NullSpeech)(nil)

// NewNullSpeech creates the no-op synthesizer.
func NewNullSpeech(logger *zap.Logger) *NullSpeech {
	return &NullSpeech{logger: logger}
}

// Synthesize implements repositories.TextToSpeech.
func (n *NullSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	n.logger.Debug("Skipping synthesis, no TTS provider configured")
	return nil, nil
}
