package repositories

import "context"

// TextToSpeech converts finalized reply text into raw audio. Implementations
// return 24 kHz mono 16-bit little-endian PCM. A (nil, nil) result means
// synthesis is unavailable; callers degrade to a text-only reply rather than
// treating it as an error.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
