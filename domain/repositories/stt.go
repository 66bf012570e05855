package repositories

import "context"

// SpeechToText abstracts the platform speech recognition service. A single
// final transcript is forwarded directly into the conversation coordinator.
type SpeechToText interface {
	// TranscribeAudio converts a complete utterance to text.
	TranscribeAudio(ctx context.Context, audioData []byte, config AudioConfig) (string, error)
	// InitTranscribeStreaming opens a streaming recognition session for
	// chunked capture.
	InitTranscribeStreaming(ctx context.Context, config AudioConfig) (SpeechToTextStreaming, error)
}

// AudioConfig describes captured audio handed to speech recognition.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// SpeechToTextStreaming consumes audio chunks and yields one final transcript.
type SpeechToTextStreaming interface {
	Stream(data []byte) error
	End() (string, error)
}
