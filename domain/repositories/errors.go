package repositories

import "errors"

// Failure taxonomy of the conversation and audio pipeline. Failures that block
// the learner's current intent surface in the transcript; failures that affect
// only the voice modality degrade silently.
var (
	// ErrSessionNotStarted is returned when a message is sent before a
	// subject has been selected.
	ErrSessionNotStarted = errors.New("chat session not started")
	// ErrStreamFailure wraps network or model errors mid-turn.
	ErrStreamFailure = errors.New("model stream failed")
	// ErrOddPCMLength is returned when an audio payload is not a whole
	// number of 16-bit samples.
	ErrOddPCMLength = errors.New("pcm payload is not a whole number of 16-bit samples")
	// ErrAudioOutputClosed is returned when playback is requested on a
	// closed output.
	ErrAudioOutputClosed = errors.New("audio output closed")
)
