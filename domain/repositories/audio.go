package repositories

// AudioOutput is the platform audio sink owned exclusively by the playback
// pipeline. Outputs may start suspended until Resume succeeds, mirroring
// platform audio-unlock policies.
type AudioOutput interface {
	// Resume unlocks a suspended output. It is safe to call repeatedly.
	Resume() error
	// Play starts playback of mono float samples and returns a channel that
	// closes when playback finishes. At most one playback is in flight;
	// starting a new one interrupts the previous.
	Play(samples []float32, sampleRate int) (<-chan struct{}, error)
	// Stop interrupts the current playback, if any.
	Stop()
	Close() error
}
