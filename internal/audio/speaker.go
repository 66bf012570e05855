package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/repositories"
)

// Speaker plays sample buffers on the host audio device via malgo. The
// underlying context is constructed lazily on the first Resume, matching the
// platform rule that audio output unlocks on a user gesture.
type Speaker struct {
	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	finish func()
	closed bool
	logger *zap.Logger
}

var _ repositories.AudioOutput = (*Speaker)(nil)

// NewSpeaker creates an unopened speaker. No audio resources are claimed
// until Resume.
func NewSpeaker(logger *zap.Logger) *Speaker {
	return &Speaker{logger: logger}
}

// Resume initializes the audio context if needed. Safe to call repeatedly.
func (s *Speaker) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return repositories.ErrAudioOutputClosed
	}
	if s.ctx != nil {
		return nil
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize audio context: %w", err)
	}
	s.ctx = ctx
	s.logger.Info("Audio output initialized")
	return nil
}

// Play starts playback of mono float samples. The returned channel closes
// when the last sample has been rendered. A playback already in flight is
// interrupted first.
func (s *Speaker) Play(samples []float32, sampleRate int) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, repositories.ErrAudioOutputClosed
	}
	if s.ctx == nil {
		return nil, fmt.Errorf("audio output not resumed")
	}

	s.stopLocked()

	done := make(chan struct{})
	var doneOnce sync.Once
	finish := func() { doneOnce.Do(func() { close(done) }) }
	pos := 0

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatF32
	config.Playback.Channels = Channels
	config.SampleRate = uint32(sampleRate)
	config.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			const bytesPerSample = 4
			for i := uint32(0); i < frameCount; i++ {
				var sample float32
				if pos < len(samples) {
					sample = samples[pos]
					pos++
				}
				binary.LittleEndian.PutUint32(out[i*bytesPerSample:], math.Float32bits(sample))
			}
			if pos >= len(samples) {
				finish()
			}
		},
	}

	device, err := malgo.InitDevice(s.ctx.Context, config, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to open playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	s.device = device
	s.finish = finish

	// Tear the device down off the render thread once the buffer drains.
	go func() {
		<-done
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.device == device {
			device.Uninit()
			s.device = nil
			s.finish = nil
		}
	}()

	return done, nil
}

// Stop interrupts the current playback, if any. The playback's done channel
// still closes so waiters observe completion.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Speaker) stopLocked() {
	if s.device == nil {
		return
	}
	s.device.Uninit()
	s.device = nil
	if s.finish != nil {
		s.finish()
		s.finish = nil
	}
}

// Close releases the device and audio context.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.stopLocked()
	if s.ctx != nil {
		_ = s.ctx.Uninit()
		s.ctx.Free()
		s.ctx = nil
	}
	return nil
}
