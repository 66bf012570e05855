package audio

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/repositories"
)

// NullOutput is the degraded audio sink used when no playback device is
// available: it renders nothing but still paces completion to the buffer's
// real duration, so the speaking state lasts as long as the audio would have.
type NullOutput struct {
	mu     sync.Mutex
	timer  *time.Timer
	finish func()
	closed bool
	logger *zap.Logger
}

var _ repositories.AudioOutput = (*NullOutput)(nil)

// NewNullOutput creates a silent output.
func NewNullOutput(logger *zap.Logger) *NullOutput {
	return &NullOutput{logger: logger}
}

func (n *NullOutput) Resume() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return repositories.ErrAudioOutputClosed
	}
	return nil
}

func (n *NullOutput) Play(samples []float32, sampleRate int) (<-chan struct{}, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, repositories.ErrAudioOutputClosed
	}
	n.stopLocked()

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	duration := time.Duration(Duration(samples, sampleRate) * float64(time.Second))
	n.timer = time.AfterFunc(duration, finish)
	n.finish = finish
	n.logger.Debug("Silent playback", zap.Duration("duration", duration))
	return done, nil
}

func (n *NullOutput) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
}

func (n *NullOutput) stopLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	if n.finish != nil {
		n.finish()
		n.finish = nil
	}
}

func (n *NullOutput) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.stopLocked()
	return nil
}
