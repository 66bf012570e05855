package audio

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/entities"
	"github.com/xuanvuong/mochi/server/domain/repositories"
	"github.com/xuanvuong/mochi/server/internal/state"
)

// Pipeline plays synthesized speech through the audio output and keeps the
// state machine in speaking for exactly the playback's real duration. The
// output is owned exclusively by the pipeline; callers serialize playback by
// only initiating it after a turn completes.
type Pipeline struct {
	mu     sync.Mutex
	out    repositories.AudioOutput
	store  *state.Store
	logger *zap.Logger
}

// NewPipeline creates a playback pipeline bound to the given output and state
// store.
func NewPipeline(out repositories.AudioOutput, store *state.Store, logger *zap.Logger) *Pipeline {
	return &Pipeline{out: out, store: store, logger: logger}
}

// Speak decodes 24 kHz mono s16le PCM and plays it. The state becomes
// speaking the instant playback starts and returns to idle exactly once when
// it ends, even if playback is interrupted. Speak blocks until playback
// completes or ctx is cancelled; any error means no audio was produced and
// the caller should treat the reply as text-only.
func (p *Pipeline) Speak(ctx context.Context, pcm []byte) error {
	samples, err := DecodePCM16(pcm)
	if err != nil {
		p.logger.Error("Rejecting malformed audio payload", zap.Error(err))
		return err
	}
	if len(samples) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Platform policy may keep the output suspended until a user gesture;
	// resume transparently before every playback.
	if err := p.out.Resume(); err != nil {
		p.logger.Error("Failed to resume audio output", zap.Error(err))
		return fmt.Errorf("audio output unavailable: %w", err)
	}

	done, err := p.out.Play(samples, SampleRate)
	if err != nil {
		p.logger.Error("Failed to start playback", zap.Error(err))
		return err
	}

	p.store.Set(entities.StateSpeaking)
	p.logger.Info("Playback started",
		zap.Int("samples", len(samples)),
		zap.Float64("seconds", Duration(samples, SampleRate)))

	var idleOnce sync.Once
	toIdle := func() { idleOnce.Do(func() { p.store.Set(entities.StateIdle) }) }

	select {
	case <-done:
	case <-ctx.Done():
		p.out.Stop()
	}
	toIdle()
	return nil
}

// StartAlarmLoop plays the alarm tone on repeat until the returned stop func
// is called. An output failure is reported once and swallowed; the caller's
// state transition to alarm_ringing happens regardless.
func (p *Pipeline) StartAlarmLoop() func() {
	stop := make(chan struct{})
	var stopOnce sync.Once

	go func() {
		cycle := AlarmTone(SampleRate)
		if err := p.out.Resume(); err != nil {
			p.logger.Error("Alarm tone unavailable", zap.Error(err))
			return
		}
		for {
			select {
			case <-stop:
				return
			default:
			}

			done, err := p.out.Play(cycle, SampleRate)
			if err != nil {
				p.logger.Error("Failed to play alarm tone", zap.Error(err))
				return
			}
			select {
			case <-done:
			case <-stop:
				p.out.Stop()
				return
			}
		}
	}()

	return func() { stopOnce.Do(func() { close(stop) }) }
}
