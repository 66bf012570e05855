// Package audio converts synthesized speech into playable sample buffers and
// drives the speaking state for exactly the audio's real duration.
package audio

import (
	"encoding/base64"
	"fmt"

	"github.com/xuanvuong/mochi/server/domain/repositories"
)

const (
	// SampleRate is the fixed rate of all synthesized speech.
	SampleRate = 24000
	// Channels is always mono.
	Channels = 1
)

// DecodePCM16 converts 16-bit little-endian PCM samples into floats
// normalized to [-1, 1) by division by 32768. The payload must be a whole
// number of 16-bit samples.
func DecodePCM16(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", repositories.ErrOddPCMLength, len(data))
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		samples[i] = float32(v) / 32768.0
	}
	return samples, nil
}

// DecodeBase64PCM16 decodes a base64 payload, as delivered by the speech
// service, into normalized samples.
func DecodeBase64PCM16(encoded string) ([]float32, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 audio: %w", err)
	}
	return DecodePCM16(data)
}

// Duration returns the real playback duration of a sample buffer at the given
// rate, in seconds.
func Duration(samples []float32, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(samples)) / float64(sampleRate)
}
