package audio

import (
	"encoding/base64"
	"errors"
	"math"
	"testing"

	"github.com/xuanvuong/mochi/server/domain/repositories"
)

// encodePCM16 is the inverse test helper: floats in [-1, 1) back to s16le.
func encodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(s * 32768.0)
		out[2*i] = byte(uint16(v))
		out[2*i+1] = byte(uint16(v) >> 8)
	}
	return out
}

func TestDecodeRoundTrip(t *testing.T) {
	original := []float32{0, 0.5, -0.5, 0.25, -1.0, 0.99951171875}

	decoded, err := DecodePCM16(encodePCM16(original))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded) != len(original) {
		t.Fatalf("Expected %d samples, got %d", len(original), len(decoded))
	}
	for i := range original {
		if diff := math.Abs(float64(decoded[i] - original[i])); diff > 1.0/32768.0 {
			t.Errorf("Sample %d: expected %f, got %f", i, original[i], decoded[i])
		}
	}
}

func TestDecodeKnownSamples(t *testing.T) {
	// 0x0000 -> 0, 0x4000 -> 0.5, 0x8000 (i.e. -32768) -> -1.
	data := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x80}
	decoded, err := DecodePCM16(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []float32{0, 0.5, -1}
	for i := range want {
		if decoded[i] != want[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, want[i], decoded[i])
		}
	}
}

func TestDecodeOddLengthRejected(t *testing.T) {
	_, err := DecodePCM16([]byte{0x01, 0x02, 0x03})
	if err == nil {
		t.Fatal("Odd byte length must be rejected, not silently wrong")
	}
	if !errors.Is(err, repositories.ErrOddPCMLength) {
		t.Errorf("Expected ErrOddPCMLength, got %v", err)
	}
}

func TestDecodeEmpty(t *testing.T) {
	decoded, err := DecodePCM16(nil)
	if err != nil {
		t.Fatalf("Empty payload should decode to zero samples, got %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("Expected no samples, got %d", len(decoded))
	}
}

func TestDecodeBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte{0x00, 0x40})
	decoded, err := DecodeBase64PCM16(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded) != 1 || decoded[0] != 0.5 {
		t.Errorf("Expected single sample 0.5, got %v", decoded)
	}

	if _, err := DecodeBase64PCM16("not!!base64"); err == nil {
		t.Error("Invalid base64 must be rejected")
	}
}

func TestDuration(t *testing.T) {
	samples := make([]float32, SampleRate) // one second at 24 kHz
	if got := Duration(samples, SampleRate); got != 1.0 {
		t.Errorf("Expected 1 second, got %f", got)
	}
	if got := Duration(samples, 0); got != 0 {
		t.Errorf("Expected 0 for invalid rate, got %f", got)
	}
}

func TestAlarmToneShape(t *testing.T) {
	cycle := AlarmTone(SampleRate)
	if len(cycle) == 0 {
		t.Fatal("Alarm tone must not be empty")
	}
	for i, s := range cycle {
		if s > 1 || s < -1 {
			t.Fatalf("Sample %d out of range: %f", i, s)
		}
	}
	// The trailing rest keeps the loop from being a continuous shriek.
	if cycle[len(cycle)-1] != 0 {
		t.Error("Tone cycle should end in silence")
	}
}
