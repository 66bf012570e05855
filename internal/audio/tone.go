package audio

import "math"

// Alarm tone shape: two short beeps followed by silence, looped by the caller
// while the alarm rings.
const (
	toneFrequency = 880.0
	beepDuration  = 0.18
	gapDuration   = 0.12
	restDuration  = 0.50
	toneAmplitude = 0.4
)

// AlarmTone generates one cycle of the alarm beep pattern at the given sample
// rate. The caller replays it until the alarm is dismissed.
func AlarmTone(sampleRate int) []float32 {
	beep := sineBurst(sampleRate, beepDuration)
	gap := make([]float32, int(gapDuration*float64(sampleRate)))
	rest := make([]float32, int(restDuration*float64(sampleRate)))

	cycle := make([]float32, 0, 2*len(beep)+len(gap)+len(rest))
	cycle = append(cycle, beep...)
	cycle = append(cycle, gap...)
	cycle = append(cycle, beep...)
	cycle = append(cycle, rest...)
	return cycle
}

func sineBurst(sampleRate int, seconds float64) []float32 {
	n := int(seconds * float64(sampleRate))
	samples := make([]float32, n)
	for i := range samples {
		// Short linear fade at both ends avoids clicks.
		envelope := 1.0
		fade := n / 10
		if i < fade {
			envelope = float64(i) / float64(fade)
		} else if i > n-fade {
			envelope = float64(n-i) / float64(fade)
		}
		samples[i] = float32(toneAmplitude * envelope *
			math.Sin(2*math.Pi*toneFrequency*float64(i)/float64(sampleRate)))
	}
	return samples
}
