package main

import (
	"encoding/binary"
	"math"
	"sync"
	"time"
)

// tone is the demo's only effect, two detuned sine oscillators rendered
// straight into the audio stream. It doubles as the demo's clock: the
// number of frames the audio driver has pulled while running is the
// authoritative position, so the sync stays locked to what is heard.
//
// The audio driver calls Read from its own goroutine, so every access goes
// through the mutex.
type tone struct {
	mu          sync.Mutex
	sampleRate  int
	frames      int64
	running     bool
	note        float32
	gain        float32
	pan         float32
	detune      float32
	jamNote     int
	jamVelocity uint8
	phase       [2]float64
}

func newTone(sampleRate int) *tone {
	return &tone{sampleRate: sampleRate, jamNote: -1}
}

const toneFrameBytes = 8 // stereo float32

// Read fills p with interleaved stereo little-endian float32 frames for the
// audio driver. While a jam note is held it overrides the track-driven
// pitch and gain, so there is something to hear even when the tracker is
// paused; the clock only advances while running.
func (t *tone) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(p) / toneFrameBytes * toneFrameBytes
	note := float64(t.note)
	gain := float64(t.gain)
	if t.jamNote >= 0 {
		note = float64(t.jamNote)
		gain = float64(t.jamVelocity) / 127
	} else if !t.running {
		gain = 0
	}
	if gain < 0 {
		gain = 0
	}
	pan := math.Min(1, math.Max(0, float64(t.pan)))
	gains := [2]float64{gain * (1 - pan), gain * pan}
	freqs := [2]float64{noteFreq(note), noteFreq(note + float64(t.detune))}
	for i := 0; i < n; i += toneFrameBytes {
		var mix float64
		for osc := range t.phase {
			t.phase[osc] += freqs[osc] / float64(t.sampleRate)
			t.phase[osc] -= math.Floor(t.phase[osc])
			mix += math.Sin(2 * math.Pi * t.phase[osc])
		}
		mix /= 2
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(float32(mix*gains[0])))
		binary.LittleEndian.PutUint32(p[i+4:], math.Float32bits(float32(mix*gains[1])))
	}
	if t.running {
		t.frames += int64(n / toneFrameBytes)
	}
	return n, nil
}

// Time returns the position of the audio clock.
func (t *tone) Time() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(float64(t.frames) / float64(t.sampleRate) * float64(time.Second))
}

// Seek moves the audio clock, typically because the tracker jumped rows.
func (t *tone) Seek(pos time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = int64(pos.Seconds() * float64(t.sampleRate))
}

// SetRunning starts or stops the clock. A stopped tone renders silence
// unless a jam note is held.
func (t *tone) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = running
}

// Set updates the track-driven parameters: MIDI note number of the
// oscillator pair, gain 0..1, pan 0 (left) to 1 (right) and the detune of
// the second oscillator in semitones.
func (t *tone) Set(note, gain, pan, detune float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.note, t.gain, t.pan, t.detune = note, gain, pan, detune
}

// PressNote starts jamming the given MIDI note.
func (t *tone) PressNote(key, velocity uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jamNote = int(key)
	t.jamVelocity = velocity
}

// ReleaseNote stops jamming, unless another note was pressed since.
func (t *tone) ReleaseNote(key uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.jamNote == int(key) {
		t.jamNote = -1
	}
}

func noteFreq(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}
