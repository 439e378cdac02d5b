// Package audio converts between device sample formats and the PCM the
// model service speaks, and schedules playback on a virtual timeline.
package audio

import (
	"encoding/binary"
	"time"
)

const (
	// CaptureRateHz is the microphone PCM rate sent upstream.
	CaptureRateHz = 16000
	// PlaybackRateHz is the synthesized speech PCM rate received.
	PlaybackRateHz = 24000
	// BytesPerSample for s16le.
	BytesPerSample = 2
)

// FrameSamples returns the capture frame length for a frame duration.
func FrameSamples(d time.Duration) int {
	return int(d.Milliseconds()) * CaptureRateHz / 1000
}

// EncodeFrame quantizes float samples in [-1, 1] to s16le bytes. Samples
// outside the range clamp rather than wrap.
func EncodeFrame(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s*32767.0)))
	}
	return out
}

// DecodeChunk expands s16le bytes to float samples in [-1, 1]. A
// trailing odd byte is dropped.
func DecodeChunk(pcm []byte) []float32 {
	n := len(pcm) / BytesPerSample
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768.0
	}
	return out
}

// PlaybackDuration is the play time of a sample count at the playback
// rate, in seconds.
func PlaybackDuration(samples int) float64 {
	return float64(samples) / PlaybackRateHz
}
