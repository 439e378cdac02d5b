package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gen2brain/malgo"

	"github.com/vihome-ai/advisor-core/pkg/audio"
)

// malgoMic captures mono float32 frames from the default input device.
type malgoMic struct {
	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

func (m *malgoMic) Start(onFrame func([]float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		return nil
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("audio context: %w", err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = audio.CaptureRateHz
	cfg.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			samples := make([]float32, frameCount)
			for i := range samples {
				samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(input[i*4:]))
			}
			onFrame(samples)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, cfg, callbacks)
	if err != nil {
		mctx.Uninit()
		mctx.Free()
		return fmt.Errorf("open capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		mctx.Free()
		return fmt.Errorf("start capture: %w", err)
	}

	m.ctx = mctx
	m.device = device
	return nil
}

func (m *malgoMic) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		m.device.Uninit()
		m.device = nil
	}
	if m.ctx != nil {
		m.ctx.Uninit()
		m.ctx.Free()
		m.ctx = nil
	}
}

// pcmBuffer is a blocking byte FIFO between the scheduler and the oto
// player. It tracks chunk boundaries so completion fires once a chunk's
// bytes have actually been handed to the device.
type pcmBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	data   []byte
	read   int64
	wrote  int64
	marks  []chunkMark
	onDone func(seq int64)
	closed bool
}

type chunkMark struct {
	seq int64
	off int64
}

func newPCMBuffer(onDone func(seq int64)) *pcmBuffer {
	b := &pcmBuffer{onDone: onDone}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *pcmBuffer) push(pcm []byte, seq int64) {
	b.mu.Lock()
	b.data = append(b.data, pcm...)
	b.wrote += int64(len(pcm))
	b.marks = append(b.marks, chunkMark{seq: seq, off: b.wrote})
	b.cond.Signal()
	b.mu.Unlock()
}

func (b *pcmBuffer) Read(p []byte) (int, error) {
	b.mu.Lock()
	for len(b.data) == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.closed && len(b.data) == 0 {
		b.mu.Unlock()
		return 0, io.EOF
	}

	n := copy(p, b.data)
	b.data = b.data[n:]
	b.read += int64(n)

	var done []int64
	for len(b.marks) > 0 && b.marks[0].off <= b.read {
		done = append(done, b.marks[0].seq)
		b.marks = b.marks[1:]
	}
	onDone := b.onDone
	b.mu.Unlock()

	if onDone != nil {
		for _, seq := range done {
			onDone(seq)
		}
	}
	return n, nil
}

func (b *pcmBuffer) flush() {
	b.mu.Lock()
	b.data = nil
	b.marks = nil
	b.read = b.wrote
	b.mu.Unlock()
}

func (b *pcmBuffer) close() {
	b.mu.Lock()
	b.closed = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

// otoSink plays scheduled chunks through the default output device.
// Complete is wired to the scheduler after construction.
type otoSink struct {
	buf    *pcmBuffer
	player *oto.Player

	completeMu sync.Mutex
	complete   func(seq int64)
}

func newOtoSink() (*otoSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   audio.PlaybackRateHz,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   100 * time.Millisecond,
	}
	octx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("speaker: %w", err)
	}
	<-ready

	s := &otoSink{}
	s.buf = newPCMBuffer(func(seq int64) {
		s.completeMu.Lock()
		complete := s.complete
		s.completeMu.Unlock()
		if complete != nil {
			complete(seq)
		}
	})
	s.player = octx.NewPlayer(s.buf)
	s.player.Play()
	return s, nil
}

// OnComplete registers the scheduler's completion callback.
func (s *otoSink) OnComplete(fn func(seq int64)) {
	s.completeMu.Lock()
	s.complete = fn
	s.completeMu.Unlock()
}

func (s *otoSink) Play(c *audio.Chunk) {
	s.buf.push(audio.EncodeFrame(c.Samples), c.Seq)
}

func (s *otoSink) Cancel() {
	s.buf.flush()
}

func (s *otoSink) Close() {
	s.buf.close()
	s.player.Close()
}
