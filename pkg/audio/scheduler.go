package audio

import (
	"sort"
	"sync"
	"time"
)

// Clock supplies the playback timeline position in seconds. The real
// clock is monotonic; tests use a fake.
type Clock interface {
	Now() float64
}

// MonotonicClock measures seconds since its creation.
type MonotonicClock struct {
	origin time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{origin: time.Now()}
}

func (c *MonotonicClock) Now() float64 {
	return time.Since(c.origin).Seconds()
}

// Chunk is one scheduled playback buffer.
type Chunk struct {
	Seq      int64
	Samples  []float32
	Start    float64
	Duration float64
}

func (c *Chunk) End() float64 { return c.Start + c.Duration }

// Sink receives chunks as they are scheduled and reports back through
// the scheduler's Complete once a chunk has played out.
type Sink interface {
	Play(c *Chunk)
	Cancel()
}

// Scheduler lines inbound chunks up on a virtual timeline so playback is
// gapless: each chunk starts at the later of the clock position and the
// previous chunk's end, so chunks neither overlap nor leave silence.
// Chunks may arrive out of order and are reordered by sequence number
// before scheduling.
type Scheduler struct {
	mu        sync.Mutex
	clock     Clock
	sink      Sink
	horizon   float64
	nextSeq   int64
	pending   map[int64][]float32
	scheduled map[int64]*Chunk
}

// NewScheduler builds a scheduler over clock. sink may be nil when the
// caller only needs the timeline bookkeeping.
func NewScheduler(clock Clock, sink Sink) *Scheduler {
	return &Scheduler{
		clock:     clock,
		sink:      sink,
		nextSeq:   -1,
		pending:   make(map[int64][]float32),
		scheduled: make(map[int64]*Chunk),
	}
}

// Submit queues a chunk. In-order chunks schedule immediately; a gap
// holds later chunks back until the missing sequence arrives. The first
// submitted sequence anchors the ordering.
func (s *Scheduler) Submit(seq int64, samples []float32) {
	s.mu.Lock()
	if s.nextSeq < 0 {
		s.nextSeq = seq
	}
	s.pending[seq] = samples

	var ready []*Chunk
	for {
		buf, ok := s.pending[s.nextSeq]
		if !ok {
			break
		}
		delete(s.pending, s.nextSeq)
		ready = append(ready, s.scheduleLocked(s.nextSeq, buf))
		s.nextSeq++
	}
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		for _, c := range ready {
			sink.Play(c)
		}
	}
}

func (s *Scheduler) scheduleLocked(seq int64, samples []float32) *Chunk {
	start := s.horizon
	if now := s.clock.Now(); now > start {
		start = now
	}
	c := &Chunk{Seq: seq, Samples: samples, Start: start, Duration: PlaybackDuration(len(samples))}
	s.horizon = c.End()
	s.scheduled[seq] = c
	return c
}

// Complete removes a finished chunk from the registry.
func (s *Scheduler) Complete(seq int64) {
	s.mu.Lock()
	delete(s.scheduled, seq)
	s.mu.Unlock()
}

// Scheduled returns the chunks queued or playing, in start order.
func (s *Scheduler) Scheduled() []Chunk {
	s.mu.Lock()
	out := make([]Chunk, 0, len(s.scheduled))
	for _, c := range s.scheduled {
		out = append(out, *c)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// CancelAll drops everything queued or playing and resets the timeline.
// Safe to call repeatedly.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	s.pending = make(map[int64][]float32)
	s.scheduled = make(map[int64]*Chunk)
	s.horizon = 0
	s.nextSeq = -1
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink.Cancel()
	}
}
