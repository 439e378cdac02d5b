package audio

import (
	"testing"
)

type fakeClock struct {
	now float64
}

func (c *fakeClock) Now() float64 { return c.now }

type recordingSink struct {
	played    []*Chunk
	cancelled int
}

func (s *recordingSink) Play(c *Chunk) { s.played = append(s.played, c) }
func (s *recordingSink) Cancel()       { s.cancelled++ }

func samplesFor(seconds float64) []float32 {
	return make([]float32, int(seconds*PlaybackRateHz))
}

func TestSchedulerGaplessTimeline(t *testing.T) {
	clock := &fakeClock{}
	sink := &recordingSink{}
	s := NewScheduler(clock, sink)

	s.Submit(1, samplesFor(1.0))
	s.Submit(2, samplesFor(0.5))
	s.Submit(3, samplesFor(1.2))

	if len(sink.played) != 3 {
		t.Fatalf("chunks played = %d, want 3", len(sink.played))
	}
	wantStarts := []float64{0, 1.0, 1.5}
	for i, c := range sink.played {
		if c.Start != wantStarts[i] {
			t.Fatalf("chunk %d start = %v, want %v", i+1, c.Start, wantStarts[i])
		}
	}
	if end := sink.played[2].End(); end != 2.7 {
		t.Fatalf("final chunk end = %v, want 2.7", end)
	}
}

func TestSchedulerNeverSchedulesInThePast(t *testing.T) {
	clock := &fakeClock{}
	s := NewScheduler(clock, nil)

	s.Submit(1, samplesFor(0.5))
	// The first chunk finished long ago; the next must start at the
	// clock, not at the stale horizon.
	clock.now = 3.0
	s.Submit(2, samplesFor(0.5))

	chunks := s.Scheduled()
	if chunks[1].Start != 3.0 {
		t.Fatalf("late chunk start = %v, want 3.0", chunks[1].Start)
	}
}

func TestSchedulerReordersBySequence(t *testing.T) {
	clock := &fakeClock{}
	sink := &recordingSink{}
	s := NewScheduler(clock, sink)

	s.Submit(1, samplesFor(0.5))
	s.Submit(3, samplesFor(0.5)) // held back until 2 arrives
	if len(sink.played) != 1 {
		t.Fatalf("chunks played = %d, want 1 while gap is open", len(sink.played))
	}
	s.Submit(2, samplesFor(0.5))
	if len(sink.played) != 3 {
		t.Fatalf("chunks played = %d, want 3 after gap closes", len(sink.played))
	}
	if sink.played[1].Seq != 2 || sink.played[2].Seq != 3 {
		t.Fatalf("play order = [%d %d %d], want [1 2 3]",
			sink.played[0].Seq, sink.played[1].Seq, sink.played[2].Seq)
	}
}

func TestSchedulerCompleteRemovesFromRegistry(t *testing.T) {
	s := NewScheduler(&fakeClock{}, nil)
	s.Submit(1, samplesFor(0.5))
	s.Submit(2, samplesFor(0.5))

	s.Complete(1)

	chunks := s.Scheduled()
	if len(chunks) != 1 || chunks[0].Seq != 2 {
		t.Fatalf("registry = %#v, want only seq 2", chunks)
	}
}

func TestSchedulerCancelAll(t *testing.T) {
	sink := &recordingSink{}
	s := NewScheduler(&fakeClock{}, sink)
	s.Submit(1, samplesFor(0.5))
	s.Submit(5, samplesFor(0.5)) // pending behind a gap

	s.CancelAll()

	if len(s.Scheduled()) != 0 {
		t.Fatalf("registry not empty after CancelAll")
	}
	if sink.cancelled != 1 {
		t.Fatalf("sink.Cancel calls = %d, want 1", sink.cancelled)
	}

	// CancelAll resets the timeline; a new turn starts from scratch.
	s.Submit(7, samplesFor(1.0))
	chunks := s.Scheduled()
	if len(chunks) != 1 || chunks[0].Start != 0 {
		t.Fatalf("post-cancel chunk = %#v, want fresh start at 0", chunks)
	}

	s.CancelAll()
	s.CancelAll() // repeated cancel is harmless
	if sink.cancelled != 3 {
		t.Fatalf("sink.Cancel calls = %d, want 3", sink.cancelled)
	}
}
