// Package voice runs the streaming speech conversation over a live
// transport.
package voice

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vihome-ai/advisor-core/pkg/audio"
	"github.com/vihome-ai/advisor-core/pkg/core/types"
	"github.com/vihome-ai/advisor-core/pkg/metrics"
	"github.com/vihome-ai/advisor-core/pkg/tools"
)

// Config wires a Session.
type Config struct {
	Dial      Dialer
	Mic       Microphone
	Router    *tools.Router
	Scheduler *audio.Scheduler
	// OnStatus is invoked on every state change, outside the session
	// lock; the UI typically drives its indicator from it.
	OnStatus func(Status)
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// Session owns one voice conversation. Its lifecycle is the pure
// transition function in state.go; everything else is resource plumbing
// around it.
type Session struct {
	mu        sync.Mutex
	state     State
	reason    FailReason
	lastErr   error
	transport Transport
	cancel    context.CancelFunc

	dial     Dialer
	mic      Microphone
	router   *tools.Router
	sched    *audio.Scheduler
	onStatus func(Status)
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	seq atomic.Int64
}

func NewSession(cfg Config) *Session {
	return &Session{
		dial:     cfg.Dial,
		mic:      cfg.Mic,
		router:   cfg.Router,
		sched:    cfg.Scheduler,
		onStatus: cfg.OnStatus,
		logger:   cfg.Logger.With().Str("component", "voice").Logger(),
		metrics:  cfg.Metrics,
	}
}

// Status reports the current state and, when failed, why.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{State: s.state, Reason: s.reason, Err: s.lastErr}
}

// Start brings the session up. The microphone is acquired before the
// network so a permission denial fails fast, with a reason the UI can
// distinguish from connectivity trouble.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if next := transition(s.state, evStart); next != StateConnecting {
		s.mu.Unlock()
		return fmt.Errorf("voice: cannot start from %s", s.state)
	}
	st := s.setStateLocked(StateConnecting, FailNone, nil)
	s.mu.Unlock()
	s.notify(st)

	if err := s.mic.Start(s.handleFrame); err != nil {
		s.fail(evMicDenied, FailMicPermission, err)
		return err
	}

	transport, err := s.dial(ctx)
	if err != nil {
		s.fail(evTransportError, FailTransportLost, err)
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.state != StateConnecting {
		// Stopped while dialing; tear the late transport down.
		s.mu.Unlock()
		cancel()
		transport.Close()
		s.mic.Stop()
		return nil
	}
	s.transport = transport
	s.cancel = cancel
	s.mu.Unlock()

	s.metrics.RecordLiveSessionStart()
	go s.eventLoop(runCtx, transport)
	return nil
}

// Stop is valid from any state, never panics, and is idempotent. All
// teardown funnels through cleanup and the session lands back on Idle.
func (s *Session) Stop() {
	s.mu.Lock()
	wasIdle := s.state == StateIdle
	st := s.setStateLocked(transition(s.state, evStop), FailNone, nil)
	s.mu.Unlock()

	if wasIdle {
		return
	}
	s.notify(st)
	s.cleanup()
}

func (s *Session) eventLoop(ctx context.Context, t Transport) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-t.Events():
			if !ok {
				return
			}
			s.handleEvent(ctx, ev)
		}
	}
}

func (s *Session) handleEvent(ctx context.Context, ev TransportEvent) {
	switch ev := ev.(type) {
	case OpenEvent:
		s.mu.Lock()
		if next := transition(s.state, evTransportOpen); next == StateActive {
			st := s.setStateLocked(StateActive, FailNone, nil)
			s.mu.Unlock()
			s.notify(st)
			return
		}
		s.mu.Unlock()
	case AudioChunkEvent:
		s.metrics.RecordAudioBytes("down", len(ev.PCM))
		s.sched.Submit(ev.Seq, audio.DecodeChunk(ev.PCM))
	case ToolCallEvent:
		// Tool batches resolve in-band; the session stays active and
		// keeps streaming audio while handlers run.
		go s.resolveTools(ctx, ev.Calls)
	case TurnCompleteEvent:
		// The scheduler drains on its own.
	case CloseEvent:
		s.fail(evTransportClosed, FailTransportLost, fmt.Errorf("connection closed: %s", ev.Reason))
	case ErrorEvent:
		s.fail(evTransportError, FailTransportLost, ev.Err)
	}
}

func (s *Session) resolveTools(ctx context.Context, calls []types.ToolCall) {
	for _, res := range s.router.Dispatch(ctx, calls) {
		s.metrics.RecordToolDispatch(res.Name, res.Err != nil)

		s.mu.Lock()
		t := s.transport
		s.mu.Unlock()
		if t == nil {
			return
		}
		if err := t.SendToolResult(res); err != nil {
			s.logger.Warn().Err(err).Str("tool", res.Name).Msg("sending tool result failed")
			return
		}
	}
}

// handleFrame forwards one captured frame upstream. Frames arriving
// before the handshake completes, or after teardown, are dropped.
func (s *Session) handleFrame(samples []float32) {
	s.mu.Lock()
	active := s.state == StateActive
	t := s.transport
	s.mu.Unlock()
	if !active || t == nil {
		return
	}

	pcm := audio.EncodeFrame(samples)
	s.metrics.RecordAudioBytes("up", len(pcm))
	if err := t.SendAudioFrame(pcm, s.seq.Add(1)); err != nil {
		s.fail(evTransportError, FailTransportLost, err)
	}
}

func (s *Session) fail(ev event, reason FailReason, err error) {
	s.mu.Lock()
	if s.state == StateFailed || transition(s.state, ev) != StateFailed {
		s.mu.Unlock()
		return
	}
	st := s.setStateLocked(StateFailed, reason, err)
	s.mu.Unlock()

	s.notify(st)
	s.cleanup()
}

// cleanup is the single teardown routine. Every exit path runs it, and
// running it twice is harmless.
func (s *Session) cleanup() {
	s.mu.Lock()
	t := s.transport
	cancel := s.cancel
	s.transport = nil
	s.cancel = nil
	s.mu.Unlock()

	s.mic.Stop()
	s.sched.CancelAll()
	if cancel != nil {
		cancel()
	}
	if t != nil {
		if err := t.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("transport close")
		}
		s.metrics.RecordLiveSessionEnd()
	}
}

func (s *Session) setStateLocked(next State, reason FailReason, err error) Status {
	if next != s.state {
		s.logger.Info().
			Str("from", s.state.String()).
			Str("to", next.String()).
			Str("reason", string(reason)).
			Msg("state change")
	}
	s.state = next
	s.reason = reason
	s.lastErr = err
	return Status{State: next, Reason: reason, Err: err}
}

func (s *Session) notify(st Status) {
	if s.onStatus != nil {
		s.onStatus(st)
	}
}
