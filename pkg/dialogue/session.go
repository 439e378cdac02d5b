// Package dialogue runs the request/response advisory conversation.
package dialogue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vihome-ai/advisor-core/pkg/core"
	"github.com/vihome-ai/advisor-core/pkg/core/history"
	"github.com/vihome-ai/advisor-core/pkg/core/providers/gemini"
	"github.com/vihome-ai/advisor-core/pkg/core/retry"
	"github.com/vihome-ai/advisor-core/pkg/core/types"
	"github.com/vihome-ai/advisor-core/pkg/metrics"
	"github.com/vihome-ai/advisor-core/pkg/tools"
)

// ErrBusy is returned when Send is called while another Send is still in
// flight. Callers decide whether to resubmit.
var ErrBusy = errors.New("dialogue: a send is already in flight")

// substituteReply is rendered when the model is unreachable and no
// offline fallback is configured, so the UI always has something to show.
const substituteReply = "Xin lỗi, hệ thống đang gián đoạn. Anh/chị vui lòng thử lại sau ít phút nhé."

// ModelClient is the slice of the provider the session needs.
type ModelClient interface {
	GenerateContent(ctx context.Context, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error)
}

// Options configure a Session.
type Options struct {
	System string
	// Fallback is the precomputed offline reply served on quota
	// exhaustion when retries are disabled.
	Fallback string
	Retry    retry.Policy
	NoRetry  bool
	Metrics  *metrics.Metrics
}

// Session drives one text conversation. At most one Send runs at a time;
// the transcript grows by exactly one user message per Send plus the
// assistant reply.
type Session struct {
	mu     sync.Mutex
	model  ModelClient
	router *tools.Router
	opts   Options
	logger zerolog.Logger

	transcriptMu sync.Mutex
	transcript   []types.Message
}

func NewSession(model ModelClient, router *tools.Router, logger zerolog.Logger, opts Options) *Session {
	return &Session{
		model:  model,
		router: router,
		opts:   opts,
		logger: logger.With().Str("component", "dialogue").Logger(),
	}
}

// Messages returns a snapshot of the transcript.
func (s *Session) Messages() []types.Message {
	s.transcriptMu.Lock()
	defer s.transcriptMu.Unlock()
	out := make([]types.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Session) append(msg types.Message) {
	s.transcriptMu.Lock()
	s.transcript = append(s.transcript, msg)
	s.transcriptMu.Unlock()
}

// Send submits one user utterance, with an optional image attachment,
// and returns the assistant reply. Tool calls issued by the model are
// resolved with exactly one follow-up round-trip.
func (s *Session) Send(ctx context.Context, text string, image *types.Media) (types.Message, error) {
	if !s.mu.TryLock() {
		return types.Message{}, ErrBusy
	}
	defer s.mu.Unlock()

	prior := s.Messages()
	s.append(types.Message{Role: types.RoleUser, Text: text, Image: image})

	req := &gemini.GenerateRequest{
		System: s.opts.System,
		Turns:  history.Encode(prior),
		Input:  inputParts(text, image),
		Tools:  s.router.Declarations(),
	}

	resp, err := s.generate(ctx, req)
	if err != nil {
		return s.degrade(err)
	}

	var toolRec *types.ToolExchangeRecord
	if len(resp.ToolCalls) > 0 {
		resp, toolRec, err = s.resolveTools(ctx, req, resp.ToolCalls)
		if err != nil {
			return s.degrade(err)
		}
	}

	reply := types.Message{Role: types.RoleModel, Text: resp.Text, Tool: toolRec}
	s.append(reply)
	return reply, nil
}

func (s *Session) generate(ctx context.Context, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error) {
	var resp *gemini.GenerateResponse
	op := func(ctx context.Context) error {
		started := time.Now()
		r, err := s.model.GenerateContent(ctx, req)
		s.opts.Metrics.RecordModelRequest("chat", err, time.Since(started))
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	if s.opts.NoRetry {
		err := op(ctx)
		return resp, err
	}

	pol := s.opts.Retry
	pol.OnRetry = func(attempt int, err error) {
		s.opts.Metrics.RecordRetry()
		s.logger.Warn().Err(err).Int("attempt", attempt).Msg("transient model failure, retrying")
	}
	err := pol.Do(ctx, op)
	return resp, err
}

// resolveTools runs the batch and performs the single follow-up
// round-trip. A validation failure short-circuits: only the failing
// result goes back, the remaining calls never execute, and the reply is
// the model's correction request.
func (s *Session) resolveTools(ctx context.Context, req *gemini.GenerateRequest, calls []types.ToolCall) (*gemini.GenerateResponse, *types.ToolExchangeRecord, error) {
	results, invalid := s.router.DispatchUntilInvalid(ctx, calls)
	if invalid {
		results = results[len(results)-1:]
	}
	for _, res := range results {
		s.opts.Metrics.RecordToolDispatch(res.Name, res.Err != nil)
	}

	last := results[len(results)-1]
	rec := &types.ToolExchangeRecord{Name: last.Name, OK: last.Err == nil}

	req.Exchange = &gemini.ToolExchange{Calls: calls, Results: results}
	resp, err := s.generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return resp, rec, nil
}

// degrade turns a terminal failure into something the UI can render. A
// quota failure with retries disabled serves the offline fallback and
// counts as success; anything else appends a substitute reply and still
// reports the cause.
func (s *Session) degrade(err error) (types.Message, error) {
	if s.opts.NoRetry && s.opts.Fallback != "" && core.IsRateLimit(err) {
		s.logger.Warn().Err(err).Msg("quota exhausted, serving offline fallback")
		reply := types.Message{Role: types.RoleModel, Text: s.opts.Fallback}
		s.append(reply)
		return reply, nil
	}
	s.logger.Error().Err(err).Msg("send failed")
	reply := types.Message{Role: types.RoleModel, Text: substituteReply}
	s.append(reply)
	return reply, err
}

func inputParts(text string, image *types.Media) []types.Part {
	var parts []types.Part
	if image != nil {
		parts = append(parts, types.Part{Media: image})
	}
	text = strings.TrimSpace(text)
	if text == "" && len(parts) == 0 {
		text = history.Placeholder
	}
	if text != "" {
		parts = append(parts, types.Part{Text: text})
	}
	return parts
}
