// Package tools routes model-issued tool calls to registered handlers.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vihome-ai/advisor-core/pkg/core/types"
)

// Handler executes one tool. Implementations validate raw arguments into
// typed form before doing any work; argument problems come back as a
// *types.ToolError with kind validation, not as execution failures.
type Handler interface {
	Declaration() types.ToolDeclaration
	Handle(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Router dispatches call batches in order. Results are cached per call
// ID so a replayed batch never re-runs handler side effects.
type Router struct {
	mu       sync.Mutex
	handlers map[string]Handler
	names    []string
	seen     map[string]types.ToolResult
	logger   zerolog.Logger
}

func NewRouter(logger zerolog.Logger) *Router {
	return &Router{
		handlers: make(map[string]Handler),
		seen:     make(map[string]types.ToolResult),
		logger:   logger.With().Str("component", "tools").Logger(),
	}
}

// Register adds h under its declared name, replacing any previous
// handler with that name.
func (r *Router) Register(h Handler) {
	name := h.Declaration().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; !ok {
		r.names = append(r.names, name)
	}
	r.handlers[name] = h
}

// Declarations returns the registered tools in registration order.
func (r *Router) Declarations() []types.ToolDeclaration {
	r.mu.Lock()
	defer r.mu.Unlock()
	decls := make([]types.ToolDeclaration, 0, len(r.names))
	for _, name := range r.names {
		decls = append(decls, r.handlers[name].Declaration())
	}
	return decls
}

// Dispatch runs every call and returns one result per call, in call
// order. Unknown names and handler failures become error results; a
// batch never panics or raises.
func (r *Router) Dispatch(ctx context.Context, calls []types.ToolCall) []types.ToolResult {
	results := make([]types.ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, r.dispatchOne(ctx, call))
	}
	return results
}

// DispatchUntilInvalid runs calls in order but stops at the first
// validation failure, returning the results produced so far with the
// failing one last. Skipped calls are never executed.
func (r *Router) DispatchUntilInvalid(ctx context.Context, calls []types.ToolCall) ([]types.ToolResult, bool) {
	results := make([]types.ToolResult, 0, len(calls))
	for _, call := range calls {
		res := r.dispatchOne(ctx, call)
		results = append(results, res)
		if res.Invalid() {
			return results, true
		}
	}
	return results, false
}

func (r *Router) dispatchOne(ctx context.Context, call types.ToolCall) types.ToolResult {
	r.mu.Lock()
	if call.ID != "" {
		if prev, ok := r.seen[call.ID]; ok {
			r.mu.Unlock()
			return prev
		}
	}
	h := r.handlers[call.Name]
	r.mu.Unlock()

	res := types.ToolResult{ID: call.ID, Name: call.Name}
	if h == nil {
		res.Err = &types.ToolError{
			Kind:   types.ToolErrorUnsupported,
			Reason: fmt.Sprintf("unsupported operation %q", call.Name),
			Hint:   "only declared tools may be called",
		}
	} else {
		payload, err := h.Handle(ctx, call.Args)
		switch e := err.(type) {
		case nil:
			res.Payload = payload
		case *types.ToolError:
			res.Err = e
		default:
			res.Err = &types.ToolError{Kind: types.ToolErrorExecution, Reason: err.Error()}
		}
	}

	if res.Err != nil {
		r.logger.Warn().Str("tool", call.Name).Str("kind", res.Err.Kind).Msg(res.Err.Reason)
	} else {
		r.logger.Debug().Str("tool", call.Name).Msg("dispatched")
	}

	r.mu.Lock()
	if call.ID != "" {
		r.seen[call.ID] = res
	}
	r.mu.Unlock()
	return res
}
