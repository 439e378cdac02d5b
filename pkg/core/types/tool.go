package types

import "encoding/json"

// ToolDeclaration describes a callable tool to the model.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall is a single invocation requested by the model.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Tool error kinds reported back to the model.
const (
	ToolErrorValidation  = "validation"
	ToolErrorUnsupported = "unsupported"
	ToolErrorExecution   = "execution"
)

// ToolError describes a failed invocation. Validation errors carry a
// correction hint the model can act on in its next reply.
type ToolError struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
	Hint   string `json:"hint,omitempty"`
}

func (e *ToolError) Error() string { return e.Reason }

// ToolResult is the outcome of one call, success or failure. Results are
// values reported to the model; they are never raised as Go errors.
type ToolResult struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
	Err     *ToolError     `json:"error,omitempty"`
}

// Invalid reports whether the result failed argument validation.
func (r ToolResult) Invalid() bool {
	return r.Err != nil && r.Err.Kind == ToolErrorValidation
}
