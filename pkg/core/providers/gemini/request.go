package gemini

import (
	"encoding/base64"
	"encoding/json"

	"github.com/vihome-ai/advisor-core/pkg/core/types"
)

// GenerateRequest is the provider-level request assembled by sessions:
// prior history, the new user input, and optionally a tool exchange for
// the follow-up round-trip.
type GenerateRequest struct {
	System   string
	Turns    []types.Turn
	Input    []types.Part
	Exchange *ToolExchange
	Tools    []types.ToolDeclaration
}

// ToolExchange carries a follow-up round-trip: the calls the model
// issued and the results produced for them. A short-circuited batch
// reports only the failing result.
type ToolExchange struct {
	Calls   []types.ToolCall
	Results []types.ToolResult
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Tools             []geminiTool    `json:"tools,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	InlineData       *geminiInlineData       `json:"inlineData,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiFunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type geminiFunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDecl `json:"functionDeclarations,omitempty"`
}

type geminiFunctionDecl struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

func buildRequest(req *GenerateRequest) *geminiRequest {
	out := &geminiRequest{}
	if req.System != "" {
		out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	for _, turn := range req.Turns {
		out.Contents = append(out.Contents, geminiContent{
			Role:  string(turn.Role),
			Parts: partsToWire(turn.Parts),
		})
	}
	if len(req.Input) > 0 {
		out.Contents = append(out.Contents, geminiContent{Role: "user", Parts: partsToWire(req.Input)})
	}
	if req.Exchange != nil {
		out.Contents = append(out.Contents, exchangeContents(req.Exchange)...)
	}
	if len(req.Tools) > 0 {
		decls := make([]geminiFunctionDecl, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, geminiFunctionDecl{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
		out.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}
	return out
}

func partsToWire(parts []types.Part) []geminiPart {
	wire := make([]geminiPart, 0, len(parts))
	for _, p := range parts {
		if p.Media != nil {
			wire = append(wire, geminiPart{InlineData: &geminiInlineData{
				MIMEType: p.Media.MIME,
				Data:     base64.StdEncoding.EncodeToString(p.Media.Data),
			}})
			continue
		}
		wire = append(wire, geminiPart{Text: p.Text})
	}
	return wire
}

// exchangeContents echoes back only the calls that produced a result, so
// a short-circuited batch submits just the failing call and its error.
func exchangeContents(ex *ToolExchange) []geminiContent {
	callParts := make([]geminiPart, 0, len(ex.Results))
	respParts := make([]geminiPart, 0, len(ex.Results))
	for i, res := range ex.Results {
		call := matchCall(ex.Calls, res, i)
		callParts = append(callParts, geminiPart{FunctionCall: &geminiFunctionCall{
			ID:   call.ID,
			Name: call.Name,
			Args: call.Args,
		}})
		response := res.Payload
		if res.Err != nil {
			response = map[string]any{"error": res.Err.Reason}
			if res.Err.Hint != "" {
				response["hint"] = res.Err.Hint
			}
		}
		respParts = append(respParts, geminiPart{FunctionResponse: &geminiFunctionResponse{
			ID:       res.ID,
			Name:     res.Name,
			Response: response,
		}})
	}
	return []geminiContent{
		{Role: "model", Parts: callParts},
		{Role: "function", Parts: respParts},
	}
}

func matchCall(calls []types.ToolCall, res types.ToolResult, i int) types.ToolCall {
	for _, c := range calls {
		if c.ID != "" && c.ID == res.ID {
			return c
		}
	}
	for _, c := range calls {
		if c.Name == res.Name {
			return c
		}
	}
	if i < len(calls) {
		return calls[i]
	}
	return types.ToolCall{ID: res.ID, Name: res.Name}
}
