package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/vihome-ai/advisor-core/pkg/core"
	"github.com/vihome-ai/advisor-core/pkg/core/types"
)

// GenerateResponse is the parsed model reply.
type GenerateResponse struct {
	Text      string
	ToolCalls []types.ToolCall
	Usage     Usage
}

// Usage reports token accounting when the service includes it.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

func parseResponse(data []byte) (*GenerateResponse, error) {
	var resp geminiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, core.NewAPIError("response contained no candidates")
	}

	out := &GenerateResponse{}
	callSeq := 0
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.FunctionCall != nil:
			fc := part.FunctionCall
			id := fc.ID
			if id == "" {
				// The service omits call ids; synthesize stable ones so
				// results can be matched back.
				callSeq++
				id = fmt.Sprintf("call_%d", callSeq)
			}
			out.ToolCalls = append(out.ToolCalls, types.ToolCall{ID: id, Name: fc.Name, Args: fc.Args})
		case part.Text != "":
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += part.Text
		}
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		}
	}
	return out, nil
}
