// Package history converts application transcripts into the strict
// alternating turn sequence the model service accepts.
package history

import (
	"fmt"
	"strings"

	"github.com/vihome-ai/advisor-core/pkg/core/types"
)

// Placeholder stands in for a message that carried no text and no media,
// so an encoded history never contains an empty turn.
const Placeholder = "..."

// Encode flattens a transcript into alternating turns. Consecutive
// same-role messages merge into one turn, a scripted model greeting
// before any user input is dropped, and a resolved tool invocation
// leaves a marker line. Encode never mutates its input; encoding the
// same transcript twice yields the same turns.
func Encode(transcript []types.Message) []types.Turn {
	turns := make([]types.Turn, 0, len(transcript))
	for _, msg := range transcript {
		if len(turns) == 0 && msg.Role == types.RoleModel {
			// The service requires the first turn to be the user's.
			continue
		}
		parts := messageParts(msg)
		if n := len(turns); n > 0 && turns[n-1].Role == msg.Role {
			turns[n-1].Parts = mergeParts(turns[n-1].Parts, parts)
			continue
		}
		turns = append(turns, types.Turn{Role: msg.Role, Parts: parts})
	}
	return turns
}

func messageParts(msg types.Message) []types.Part {
	text := strings.TrimSpace(msg.Text)
	if msg.Tool != nil {
		status := "ok"
		if !msg.Tool.OK {
			status = "error"
		}
		marker := fmt.Sprintf("[tool name=%s status=%s]", msg.Tool.Name, status)
		if text == "" {
			text = marker
		} else {
			text += "\n" + marker
		}
	}
	var parts []types.Part
	if msg.Image != nil {
		parts = append(parts, types.Part{Media: msg.Image})
	}
	if text == "" && len(parts) == 0 {
		text = Placeholder
	}
	if text != "" {
		parts = append(parts, types.Part{Text: text})
	}
	return parts
}

// mergeParts joins two same-role fragments into one turn. Adjacent text
// parts collapse with a newline so the merged turn reads as a single
// utterance, and a placeholder gives way to real text.
func mergeParts(dst, src []types.Part) []types.Part {
	if len(dst) > 0 && len(src) > 0 {
		last := &dst[len(dst)-1]
		first := src[0]
		if last.Media == nil && first.Media == nil {
			switch {
			case last.Text == Placeholder:
				last.Text = first.Text
			case first.Text == Placeholder:
				// keep existing text
			default:
				last.Text += "\n" + first.Text
			}
			src = src[1:]
		}
	}
	return append(dst, src...)
}
