package voice

import (
	"context"

	"github.com/vihome-ai/advisor-core/pkg/core/types"
)

// TransportEvent is an inbound event from the live connection.
type TransportEvent interface {
	transportEvent()
}

// OpenEvent fires once the setup handshake completes.
type OpenEvent struct{}

// AudioChunkEvent carries one playback chunk of s16le 24 kHz PCM.
type AudioChunkEvent struct {
	Seq int64
	PCM []byte
}

// ToolCallEvent carries a batch of tool calls issued mid-stream.
type ToolCallEvent struct {
	Calls []types.ToolCall
}

// TurnCompleteEvent marks the end of a model speech turn.
type TurnCompleteEvent struct{}

// CloseEvent reports an orderly shutdown by the far side.
type CloseEvent struct {
	Reason string
}

// ErrorEvent reports a transport failure.
type ErrorEvent struct {
	Err error
}

func (OpenEvent) transportEvent()         {}
func (AudioChunkEvent) transportEvent()   {}
func (ToolCallEvent) transportEvent()     {}
func (TurnCompleteEvent) transportEvent() {}
func (CloseEvent) transportEvent()        {}
func (ErrorEvent) transportEvent()        {}

// Transport is a bidirectional live connection to the model service.
type Transport interface {
	Events() <-chan TransportEvent
	SendAudioFrame(pcm []byte, seq int64) error
	SendToolResult(res types.ToolResult) error
	Close() error
}

// Dialer opens a live transport. Tests substitute an in-memory one.
type Dialer func(ctx context.Context) (Transport, error)

// Microphone is the capture device seam. Start begins delivering float
// sample frames until Stop; both must tolerate repeated calls.
type Microphone interface {
	Start(onFrame func(samples []float32)) error
	Stop()
}
