package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/vihome-ai/advisor-core/pkg/audio"
	"github.com/vihome-ai/advisor-core/pkg/core/types"
)

// Frame types on the live wire. Every frame is a JSON envelope
// discriminated by its type field.
const (
	frameSetup        = "setup"
	frameSetupAck     = "setup_ack"
	frameAudioFrame   = "audio_frame"
	frameAudioChunk   = "audio_chunk"
	frameToolCall     = "tool_call"
	frameToolResult   = "tool_result"
	frameTurnComplete = "turn_complete"
	frameError        = "error"
)

type liveFrame struct {
	Type         string                  `json:"type"`
	Model        string                  `json:"model,omitempty"`
	System       string                  `json:"system,omitempty"`
	Tools        []types.ToolDeclaration `json:"tools,omitempty"`
	InputRateHz  int                     `json:"input_rate_hz,omitempty"`
	OutputRateHz int                     `json:"output_rate_hz,omitempty"`
	Seq          int64                   `json:"seq,omitempty"`
	Audio        string                  `json:"audio,omitempty"`
	Calls        []types.ToolCall        `json:"calls,omitempty"`
	Result       *types.ToolResult       `json:"result,omitempty"`
	Reason       string                  `json:"reason,omitempty"`
	Message      string                  `json:"message,omitempty"`
}

// LiveConfig configures DialLive.
type LiveConfig struct {
	URL    string
	APIKey string
	Model  string
	System string
	Tools  []types.ToolDeclaration
	Logger zerolog.Logger
}

const liveDialTimeout = 15 * time.Second

// LiveTransport is the websocket implementation of Transport.
type LiveTransport struct {
	conn      *websocket.Conn
	events    chan TransportEvent
	done      chan struct{}
	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
	logger    zerolog.Logger
}

// DialLive connects, sends the setup frame and starts the read loop. The
// transport emits OpenEvent once the server acknowledges the setup.
func DialLive(ctx context.Context, cfg LiveConfig) (*LiveTransport, error) {
	dialCtx, cancel := context.WithTimeout(ctx, liveDialTimeout)
	defer cancel()

	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set("x-goog-api-key", cfg.APIKey)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, cfg.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial live: %w (http %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial live: %w", err)
	}

	t := &LiveTransport{
		conn:   conn,
		events: make(chan TransportEvent, 256),
		done:   make(chan struct{}),
		logger: cfg.Logger.With().Str("component", "live").Logger(),
	}

	setup := liveFrame{
		Type:         frameSetup,
		Model:        cfg.Model,
		System:       cfg.System,
		Tools:        cfg.Tools,
		InputRateHz:  audio.CaptureRateHz,
		OutputRateHz: audio.PlaybackRateHz,
	}
	if err := t.writeFrame(&setup); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send setup: %w", err)
	}

	go t.readLoop()
	return t, nil
}

func (t *LiveTransport) Events() <-chan TransportEvent { return t.events }

// Done is closed when the read loop exits.
func (t *LiveTransport) Done() <-chan struct{} { return t.done }

func (t *LiveTransport) SendAudioFrame(pcm []byte, seq int64) error {
	return t.writeFrame(&liveFrame{
		Type:  frameAudioFrame,
		Seq:   seq,
		Audio: base64.StdEncoding.EncodeToString(pcm),
	})
}

func (t *LiveTransport) SendToolResult(res types.ToolResult) error {
	return t.writeFrame(&liveFrame{Type: frameToolResult, Result: &res})
}

func (t *LiveTransport) writeFrame(f *liveFrame) error {
	if t.closed.Load() {
		return fmt.Errorf("live transport closed")
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteJSON(f)
}

func (t *LiveTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stop")
		t.writeMu.Lock()
		t.conn.WriteMessage(websocket.CloseMessage, msg)
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}

func (t *LiveTransport) readLoop() {
	defer close(t.done)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if t.closed.Load() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.emit(CloseEvent{Reason: err.Error()})
			} else {
				t.emit(ErrorEvent{Err: err})
			}
			return
		}

		var f liveFrame
		if err := json.Unmarshal(data, &f); err != nil {
			t.logger.Warn().Err(err).Msg("discarding malformed frame")
			continue
		}
		switch f.Type {
		case frameSetupAck:
			t.emit(OpenEvent{})
		case frameAudioChunk:
			pcm, err := base64.StdEncoding.DecodeString(f.Audio)
			if err != nil {
				t.logger.Warn().Err(err).Int64("seq", f.Seq).Msg("discarding undecodable audio chunk")
				continue
			}
			t.emit(AudioChunkEvent{Seq: f.Seq, PCM: pcm})
		case frameToolCall:
			t.emit(ToolCallEvent{Calls: f.Calls})
		case frameTurnComplete:
			t.emit(TurnCompleteEvent{})
		case frameError:
			t.emit(ErrorEvent{Err: fmt.Errorf("server error: %s", f.Message)})
		default:
			t.logger.Debug().Str("type", f.Type).Msg("ignoring unknown frame type")
		}
	}
}

// emit never blocks. If the consumer stalls, dropping an event is
// preferable to applying backpressure on the socket.
func (t *LiveTransport) emit(ev TransportEvent) {
	select {
	case t.events <- ev:
	default:
	}
}
