package actuator

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// StateFrame is sent to the renderer for each state change.
type StateFrame struct {
	Type      string `json:"type"`
	State     State  `json:"state"`
	Sequence  int64  `json:"sequence"`
	Timestamp string `json:"timestamp"`
}

// RendererBridge streams orb state snapshots to the external 3D renderer
// over a websocket. The bridge is optional; when the renderer is absent the
// orb still works standalone.
type RendererBridge struct {
	url    string
	logger zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	sequence  int64
	cancel    context.CancelFunc
	pending   chan State
}

// NewRendererBridge creates a bridge targeting the given ws:// URL.
func NewRendererBridge(url string, logger zerolog.Logger) *RendererBridge {
	return &RendererBridge{
		url:     url,
		logger:  logger.With().Str("component", "renderer-bridge").Logger(),
		pending: make(chan State, 64),
	}
}

// Connect starts the connection loop. Reconnects with backoff on failure.
func (b *RendererBridge) Connect(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	go b.connectLoop(ctx)
	return nil
}

// Disconnect stops the bridge and closes the connection.
func (b *RendererBridge) Disconnect() {
	if b.cancel != nil {
		b.cancel()
	}
	b.mu.Lock()
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	b.connected = false
	b.mu.Unlock()
}

// IsConnected returns the connection status.
func (b *RendererBridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Push queues a state snapshot for delivery. Drops the oldest pending frame
// when the queue is full; the renderer only needs the latest state.
func (b *RendererBridge) Push(state State) {
	for {
		select {
		case b.pending <- state:
			return
		default:
			select {
			case <-b.pending:
			default:
			}
		}
	}
}

func (b *RendererBridge) connectLoop(ctx context.Context) {
	backoff := 2 * time.Second
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := b.serve(ctx); err != nil {
			b.mu.Lock()
			b.connected = false
			b.mu.Unlock()

			b.logger.Debug().Err(err).Dur("retryIn", backoff).Msg("renderer connection lost")

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

func (b *RendererBridge) serve(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.conn = conn
	b.connected = true
	b.mu.Unlock()

	b.logger.Info().Str("url", b.url).Msg("connected to renderer")

	defer func() {
		conn.Close()
		b.mu.Lock()
		b.conn = nil
		b.connected = false
		b.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case state := <-b.pending:
			b.mu.Lock()
			b.sequence++
			frame := StateFrame{
				Type:      "avatar_state",
				State:     state,
				Sequence:  b.sequence,
				Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			}
			b.mu.Unlock()

			if err := conn.WriteJSON(frame); err != nil {
				return err
			}
		}
	}
}
