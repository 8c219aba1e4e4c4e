package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/nitish-vaani/codeyoung/internal/config"
	"github.com/nitish-vaani/codeyoung/internal/domain"
	"github.com/nitish-vaani/codeyoung/pkg/log"
)

// envelope frames application payloads on the wire.
type envelope struct {
	Type     string          `json:"type"`
	Topic    string          `json:"topic,omitempty"`
	Reliable bool            `json:"reliable,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const envelopeTypeData = "data"

var errRoomClosed = errors.New("room is closed")

// wsRoom is the websocket-backed Room. It owns a read pump and a write pump
// per connection and redials with capped backoff when the link drops.
type wsRoom struct {
	cfg    config.TransportConfig
	wsCfg  config.WebSocketConfig
	events Events

	ctx    context.Context
	cancel context.CancelFunc
	send   chan []byte
	token  string
}

// NewWSRoom returns a Room backed by a websocket connection to the fixed
// configured endpoint.
func NewWSRoom(cfg config.TransportConfig, wsCfg config.WebSocketConfig, events Events) Room {
	ctx, cancel := context.WithCancel(context.Background())
	return &wsRoom{
		cfg:    cfg,
		wsCfg:  wsCfg,
		events: events,
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan []byte, 256),
	}
}

// NewWSDialer adapts NewWSRoom to the Dialer shape.
func NewWSDialer(cfg config.TransportConfig, wsCfg config.WebSocketConfig) Dialer {
	return func(events Events) Room {
		return NewWSRoom(cfg, wsCfg, events)
	}
}

func (r *wsRoom) Connect(ctx context.Context, token string) error {
	r.token = token

	conn, err := r.dial(ctx)
	if err != nil {
		r.cancel()
		return &domain.TransportError{Err: err}
	}

	log.L().Info().Str("url", r.cfg.URL).Msg("room connected")
	// Signal connected before the pumps start so no inbound frame can be
	// delivered ahead of the lifecycle event.
	r.events.connected()
	go r.run(conn)
	return nil
}

func (r *wsRoom) Publish(ctx context.Context, payload []byte, opts PublishOptions) error {
	frame, err := json.Marshal(envelope{
		Type:     envelopeTypeData,
		Topic:    opts.Topic,
		Reliable: opts.Reliable,
		Payload:  payload,
	})
	if err != nil {
		return &domain.PublishError{Err: err}
	}

	if opts.Reliable {
		// Reliable frames block until queued rather than being dropped.
		select {
		case r.send <- frame:
			return nil
		case <-r.ctx.Done():
			return &domain.PublishError{Err: errRoomClosed}
		case <-ctx.Done():
			return &domain.PublishError{Err: ctx.Err()}
		}
	}

	select {
	case r.send <- frame:
	default:
		// Lossy frames may drop when the queue is full.
		log.L().Debug().Str(log.FieldTopic, opts.Topic).Msg("send queue full, dropping lossy frame")
	}
	return nil
}

func (r *wsRoom) Disconnect() error {
	select {
	case <-r.ctx.Done():
		return nil // already closed
	default:
	}
	r.cancel()
	return nil
}

// run supervises one connection at a time, redialling on abnormal loss until
// the attempt budget is spent or the room is closed.
func (r *wsRoom) run(conn *websocket.Conn) {
	for {
		err := r.pump(conn)

		select {
		case <-r.ctx.Done():
			// Explicit local disconnect: no lifecycle event, the caller asked.
			return
		default:
		}

		if isRemoteClose(err) {
			log.L().Info().Msg("room closed by remote")
			r.events.disconnected("remote closed the session")
			return
		}

		log.L().Warn().Err(err).Msg("room connection lost, reconnecting")
		r.events.reconnecting()

		next, rerr := r.redial()
		if rerr != nil {
			log.L().Error().Err(rerr).Msg("room reconnect failed")
			r.events.disconnected(fmt.Sprintf("reconnect failed: %v", rerr))
			return
		}

		conn = next
		log.L().Info().Msg("room reconnected")
		r.events.reconnected()
	}
}

// pump runs the read and write pumps for one connection and returns the
// first failure. The connection is closed before pump returns.
func (r *wsRoom) pump(conn *websocket.Conn) error {
	g, ctx := errgroup.WithContext(r.ctx)

	g.Go(func() error {
		<-ctx.Done()
		// Send a close frame best-effort, then unblock the reader.
		deadline := time.Now().Add(r.wsCfg.WriteWait)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
		return nil
	})

	g.Go(func() error { return r.readPump(conn) })
	g.Go(func() error { return r.writePump(ctx, conn) })

	return g.Wait()
}

func (r *wsRoom) readPump(conn *websocket.Conn) error {
	conn.SetReadLimit(r.wsCfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(r.wsCfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(r.wsCfg.PongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.L().Warn().Err(err).Msg("dropping unparsable room frame")
			continue
		}
		if env.Type != envelopeTypeData {
			continue
		}
		r.events.data(env.Payload)
	}
}

func (r *wsRoom) writePump(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(r.wsCfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-r.send:
			conn.SetWriteDeadline(time.Now().Add(r.wsCfg.WriteWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return err
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(r.wsCfg.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (r *wsRoom) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(r.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", r.token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (r *wsRoom) redial() (*websocket.Conn, error) {
	delay := r.cfg.ReconnectBaseDelay
	var lastErr error

	for attempt := 1; attempt <= r.cfg.ReconnectMaxAttempts; attempt++ {
		select {
		case <-r.ctx.Done():
			return nil, errRoomClosed
		case <-time.After(delay):
		}

		conn, err := r.dial(r.ctx)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		log.L().Warn().Err(err).Int("attempt", attempt).Msg("room redial failed")
		delay *= 2
	}
	return nil, fmt.Errorf("gave up after %d attempts: %w", r.cfg.ReconnectMaxAttempts, lastErr)
}

func isRemoteClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
