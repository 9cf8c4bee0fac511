package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const wsWriteTimeout = 10 * time.Second

// ConnectionState is the state of a WsEndpoint.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// WsConfig configures a websocket connection. Callbacks run on the
// endpoint's goroutine and must not block for long.
type WsConfig struct {
	// OnMessage is called for every message received.
	OnMessage func(msg WsMsg)
	// OnConnect is called when a connection has been (re)established.
	OnConnect func()
	// OnReconnect is called after a connection was lost unexpectedly, before
	// the next attempt. Only called if AutoReconnect is set.
	OnReconnect func(err error)
	// OnError is called for dial, read and decode errors.
	OnError func(err error)
	// OnEnd is called once, after Close or, without AutoReconnect, after the
	// first disconnect. err is nil after Close.
	OnEnd func(err error)

	AutoReconnect  bool
	ReconnectDelay time.Duration
}

// DefaultReconnectDelay is used when WsConfig.ReconnectDelay is not positive.
const DefaultReconnectDelay = 2 * time.Second

// DefaultWsConfig reconnects automatically.
func DefaultWsConfig() WsConfig {
	return WsConfig{
		AutoReconnect:  true,
		ReconnectDelay: DefaultReconnectDelay,
	}
}

type wsSub struct {
	scriptType ScriptType
	payload    []byte
}

// WsEndpoint is a websocket connection to Chronik. Subscriptions survive
// reconnects: they are re-sent every time a connection opens.
type WsEndpoint struct {
	url     string
	cfg     WsConfig
	client  *Client
	dialer  *websocket.Dialer
	logger  *zap.Logger
	metrics *Metrics

	mu     sync.Mutex
	conn   *websocket.Conn
	state  ConnectionState
	subs   []wsSub
	openCh chan struct{}
	closed bool

	cancel    context.CancelFunc
	closeOnce sync.Once
	closeCh   chan struct{}
	doneCh    chan struct{}
}

// WS opens a websocket connection in the background. The connection is
// closed when ctx is done or Close is called.
func (c *Client) WS(ctx context.Context, cfg WsConfig) *WsEndpoint {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	ctx, cancel := context.WithCancel(ctx)
	ws := &WsEndpoint{
		url:    c.wsURL,
		cfg:    cfg,
		client: c,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: c.timeout,
		},
		logger:  c.logger,
		metrics: c.metrics,
		state:   StateDisconnected,
		openCh:  make(chan struct{}),
		cancel:  cancel,
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	go ws.run(ctx)
	go func() {
		<-ctx.Done()
		ws.Close()
	}()

	return ws
}

func (ws *WsEndpoint) run(ctx context.Context) {
	defer close(ws.doneCh)
	defer ws.cancel()

	var endErr error
	for {
		err := ws.connectAndRead(ctx)
		if ws.isClosed() {
			break
		}
		if !ws.cfg.AutoReconnect {
			endErr = err
			break
		}

		ws.setState(StateReconnecting)
		ws.metrics.OnReconnect()
		ws.logger.Sugar().Debugw("Reconnecting to Chronik",
			zap.String("url", ws.url),
			zap.Error(err),
		)
		if ws.cfg.OnReconnect != nil {
			ws.cfg.OnReconnect(err)
		}

		timer := time.NewTimer(ws.cfg.ReconnectDelay)
		select {
		case <-ws.closeCh:
			timer.Stop()
		case <-timer.C:
		}
		if ws.isClosed() {
			break
		}
	}

	ws.setState(StateClosed)
	if ws.cfg.OnEnd != nil {
		ws.cfg.OnEnd(endErr)
	}
}

// connectAndRead dials, replays subscriptions and reads until the
// connection fails.
func (ws *WsEndpoint) connectAndRead(ctx context.Context) error {
	ws.mu.Lock()
	if ws.state != StateReconnecting {
		ws.state = StateConnecting
	}
	ws.mu.Unlock()
	ws.metrics.OnStateChange(StateConnecting)

	conn, _, err := ws.dialer.DialContext(ctx, ws.url, nil)
	if err != nil {
		ws.setState(StateDisconnected)
		if !ws.isClosed() {
			ws.reportError(errors.Wrapf(err, "failed to dial %s", ws.url))
		}
		return err
	}

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	ws.conn = conn
	ws.state = StateConnected
	for _, sub := range ws.subs {
		if err := ws.writeSub(conn, false, sub); err != nil {
			ws.logger.Sugar().Warnw("Failed to resubscribe",
				zap.String("scriptType", string(sub.scriptType)),
				zap.Error(err),
			)
		}
	}
	close(ws.openCh)
	ws.mu.Unlock()

	ws.metrics.OnStateChange(StateConnected)
	ws.logger.Sugar().Debugw("Connected to Chronik", zap.String("url", ws.url))
	if ws.cfg.OnConnect != nil {
		ws.cfg.OnConnect()
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			ws.mu.Lock()
			ws.conn = nil
			ws.openCh = make(chan struct{})
			if !ws.closed {
				ws.state = StateDisconnected
			}
			ws.mu.Unlock()
			conn.Close()

			if !ws.isClosed() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ws.reportError(err)
			}
			return err
		}
		ws.handleMessage(msgType, data)
	}
}

func (ws *WsEndpoint) handleMessage(msgType int, data []byte) {
	if msgType != websocket.BinaryMessage {
		ws.reportError(ErrUnexpectedTextMessage)
		return
	}

	decoded, err := ws.client.codec.Decode("WsMsg", data)
	if err != nil {
		ws.reportError(errors.Wrapf(ErrInvalidProtobuf, "%v: %s", err, hex.EncodeToString(data)))
		return
	}
	msg, ok := convertWsMsg(decoded)
	if !ok {
		ws.logger.Sugar().Warnw("Ignored unknown Chronik message", zap.Any("msg", decoded))
		return
	}

	ws.metrics.OnWsMessage(msg.Type)
	if ws.cfg.OnMessage != nil {
		ws.cfg.OnMessage(msg)
	}
}

func (ws *WsEndpoint) reportError(err error) {
	ws.logger.Sugar().Debugw("Chronik websocket error", zap.Error(err))
	if ws.cfg.OnError != nil {
		ws.cfg.OnError(err)
	}
}

// WaitForOpen blocks until a connection is open.
func (ws *WsEndpoint) WaitForOpen(ctx context.Context) error {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return ErrClosed
	}
	openCh := ws.openCh
	ws.mu.Unlock()

	select {
	case <-openCh:
		return nil
	case <-ws.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe subscribes to txs of a script. The subscription is sent right
// away when connected, and on every later (re)connect.
func (ws *WsEndpoint) Subscribe(scriptType ScriptType, payloadHex string) error {
	sub, err := newWsSub(scriptType, payloadHex)
	if err != nil {
		return err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return ErrClosed
	}
	ws.subs = append(ws.subs, sub)
	if ws.conn != nil && ws.state == StateConnected {
		return ws.writeSub(ws.conn, false, sub)
	}
	return nil
}

// Unsubscribe removes every subscription to the script.
func (ws *WsEndpoint) Unsubscribe(scriptType ScriptType, payloadHex string) error {
	sub, err := newWsSub(scriptType, payloadHex)
	if err != nil {
		return err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return ErrClosed
	}
	kept := ws.subs[:0]
	for _, s := range ws.subs {
		if s.scriptType != sub.scriptType || !bytes.Equal(s.payload, sub.payload) {
			kept = append(kept, s)
		}
	}
	ws.subs = kept
	if ws.conn != nil && ws.state == StateConnected {
		return ws.writeSub(ws.conn, true, sub)
	}
	return nil
}

func newWsSub(scriptType ScriptType, payloadHex string) (wsSub, error) {
	if _, err := ParseScriptType(string(scriptType)); err != nil {
		return wsSub{}, err
	}
	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		return wsSub{}, errors.Wrapf(ErrInvalidArgument, "script payload %q is not hex", payloadHex)
	}
	return wsSub{scriptType: scriptType, payload: payload}, nil
}

// writeSub must be called with mu held; gorilla connections allow a single
// concurrent writer.
func (ws *WsEndpoint) writeSub(conn *websocket.Conn, isUnsub bool, sub wsSub) error {
	data, err := ws.client.codec.Encode("WsSub", map[string]interface{}{
		"is_unsub": isUnsub,
		"script": map[string]interface{}{
			"script_type": string(sub.scriptType),
			"payload":     sub.payload,
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode subscription")
	}
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close closes the connection and stops reconnecting. It does not wait;
// use Done for that.
func (ws *WsEndpoint) Close() {
	ws.closeOnce.Do(func() {
		ws.mu.Lock()
		ws.closed = true
		conn := ws.conn
		ws.mu.Unlock()

		close(ws.closeCh)
		ws.cancel()

		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		}
	})
}

// Done is closed after the endpoint stopped and OnEnd returned.
func (ws *WsEndpoint) Done() <-chan struct{} {
	return ws.doneCh
}

func (ws *WsEndpoint) State() ConnectionState {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.state
}

func (ws *WsEndpoint) setState(state ConnectionState) {
	ws.mu.Lock()
	ws.state = state
	ws.mu.Unlock()
	ws.metrics.OnStateChange(state)
}

func (ws *WsEndpoint) isClosed() bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.closed
}
