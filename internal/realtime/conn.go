// Package realtime implements the client side of Overleaf's realtime
// (socket.io 0.9-style) event channel: transport negotiation over HTTPS,
// a websocket event session, and a synchronous wait for named events.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"github.com/olsync/olsync/internal/logger"
)

// negotiationPath is the socket.io v1 handshake endpoint.
const negotiationPath = "/socket.io/1/"

// writeTimeout bounds a single websocket write.
const writeTimeout = 5 * time.Second

// State describes the lifecycle of a connection. A connection moves
// strictly forward: Unconnected → Handshaking → Open → Closed, and reaches
// Closed at most once.
type State int32

const (
	StateUnconnected State = iota
	StateHandshaking
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateHandshaking:
		return "handshaking"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options configures a realtime connection.
type Options struct {
	// BaseURL is the Overleaf instance, scheme included (http/https).
	BaseURL string

	// CookieHeader is the full Cookie header value authenticating both
	// handshake layers.
	CookieHeader string

	// Params are the connection query parameters ("t", "projectId"),
	// forwarded on both handshake layers.
	Params map[string]string

	// HandshakeTimeout bounds the transport negotiation request and the
	// websocket upgrade.
	HandshakeTimeout time.Duration

	Logger *logger.Logger
}

// handshake is the parsed transport negotiation response.
type handshake struct {
	SID        string
	Transports []string
}

// Conn is a live event channel. It is owned by a single invocation and
// must not be shared across calls.
type Conn struct {
	ws  *websocket.Conn
	log *logger.Logger

	// writeMu serializes all websocket writes; the read side is owned
	// exclusively by readLoop.
	writeMu sync.Mutex

	state atomic.Int32

	connectOnce sync.Once
	connected   chan struct{}

	closeOnce sync.Once
	closeErr  error

	// done is closed when readLoop exits, i.e. the channel is dead.
	done chan struct{}

	mu      sync.Mutex
	waiters map[string]chan event
	// backlog keeps the latest event per name that arrived before a
	// waiter was armed, so delivery cannot race registration.
	backlog map[string]event
}

// Dial establishes the event channel. It performs the two-layer handshake
// and does not return before the server's connect acknowledgment has been
// observed, so establishment is synchronous from the caller's perspective.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	hs, err := negotiate(ctx, opts)
	if err != nil {
		return nil, err
	}
	log.Info().Str("sid", hs.SID).Msg("transport negotiated")

	wsURL, err := sessionURL(opts.BaseURL, hs.SID, opts.Params)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	header := http.Header{"Cookie": {opts.CookieHeader}}

	ws, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket upgrade: %w (http %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}

	c := &Conn{
		ws:        ws,
		log:       log,
		connected: make(chan struct{}),
		done:      make(chan struct{}),
		waiters:   make(map[string]chan event),
		backlog:   make(map[string]event),
	}
	c.state.Store(int32(StateHandshaking))

	go c.readLoop()

	select {
	case <-c.connected:
		c.state.Store(int32(StateOpen))
		log.Info().Msg("event channel open")
		return c, nil
	case <-c.done:
		_ = c.Close()
		return nil, fmt.Errorf("%w before connect acknowledgment", ErrConnectionClosed)
	case <-ctx.Done():
		_ = c.Close()
		return nil, ctx.Err()
	}
}

// negotiate performs the HTTP transport negotiation and parses the
// "sid:heartbeat:close:transports" response body.
func negotiate(ctx context.Context, opts Options) (handshake, error) {
	cli := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.HandshakeTimeout).
		SetHeader("Cookie", opts.CookieHeader)

	resp, err := cli.R().
		SetContext(ctx).
		SetQueryParams(opts.Params).
		Get(negotiationPath)
	if err != nil {
		return handshake{}, fmt.Errorf("transport negotiation: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return handshake{}, fmt.Errorf("%w: http %d: %s",
			ErrHandshakeRejected, resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}

	parts := strings.SplitN(strings.TrimSpace(string(resp.Body())), ":", 4)
	if len(parts) != 4 || parts[0] == "" {
		return handshake{}, fmt.Errorf("%w: %q", ErrMalformedHandshake, string(resp.Body()))
	}

	hs := handshake{SID: parts[0], Transports: strings.Split(parts[3], ",")}
	for _, transport := range hs.Transports {
		if transport == "websocket" {
			return hs, nil
		}
	}
	return handshake{}, fmt.Errorf("%w: advertised %q", ErrWebsocketUnsupported, parts[3])
}

// sessionURL derives the websocket session URL from the HTTP base URL and
// the negotiated session id, carrying the same query parameters.
func sessionURL(baseURL, sid string, params map[string]string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/socket.io/1/websocket/" + sid

	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// State returns the connection's current lifecycle state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// Done is closed once the channel is dead (server disconnect, read error,
// or local close).
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Emit sends a named event with JSON-encoded arguments to the server.
func (c *Conn) Emit(name string, args ...any) error {
	f, err := encodeEvent(name, args...)
	if err != nil {
		return err
	}
	return c.writeFrame(f)
}

// WaitForEvent blocks until one event with the given name arrives, the
// context ends, or the channel closes. At most one waiter may be pending
// per event name; an event that arrived before the waiter was armed is
// delivered from the backlog immediately.
func (c *Conn) WaitForEvent(ctx context.Context, name string) ([]json.RawMessage, error) {
	c.mu.Lock()
	if ev, ok := c.backlog[name]; ok {
		delete(c.backlog, name)
		c.mu.Unlock()
		return ev.Args, nil
	}
	if _, exists := c.waiters[name]; exists {
		c.mu.Unlock()
		return nil, ErrWaitPending
	}
	ch := make(chan event, 1)
	c.waiters[name] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.waiters[name] == ch {
			delete(c.waiters, name)
		}
		c.mu.Unlock()
	}()

	select {
	case ev := <-ch:
		return ev.Args, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		// The event may have been delivered right before the channel died.
		select {
		case ev := <-ch:
			return ev.Args, nil
		default:
		}
		return nil, ErrConnectionClosed
	}
}

// Close tears the connection down: a best-effort disconnect frame if the
// channel is still open, then the websocket itself. Safe to call multiple
// times; only the first call does anything.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		prev := State(c.state.Swap(int32(StateClosed)))
		if prev == StateOpen {
			_ = c.writeFrame(frame{Type: frameDisconnect})
		}
		c.closeErr = c.ws.Close()
		c.log.Info().Str("prev_state", prev.String()).Msg("connection closed")
	})
	return c.closeErr
}

func (c *Conn) readLoop() {
	defer close(c.done)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if State(c.state.Load()) != StateClosed {
				c.log.Warn().Err(err).Msg("read loop terminated")
				c.state.Store(int32(StateClosed))
			}
			return
		}

		f, err := parseFrame(string(data))
		if err != nil {
			c.log.Debug().Err(err).Msg("ignoring unparseable frame")
			continue
		}

		switch f.Type {
		case frameConnect:
			c.connectOnce.Do(func() { close(c.connected) })
		case frameHeartbeat:
			if err := c.writeFrame(frame{Type: frameHeartbeat}); err != nil {
				c.log.Warn().Err(err).Msg("heartbeat echo failed")
			}
		case frameEvent:
			var ev event
			if err := json.Unmarshal([]byte(f.Data), &ev); err != nil {
				c.log.Debug().Err(err).Msg("ignoring undecodable event")
				continue
			}
			c.dispatch(ev)
		case frameDisconnect:
			c.state.Store(int32(StateClosed))
			return
		default:
			// message/json/ack/error frames are outside the join flow
		}
	}
}

// dispatch hands an inbound event to its waiter, or stashes it so a waiter
// armed later still receives it.
func (c *Conn) dispatch(ev event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.waiters[ev.Name]; ok {
		delete(c.waiters, ev.Name)
		ch <- ev
		return
	}
	c.backlog[ev.Name] = ev
}

func (c *Conn) writeFrame(f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, []byte(f.encode()))
}
