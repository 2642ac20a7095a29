package realtime

import "errors"

var (
	// ErrHandshakeRejected is returned when transport negotiation fails at
	// the HTTP layer, typically because the session cookies were refused.
	ErrHandshakeRejected = errors.New("transport negotiation rejected")

	// ErrMalformedHandshake is returned when the negotiation response body
	// does not follow the "sid:heartbeat:close:transports" shape.
	ErrMalformedHandshake = errors.New("malformed handshake response")

	// ErrWebsocketUnsupported is returned when the server does not
	// advertise the websocket transport.
	ErrWebsocketUnsupported = errors.New("server does not advertise websocket transport")

	// ErrConnectionClosed is returned when the event channel closes while
	// a caller is still waiting on it.
	ErrConnectionClosed = errors.New("event channel closed")

	// ErrWaitPending is returned when a second waiter is registered for an
	// event name that already has one. A connection carries at most one
	// pending request per event name.
	ErrWaitPending = errors.New("a waiter is already registered for this event")

	// ErrNoResponse is returned when the server accepted the connection
	// but never pushed the awaited event within the configured timeout.
	// The upstream behaviour was to wait indefinitely; bounding the wait
	// is a deliberate change, disabled with a negative timeout.
	ErrNoResponse = errors.New("no response received")
)
