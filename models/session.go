package models

import "time"

// Cookie names used by Overleaf's authentication stack.
const (
	SessionCookieName = "overleaf_session2"
	GCLBCookieName    = "GCLB"
)

// SessionCookie is one browser cookie captured during login.
type SessionCookie struct {
	// Name is the cookie name, e.g. "overleaf_session2" or "GCLB".
	Name string `json:"name"`

	// Value is the opaque cookie value. Treated as a credential and never
	// logged.
	Value string `json:"value"`

	// Expires is the cookie expiry as Unix seconds. Zero means the expiry
	// is unknown (the GCLB cookie is issued without one).
	Expires float64 `json:"expires"`
}

// HasExpired reports whether the cookie carries an expiry in the past.
// Cookies without a known expiry never count as expired.
func (c SessionCookie) HasExpired() bool {
	return c.Expires > 0 && time.Now().After(time.Unix(int64(c.Expires), 0))
}

// SessionInfo is the cached login state persisted between invocations
// (by default in ~/.olsyncinfo).
type SessionInfo struct {
	// Email is the account address, kept only for display in "whoami".
	Email string `json:"email"`

	// SessionCookie is the overleaf_session2 cookie authenticating the user.
	SessionCookie SessionCookie `json:"session_cookie"`

	// GCLBCookie is the Google Cloud load-balancer affinity cookie. Both
	// cookies must be presented together or the realtime handshake is
	// routed to a backend that does not know the session.
	GCLBCookie SessionCookie `json:"gclb_cookie"`

	// CSRFToken is the ol-csrfToken value scraped from an authenticated
	// page; required by mutating HTTP endpoints such as file upload.
	CSRFToken string `json:"csrf_token"`
}
