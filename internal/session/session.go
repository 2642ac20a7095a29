// Package session assembles the outbound authentication state for Overleaf
// requests and caches login sessions between invocations.
package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olsync/olsync/models"
)

// Credentials carries the two opaque cookie values that authenticate a
// realtime connection. Values are caller-owned, passed through without
// validation, and never persisted by this type.
type Credentials struct {
	// GCLB is the load-balancer affinity cookie value.
	GCLB string

	// Session is the overleaf_session2 cookie value.
	Session string
}

// FromSessionInfo builds Credentials from a cached login session.
func FromSessionInfo(info models.SessionInfo) Credentials {
	return Credentials{
		GCLB:    info.GCLBCookie.Value,
		Session: info.SessionCookie.Value,
	}
}

// CookieHeader formats the Cookie header expected by Overleaf:
//
//	GCLB=<v1>; overleaf_session2=<v2>
//
// Pure construction; malformed values surface later as auth failures.
func (c Credentials) CookieHeader() string {
	return fmt.Sprintf("%s=%s; %s=%s",
		models.GCLBCookieName, c.GCLB,
		models.SessionCookieName, c.Session)
}

// ConnectParams returns the query parameters scoping a realtime connection:
// "t" is the current Unix timestamp in seconds and "projectId" the project
// to join.
func ConnectParams(projectID string) map[string]string {
	return connectParamsAt(projectID, time.Now())
}

func connectParamsAt(projectID string, now time.Time) map[string]string {
	return map[string]string{
		"t":         strconv.FormatInt(now.Unix(), 10),
		"projectId": projectID,
	}
}
