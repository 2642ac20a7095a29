package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olsync/olsync/internal/logger"
	"github.com/olsync/olsync/models"
)

func TestCookieHeader_Format(t *testing.T) {
	creds := Credentials{GCLB: "abc", Session: "xyz"}
	assert.Equal(t, "GCLB=abc; overleaf_session2=xyz", creds.CookieHeader())
}

func TestCookieHeader_PassesValuesThrough(t *testing.T) {
	// No validation: malformed values are forwarded as-is and surface as
	// auth failures server-side.
	creds := Credentials{GCLB: "with spaces", Session: "s;v"}
	assert.Equal(t, "GCLB=with spaces; overleaf_session2=s;v", creds.CookieHeader())
}

func TestConnectParams_WithinExecutionWindow(t *testing.T) {
	before := time.Now().Unix()
	params := ConnectParams("60f1a2b3c4d5e6f7a8b9c0d1")
	after := time.Now().Unix()

	require.Contains(t, params, "t")
	ts, err := strconv.ParseInt(params["t"], 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ts, before)
	assert.LessOrEqual(t, ts, after)
	assert.Equal(t, "60f1a2b3c4d5e6f7a8b9c0d1", params["projectId"])
}

func TestFromSessionInfo(t *testing.T) {
	info := models.SessionInfo{
		SessionCookie: models.SessionCookie{Name: models.SessionCookieName, Value: "s2"},
		GCLBCookie:    models.SessionCookie{Name: models.GCLBCookieName, Value: "g1"},
	}

	creds := FromSessionInfo(info)
	assert.Equal(t, "g1", creds.GCLB)
	assert.Equal(t, "s2", creds.Session)
}

func TestStore_SaveLoadRemove(t *testing.T) {
	store := NewStore(t.TempDir() + "/sub/.olsyncinfo")

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	info := models.SessionInfo{
		Email:         "user@example.com",
		SessionCookie: models.SessionCookie{Name: models.SessionCookieName, Value: "v"},
		GCLBCookie:    models.SessionCookie{Name: models.GCLBCookieName, Value: "g"},
		CSRFToken:     "csrf",
	}
	require.NoError(t, store.Save(info))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, info, *got)

	require.NoError(t, store.Remove())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	// Removing twice is a no-op.
	assert.NoError(t, store.Remove())
}

func TestStore_LoadRejectsExpiredSession(t *testing.T) {
	store := NewStore(t.TempDir() + "/.olsyncinfo")

	expired := models.SessionInfo{
		SessionCookie: models.SessionCookie{
			Name:    models.SessionCookieName,
			Value:   "v",
			Expires: float64(time.Now().Add(-time.Hour).Unix()),
		},
	}
	require.NoError(t, store.Save(expired))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestFetchGCLB_ReadsSetCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/socket.io/socket.io.js", r.URL.Path)
		assert.Contains(t, r.Header.Get("Cookie"), "overleaf_session2=sess")

		http.SetCookie(w, &http.Cookie{Name: "GCLB", Value: "stale"})
		http.SetCookie(w, &http.Cookie{Name: "GCLB", Value: "fresh"})
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cookie, err := FetchGCLB(context.Background(), srv.URL, time.Second, "sess", logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, models.GCLBCookieName, cookie.Name)
	assert.Equal(t, "fresh", cookie.Value)
}

func TestFetchGCLB_MissingCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := FetchGCLB(context.Background(), srv.URL, time.Second, "sess", logger.Nop())
	assert.ErrorIs(t, err, ErrGCLBNotFound)
}
