package service

import (
	"context"
	"fmt"

	"github.com/olsync/olsync/internal/config"
	"github.com/olsync/olsync/internal/logger"
	"github.com/olsync/olsync/internal/overleaf"
	"github.com/olsync/olsync/internal/session"
	"github.com/olsync/olsync/models"
)

// AuthService manages the cached login session.
type AuthService struct {
	cfg   *config.Config
	store *session.Store
	log   *logger.Logger
}

// Login turns an overleaf_session2 cookie value into a full cached
// session: it fetches the GCLB affinity cookie, verifies the pair against
// the projects dashboard, scrapes the account email and CSRF token, and
// persists everything.
func (a *AuthService) Login(ctx context.Context, sessionValue string) (models.SessionInfo, error) {
	gclb, err := session.FetchGCLB(ctx, a.cfg.BaseURL, a.cfg.RequestTimeout, sessionValue, a.log)
	if err != nil {
		return models.SessionInfo{}, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	creds := session.Credentials{GCLB: gclb.Value, Session: sessionValue}
	cli := overleaf.NewClient(
		overleaf.Config{BaseURL: a.cfg.BaseURL, Timeout: a.cfg.RequestTimeout},
		creds,
		a.log,
	)

	email, csrfToken, err := cli.AccountInfo(ctx)
	if err != nil {
		return models.SessionInfo{}, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	info := models.SessionInfo{
		Email: email,
		SessionCookie: models.SessionCookie{
			Name:  models.SessionCookieName,
			Value: sessionValue,
		},
		GCLBCookie: gclb,
		CSRFToken:  csrfToken,
	}

	if err = a.store.Save(info); err != nil {
		return models.SessionInfo{}, fmt.Errorf("save session info: %w", err)
	}

	a.log.Info().Str("email", email).Msg("logged in")
	return info, nil
}

// Logout removes the cached session. Logging out while logged out is not
// an error.
func (a *AuthService) Logout() error {
	return a.store.Remove()
}

// CurrentSession returns the cached session, or the store's sentinel
// errors when absent or expired.
func (a *AuthService) CurrentSession() (*models.SessionInfo, error) {
	return a.store.Load()
}
