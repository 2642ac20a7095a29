// Package service wires the session store, the Overleaf HTTP client, the
// realtime client, and the local repository into the operations exposed by
// the CLI.
package service

import (
	"github.com/olsync/olsync/internal/config"
	"github.com/olsync/olsync/internal/logger"
	"github.com/olsync/olsync/internal/overleaf"
	"github.com/olsync/olsync/internal/session"
	"github.com/olsync/olsync/models"
)

// Services groups the client-side services behind a single value.
type Services struct {
	Auth *AuthService
	Sync *SyncService
}

// NewServices constructs the service layer on top of the given config and
// session store.
func NewServices(cfg *config.Config, store *session.Store, log *logger.Logger) *Services {
	return &Services{
		Auth: &AuthService{cfg: cfg, store: store, log: log},
		Sync: &SyncService{cfg: cfg, store: store, log: log},
	}
}

// clientFromSession builds an Overleaf HTTP client from the cached
// session, seeding the CSRF token captured at login.
func clientFromSession(cfg *config.Config, store *session.Store, log *logger.Logger) (*overleaf.Client, *models.SessionInfo, error) {
	info, err := store.Load()
	if err != nil {
		return nil, nil, err
	}

	cli := overleaf.NewClient(
		overleaf.Config{BaseURL: cfg.BaseURL, Timeout: cfg.RequestTimeout},
		session.FromSessionInfo(*info),
		log,
	)
	cli.SetCSRFToken(info.CSRFToken)
	return cli, info, nil
}

// credentials returns the session cookies of the cached login.
func credentials(store *session.Store) (session.Credentials, error) {
	info, err := store.Load()
	if err != nil {
		return session.Credentials{}, err
	}
	return session.FromSessionInfo(*info), nil
}
