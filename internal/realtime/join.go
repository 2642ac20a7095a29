package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/olsync/olsync/internal/logger"
	"github.com/olsync/olsync/internal/session"
	"github.com/olsync/olsync/models"
)

// EventJoinProjectResponse is the server-pushed event carrying project
// metadata, fired once per successful project join.
const EventJoinProjectResponse = "joinProjectResponse"

// JoinConfig parameterizes a single-shot project join.
type JoinConfig struct {
	// BaseURL is the Overleaf instance, scheme included.
	BaseURL string

	// Credentials are the session cookies authenticating the connection.
	Credentials session.Credentials

	// ProjectID scopes the connection to one project.
	ProjectID string

	// HandshakeTimeout bounds each handshake layer.
	HandshakeTimeout time.Duration

	// JoinTimeout bounds the wait for joinProjectResponse once the
	// channel is open. A negative value waits indefinitely, matching the
	// historical behaviour; zero falls back to the same.
	JoinTimeout time.Duration

	Logger *logger.Logger
}

// JoinProject runs the whole synchronous flow: build session state, open
// the event channel, wait for the server to push joinProjectResponse,
// extract the project metadata, and tear the channel down. The connection
// is never closed while the wait is still pending; teardown happens
// exactly once, after a result or a terminal error.
//
// Transport and handshake failures are returned as-is and are never
// retried. A server that accepts the connection but stays silent yields
// ErrNoResponse once JoinTimeout elapses.
func JoinProject(ctx context.Context, cfg JoinConfig) (models.ProjectMetadata, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	conn, err := Dial(ctx, Options{
		BaseURL:          cfg.BaseURL,
		CookieHeader:     cfg.Credentials.CookieHeader(),
		Params:           session.ConnectParams(cfg.ProjectID),
		HandshakeTimeout: cfg.HandshakeTimeout,
		Logger:           log,
	})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	waitCtx := ctx
	if cfg.JoinTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, cfg.JoinTimeout)
		defer cancel()
	}

	args, err := conn.WaitForEvent(waitCtx, EventJoinProjectResponse)
	if err != nil {
		// Distinguish our own timeout from a caller cancellation.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: no %s within %s",
				ErrNoResponse, EventJoinProjectResponse, cfg.JoinTimeout)
		}
		return nil, err
	}

	meta := ExtractProject(args)
	log.Info().Str("project_id", cfg.ProjectID).Int("fields", len(meta)).Msg("project joined")
	return meta, nil
}

// ExtractProject reads the "project" field from the first event argument.
// It never fails: for any payload shape the result is a non-nil mapping,
// empty when the field is absent or not an object.
func ExtractProject(args []json.RawMessage) models.ProjectMetadata {
	meta := models.ProjectMetadata{}
	if len(args) == 0 {
		return meta
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(args[0], &payload); err != nil {
		return meta
	}

	raw, ok := payload["project"]
	if !ok {
		return meta
	}

	var project map[string]any
	if err := json.Unmarshal(raw, &project); err != nil || project == nil {
		return meta
	}
	return models.ProjectMetadata(project)
}
