package session

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/olsync/olsync/internal/logger"
	"github.com/olsync/olsync/models"
)

// gclbProbePath is a cheap static asset served by the realtime cluster;
// requesting it makes the load balancer issue a GCLB affinity cookie.
const gclbProbePath = "/socket.io/socket.io.js"

// FetchGCLB requests a GCLB affinity cookie from the realtime endpoint,
// authenticating with only the overleaf_session2 cookie value. The last
// GCLB value in the Set-Cookie headers wins.
func FetchGCLB(ctx context.Context, baseURL string, timeout time.Duration, sessionValue string, log *logger.Logger) (models.SessionCookie, error) {
	log.Info().Msg("fetching GCLB cookie")

	cli := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Cookie", models.SessionCookieName+"="+sessionValue)

	resp, err := cli.R().SetContext(ctx).Get(gclbProbePath)
	if err != nil {
		return models.SessionCookie{}, err
	}

	var found *models.SessionCookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == models.GCLBCookieName {
			found = &models.SessionCookie{Name: cookie.Name, Value: cookie.Value}
		}
	}
	if found == nil {
		return models.SessionCookie{}, ErrGCLBNotFound
	}

	return *found, nil
}
