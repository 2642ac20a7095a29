// Package overleaf is the plain-HTTP client for Overleaf: project listing,
// zip download, and file upload, authenticated with session cookies.
package overleaf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/olsync/olsync/internal/logger"
	"github.com/olsync/olsync/internal/session"
	"github.com/olsync/olsync/models"
)

// Meta tag names Overleaf embeds in authenticated pages.
const (
	projectsBlobMeta = "ol-prefetchedProjectsBlob"
	csrfTokenMeta    = "ol-csrfToken"
	userEmailMeta    = "ol-usersEmail"
)

// Config holds the client's network settings.
type Config struct {
	// BaseURL is the Overleaf instance, scheme included.
	BaseURL string

	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// Client talks to Overleaf's regular HTTP endpoints. Safe for concurrent
// use.
type Client struct {
	client *resty.Client
	log    *logger.Logger

	mu        sync.Mutex
	csrfToken string
}

// NewClient builds a Client sending the session cookie header on every
// request. An already-known CSRF token may be set via SetCSRFToken;
// otherwise it is scraped lazily when first needed.
func NewClient(cfg Config, creds session.Credentials, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Cookie", creds.CookieHeader())

	return &Client{client: cli, log: log}
}

// SetCSRFToken seeds the token used by mutating endpoints.
func (c *Client) SetCSRFToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrfToken = strings.TrimSpace(token)
}

// AccountInfo fetches the projects dashboard and scrapes the logged-in
// user's email and CSRF token from its meta tags. It doubles as a session
// validity check: invalid cookies surface as ErrUnauthorized or a page
// without the expected tags.
func (c *Client) AccountInfo(ctx context.Context) (email, csrfToken string, err error) {
	resp, err := c.client.R().SetContext(ctx).Get("/project")
	if err != nil {
		return "", "", fmt.Errorf("account info request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", "", err
	}

	email, err = metaContent(bytes.NewReader(resp.Body()), userEmailMeta)
	if err != nil {
		return "", "", fmt.Errorf("retrieve user email: %w", err)
	}
	csrfToken, err = metaContent(bytes.NewReader(resp.Body()), csrfTokenMeta)
	if err != nil {
		return "", "", fmt.Errorf("retrieve csrf token: %w", err)
	}

	c.SetCSRFToken(csrfToken)
	return email, csrfToken, nil
}

// GetAllProjects fetches the projects dashboard and decodes the prefetched
// projects blob embedded in its HTML.
func (c *Client) GetAllProjects(ctx context.Context) (models.ProjectList, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/project")
	if err != nil {
		return models.ProjectList{}, fmt.Errorf("projects page request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ProjectList{}, err
	}

	blob, err := metaContent(bytes.NewReader(resp.Body()), projectsBlobMeta)
	if err != nil {
		return models.ProjectList{}, fmt.Errorf("retrieve list of projects: %w", err)
	}

	var list models.ProjectList
	if err = json.Unmarshal([]byte(blob), &list); err != nil {
		return models.ProjectList{}, fmt.Errorf("decode list of projects: %w", err)
	}

	c.log.Info().Int("total", list.TotalSize).Msg("fetched projects list")
	return list, nil
}

// GetProjectByName resolves a project by its display name.
func (c *Client) GetProjectByName(ctx context.Context, name string) (models.Project, error) {
	list, err := c.GetAllProjects(ctx)
	if err != nil {
		return models.Project{}, err
	}

	for _, project := range list.Projects {
		if project.Name == name {
			return project, nil
		}
	}
	return models.Project{}, fmt.Errorf("%w: name %q", ErrProjectNotFound, name)
}

// GetProjectByID resolves a project by its identifier.
func (c *Client) GetProjectByID(ctx context.Context, id string) (models.Project, error) {
	list, err := c.GetAllProjects(ctx)
	if err != nil {
		return models.Project{}, err
	}

	for _, project := range list.Projects {
		if project.ID == id {
			return project, nil
		}
	}
	return models.Project{}, fmt.Errorf("%w: id %q", ErrProjectNotFound, id)
}

// DownloadProjectZip fetches the whole project as a zip archive.
func (c *Client) DownloadProjectZip(ctx context.Context, projectID string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/project/%s/download/zip", projectID))
	if err != nil {
		return nil, fmt.Errorf("download project request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	c.log.Info().Str("project_id", projectID).Int("bytes", len(resp.Body())).Msg("downloaded project zip")
	return resp.Body(), nil
}

// UploadFile pushes one file into the given folder of a project. Overleaf
// requires a CSRF token on this endpoint; one is scraped from the projects
// page when none has been seeded.
func (c *Client) UploadFile(ctx context.Context, projectID, folderID, name string, data []byte) error {
	token, err := c.ensureCSRFToken(ctx)
	if err != nil {
		return err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-CSRF-Token", token).
		SetQueryParam("folder_id", folderID).
		SetFileReader("qqfile", name, bytes.NewReader(data)).
		Post(fmt.Sprintf("/project/%s/upload", projectID))
	if err != nil {
		return fmt.Errorf("upload file request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	c.log.Info().Str("project_id", projectID).Str("file", name).Msg("uploaded file")
	return nil
}

func (c *Client) ensureCSRFToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrfToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	resp, err := c.client.R().SetContext(ctx).Get("/project")
	if err != nil {
		return "", fmt.Errorf("csrf token request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	token, err = metaContent(bytes.NewReader(resp.Body()), csrfTokenMeta)
	if err != nil {
		return "", fmt.Errorf("retrieve csrf token: %w", err)
	}

	c.SetCSRFToken(token)
	return token, nil
}

func mapHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return ErrUnauthorized
	}
	if code == http.StatusNotFound {
		return ErrProjectNotFound
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(code)
	}
	return fmt.Errorf("http %d: %s", code, body)
}
