package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olsync/olsync/internal/config"
	"github.com/olsync/olsync/internal/logger"
	"github.com/olsync/olsync/internal/session"
	"github.com/olsync/olsync/models"
)

const dashboardPage = `<!doctype html>
<html>
<head>
<meta name="ol-csrfToken" content="csrf-777">
<meta name="ol-usersEmail" content="author@example.com">
<meta name="ol-prefetchedProjectsBlob" content="{&quot;totalSize&quot;:1,&quot;projects&quot;:[{&quot;id&quot;:&quot;p1&quot;,&quot;name&quot;:&quot;Thesis&quot;}]}">
</head>
<body></body>
</html>`

// fakeOverleaf serves every endpoint the service layer touches: the
// projects dashboard, zip download, file upload, the GCLB probe, and the
// socket.io negotiation plus websocket session.
type fakeOverleaf struct {
	srv *httptest.Server

	zipPayload []byte
	joinReply  map[string]any

	mu      sync.Mutex
	uploads []uploadRecord
}

type uploadRecord struct {
	projectID string
	folderID  string
	filename  string
	body      string
}

func newFakeOverleaf(t *testing.T) *fakeOverleaf {
	t.Helper()

	f := &fakeOverleaf{
		zipPayload: buildZip(t, map[string]string{"main.tex": "\\documentclass{article}"}),
		joinReply: map[string]any{
			"project": map[string]any{
				"name":       "Thesis",
				"rootDoc_id": "doc-1",
				"rootFolder": []any{map[string]any{"_id": "folder-root"}},
			},
		},
	}

	var upgrader websocket.Upgrader
	mux := http.NewServeMux()

	mux.HandleFunc("/socket.io/socket.io.js", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: models.GCLBCookieName, Value: "lb-42"})
		_, _ = io.WriteString(w, "// socket.io client")
	})

	mux.HandleFunc("/socket.io/1/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/socket.io/1/websocket/") {
			ws, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer ws.Close()

			_ = ws.WriteMessage(websocket.TextMessage, []byte("1::"))
			payload, _ := json.Marshal(map[string]any{
				"name": "joinProjectResponse",
				"args": []any{f.joinReply},
			})
			_ = ws.WriteMessage(websocket.TextMessage, append([]byte("5:::"), payload...))
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}
		_, _ = fmt.Fprint(w, "sid123:60:60:websocket,xhr-polling")
	})

	mux.HandleFunc("/project", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, dashboardPage)
	})

	mux.HandleFunc("/project/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		switch {
		case len(parts) == 4 && parts[2] == "download" && parts[3] == "zip":
			_, _ = w.Write(f.zipPayload)
		case len(parts) == 3 && parts[2] == "upload" && r.Method == http.MethodPost:
			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, header, err := r.FormFile("qqfile")
			require.NoError(t, err)
			defer file.Close()
			body, err := io.ReadAll(file)
			require.NoError(t, err)

			f.mu.Lock()
			f.uploads = append(f.uploads, uploadRecord{
				projectID: parts[1],
				folderID:  r.URL.Query().Get("folder_id"),
				filename:  header.Filename,
				body:      string(body),
			})
			f.mu.Unlock()
			fmt.Fprint(w, `{"success":true}`)
		default:
			http.NotFound(w, r)
		}
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// newTestServices builds a service layer pointed at the fake server, with
// a pre-saved session in a temp file.
func newTestServices(t *testing.T, baseURL string, loggedIn bool) *Services {
	t.Helper()

	store := session.NewStore(filepath.Join(t.TempDir(), ".olsyncinfo"))
	if loggedIn {
		require.NoError(t, store.Save(models.SessionInfo{
			Email:         "author@example.com",
			SessionCookie: models.SessionCookie{Name: models.SessionCookieName, Value: "sess"},
			GCLBCookie:    models.SessionCookie{Name: models.GCLBCookieName, Value: "lb-42"},
			CSRFToken:     "csrf-777",
		}))
	}

	cfg := &config.Config{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
		JoinTimeout:    5 * time.Second,
	}
	return NewServices(cfg, store, logger.Nop())
}

func TestLoginLogout(t *testing.T) {
	f := newFakeOverleaf(t)
	svc := newTestServices(t, f.srv.URL, false)

	info, err := svc.Auth.Login(context.Background(), "sess-value")
	require.NoError(t, err)
	assert.Equal(t, "author@example.com", info.Email)
	assert.Equal(t, "csrf-777", info.CSRFToken)
	assert.Equal(t, "lb-42", info.GCLBCookie.Value)
	assert.Equal(t, "sess-value", info.SessionCookie.Value)

	cached, err := svc.Auth.CurrentSession()
	require.NoError(t, err)
	assert.Equal(t, info, *cached)

	require.NoError(t, svc.Auth.Logout())
	_, err = svc.Auth.CurrentSession()
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func TestLogin_NoGCLBCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "// no affinity cookie here")
	}))
	defer srv.Close()

	svc := newTestServices(t, srv.URL, false)
	_, err := svc.Auth.Login(context.Background(), "sess-value")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestProjectsRequiresLogin(t *testing.T) {
	f := newFakeOverleaf(t)
	svc := newTestServices(t, f.srv.URL, false)

	_, err := svc.Sync.Projects(context.Background())
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func TestResolveProject(t *testing.T) {
	f := newFakeOverleaf(t)
	svc := newTestServices(t, f.srv.URL, true)

	byID, err := svc.Sync.ResolveProject(context.Background(), "", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Thesis", byID.Name)

	byName, err := svc.Sync.ResolveProject(context.Background(), "Thesis", "")
	require.NoError(t, err)
	assert.Equal(t, "p1", byName.ID)

	_, err = svc.Sync.ResolveProject(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNothingToClone)
}

func TestCloneAndPull(t *testing.T) {
	f := newFakeOverleaf(t)
	svc := newTestServices(t, f.srv.URL, true)

	baseDir := t.TempDir()
	project := models.Project{ID: "p1", Name: "Thesis"}

	root, err := svc.Sync.Clone(context.Background(), baseDir, project)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(baseDir, "Thesis"), root)

	content, err := os.ReadFile(filepath.Join(root, "main.tex"))
	require.NoError(t, err)
	assert.Equal(t, "\\documentclass{article}", string(content))

	// Local edit is replaced by pull; a backup keeps the old version.
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.tex"), []byte("local edit"), 0o644))
	require.NoError(t, svc.Sync.Pull(context.Background(), root, false))

	content, err = os.ReadFile(filepath.Join(root, "main.tex"))
	require.NoError(t, err)
	assert.Equal(t, "\\documentclass{article}", string(content))

	backups, err := filepath.Glob(filepath.Join(root, ".olsync", "*"+".local.bak"))
	require.NoError(t, err)
	require.Len(t, backups, 1)
	backed, err := os.ReadFile(filepath.Join(backups[0], "main.tex"))
	require.NoError(t, err)
	assert.Equal(t, "local edit", string(backed))

	// Pull with noBackup leaves the backup count unchanged.
	require.NoError(t, svc.Sync.Pull(context.Background(), root, true))
	backups, err = filepath.Glob(filepath.Join(root, ".olsync", "*"+".local.bak"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestJoinProjectMetadata(t *testing.T) {
	f := newFakeOverleaf(t)
	svc := newTestServices(t, f.srv.URL, true)

	meta, err := svc.Sync.JoinProjectMetadata(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Thesis", meta.Name())
	assert.Equal(t, "doc-1", meta.RootDocID())
	assert.Equal(t, "folder-root", meta.RootFolderID())
}

func TestPush(t *testing.T) {
	f := newFakeOverleaf(t)
	svc := newTestServices(t, f.srv.URL, true)

	baseDir := t.TempDir()
	root, err := svc.Sync.Clone(context.Background(), baseDir, models.Project{ID: "p1", Name: "Thesis"})
	require.NoError(t, err)

	local := filepath.Join(root, "refs.bib")
	require.NoError(t, os.WriteFile(local, []byte("@book{k}"), 0o644))

	require.NoError(t, svc.Sync.Push(context.Background(), root, []string{local}))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.uploads, 1)
	assert.Equal(t, "p1", f.uploads[0].projectID)
	assert.Equal(t, "folder-root", f.uploads[0].folderID)
	assert.Equal(t, "refs.bib", f.uploads[0].filename)
	assert.Equal(t, "@book{k}", f.uploads[0].body)
}

func TestPush_NoRootFolder(t *testing.T) {
	f := newFakeOverleaf(t)
	f.joinReply = map[string]any{"project": map[string]any{"name": "Thesis"}}
	svc := newTestServices(t, f.srv.URL, true)

	baseDir := t.TempDir()
	root, err := svc.Sync.Clone(context.Background(), baseDir, models.Project{ID: "p1", Name: "Thesis"})
	require.NoError(t, err)

	err = svc.Sync.Push(context.Background(), root, []string{filepath.Join(root, "main.tex")})
	assert.ErrorIs(t, err, ErrNoRootFolder)
}
