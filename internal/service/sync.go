package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/olsync/olsync/internal/config"
	"github.com/olsync/olsync/internal/logger"
	"github.com/olsync/olsync/internal/realtime"
	"github.com/olsync/olsync/internal/repository"
	"github.com/olsync/olsync/internal/session"
	"github.com/olsync/olsync/models"
)

// SyncService implements the project-level operations: listing, cloning,
// pulling, pushing, and the realtime metadata join.
type SyncService struct {
	cfg   *config.Config
	store *session.Store
	log   *logger.Logger
}

// Projects lists all projects of the logged-in account.
func (s *SyncService) Projects(ctx context.Context) (models.ProjectList, error) {
	cli, _, err := clientFromSession(s.cfg, s.store, s.log)
	if err != nil {
		return models.ProjectList{}, err
	}
	return cli.GetAllProjects(ctx)
}

// ResolveProject resolves a project by id when given, otherwise by name.
// Interactive selection when neither is given is the caller's concern.
func (s *SyncService) ResolveProject(ctx context.Context, name, id string) (models.Project, error) {
	cli, _, err := clientFromSession(s.cfg, s.store, s.log)
	if err != nil {
		return models.Project{}, err
	}

	switch {
	case id != "":
		return cli.GetProjectByID(ctx, id)
	case name != "":
		return cli.GetProjectByName(ctx, name)
	default:
		return models.Project{}, ErrNothingToClone
	}
}

// Clone creates ./{project.Name} under baseDir, marks it as a repository,
// and fills it with the project's current contents.
func (s *SyncService) Clone(ctx context.Context, baseDir string, project models.Project) (string, error) {
	repoRoot, err := repository.Init(baseDir, project)
	if err != nil {
		return "", err
	}

	if err = s.download(ctx, project.ID, repoRoot); err != nil {
		// Leave nothing behind on a failed clone.
		_ = os.RemoveAll(repoRoot)
		return "", err
	}

	s.log.Info().Str("project", project.Name).Str("root", repoRoot).Msg("cloned project")
	return repoRoot, nil
}

// Pull replaces the working tree of the repository containing dir with the
// remote project contents. Unless noBackup is set the old tree is copied
// into .olsync first.
func (s *SyncService) Pull(ctx context.Context, dir string, noBackup bool) error {
	project, err := repository.ProjectInfo(dir)
	if err != nil {
		return err
	}
	root, err := repository.Root(dir)
	if err != nil {
		return err
	}

	if !noBackup {
		if _, err = repository.CreateBackup(dir, s.log); err != nil {
			return err
		}
	}
	if err = repository.Wipe(dir, s.log); err != nil {
		return err
	}

	if err = s.download(ctx, project.ID, root); err != nil {
		return err
	}

	s.log.Info().Str("project", project.Name).Msg("pulled project")
	return nil
}

// Push uploads the given files into the root folder of the repository's
// project. Paths are relative to the current directory; the remote name is
// the path's base name.
//
// The root folder id is not part of the dashboard listing, so a short
// realtime join fetches the project metadata first.
func (s *SyncService) Push(ctx context.Context, dir string, files []string) error {
	project, err := repository.ProjectInfo(dir)
	if err != nil {
		return err
	}

	meta, err := s.JoinProjectMetadata(ctx, project.ID)
	if err != nil {
		return err
	}
	folderID := meta.RootFolderID()
	if folderID == "" {
		return ErrNoRootFolder
	}

	cli, _, err := clientFromSession(s.cfg, s.store, s.log)
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		if err = cli.UploadFile(ctx, project.ID, folderID, filepath.Base(file), data); err != nil {
			return fmt.Errorf("upload %s: %w", file, err)
		}
	}

	s.log.Info().Str("project", project.Name).Int("files", len(files)).Msg("pushed files")
	return nil
}

// JoinProjectMetadata opens the realtime channel for the project, waits for
// its joinProjectResponse event, and returns the extracted metadata.
func (s *SyncService) JoinProjectMetadata(ctx context.Context, projectID string) (models.ProjectMetadata, error) {
	creds, err := credentials(s.store)
	if err != nil {
		return nil, err
	}

	return realtime.JoinProject(ctx, realtime.JoinConfig{
		BaseURL:          s.cfg.BaseURL,
		Credentials:      creds,
		ProjectID:        projectID,
		HandshakeTimeout: s.cfg.RequestTimeout,
		JoinTimeout:      s.cfg.JoinTimeout,
		Logger:           s.log,
	})
}

func (s *SyncService) download(ctx context.Context, projectID, root string) error {
	cli, _, err := clientFromSession(s.cfg, s.store, s.log)
	if err != nil {
		return err
	}

	archive, err := cli.DownloadProjectZip(ctx, projectID)
	if err != nil {
		return err
	}
	return repository.ExtractZip(archive, root)
}
