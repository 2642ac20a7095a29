// Package repository manages the local working copy of an Overleaf
// project: the .olsync metadata directory, backups, and archive
// extraction.
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olsync/olsync/internal/logger"
	"github.com/olsync/olsync/models"
)

const (
	metaDirName     = ".olsync"
	projectInfoFile = "projectinfo"
	backupSuffix    = ".local.bak"
)

// FindMetaDir walks up from startDir looking for a .olsync directory and
// returns its path, or ErrNotRepository when the hierarchy contains none.
func FindMetaDir(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve start dir: %w", err)
	}

	for {
		candidate := filepath.Join(dir, metaDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotRepository
		}
		dir = parent
	}
}

// IsRepository reports whether startDir lives inside an olsync repository.
func IsRepository(startDir string) bool {
	_, err := FindMetaDir(startDir)
	return err == nil
}

// Init creates ./{project.Name}/.olsync under baseDir, records the project
// info, and returns the new repository root.
func Init(baseDir string, project models.Project) (string, error) {
	if IsRepository(baseDir) {
		return "", ErrAlreadyRepository
	}

	repoRoot := filepath.Join(baseDir, project.Name)
	if _, err := os.Stat(repoRoot); err == nil {
		return "", fmt.Errorf("%w: %s", ErrDirExists, repoRoot)
	}

	metaDir := filepath.Join(repoRoot, metaDirName)
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return "", fmt.Errorf("create repository dirs: %w", err)
	}

	payload, err := json.Marshal(project)
	if err != nil {
		return "", fmt.Errorf("encode project info: %w", err)
	}
	if err = os.WriteFile(filepath.Join(metaDir, projectInfoFile), payload, 0o644); err != nil {
		return "", fmt.Errorf("write project info: %w", err)
	}

	return repoRoot, nil
}

// ProjectInfo reads the project recorded in the repository containing
// startDir.
func ProjectInfo(startDir string) (models.Project, error) {
	metaDir, err := FindMetaDir(startDir)
	if err != nil {
		return models.Project{}, err
	}

	data, err := os.ReadFile(filepath.Join(metaDir, projectInfoFile))
	if err != nil {
		return models.Project{}, fmt.Errorf("read project info: %w", err)
	}

	var project models.Project
	if err = json.Unmarshal(data, &project); err != nil {
		return models.Project{}, fmt.Errorf("decode project info: %w", err)
	}
	return project, nil
}

// Root returns the repository root (the parent of the .olsync directory).
func Root(startDir string) (string, error) {
	metaDir, err := FindMetaDir(startDir)
	if err != nil {
		return "", err
	}
	return filepath.Dir(metaDir), nil
}

// CreateBackup copies everything in the repository root except .olsync
// into a timestamped directory under .olsync and returns the backup path.
func CreateBackup(startDir string, log *logger.Logger) (string, error) {
	root, err := Root(startDir)
	if err != nil {
		return "", err
	}
	project, err := ProjectInfo(startDir)
	if err != nil {
		return "", err
	}

	backupName := fmt.Sprintf("%s-%d%s", project.Name, time.Now().UnixMilli(), backupSuffix)
	backupPath := filepath.Join(root, metaDirName, backupName)
	if err = os.Mkdir(backupPath, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("read repo root: %w", err)
	}

	for _, entry := range entries {
		if entry.Name() == metaDirName {
			continue
		}

		src := filepath.Join(root, entry.Name())
		dst := filepath.Join(backupPath, entry.Name())
		if entry.IsDir() {
			err = os.CopyFS(dst, os.DirFS(src))
		} else {
			err = copyFile(src, dst)
		}
		if err != nil {
			return "", fmt.Errorf("back up %s: %w", entry.Name(), err)
		}
	}

	log.Info().Str("path", backupPath).Msg("created local backup")
	return backupPath, nil
}

// Wipe removes everything in the repository root except .olsync.
func Wipe(startDir string, log *logger.Logger) error {
	root, err := Root(startDir)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read repo root: %w", err)
	}

	for _, entry := range entries {
		if entry.Name() == metaDirName {
			continue
		}
		if err = os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
	}

	log.Info().Str("root", root).Msg("wiped repository working tree")
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}
