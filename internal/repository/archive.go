package repository

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractZip unpacks a downloaded project archive into targetDir. Entry
// paths are validated so a malicious archive cannot write outside the
// target directory.
func ExtractZip(archive []byte, targetDir string) error {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return fmt.Errorf("open project archive: %w", err)
	}

	for _, file := range reader.File {
		dst, err := safeJoin(targetDir, file.Name)
		if err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err = os.MkdirAll(dst, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", file.Name, err)
			}
			continue
		}

		if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create parent of %s: %w", file.Name, err)
		}
		if err = extractFile(file, dst); err != nil {
			return err
		}
	}

	return nil
}

func extractFile(file *zip.File, dst string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", file.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err = io.Copy(out, src); err != nil {
		return fmt.Errorf("extract %s: %w", file.Name, err)
	}
	return nil
}

func safeJoin(targetDir, name string) (string, error) {
	dst := filepath.Join(targetDir, filepath.FromSlash(name))
	if dst != targetDir && !strings.HasPrefix(dst, filepath.Clean(targetDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeArchivePath, name)
	}
	return dst, nil
}
