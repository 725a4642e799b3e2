// Package output names, encodes and stores rendered maps.
package output

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"livelox_dl/internal/logging"
)

// Writer stores files in Dir, creating it when needed.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{Dir: dir}
}

// Write stores data as name inside the writer's directory and returns the
// final path. An existing file with the same name is replaced.
func (w *Writer) Write(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid output file name %q", name)
	}
	path := filepath.Join(w.Dir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	log := logging.GetFromContext(ctx)
	log.Info().Str("path", path).Int("bytes", len(data)).Msg("map saved")
	return path, nil
}

// writeFileAtomic writes payload to a temporary file next to path and
// renames it into place, so readers never observe a partial file.
func writeFileAtomic(path string, payload []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(payload); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err = replaceFile(tmpName, path); err != nil {
		return err
	}
	return nil
}

// replaceFile renames src over dst. Where rename refuses to overwrite, the
// existing file is moved aside first and restored if the swap fails.
func replaceFile(src, dst string) error {
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}
	if _, statErr := os.Stat(dst); statErr != nil {
		return fmt.Errorf("rename temp file: %w", renameErr)
	}

	backup := dst + ".bak.tmp"
	_ = os.Remove(backup)
	if err := os.Rename(dst, backup); err != nil {
		return errors.Join(fmt.Errorf("move existing file aside: %w", err), renameErr)
	}
	if err := os.Rename(src, dst); err != nil {
		_ = os.Rename(backup, dst)
		return fmt.Errorf("rename temp file after backup: %w", err)
	}
	_ = os.Remove(backup)
	return nil
}
