package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilesystemPublisher moves artifacts into the download directory, which
// the server exposes read-only under /files/.
type FilesystemPublisher struct {
	dir     string
	baseURL string
}

func NewFilesystemPublisher(dir, baseURL string) *FilesystemPublisher {
	return &FilesystemPublisher{dir: dir, baseURL: baseURL}
}

func (p *FilesystemPublisher) Publish(ctx context.Context, jobID, srcPath string) (string, error) {
	name := jobID + filepath.Ext(srcPath)
	dstPath := filepath.Join(p.dir, name)

	if err := moveFile(srcPath, dstPath); err != nil {
		return "", fmt.Errorf("publish %s: %w", jobID, err)
	}
	return fmt.Sprintf("%s/files/%s", p.baseURL, name), nil
}

// moveFile renames when possible and falls back to copy+remove for
// cross-device staging directories.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
