// Package storage publishes finished artifacts and produces their public
// URLs. Backends: local filesystem (served by this process) and S3.
package storage

import (
	"context"
	"fmt"

	"mediapress/internal/config"
)

// Publisher moves a finished artifact out of the staging area and returns
// the externally reachable URL it can be fetched from.
type Publisher interface {
	Publish(ctx context.Context, jobID, srcPath string) (string, error)
}

// New selects the backend configured in cfg.
func New(ctx context.Context, cfg *config.Config) (Publisher, error) {
	switch cfg.StorageBackend {
	case "s3":
		return newS3Publisher(ctx, cfg)
	case "filesystem":
		return NewFilesystemPublisher(cfg.DownloadDir, cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
