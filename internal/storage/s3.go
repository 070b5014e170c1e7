package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"mediapress/internal/config"
)

// s3Publisher uploads artifacts to a bucket and builds public URLs from
// either S3_PUBLIC_URL or the standard bucket hostname.
type s3Publisher struct {
	client    *s3.Client
	bucket    string
	region    string
	publicURL string
}

func newS3Publisher(ctx context.Context, cfg *config.Config) (*s3Publisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &s3Publisher{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    cfg.S3Bucket,
		region:    cfg.S3Region,
		publicURL: cfg.S3PublicURL,
	}, nil
}

func (p *s3Publisher) Publish(ctx context.Context, jobID, srcPath string) (string, error) {
	file, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	key := jobID + filepath.Ext(srcPath)
	contentType := mime.TypeByExtension(filepath.Ext(srcPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	// The uploaded copy is authoritative now; the staged file is disposable.
	os.Remove(srcPath)

	if p.publicURL != "" {
		return fmt.Sprintf("%s/%s", p.publicURL, key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key), nil
}
