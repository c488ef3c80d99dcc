// Package mirror uploads a finished dataset tree to an S3 bucket. It walks
// the images/ and faces/ directories plus the run report and pushes each
// file, continuing past per-file failures the same way the download
// pipeline continues past rows.
package mirror

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the slice of the S3 client the uploader needs. Tests substitute
// a fake.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SyncStats counts the outcome of one mirror pass.
type SyncStats struct {
	FilesUploaded int64
	FilesFailed   int64
	BytesUploaded int64
}

// String returns a one-line summary of the sync.
func (s *SyncStats) String() string {
	return fmt.Sprintf("Uploaded: %d files (%d bytes), Failed: %d", s.FilesUploaded, s.BytesUploaded, s.FilesFailed)
}

// Uploader mirrors local dataset files into a bucket under a key prefix.
type Uploader struct {
	client S3API
	bucket string
	prefix string
	logger *slog.Logger
}

// New creates an Uploader backed by the default AWS credential chain
// (environment variables, IAM roles, profiles).
func New(ctx context.Context, region, bucket, prefix string, logger *slog.Logger) (*Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewWithClient(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

// NewWithClient creates an Uploader around an existing client.
func NewWithClient(client S3API, bucket, prefix string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// Dataset subtrees worth mirroring. The lock file and temp files stay local.
var mirrorDirs = []string{"images", "faces"}

// SyncTree uploads every dataset file under root. Each file's key is the
// prefix joined with its path relative to root. Per-file failures are
// logged and counted; only a completely unreadable tree is an error.
func (u *Uploader) SyncTree(ctx context.Context, root string) (*SyncStats, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access output root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output root is not a directory: %s", root)
	}

	stats := &SyncStats{}

	for _, dir := range mirrorDirs {
		subRoot := filepath.Join(root, dir)
		if _, err := os.Stat(subRoot); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(subRoot, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				return nil
			}
			u.uploadFile(ctx, root, p, stats)
			return nil
		})
		if err != nil {
			return stats, fmt.Errorf("failed to walk %s: %w", subRoot, err)
		}
	}

	// Include the run report when one exists.
	reportPath := filepath.Join(root, "run_report.json")
	if _, err := os.Stat(reportPath); err == nil {
		u.uploadFile(ctx, root, reportPath, stats)
	}

	u.logger.Info("Mirror finished.", "bucket", u.bucket, "prefix", u.prefix, "summary", stats.String())
	return stats, nil
}

// uploadFile pushes a single file, log-and-continue on failure.
func (u *Uploader) uploadFile(ctx context.Context, root, localPath string, stats *SyncStats) {
	rel, err := filepath.Rel(root, localPath)
	if err != nil {
		u.logger.Error("Cannot derive object key.", "path", localPath, "error", err)
		stats.FilesFailed++
		return
	}
	key := path.Join(u.prefix, filepath.ToSlash(rel))

	file, err := os.Open(localPath)
	if err != nil {
		u.logger.Error("Cannot open file for upload.", "path", localPath, "error", err)
		stats.FilesFailed++
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		u.logger.Error("Cannot stat file for upload.", "path", localPath, "error", err)
		stats.FilesFailed++
		return
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		u.logger.Error("Upload failed.", "key", key, "error", err)
		stats.FilesFailed++
		return
	}

	stats.FilesUploaded++
	stats.BytesUploaded += info.Size()
	u.logger.Debug("Uploaded.", "key", key, "bytes", info.Size())
}
