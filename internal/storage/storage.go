// Package storage is the object store façade: it builds a client handle for
// the configured driver, lists the keys of a bucket and uploads single files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"s3put/internal/config"

	"github.com/fishy/errbatch"
)

// ObjectStore is the client handle. Implementations are immutable after
// construction and may be shared between callers.
type ObjectStore interface {
	// ListKeys returns the keys of a single listing page under the empty
	// prefix, in store order.
	ListKeys(ctx context.Context, bucket string) ([]string, error)
	// PutObject stores req.Body under req.Key with one put call and returns
	// the ETag reported by the store, if any.
	PutObject(ctx context.Context, req UploadRequest) (string, error)
}

// UploadRequest is the transient description of one put. Body is owned by the
// caller and is not closed by PutObject.
type UploadRequest struct {
	Bucket      string
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

type UploadResult struct {
	Bucket      string
	Key         string
	ContentType string
	Size        int64
	ETag        string
}

var errNotRegularFile = errors.New("not a regular file")

// NewFromConfig builds the handle selected by cfg.Driver. localRoot is only
// used by the local driver.
func NewFromConfig(ctx context.Context, cfg config.S3Config, creds config.Credentials, localRoot string) (ObjectStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", config.DriverAWS:
		return NewS3Client(ctx, cfg, creds)
	case config.DriverMinio:
		return NewMinioClient(cfg, creds)
	case config.DriverLocal:
		if strings.TrimSpace(localRoot) == "" {
			return nil, &config.ConfigError{Field: "local root", Err: errors.New("local object root is required")}
		}
		return NewLocalClient(localRoot), nil
	default:
		return nil, &config.ConfigError{Field: "s3.driver", Err: fmt.Errorf("unknown driver %q", cfg.Driver)}
	}
}

// ListKeys lists every key of bucket that fits in one listing page.
func ListKeys(ctx context.Context, store ObjectStore, bucket string) ([]string, error) {
	if store == nil {
		return nil, errors.New("object store is not configured")
	}
	if err := validateBucket(bucket); err != nil {
		return nil, err
	}
	return store.ListKeys(ctx, bucket)
}

// UploadFile puts the file at localPath into bucket. The key is localPath
// verbatim, so any directory components end up in the key.
//
// The file is checked before the store is touched: a missing, unreadable or
// non-regular file yields a *NotFoundError and no network call.
func UploadFile(ctx context.Context, store ObjectStore, bucket, localPath string) (UploadResult, error) {
	if store == nil {
		return UploadResult{}, errors.New("object store is not configured")
	}
	if err := validateBucket(bucket); err != nil {
		return UploadResult{}, err
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return UploadResult{}, &NotFoundError{Path: localPath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return UploadResult{}, &NotFoundError{Path: localPath, Err: errNotRegularFile}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return UploadResult{}, &NotFoundError{Path: localPath, Err: err}
	}

	req := UploadRequest{
		Bucket:      bucket,
		Key:         KeyForPath(localPath),
		Body:        f,
		Size:        info.Size(),
		ContentType: ContentTypeForPath(localPath),
	}
	etag, putErr := store.PutObject(ctx, req)

	var batch errbatch.ErrBatch
	batch.Add(putErr)
	if closeErr := f.Close(); closeErr != nil {
		batch.Add(fmt.Errorf("close %s: %w", localPath, closeErr))
	}
	if err := batch.Compile(); err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		Bucket:      req.Bucket,
		Key:         req.Key,
		ContentType: req.ContentType,
		Size:        req.Size,
		ETag:        etag,
	}, nil
}

// KeyForPath derives the object key from a local path.
func KeyForPath(localPath string) string {
	return localPath
}

func validateBucket(bucket string) error {
	if strings.TrimSpace(bucket) == "" {
		return &config.ConfigError{Field: "s3.bucket", Err: errors.New("bucket name is required")}
	}
	return nil
}
