package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	appconfig "s3put/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// listPageSize matches the S3 ListObjectsV2 page size. The minio client pages
// transparently, so the listing is cut here to keep single-page semantics.
const listPageSize = 1000

type minioAPI interface {
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioClient talks to an S3-compatible endpoint through minio-go.
type MinioClient struct {
	api minioAPI
}

func NewMinioClient(cfg appconfig.S3Config, creds appconfig.Credentials) (*MinioClient, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		return nil, &appconfig.ConfigError{Field: "s3.region", Err: errors.New("s3 region is required")}
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, &appconfig.ConfigError{Field: "s3.endpoint", Err: errors.New("s3 endpoint is required for the minio driver")}
	}
	if err := appconfig.ValidateEndpoint(endpoint); err != nil {
		return nil, err
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &appconfig.ConfigError{Field: "s3.endpoint", Err: err}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = requestTimeout(cfg)

	lookup := minio.BucketLookupAuto
	if cfg.UsePathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(u.Host, &minio.Options{
		Creds:        credentials.NewStaticV4(creds.KeyID, creds.Secret, ""),
		Secure:       u.Scheme == "https",
		Region:       region,
		Transport:    transport,
		BucketLookup: lookup,
		MaxRetries:   1,
	})
	if err != nil {
		return nil, &appconfig.ConfigError{Field: "s3.endpoint", Err: err}
	}
	return &MinioClient{api: client}, nil
}

func (c *MinioClient) ListKeys(ctx context.Context, bucket string) ([]string, error) {
	if c.api == nil {
		return nil, errors.New("minio client is not configured")
	}

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make([]string, 0)
	objects := c.api.ListObjects(listCtx, bucket, minio.ListObjectsOptions{
		Prefix:    "",
		Recursive: true,
		MaxKeys:   listPageSize,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, newStoreError("list objects", bucket, "", obj.Err)
		}
		keys = append(keys, obj.Key)
		if len(keys) == listPageSize {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, newStoreError("list objects", bucket, "", err)
	}
	return keys, nil
}

func (c *MinioClient) PutObject(ctx context.Context, req UploadRequest) (string, error) {
	if c.api == nil {
		return "", errors.New("minio client is not configured")
	}

	info, err := c.api.PutObject(ctx, req.Bucket, req.Key, req.Body, req.Size, minio.PutObjectOptions{
		ContentType:      req.ContentType,
		DisableMultipart: true,
	})
	if err != nil {
		return "", newStoreError("put object", req.Bucket, req.Key, err)
	}
	return info.ETag, nil
}
