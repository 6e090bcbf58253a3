package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// stagingDir holds in-flight writes. It is not a valid bucket name.
const stagingDir = ".staging"

var errInvalidKey = errors.New("invalid key path")

// LocalClient keeps objects as plain files under rootDir/<bucket>/<key>. It
// needs no credentials and is used for offline runs and tests.
type LocalClient struct {
	rootDir string
}

func NewLocalClient(rootDir string) *LocalClient {
	return &LocalClient{rootDir: rootDir}
}

func (c *LocalClient) ListKeys(ctx context.Context, bucket string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, newStoreError("list objects", bucket, "", err)
	}
	bucketDir, err := c.bucketPath(bucket)
	if err != nil {
		return nil, &StoreError{Op: "list objects", Bucket: bucket, Kind: KindBucket, Err: err}
	}
	if _, err := os.Stat(bucketDir); err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, newStoreError("list objects", bucket, "", err)
	}

	keys := make([]string, 0)
	err = filepath.WalkDir(bucketDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(bucketDir, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, newStoreError("list objects", bucket, "", err)
	}

	sort.Strings(keys)
	return keys, nil
}

func (c *LocalClient) PutObject(ctx context.Context, req UploadRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newStoreError("put object", req.Bucket, req.Key, err)
	}
	fullPath, err := c.objectPath(req.Bucket, req.Key)
	if err != nil {
		return "", &StoreError{Op: "put object", Bucket: req.Bucket, Key: req.Key, Kind: KindResponse, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", newStoreError("put object", req.Bucket, req.Key, err)
	}

	tmpPath, err := c.stage(req.Body)
	if err != nil {
		return "", newStoreError("put object", req.Bucket, req.Key, err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", newStoreError("put object", req.Bucket, req.Key, err)
	}
	return "", nil
}

// stage copies body into a temp file under the staging dir and returns its
// path. On failure nothing is left behind.
func (c *LocalClient) stage(body io.Reader) (string, error) {
	dir := filepath.Join(c.rootDir, stagingDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, "put-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (c *LocalClient) bucketPath(bucket string) (string, error) {
	cleaned := filepath.Clean(bucket)
	if cleaned == "." || cleaned == stagingDir || strings.ContainsAny(bucket, `/\`) || strings.HasPrefix(cleaned, "..") {
		return "", errors.New("invalid bucket name")
	}
	return filepath.Join(c.rootDir, cleaned), nil
}

func (c *LocalClient) objectPath(bucket, key string) (string, error) {
	bucketDir, err := c.bucketPath(bucket)
	if err != nil {
		return "", err
	}
	native := filepath.FromSlash(key)
	cleaned := filepath.Clean(native)
	if key == "" || cleaned != native || cleaned == "." || filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", errInvalidKey
	}
	return filepath.Join(bucketDir, cleaned), nil
}
