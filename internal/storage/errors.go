package storage

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
)

type StoreErrorKind string

const (
	KindTransport StoreErrorKind = "transport"
	KindAuth      StoreErrorKind = "auth"
	KindBucket    StoreErrorKind = "bucket"
	KindResponse  StoreErrorKind = "response"
	KindCancelled StoreErrorKind = "cancelled"
	KindTimeout   StoreErrorKind = "timeout"
)

// StoreError is any failure reported by the object store or the path to it.
type StoreError struct {
	Op     string
	Bucket string
	Key    string
	Kind   StoreErrorKind
	Err    error
}

func (e *StoreError) Error() string {
	target := e.Bucket
	if e.Key != "" {
		target += "/" + e.Key
	}
	return fmt.Sprintf("%s %s (%s): %v", e.Op, target, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func newStoreError(op, bucket, key string, err error) *StoreError {
	return &StoreError{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Kind:   classifyStoreError(err),
		Err:    err,
	}
}

// NotFoundError means the local file given for upload is absent or is not a
// readable regular file.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("local file %s: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func classifyStoreError(err error) StoreErrorKind {
	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return kindForCode(apiErr.ErrorCode())
	}
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) && minioErr.Code != "" {
		return kindForCode(minioErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}

func kindForCode(code string) StoreErrorKind {
	switch code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "Forbidden", "ExpiredToken", "InvalidToken":
		return KindAuth
	case "NoSuchBucket", "InvalidBucketName", "PermanentRedirect", "AuthorizationHeaderMalformed":
		return KindBucket
	default:
		return KindResponse
	}
}
