package storage

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sort"
	"strings"
	"testing"

	appconfig "s3put/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type storedObject struct {
	body        []byte
	contentType string
}

// fakeS3API is an in-memory bucket. Function overrides take precedence.
type fakeS3API struct {
	objects   map[string]storedObject
	listCalls int
	putCalls  int

	listFn func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	putFn  func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func newFakeS3API(keys ...string) *fakeS3API {
	f := &fakeS3API{objects: map[string]storedObject{}}
	for _, key := range keys {
		f.objects[key] = storedObject{}
	}
	return f
}

func (f *fakeS3API) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listCalls++
	if f.listFn != nil {
		return f.listFn(ctx, params, optFns...)
	}
	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	contents := make([]types.Object, 0, len(keys))
	for _, key := range keys {
		contents = append(contents, types.Object{Key: aws.String(key)})
	}
	return &s3.ListObjectsV2Output{Contents: contents}, nil
}

func (f *fakeS3API) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putCalls++
	if f.putFn != nil {
		return f.putFn(ctx, params, optFns...)
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = storedObject{body: body, contentType: aws.ToString(params.ContentType)}
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
}

func TestNewS3ClientValidationErrors(t *testing.T) {
	creds := appconfig.Credentials{KeyID: "id", Secret: "secret"}
	tests := []struct {
		name  string
		cfg   appconfig.S3Config
		creds appconfig.Credentials
		want  string
	}{
		{name: "missing region", cfg: appconfig.S3Config{}, creds: creds, want: "s3 region is required"},
		{name: "missing key id", cfg: appconfig.S3Config{Region: "eu-central-1"}, creds: appconfig.Credentials{Secret: "s"}, want: "credential key id is missing"},
		{name: "missing secret", cfg: appconfig.S3Config{Region: "eu-central-1"}, creds: appconfig.Credentials{KeyID: "id"}, want: "credential key secret is missing"},
		{name: "blank key id", cfg: appconfig.S3Config{Region: "eu-central-1"}, creds: appconfig.Credentials{KeyID: "  ", Secret: "s"}, want: "credential key id is missing"},
		{name: "malformed endpoint", cfg: appconfig.S3Config{Region: "eu-central-1", Endpoint: "://bad"}, creds: creds, want: "valid http(s) URL"},
		{name: "endpoint scheme", cfg: appconfig.S3Config{Region: "eu-central-1", Endpoint: "ftp://example.com"}, creds: creds, want: "must use http or https"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewS3Client(context.Background(), tc.cfg, tc.creds)
			var cfgErr *appconfig.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("unexpected error: got %q want substring %q", err.Error(), tc.want)
			}
		})
	}
}

func TestNewS3ClientBuildsHandle(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent/credentials")
	t.Setenv("AWS_PROFILE", "")

	c, err := NewS3Client(context.Background(), appconfig.S3Config{
		Region:       "eu-central-1",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	}, appconfig.Credentials{KeyID: "id", Secret: "secret"})
	if err != nil {
		t.Fatalf("new s3 client: %v", err)
	}
	if c.api == nil {
		t.Fatal("expected api client to be set")
	}
}

func TestS3ListKeysReturnsStoreOrder(t *testing.T) {
	var captured *s3.ListObjectsV2Input
	api := &fakeS3API{
		listFn: func(_ context.Context, input *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			captured = input
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{
					{Key: aws.String("C")},
					{Key: nil},
					{Key: aws.String("A")},
					{Key: aws.String("B")},
				},
				IsTruncated: aws.Bool(true),
			}, nil
		},
	}
	c := &S3Client{api: api}

	keys, err := c.ListKeys(context.Background(), "bucket")
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	want := []string{"C", "A", "B"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys mismatch: got %v want %v", keys, want)
	}
	if api.listCalls != 1 {
		t.Fatalf("expected a single listing call, got %d", api.listCalls)
	}
	if got := aws.ToString(captured.Bucket); got != "bucket" {
		t.Fatalf("bucket mismatch: got %q", got)
	}
	if captured.Prefix == nil || *captured.Prefix != "" {
		t.Fatalf("expected empty prefix, got %#v", captured.Prefix)
	}
	if captured.ContinuationToken != nil {
		t.Fatalf("unexpected continuation token: %q", *captured.ContinuationToken)
	}
}

func TestS3ListKeysEmptyBucket(t *testing.T) {
	c := &S3Client{api: newFakeS3API()}

	keys, err := c.ListKeys(context.Background(), "bucket")
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	if keys == nil || len(keys) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", keys)
	}
}

func TestS3ListKeysErrors(t *testing.T) {
	c := &S3Client{}
	if _, err := c.ListKeys(context.Background(), "bucket"); err == nil || !strings.Contains(err.Error(), "s3 api client is not configured") {
		t.Fatalf("expected missing api client error, got: %v", err)
	}

	c.api = &fakeS3API{listFn: func(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
		return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	}}
	_, err := c.ListKeys(context.Background(), "bucket")
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %T: %v", err, err)
	}
	if storeErr.Op != "list objects" || storeErr.Bucket != "bucket" || storeErr.Kind != KindAuth {
		t.Fatalf("unexpected store error: %+v", storeErr)
	}

	c.api = &fakeS3API{listFn: func(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
		return nil, nil
	}}
	_, err = c.ListKeys(context.Background(), "bucket")
	if !errors.As(err, &storeErr) || storeErr.Kind != KindResponse {
		t.Fatalf("expected response StoreError for empty output, got: %v", err)
	}
}

func TestS3ListKeysCancelled(t *testing.T) {
	c := &S3Client{api: &fakeS3API{listFn: func(ctx context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListKeys(ctx, "bucket")
	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Kind != KindCancelled {
		t.Fatalf("expected cancelled StoreError, got: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got: %v", err)
	}
}

func TestS3PutObjectSendsRequest(t *testing.T) {
	var captured *s3.PutObjectInput
	var body string
	c := &S3Client{api: &fakeS3API{putFn: func(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		captured = input
		data, err := io.ReadAll(input.Body)
		if err != nil {
			return nil, err
		}
		body = string(data)
		return &s3.PutObjectOutput{ETag: aws.String(`"abc"`)}, nil
	}}}

	etag, err := c.PutObject(context.Background(), UploadRequest{
		Bucket:      "bucket",
		Key:         "docs/report.txt",
		Body:        strings.NewReader("payload"),
		Size:        7,
		ContentType: "text/plain",
	})
	if err != nil {
		t.Fatalf("put object: %v", err)
	}
	if etag != `"abc"` {
		t.Fatalf("etag mismatch: got %q", etag)
	}
	if got := aws.ToString(captured.Key); got != "docs/report.txt" {
		t.Fatalf("key mismatch: got %q", got)
	}
	if got := aws.ToString(captured.ContentType); got != "text/plain" {
		t.Fatalf("content type mismatch: got %q", got)
	}
	if got := aws.ToInt64(captured.ContentLength); got != 7 {
		t.Fatalf("content length mismatch: got %d", got)
	}
	if body != "payload" {
		t.Fatalf("body mismatch: got %q", body)
	}
}

func TestS3PutObjectErrors(t *testing.T) {
	req := UploadRequest{Bucket: "bucket", Key: "key", Body: strings.NewReader("x"), Size: 1}

	c := &S3Client{}
	if _, err := c.PutObject(context.Background(), req); err == nil || !strings.Contains(err.Error(), "s3 api client is not configured") {
		t.Fatalf("expected missing api client error, got: %v", err)
	}

	c.api = &fakeS3API{putFn: func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("boom")
	}}
	_, err := c.PutObject(context.Background(), req)
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %T: %v", err, err)
	}
	if storeErr.Op != "put object" || storeErr.Key != "key" || storeErr.Kind != KindTransport {
		t.Fatalf("unexpected store error: %+v", storeErr)
	}
	if !strings.Contains(err.Error(), "put object bucket/key (transport): boom") {
		t.Fatalf("unexpected error text: %q", err.Error())
	}

	c.api = &fakeS3API{putFn: func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, nil
	}}
	_, err = c.PutObject(context.Background(), req)
	if !errors.As(err, &storeErr) || storeErr.Kind != KindResponse {
		t.Fatalf("expected response StoreError for empty output, got: %v", err)
	}
}
