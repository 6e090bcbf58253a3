package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	appconfig "s3put/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var errEmptyResponse = errors.New("store returned an empty response")

// S3Client talks to AWS S3 or an S3-compatible endpoint through the AWS SDK.
// Retries are disabled; every call is a single request.
type S3Client struct {
	api s3API
}

func NewS3Client(ctx context.Context, cfg appconfig.S3Config, creds appconfig.Credentials) (*S3Client, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		return nil, &appconfig.ConfigError{Field: "s3.region", Err: errors.New("s3 region is required")}
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if err := appconfig.ValidateEndpoint(endpoint); err != nil {
		return nil, err
	}

	httpClient := awshttp.NewBuildableClient().WithTimeout(requestTimeout(cfg))
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(creds.KeyID, creds.Secret, "")),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		return nil, &appconfig.ConfigError{Field: "aws config", Err: err}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Client{api: client}, nil
}

func (c *S3Client) ListKeys(ctx context.Context, bucket string) ([]string, error) {
	if c.api == nil {
		return nil, errors.New("s3 api client is not configured")
	}

	out, err := c.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(""),
	})
	if err != nil {
		return nil, newStoreError("list objects", bucket, "", err)
	}
	if out == nil {
		return nil, &StoreError{Op: "list objects", Bucket: bucket, Kind: KindResponse, Err: errEmptyResponse}
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		keys = append(keys, *obj.Key)
	}
	return keys, nil
}

func (c *S3Client) PutObject(ctx context.Context, req UploadRequest) (string, error) {
	if c.api == nil {
		return "", errors.New("s3 api client is not configured")
	}

	out, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(req.Bucket),
		Key:           aws.String(req.Key),
		Body:          req.Body,
		ContentLength: aws.Int64(req.Size),
		ContentType:   aws.String(req.ContentType),
	})
	if err != nil {
		return "", newStoreError("put object", req.Bucket, req.Key, err)
	}
	if out == nil {
		return "", &StoreError{Op: "put object", Bucket: req.Bucket, Key: req.Key, Kind: KindResponse, Err: errEmptyResponse}
	}
	return aws.ToString(out.ETag), nil
}

func requestTimeout(cfg appconfig.S3Config) time.Duration {
	if cfg.RequestTimeoutSeconds <= 0 {
		return appconfig.DefaultRequestTimeoutSeconds * time.Second
	}
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}
