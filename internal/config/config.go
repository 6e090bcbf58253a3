package config

import (
	"errors"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DriverAWS   = "aws"
	DriverMinio = "minio"
	DriverLocal = "local"

	DefaultBucket                = "rate-n-date-profile-images"
	DefaultRegion                = "eu-central-1"
	DefaultUploadPath            = "cmd/s3put/main.go"
	DefaultRequestTimeoutSeconds = 30
)

type Config struct {
	UploadPath string   `toml:"upload_path"`
	S3         S3Config `toml:"s3"`
}

type S3Config struct {
	Driver                string `toml:"driver"`
	Endpoint              string `toml:"endpoint"`
	Region                string `toml:"region"`
	Bucket                string `toml:"bucket"`
	UsePathStyle          bool   `toml:"use_path_style"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

func DefaultConfig() *Config {
	return &Config{
		UploadPath: DefaultUploadPath,
		S3: S3Config{
			Driver:                DriverAWS,
			Endpoint:              "",
			Region:                DefaultRegion,
			Bucket:                DefaultBucket,
			RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, &ConfigError{Field: "config file", Err: err}
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, &ConfigError{Field: "config file", Err: err}
	}

	cfg.ApplyDefaults()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.UploadPath) == "" {
		c.UploadPath = DefaultUploadPath
	}
	if strings.TrimSpace(c.S3.Driver) == "" {
		c.S3.Driver = DriverAWS
	}
	if strings.TrimSpace(c.S3.Region) == "" {
		c.S3.Region = DefaultRegion
	}
	if strings.TrimSpace(c.S3.Bucket) == "" {
		c.S3.Bucket = DefaultBucket
	}
	if c.S3.RequestTimeoutSeconds == 0 {
		c.S3.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
}

func (c *Config) Normalize() {
	c.UploadPath = strings.TrimSpace(c.UploadPath)
	c.S3.Driver = strings.ToLower(strings.TrimSpace(c.S3.Driver))
	c.S3.Endpoint = strings.TrimSpace(c.S3.Endpoint)
	c.S3.Region = strings.TrimSpace(c.S3.Region)
	c.S3.Bucket = strings.TrimSpace(c.S3.Bucket)
}

func (c *Config) Validate() error {
	switch c.S3.Driver {
	case DriverAWS, DriverMinio, DriverLocal:
	default:
		return &ConfigError{Field: "s3.driver", Err: errors.New("driver must be aws, minio, or local")}
	}
	if c.S3.RequestTimeoutSeconds < 0 {
		return &ConfigError{Field: "s3.request_timeout_seconds", Err: errors.New("timeout must be >= 0")}
	}
	if err := ValidateEndpoint(c.S3.Endpoint); err != nil {
		return err
	}
	return nil
}

// ValidateEndpoint accepts an empty endpoint or an absolute http(s) URL.
func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return nil
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return &ConfigError{Field: "s3.endpoint", Err: errors.New("endpoint must be a valid http(s) URL")}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "s3.endpoint", Err: errors.New("endpoint must use http or https")}
	}
	return nil
}
