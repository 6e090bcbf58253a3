package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvKeyID     = "S3_KEY_ID"
	EnvKeySecret = "S3_KEY_SECRET"

	DefaultEnvFile = ".env"
)

// Credentials is a static access key pair. There is no session token and no
// refresh.
type Credentials struct {
	KeyID  string
	Secret string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.KeyID) == "" {
		return &ConfigError{Field: EnvKeyID, Err: errors.New("credential key id is missing")}
	}
	if strings.TrimSpace(c.Secret) == "" {
		return &ConfigError{Field: EnvKeySecret, Err: errors.New("credential key secret is missing")}
	}
	return nil
}

// LoadEnvFile merges path into the process environment. Variables that are
// already set are left alone. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return &ConfigError{Field: "env file", Err: fmt.Errorf("load %s: %w", path, err)}
	}
	return nil
}

// LoadCredentials reads the key pair with getenv. Surrounding whitespace is
// ignored; an empty value counts as missing.
func LoadCredentials(getenv func(string) string) (Credentials, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	creds := Credentials{
		KeyID:  strings.TrimSpace(getenv(EnvKeyID)),
		Secret: strings.TrimSpace(getenv(EnvKeySecret)),
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
