package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"s3put/internal/config"
	"s3put/internal/state"
	"s3put/internal/storage"

	"github.com/fishy/errbatch"
	jsoniter "github.com/json-iterator/go"
)

// Run parses args and executes one command. Without a command it lists the
// bucket and then uploads the configured upload_path.
func Run(ctx context.Context, args []string) error {
	configPath, err := state.ConfigPath()
	if err != nil {
		return err
	}

	opts, rest, err := parseGlobalArgs(args, configPath)
	if err != nil {
		return err
	}
	cmd, err := parseCommand(rest)
	if err != nil {
		return err
	}

	if err := config.LoadEnvFile(opts.EnvPath); err != nil {
		return err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bucket := cfg.S3.Bucket
	if opts.Bucket != "" {
		bucket = opts.Bucket
	}

	store, err := objectStoreFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	switch cmd.Name {
	case commandList:
		return listBucket(ctx, store, bucket, opts.JSON)
	case commandUpload:
		return uploadPath(ctx, store, bucket, cmd.Path)
	default:
		if err := listBucket(ctx, store, bucket, opts.JSON); err != nil {
			return err
		}
		return uploadPath(ctx, store, bucket, cfg.UploadPath)
	}
}

func listBucket(ctx context.Context, store storage.ObjectStore, bucket string, asJSON bool) error {
	keys, err := storage.ListKeys(ctx, store, bucket)
	if err != nil {
		return err
	}

	if asJSON {
		return jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout).Encode(keys)
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

func uploadPath(ctx context.Context, store storage.ObjectStore, bucket, path string) error {
	res, err := storage.UploadFile(ctx, store, bucket, path)
	if err != nil {
		return err
	}
	fmt.Printf("uploaded %s to %s/%s (%s, %d bytes)\n", path, res.Bucket, res.Key, res.ContentType, res.Size)
	return nil
}

func objectStoreFromConfig(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.S3.Driver == config.DriverLocal {
		objectsDir, err := state.ObjectStoreDir()
		if err != nil {
			return nil, err
		}
		return storage.NewFromConfig(ctx, cfg.S3, config.Credentials{}, objectsDir)
	}

	creds, err := config.LoadCredentials(os.Getenv)
	if err != nil {
		return nil, err
	}
	return storage.NewFromConfig(ctx, cfg.S3, creds, "")
}

// ExitCode maps an error returned by Run to the process exit status. When
// several failures were collected, the most specific one decides.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}

	var batch *errbatch.ErrBatch
	if errors.As(err, &batch) {
		code := ExitFailure
		for _, e := range batch.GetErrors() {
			if c := ExitCode(e); exitPriority(c) > exitPriority(code) {
				code = c
			}
		}
		return code
	}

	var storeErr *storage.StoreError
	if errors.As(err, &storeErr) && storeErr.Kind == storage.KindCancelled {
		return ExitCancelled
	}
	if errors.Is(err, context.Canceled) {
		return ExitCancelled
	}

	var cfgErr *config.ConfigError
	var notFound *storage.NotFoundError
	switch {
	case errors.As(err, &cfgErr):
		return ExitConfig
	case errors.As(err, &notFound):
		return ExitNotFound
	case errors.As(err, &storeErr):
		return ExitStore
	default:
		return ExitFailure
	}
}

func exitPriority(code int) int {
	switch code {
	case ExitCancelled:
		return 4
	case ExitConfig:
		return 3
	case ExitNotFound:
		return 2
	case ExitStore:
		return 1
	default:
		return 0
	}
}
