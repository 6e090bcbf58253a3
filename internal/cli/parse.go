package cli

import (
	"errors"
	"flag"
	"os"

	"s3put/internal/config"
)

func parseGlobalArgs(args []string, defaultConfigPath string) (globalOptions, []string, error) {
	fs := flag.NewFlagSet("s3put", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := globalOptions{}
	fs.StringVar(&opts.ConfigPath, "config", defaultConfigPath, "path to config file")
	fs.StringVar(&opts.EnvPath, "env", config.DefaultEnvFile, "dotenv file merged into the environment before reading credentials")
	fs.StringVar(&opts.Bucket, "bucket", "", "bucket to use instead of the configured one")
	fs.BoolVar(&opts.JSON, "json", false, "print the key listing as a JSON array")

	if err := fs.Parse(args); err != nil {
		return globalOptions{}, nil, err
	}
	return opts, fs.Args(), nil
}

func parseCommand(rest []string) (command, error) {
	if len(rest) == 0 {
		return command{Name: commandRun}, nil
	}

	switch rest[0] {
	case commandList:
		if len(rest) != 1 {
			return command{}, errors.New("usage: s3put list")
		}
		return command{Name: commandList}, nil
	case commandUpload:
		if len(rest) != 2 || rest[1] == "" {
			return command{}, errors.New("usage: s3put upload <path>")
		}
		return command{Name: commandUpload, Path: rest[1]}, nil
	default:
		return command{}, usageError()
	}
}

func usageError() error {
	return errors.New("usage: s3put [-config path] [-env path] [-bucket name] [-json] [list | upload <path>]")
}
