package cli

const (
	commandRun    = ""
	commandList   = "list"
	commandUpload = "upload"
)

const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitConfig    = 2
	ExitNotFound  = 3
	ExitStore     = 4
	ExitCancelled = 130
)

type globalOptions struct {
	ConfigPath string
	EnvPath    string
	Bucket     string
	JSON       bool
}

type command struct {
	Name string
	Path string
}
