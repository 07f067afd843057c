package prog

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"src.furver.dev/pkg/config"
	"src.furver.dev/pkg/env"
)

// FlagSet wraps a [flag.FlagSet] to provide flags shared by several programs.
type FlagSet struct {
	*flag.FlagSet
	configPath *string
	json       *bool
	endpoint   *string
	modules    *string
}

// ConfigPath returns a pointer to the value of the -config flag, registering
// it the first time it is called.
func (fs *FlagSet) ConfigPath() *string {
	if fs.configPath == nil {
		var path string
		fs.StringVar(&path, "config", "", "Path to a YAML configuration file")
		fs.configPath = &path
	}
	return fs.configPath
}

// JSON returns a pointer to the value of the -json flag, registering it the
// first time it is called.
func (fs *FlagSet) JSON() *bool {
	if fs.json == nil {
		var json bool
		fs.BoolVar(&json, "json", false, "Show the output from -buildinfo in JSON")
		fs.json = &json
	}
	return fs.json
}

// Endpoint returns a pointer to the value of the -endpoint flag, registering
// it the first time it is called.
func (fs *FlagSet) Endpoint() *string {
	if fs.endpoint == nil {
		var endpoint string
		fs.StringVar(&endpoint, "endpoint", "", "URL of the server to talk to")
		fs.endpoint = &endpoint
	}
	return fs.endpoint
}

// Modules returns a pointer to the value of the -modules flag, registering it
// the first time it is called.
func (fs *FlagSet) Modules() *string {
	if fs.modules == nil {
		var modules string
		fs.StringVar(&modules, "modules", "", "Comma-separated names of the API modules to serve")
		fs.modules = &modules
	}
	return fs.modules
}

// LoadConfig loads the configuration file at path if it is not empty, and
// applies overrides from the environment. Command-line flags take precedence
// over both and are applied by the caller.
func LoadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}
	if s := os.Getenv(env.FURVER_PORT); s != "" {
		port, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("bad $%s: %w", env.FURVER_PORT, err)
		}
		cfg.Port = port
	}
	if s := os.Getenv(env.FURVER_ENDPOINT); s != "" {
		cfg.Client.Endpoint = s
	}
	return cfg, nil
}
