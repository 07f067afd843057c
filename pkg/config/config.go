// Package config reads the YAML configuration file of Furver.
//
// An example configuration:
//
//	port: 3000
//	prefix: /api
//	modules: [core, kv]
//	shutdown-timeout: 5s
//	kv:
//	  path: /var/lib/furver/kv.db
//	client:
//	  endpoint: http://localhost:3000/api
//	  window: 1ms
//	  method: post
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration of the server and the client.
type Config struct {
	Port            int           `yaml:"port"`
	Prefix          string        `yaml:"prefix"`
	Modules         []string      `yaml:"modules"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
	KV              KV            `yaml:"kv"`
	Client          Client        `yaml:"client"`
}

// KV configures the kv module.
type KV struct {
	Path string `yaml:"path"`
}

// Client configures the REPL client.
type Client struct {
	Endpoint string        `yaml:"endpoint"`
	Window   time.Duration `yaml:"window"`
	Method   string        `yaml:"method"`
}

// Default values.
const (
	DefaultPort            = 3000
	DefaultShutdownTimeout = 5 * time.Second
	DefaultWindow          = time.Millisecond
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Port:            DefaultPort,
		Modules:         []string{"core"},
		ShutdownTimeout: DefaultShutdownTimeout,
		Client: Client{
			Endpoint: fmt.Sprintf("http://localhost:%d", DefaultPort),
			Window:   DefaultWindow,
			Method:   "post",
		},
	}
}

// Load reads the configuration file at path. Fields missing from the file
// keep their default values; unknown fields are an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read is like Load, but reads from r.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Check reports the first invalid field of cfg.
func (cfg *Config) Check() error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Prefix != "" && !strings.HasPrefix(cfg.Prefix, "/") {
		return fmt.Errorf("prefix must start with /, got %q", cfg.Prefix)
	}
	if cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown-timeout %v", cfg.ShutdownTimeout)
	}
	if cfg.Client.Window < 0 {
		return fmt.Errorf("invalid client window %v", cfg.Client.Window)
	}
	switch cfg.Client.Method {
	case "post", "get":
	default:
		return fmt.Errorf("invalid client method %q, must be post or get", cfg.Client.Method)
	}
	return nil
}
