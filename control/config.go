// File: control/config.go
// Package control carries process configuration: the YAML config file
// and its application to the runtime's one-shot settings.

package control

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pmconrad/fc/api"
	"github.com/pmconrad/fc/fiber"
	"github.com/pmconrad/fc/log"
	"github.com/pmconrad/fc/reactor"
)

// Config is the process configuration. Zero fields keep their runtime
// defaults.
type Config struct {
	// ReactorThreads sizes the default reactor. One-shot; must be set
	// before the reactor first runs.
	ReactorThreads int `yaml:"reactor_threads"`
	// PoolWorkers sizes the shared fiber worker pool.
	PoolWorkers int `yaml:"pool_workers"`
	// Listen is the demo server's bind address.
	Listen string `yaml:"listen"`
	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"log_level"`
	// LogFile redirects logging into a file when non-empty.
	LogFile string `yaml:"log_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Listen: "127.0.0.1:8080", LogLevel: "info"}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, api.IOf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, api.InvalidArgumentf("parsing config %s: %v", path, err)
	}
	return cfg, nil
}

// Apply installs the configuration. The reactor and pool sizes are
// one-shot settings; applying a second config that sets either of them
// again, even to the same value, is a programming error.
func (c Config) Apply() error {
	if c.LogLevel != "" {
		if err := log.SetLevel(c.LogLevel); err != nil {
			return api.InvalidArgumentf("log level %q: %v", c.LogLevel, err)
		}
	}
	if c.LogFile != "" {
		w, err := log.FileWriter(c.LogFile)
		if err != nil {
			return err
		}
		log.SetOutput(w)
	}
	if c.ReactorThreads > 0 {
		reactor.SetNumThreads(c.ReactorThreads)
	}
	if c.PoolWorkers > 0 {
		fiber.SetPoolSize(c.PoolWorkers)
	}
	return nil
}
