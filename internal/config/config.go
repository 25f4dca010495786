// Package config holds the exprel.yaml configuration and shared constants.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level exprel.yaml configuration.
type Config struct {
	// Backend selects the execution backend: "tree-walk" or "vm".
	// Defaults to "tree-walk".
	Backend string `yaml:"backend,omitempty"`

	// Compiler configures when expressions are compiled to bytecode.
	Compiler CompilerConfig `yaml:"compiler,omitempty"`

	// Variables are bound into the evaluation context as #name.
	Variables map[string]any `yaml:"variables,omitempty"`

	// Services lists remote gRPC services exposed to expressions.
	Services []ServiceConfig `yaml:"services,omitempty"`
}

// CompilerConfig controls bytecode compilation.
type CompilerConfig struct {
	// Mode is "off", "immediate" or "mixed". Defaults to "mixed".
	Mode string `yaml:"mode,omitempty"`

	// Warmup is the interpreted-run count before mixed-mode compilation.
	// Defaults to DefaultWarmupThreshold.
	Warmup int `yaml:"warmup,omitempty"`
}

// ServiceConfig describes one remote gRPC service. The service's methods
// become callable on the variable named Name.
type ServiceConfig struct {
	// Name is the expression variable the service is bound to (#name).
	Name string `yaml:"name"`

	// Address is the gRPC target, e.g. "localhost:9000".
	Address string `yaml:"address"`

	// Proto is the .proto file describing the service.
	Proto string `yaml:"proto"`

	// Imports are extra directories searched for proto imports.
	Imports []string `yaml:"imports,omitempty"`

	// Service is the fully qualified service name, e.g. "users.UserService".
	Service string `yaml:"service"`
}

// Load reads and parses an exprel.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses exprel.yaml content from bytes. The path argument is used
// only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// Find searches for exprel.yaml starting from dir and walking up to parent
// directories. Returns an empty path and nil error when no config exists.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	switch c.Backend {
	case "", BackendTreeWalk, BackendVM:
	default:
		return fmt.Errorf("%s: unknown backend %q", path, c.Backend)
	}

	switch c.Compiler.Mode {
	case "", CompilerModeOff, CompilerModeImmediate, CompilerModeMixed:
	default:
		return fmt.Errorf("%s: unknown compiler mode %q", path, c.Compiler.Mode)
	}
	if c.Compiler.Warmup < 0 {
		return fmt.Errorf("%s: compiler warmup must not be negative", path)
	}

	seen := make(map[string]bool)
	for i, svc := range c.Services {
		if svc.Name == "" {
			return fmt.Errorf("%s: services[%d]: name is required", path, i)
		}
		if seen[svc.Name] {
			return fmt.Errorf("%s: services[%d]: duplicate service name %q", path, i, svc.Name)
		}
		seen[svc.Name] = true
		if svc.Address == "" {
			return fmt.Errorf("%s: services[%d] (%s): address is required", path, i, svc.Name)
		}
		if svc.Proto == "" {
			return fmt.Errorf("%s: services[%d] (%s): proto is required", path, i, svc.Name)
		}
		if svc.Service == "" {
			return fmt.Errorf("%s: services[%d] (%s): service is required", path, i, svc.Name)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Backend == "" {
		c.Backend = BackendTreeWalk
	}
	if c.Compiler.Mode == "" {
		c.Compiler.Mode = CompilerModeMixed
	}
	if c.Compiler.Warmup == 0 {
		c.Compiler.Warmup = DefaultWarmupThreshold
	}
}
