package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bofryconfig "github.com/Bofry/config"
)

// BofryLoader loads configuration through the Bofry/config service:
// YAML file, .env file, environment variables and optionally --name=value
// command line arguments.
type BofryLoader struct {
	yamlFile       string
	dotEnvFile     string
	envPrefix      string
	useCommandArgs bool
	args           []string
}

// NewBofryLoader creates a new Bofry configuration loader
func NewBofryLoader() *BofryLoader {
	return &BofryLoader{
		envPrefix: DefaultEnvPrefix,
	}
}

// WithCommandArguments enables parsing --name=value arguments. args defaults
// to os.Args[1:].
func (l *BofryLoader) WithCommandArguments(args ...string) *BofryLoader {
	l.useCommandArgs = true
	l.args = args
	return l
}

// WithYAMLFile sets the YAML configuration file path
func (l *BofryLoader) WithYAMLFile(path string) *BofryLoader {
	l.yamlFile = path
	return l
}

// WithDotEnvFile sets the .env file path
func (l *BofryLoader) WithDotEnvFile(path string) *BofryLoader {
	l.dotEnvFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix
func (l *BofryLoader) WithEnvPrefix(prefix string) *BofryLoader {
	l.envPrefix = prefix
	return l
}

// Load loads configuration from various sources
func (l *BofryLoader) Load(cfg *Config) error {
	*cfg = *DefaultConfig()

	if l.useCommandArgs {
		if err := l.applyCommandArgs(); err != nil {
			return err
		}
	}

	// Bofry/config panics on errors
	var loadErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok {
					loadErr = err
				} else {
					loadErr = fmt.Errorf("configuration loading panic: %v", r)
				}
			}
		}()

		service := bofryconfig.NewConfigurationService(cfg)

		if l.yamlFile != "" {
			if _, err := os.Stat(l.yamlFile); err == nil {
				service.LoadYamlFile(l.yamlFile)
			} else if !os.IsNotExist(err) {
				loadErr = fmt.Errorf("failed to check YAML file: %w", err)
				return
			}
		}

		if l.dotEnvFile != "" {
			if _, err := os.Stat(l.dotEnvFile); err == nil {
				service.LoadDotEnvFile(l.dotEnvFile)
			} else if !os.IsNotExist(err) {
				loadErr = fmt.Errorf("failed to check .env file: %w", err)
				return
			}
		}

		service.LoadEnvironmentVariables(strings.TrimSuffix(l.envPrefix, "_"))
	}()
	if loadErr != nil {
		return loadErr
	}

	// Bofry does not descend into nested structs the way the env tags
	// describe, so the prefixed variables are applied once more.
	if err := loadEnv(cfg, l.envPrefix); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	return cfg.Validate()
}

// applyCommandArgs turns --name=value arguments into prefixed environment
// variables.
func (l *BofryLoader) applyCommandArgs() error {
	args := l.args
	if len(args) == 0 && len(os.Args) > 1 {
		args = os.Args[1:]
	}
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		name, value, ok := strings.Cut(arg[2:], "=")
		if !ok {
			continue
		}
		envName := l.envPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		if err := os.Setenv(envName, value); err != nil {
			return fmt.Errorf("set %s: %w", envName, err)
		}
	}
	return nil
}

// Load reads path with the Bofry loader, picking up a .env file next to it
// when one exists.
func Load(path string) (*Config, error) {
	loader := NewBofryLoader().WithYAMLFile(path)
	if path != "" {
		dotEnv := filepath.Join(filepath.Dir(path), ".env")
		if _, err := os.Stat(dotEnv); err == nil {
			loader.WithDotEnvFile(dotEnv)
		}
	}

	cfg := &Config{}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
