// Package yaml provides the cfbuild.yaml configuration parser.
package yaml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional per-project configuration file
const ConfigFileName = "cfbuild.yaml"

// yamlConfig represents the raw YAML structure. Pointers distinguish unset
// keys from zero values so defaults survive partial files.
type yamlConfig struct {
	Log      yamlLog      `yaml:"log"`
	Signing  yamlSigning  `yaml:"signing"`
	Registry yamlRegistry `yaml:"registry"`
}

type yamlLog struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

type yamlSigning struct {
	Scheme       *string `yaml:"scheme"`
	SignerPath   *string `yaml:"signer_path"`
	GPGKey       *string `yaml:"gpg_key"`
	GPGPublicKey *string `yaml:"gpg_public_key"`
	LockTimeout  *string `yaml:"lock_timeout"`
}

type yamlRegistry struct {
	URL     *string `yaml:"url"`
	Timeout *string `yaml:"timeout"`
	Retries *int    `yaml:"retries"`
}

// ConfigParser parses cfbuild.yaml files
type ConfigParser struct{}

// NewConfigParser creates a new YAML config parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// LoadConfig reads cfbuild.yaml from root. A missing file yields defaults.
// Relative key paths are resolved against root.
func (p *ConfigParser) LoadConfig(root string) (entities.Config, error) {
	path := filepath.Join(root, ConfigFileName)

	//nolint:gosec // G304: config lives in the project root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entities.DefaultConfig(), nil
		}
		return entities.Config{}, &entities.IOError{Op: "read", Path: path, Err: err}
	}

	cfg, err := p.Parse(data)
	if err != nil {
		return entities.Config{}, &entities.ParseError{Path: path, Err: err}
	}

	cfg.Signing.SignerPath = resolve(root, cfg.Signing.SignerPath)
	cfg.Signing.GPGKey = resolve(root, cfg.Signing.GPGKey)
	cfg.Signing.GPGPublicKey = resolve(root, cfg.Signing.GPGPublicKey)
	return cfg, nil
}

// Parse overlays YAML bytes on the default configuration
func (p *ConfigParser) Parse(data []byte) (entities.Config, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return entities.Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := entities.DefaultConfig()

	if raw.Log.Level != nil {
		level := strings.ToLower(*raw.Log.Level)
		switch level {
		case "debug", "info", "warn", "error":
			cfg.Log.Level = level
		default:
			return entities.Config{}, fmt.Errorf("log.level: unknown level %q", *raw.Log.Level)
		}
	}
	if raw.Log.Format != nil {
		format := strings.ToLower(*raw.Log.Format)
		if format != "text" && format != "json" {
			return entities.Config{}, fmt.Errorf("log.format: must be text or json, got %q", *raw.Log.Format)
		}
		cfg.Log.Format = format
	}

	if raw.Signing.Scheme != nil {
		scheme, err := entities.ParseScheme(*raw.Signing.Scheme)
		if err != nil {
			return entities.Config{}, fmt.Errorf("signing.scheme: %w", err)
		}
		cfg.Signing.Scheme = scheme
	}
	setString(&cfg.Signing.SignerPath, raw.Signing.SignerPath)
	setString(&cfg.Signing.GPGKey, raw.Signing.GPGKey)
	setString(&cfg.Signing.GPGPublicKey, raw.Signing.GPGPublicKey)
	if err := setDuration(&cfg.Signing.LockTimeout, raw.Signing.LockTimeout, "signing.lock_timeout"); err != nil {
		return entities.Config{}, err
	}

	setString(&cfg.Registry.URL, raw.Registry.URL)
	if err := setDuration(&cfg.Registry.Timeout, raw.Registry.Timeout, "registry.timeout"); err != nil {
		return entities.Config{}, err
	}
	if raw.Registry.Retries != nil {
		if *raw.Registry.Retries < 0 {
			return entities.Config{}, fmt.Errorf("registry.retries: must not be negative")
		}
		cfg.Registry.Retries = *raw.Registry.Retries
	}

	return cfg, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setDuration(dst *time.Duration, v *string, key string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be positive", key)
	}
	*dst = d
	return nil
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
