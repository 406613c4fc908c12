// Package config loads the optional texpack.yaml configuration file and the
// .env/.env.local environment files. Configuration provides defaults only;
// command-line flags take precedence.
package config

import (
	"os"
	"time"

	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Compiler              string   `yaml:"compiler"`
	BibliographyProcessor string   `yaml:"bibliography_processor"`
	ShellEscape           bool     `yaml:"shell_escape"`
	DisableExternalize    bool     `yaml:"disable_externalize"`
	RespectGitignore      bool     `yaml:"respect_gitignore"`
	Include               []string `yaml:"include,omitempty"`
	Timeout               Duration `yaml:"timeout,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Compiler:              "pdflatex",
		BibliographyProcessor: "bibtex",
	}
}

// Load reads configuration from the specified file. A missing file is not an
// error; the defaults apply.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	cfg := Default()
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CategoryConfig, "cannot read configuration file "+configPath)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryConfig, "invalid configuration file "+configPath)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the tool choices against the supported external programs.
func (c *Config) Validate() error {
	switch c.Compiler {
	case "pdflatex", "lualatex":
	default:
		return apperrors.New(apperrors.CategoryConfig, "unsupported compiler: "+c.Compiler)
	}
	switch c.BibliographyProcessor {
	case "bibtex", "biber":
	default:
		return apperrors.New(apperrors.CategoryConfig, "unsupported bibliography processor: "+c.BibliographyProcessor)
	}
	if c.Timeout < 0 {
		return apperrors.New(apperrors.CategoryConfig, "timeout must not be negative")
	}
	return nil
}

// Duration wraps time.Duration so timeouts can be written as "10m" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
