package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

// DefaultFilename is the configuration file looked up when --config is not given.
const DefaultFilename = "docpress.yaml"

// Config represents the application configuration.
type Config struct {
	Source      string           `yaml:"source"`
	Destination string           `yaml:"destination"`
	Overwrite   bool             `yaml:"overwrite"`
	Header      string           `yaml:"header,omitempty"`
	Footer      string           `yaml:"footer,omitempty"`
	KeyrefFile  string           `yaml:"keyref_file,omitempty"`
	TOC         TOCConfig        `yaml:"toc"`
	Conversion  ConversionConfig `yaml:"conversion"`
	Variables   VariablesConfig  `yaml:"variables"`
	PDF         PDFConfig        `yaml:"pdf"`
	Plugins     PluginsConfig    `yaml:"plugins"`
	History     HistoryConfig    `yaml:"history"`
	Notify      NotifyConfig     `yaml:"notify"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Logging     LoggingConfig    `yaml:"logging"`
	Watch       WatchConfig      `yaml:"watch"`
}

// TOCConfig selects the TOC output formats.
type TOCConfig struct {
	JSON  bool `yaml:"json"`
	XML   bool `yaml:"xml"`
	Depth int  `yaml:"depth"` // deepest heading level contributing to per-file fragments
}

// ConversionConfig toggles optional markdown syntax.
type ConversionConfig struct {
	Attributes  bool `yaml:"attributes"`
	FrontMatter bool `yaml:"front_matter"`
}

// VariablesConfig bounds variable expansion.
type VariablesConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// PDFConfig configures the wkhtmltopdf queue.
type PDFConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Binary      string        `yaml:"binary"`
	OptionsFile string        `yaml:"options_file,omitempty"`
	Interval    time.Duration `yaml:"interval"`
}

// PluginsConfig toggles the built-in plugins and carries free-form plugin data.
type PluginsConfig struct {
	GitIgnore     bool           `yaml:"gitignore"`
	Sections      bool           `yaml:"sections"`
	CodeVariables bool           `yaml:"code_variables"`
	Data          map[string]any `yaml:"data,omitempty"`
}

// HistoryConfig points at the SQLite run ledger. Empty disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig configures run-completed notifications. Empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig configures the Prometheus textfile export. Empty disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// LoggingConfig selects level and handler format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Interval time.Duration `yaml:"interval,omitempty"` // periodic full rebuild, 0 disables
}

// Load loads configuration from the specified file. Environment variables in
// the file are expanded after .env/.env.local have been loaded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes, defaults and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			Build()
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Source = "./docs"
	example.Destination = "./out"
	example.KeyrefFile = "./keyref.yaml"
	example.Plugins.Data = map[string]any{"product": "Example"}

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
