package config

import "time"

const (
	defaultTOCDepth      = 3
	defaultMaxDepth      = 32
	defaultPDFBinary     = "wkhtmltopdf"
	defaultPDFInterval   = time.Second
	defaultNotifySubject = "docpress.runs"
	defaultDebounce      = 500 * time.Millisecond
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		TOC:        TOCConfig{JSON: true},
		Conversion: ConversionConfig{Attributes: true, FrontMatter: true},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.TOC.Depth <= 0 {
		cfg.TOC.Depth = defaultTOCDepth
	}
	if cfg.Variables.MaxDepth <= 0 {
		cfg.Variables.MaxDepth = defaultMaxDepth
	}
	if cfg.PDF.Binary == "" {
		cfg.PDF.Binary = defaultPDFBinary
	}
	if cfg.PDF.Interval <= 0 {
		cfg.PDF.Interval = defaultPDFInterval
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = defaultNotifySubject
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = defaultDebounce
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}
