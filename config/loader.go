package config

import (
	"log/slog"

	"github.com/c360studio/qfai/source"
)

// FallbackKind classifies why a loaded config deviates from the file.
type FallbackKind string

// Fallback kinds.
const (
	// FallbackParse means the file could not be parsed; defaults were used.
	FallbackParse FallbackKind = "parse"
	// FallbackValue means one field was invalid and reset to its default.
	FallbackValue FallbackKind = "value"
)

// Fallback reports a non-fatal configuration problem.
type Fallback struct {
	Kind    FallbackKind
	Path    string
	Field   string
	Message string
}

// Loader handles configuration loading with fallback to defaults
type Loader struct {
	logger *slog.Logger
	reader source.Reader
}

// NewLoader creates a new configuration loader reading through r
func NewLoader(r source.Reader, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, reader: r}
}

// Load reads the config file at path (FileName when empty). A missing file
// yields the defaults silently. A malformed file or invalid field never fails
// the load; the defaults are used instead and a Fallback is returned. Only
// unexpected I/O errors are returned as errors.
func (l *Loader) Load(path string) (*Config, []Fallback, error) {
	if path == "" {
		path = FileName
	}

	data, found, err := source.ReadOptional(l.reader, path)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		l.logger.Debug("No project config found, using defaults", slog.String("path", path))
		return DefaultConfig(), nil, nil
	}

	cfg, err := Parse([]byte(data))
	if err != nil {
		l.logger.Warn("Failed to load project config", slog.String("path", path), slog.String("error", err.Error()))
		return DefaultConfig(), []Fallback{{
			Kind:    FallbackParse,
			Path:    path,
			Message: err.Error(),
		}}, nil
	}
	l.logger.Debug("Loaded project config", slog.String("path", path))

	var fallbacks []Fallback
	for _, fe := range cfg.normalize() {
		l.logger.Warn("Invalid config value, using default", slog.String("field", fe.Field), slog.String("value", fe.Value))
		fallbacks = append(fallbacks, Fallback{
			Kind:    FallbackValue,
			Path:    path,
			Field:   fe.Field,
			Message: fe.Error(),
		})
	}
	return cfg, fallbacks, nil
}
