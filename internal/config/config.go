// Package config loads runtime configuration for the atom tools.
//
// Configuration is layered: built-in defaults, then an optional TOML
// file, then ATOM_* environment variables. The result is validated
// before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ATOM_"

// Config is the complete runtime configuration.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Engine  EngineConfig  `toml:"engine"`
	Metrics MetricsConfig `toml:"metrics"`
	Script  ScriptConfig  `toml:"script"`
	Schema  SchemaConfig  `toml:"schema"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level" validate:"oneof=debug info warn error"`

	// Development selects human-readable console output.
	Development bool `toml:"development"`
}

// EngineConfig configures atoms created from the registry.
type EngineConfig struct {
	// MaxDepth bounds nested writes and notifications per atom. Zero
	// disables the limit.
	MaxDepth int `toml:"max_depth" validate:"gte=0"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Namespace string `toml:"namespace" validate:"required,metricname"`
	Addr      string `toml:"addr" validate:"required_if=Enabled true,omitempty,hostname_port"`
}

// ScriptConfig configures the Lua host.
type ScriptConfig struct {
	// Timeout bounds each script run and callback. Zero disables it.
	Timeout Duration `toml:"timeout" validate:"gte=0"`

	CallStackSize int `toml:"call_stack_size" validate:"gt=0,lte=65536"`
}

// SchemaConfig configures class-definition loading.
type SchemaConfig struct {
	// Paths are definition files or directories.
	Paths []string `toml:"paths" validate:"dive,required"`

	// Watch reloads definitions when they change.
	Watch bool `toml:"watch"`

	// Debounce is the quiet period before a reload.
	Debounce Duration `toml:"debounce" validate:"gte=0"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			MaxDepth: 256,
		},
		Metrics: MetricsConfig{
			Namespace: "atom",
			Addr:      ":9090",
		},
		Script: ScriptConfig{
			Timeout:       Duration(5 * time.Second),
			CallStackSize: 256,
		},
		Schema: SchemaConfig{
			Debounce: Duration(100 * time.Millisecond),
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path
// when path is not empty, and the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with environment variables read through lookup.
func LoadWithEnv(path string, lookup LookupFunc) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := cfg.decode(path, data); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays TOML data on cfg. Unknown keys are errors.
func (c *Config) decode(path string, data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		perr := &ParseError{Path: path, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		var serr *toml.StrictMissingError
		switch {
		case errors.As(err, &serr) && len(serr.Errors) > 0:
			perr.Line, perr.Column = serr.Errors[0].Position()
			perr.Message = "unknown key " + strings.Join(serr.Errors[0].Key(), ".")
		case errors.As(err, &derr):
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	return nil
}

var (
	validate      = validator.New()
	metricNameRex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

func init() {
	_ = validate.RegisterValidation("metricname", func(fl validator.FieldLevel) bool {
		return metricNameRex.MatchString(fl.Field().String())
	})
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field: strings.TrimPrefix(fe.Namespace(), "Config."),
			Rule:  fe.Tag(),
			Param: fe.Param(),
			Value: fe.Value(),
		}
	}
	return &ValidationError{Fields: fields}
}
