package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

type envBinding struct {
	name  string
	apply func(c *Config, value string) error
}

var envBindings = []envBinding{
	{"LOG_LEVEL", func(c *Config, v string) error {
		c.Log.Level = strings.ToLower(v)
		return nil
	}},
	{"LOG_DEVELOPMENT", boolSetter(func(c *Config) *bool { return &c.Log.Development })},
	{"ENGINE_MAX_DEPTH", intSetter(func(c *Config) *int { return &c.Engine.MaxDepth })},
	{"METRICS_ENABLED", boolSetter(func(c *Config) *bool { return &c.Metrics.Enabled })},
	{"METRICS_NAMESPACE", func(c *Config, v string) error {
		c.Metrics.Namespace = v
		return nil
	}},
	{"METRICS_ADDR", func(c *Config, v string) error {
		c.Metrics.Addr = v
		return nil
	}},
	{"SCRIPT_TIMEOUT", durationSetter(func(c *Config) *Duration { return &c.Script.Timeout })},
	{"SCRIPT_CALL_STACK_SIZE", intSetter(func(c *Config) *int { return &c.Script.CallStackSize })},
	{"SCHEMA_PATHS", func(c *Config, v string) error {
		c.Schema.Paths = splitPaths(v)
		return nil
	}},
	{"SCHEMA_WATCH", boolSetter(func(c *Config) *bool { return &c.Schema.Watch })},
	{"SCHEMA_DEBOUNCE", durationSetter(func(c *Config) *Duration { return &c.Schema.Debounce })},
}

// ApplyEnv overlays ATOM_* variables read through lookup. Empty
// variables are ignored. A nil lookup reads the process environment.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return c.applyEnv(lookup)
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	for _, b := range envBindings {
		key := EnvPrefix + b.name
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := b.apply(c, strings.TrimSpace(v)); err != nil {
			return &EnvError{Var: key, Value: v, Err: err}
		}
	}
	return nil
}

// EnvNames lists every recognised variable.
func EnvNames() []string {
	names := make([]string, len(envBindings))
	for i, b := range envBindings {
		names[i] = EnvPrefix + b.name
	}
	return names
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func durationSetter(field func(*Config) *Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		return field(c).UnmarshalText([]byte(v))
	}
}

func splitPaths(v string) []string {
	var out []string
	for _, p := range filepath.SplitList(v) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
