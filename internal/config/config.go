package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"go.uber.org/zap/zapcore"
)

const EnvPrefix = "NAS_DECODER_"

type Config struct {
	Logs     Logs     `mapstructure:"logs"`
	Decoder  Decoder  `mapstructure:"decoder"`
	Dispatch Dispatch `mapstructure:"dispatch"`
	Trace    Trace    `mapstructure:"trace"`
	Metrics  Metrics  `mapstructure:"metrics"`
}

type Logs struct {
	Level string `mapstructure:"level"`
}

type Decoder struct {
	Strict bool `mapstructure:"strict"`
}

type Dispatch struct {
	QueueSize int `mapstructure:"queue-size"`
}

type Trace struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type Metrics struct {
	// Address of the /metrics listener; empty disables it.
	Address string `mapstructure:"address"`
}

// keys lists every setting, in the dotted form used by the YAML file. Each
// can be overridden by an environment variable, see EnvKey.
var keys = []string{
	"logs.level",
	"decoder.strict",
	"dispatch.queue-size",
	"trace.enabled",
	"trace.path",
	"metrics.address",
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"logs":     map[string]interface{}{"level": "info"},
		"decoder":  map[string]interface{}{"strict": false},
		"dispatch": map[string]interface{}{"queue-size": 64},
		"trace":    map[string]interface{}{"enabled": false, "path": "nas-5gs.pcap"},
		"metrics":  map[string]interface{}{"address": ""},
	}
}

// EnvKey returns the environment variable that overrides key, for example
// NAS_DECODER_DISPATCH_QUEUE_SIZE for dispatch.queue-size.
func EnvKey(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return EnvPrefix + strings.ToUpper(r.Replace(key))
}

// Load reads the YAML file at configPath over the defaults, then applies
// environment overrides. An empty configPath skips the file.
func Load(configPath string) (Config, error) {
	raw := defaults()

	if configPath != "" {
		fromFile, err := readConfig(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("could not read config: %w", err)
		}

		merge(raw, fromFile)
	}

	for _, key := range keys {
		if v, ok := os.LookupEnv(EnvKey(key)); ok {
			set(raw, key, v)
		}
	}

	cfg, err := decode(raw)
	if err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	setLogLevel(cfg)

	return cfg, nil
}

func readConfig(configPath string) (map[string]interface{}, error) {
	f, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not open config at %q: %w", configPath, err)
	}
	defer f.Close()

	raw := map[string]interface{}{}

	decoder := yaml.NewDecoder(f, yaml.Strict())
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("could not unmarshal yaml config: %w", err)
	}

	return raw, nil
}

func decode(raw map[string]interface{}) (Config, error) {
	var cfg Config

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return cfg, err
	}

	if err := dec.Decode(raw); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("logs.level: %w", err))
	}

	if c.Dispatch.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("dispatch.queue-size must be positive, got %d", c.Dispatch.QueueSize))
	}

	if c.Trace.Enabled && c.Trace.Path == "" {
		errs = append(errs, errors.New("trace.path is required when trace.enabled is set"))
	}

	return errors.Join(errs...)
}

func (c Config) LogLevel() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.Logs.Level)
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]interface{}) {
	for k, v := range src {
		sub, ok := v.(map[string]interface{})
		if !ok {
			dst[k] = v
			continue
		}

		existing, ok := dst[k].(map[string]interface{})
		if !ok {
			existing = map[string]interface{}{}
			dst[k] = existing
		}

		merge(existing, sub)
	}
}

func set(raw map[string]interface{}, key string, v interface{}) {
	parts := strings.Split(key, ".")
	m := raw

	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[p] = next
		}

		m = next
	}

	m[parts[len(parts)-1]] = v
}

// setLogLevel applies the level to logrus, which the free5gc libraries log
// through.
func setLogLevel(cfg Config) {
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.Logs.Level)
	if err != nil {
		log.SetLevel(log.InfoLevel)
		return
	}

	log.SetLevel(level)
}
