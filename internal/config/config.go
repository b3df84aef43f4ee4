// Package config loads the server configuration and the business catalog.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultFileName = "tycoon.yaml"
	envPrefix       = "TYCOON_"
)

type Config struct {
	Server struct {
		Addr         string        `json:"addr" yaml:"addr" validate:"required"`
		ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
		WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
		PushInterval time.Duration `json:"pushInterval" yaml:"pushInterval" validate:"gt=0"`
	} `json:"server" yaml:"server"`

	Simulation struct {
		// Wall time between ticks
		TickRate time.Duration `json:"tickRate" yaml:"tickRate" validate:"gt=0"`
		// Game seconds added per tick
		Delta         float64       `json:"delta" yaml:"delta" validate:"gte=0"`
		AutosaveEvery time.Duration `json:"autosaveEvery" yaml:"autosaveEvery" validate:"gte=0"`
	} `json:"simulation" yaml:"simulation"`

	Storage struct {
		Path string `json:"path" yaml:"path" validate:"required"`
		Slot string `json:"slot" yaml:"slot"`
	} `json:"storage" yaml:"storage"`

	Catalog struct {
		// Empty means the embedded default catalog
		Path string `json:"path" yaml:"path"`
	} `json:"catalog" yaml:"catalog"`

	Log Log `json:"log" yaml:"log"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn warning error"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Server.PushInterval = 250 * time.Millisecond
	cfg.Simulation.TickRate = 100 * time.Millisecond
	cfg.Simulation.Delta = 0.1
	cfg.Simulation.AutosaveEvery = 30 * time.Second
	cfg.Storage.Path = "data/tycoon.db"
	cfg.Storage.Slot = "default"
	cfg.Log.Level = "info"
	cfg.Log.Pretty = true
	return cfg
}

// Load reads path (or tycoon.yaml from the usual locations when path is
// empty) on top of the defaults, then applies TYCOON_* environment
// overrides. A missing default file is not an error; a missing explicit
// path is.
func Load(path string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	configFile, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config %s failed", configFile)
		}
	}

	existing := knownKeys()
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, v string) (string, any) {
			// TYCOON_SIMULATION_TICKRATE -> simulation.tickRate
			return canonicalizeEnvKey(strings.TrimPrefix(key, envPrefix), existing), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", errors.Wrapf(err, "config file %s", path)
		}
		return path, nil
	}

	for _, dir := range []string{".", "config", "configs"} {
		candidate := filepath.Join(dir, defaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// knownKeys is the key tree env overrides are matched against.
func knownKeys() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"addr": "", "readTimeout": "", "writeTimeout": "", "pushInterval": "",
		},
		"simulation": map[string]any{
			"tickRate": "", "delta": "", "autosaveEvery": "",
		},
		"storage": map[string]any{"path": "", "slot": ""},
		"catalog": map[string]any{"path": ""},
		"log":     map[string]any{"pretty": "", "level": ""},
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}
		child, _ := value.(map[string]any)
		return key, child, true
	}
	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}
	return normalized.String()
}
