// Package config loads the octopus-consumer settings from an optional YAML
// file and OCTOPUS_* environment variables.
package config

import (
	"os"
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

const EnvPrefix = "OCTOPUS_"

// sections are the nested blocks an environment variable can address,
// e.g. OCTOPUS_INFLUX_BUCKET sets influx.bucket.
var sections = map[string]bool{
	"log":    true,
	"influx": true,
	"kafka":  true,
	"csv":    true,
}

type Config struct {
	APIKey        string        `koanf:"apiKey" validate:"required"`
	AccountNumber string        `koanf:"accountNumber" validate:"required"`
	BaseURL       string        `koanf:"baseUrl" validate:"omitempty,url"`
	CacheDir      string        `koanf:"cacheDir"`
	Timeout       time.Duration `koanf:"timeout" validate:"min=0"`

	Log    Log    `koanf:"log"`
	CSV    CSV    `koanf:"csv"`
	Influx Influx `koanf:"influx"`
	Kafka  Kafka  `koanf:"kafka"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

type CSV struct {
	Path string `koanf:"path"`
}

// Influx is enabled when URL is set.
type Influx struct {
	URL         string `koanf:"url" validate:"omitempty,url"`
	Token       string `koanf:"token"`
	Org         string `koanf:"org" validate:"required_with=URL"`
	Bucket      string `koanf:"bucket" validate:"required_with=URL"`
	Measurement string `koanf:"measurement"`
}

// Kafka is enabled when Brokers is set.
type Kafka struct {
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic" validate:"required_with=Brokers"`
	ClientID string   `koanf:"clientId"`
}

// Default returns the settings used for anything neither the file nor the
// environment sets.
func Default() *Config {
	return &Config{
		CacheDir: "disable",
		Timeout:  30 * time.Second,
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		CSV: CSV{
			Path: "output.csv",
		},
		Influx: Influx{
			Measurement: "octopus_consumption",
		},
		Kafka: Kafka{
			ClientID: "octopus-consumer",
		},
	}
}

// Load reads path, if not empty, then applies OCTOPUS_* environment
// variables on top. The result is not validated; see Validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config %s failed", path)
		}
	}

	existing := k.Raw()
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			return canonicalizeEnvKey(k, existing), v
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
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return normalizeToken(mapKey) == normalizeToken(fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first missing or malformed setting.
func (c *Config) Validate() error {
	return errors.Wrap(validate.Struct(c), "invalid config")
}

// canonicalizeEnvKey maps OCTOPUS_INFLUX_BUCKET to influx.bucket and
// OCTOPUS_API_KEY to api_key, reusing the spelling of a key already loaded
// from the file so the two sources merge.
func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	key := strings.ToLower(strings.TrimPrefix(rawKey, EnvPrefix))

	segments := []string{key}
	if section, rest, ok := strings.Cut(key, "_"); ok && sections[section] {
		segments = []string{section, rest}
	}

	canonical := make([]string, 0, len(segments))
	current := existing
	for _, segment := range segments {
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
	if len(current) == 0 {
		return "", nil, false
	}

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
