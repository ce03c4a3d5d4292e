// Package config loads the configuration of the textdelta command from a YAML file and
// TEXTDELTA_* environment variables, and validates it.
package config

import (
	"maps"
	"runtime"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gomlx/go-textdelta/batch"
	"github.com/gomlx/go-textdelta/deltas"
	"github.com/gomlx/go-textdelta/substitute"
	"github.com/gomlx/go-textdelta/translit"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

// ErrConfiguration is returned (wrapped) for any invalid configuration.
var ErrConfiguration = errors.New("invalid configuration")

// EnvPrefix of the environment variables overriding configuration values, e.g. TEXTDELTA_WORKERS.
const EnvPrefix = "TEXTDELTA"

// Config of a textdelta run.
type Config struct {
	// Transliteration applied to every document before the rules: one of translit.Names, or a
	// comma separated sequence of them.
	Transliteration string `mapstructure:"transliteration" validate:"required"`

	// Rules applied to every document, in order.
	Rules []substitute.Rule `mapstructure:"rules" validate:"dive"`

	// Workers is the number of documents processed in parallel.
	Workers int `mapstructure:"workers" validate:"min=1"`

	// Columns maps the position columns of spans to the side ("left" or "right") used to snap them.
	Columns map[string]string `mapstructure:"columns" validate:"required,min=1,dive,keys,required,endkeys,oneof=left right"`

	// GroupKey is the field of spans holding the ID of their document.
	GroupKey string `mapstructure:"group_key" validate:"required"`
}

// Defaults.
var (
	DefaultTransliteration = translit.NameNone
	DefaultColumns         = map[string]string{batch.ColumnBegin: "left", batch.ColumnEnd: "right"}
	DefaultGroupKey        = "doc_id"
)

// Load the configuration from the YAML file at path (if not empty), over the defaults.
// Environment variables TEXTDELTA_<KEY> take precedence over both.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("transliteration", DefaultTransliteration)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("columns", DefaultColumns)
	v.SetDefault("group_key", DefaultGroupKey)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(ErrConfiguration, "failed to read config file %q: %v", path, err)
		}
		klog.V(1).Infof("loaded configuration from %q", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "failed to parse configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	klog.V(2).Infof("configuration: transliteration=%s, %d rules, workers=%d, columns=%v, group_key=%s",
		cfg.Transliteration, len(cfg.Rules), cfg.Workers, cfg.Columns, cfg.GroupKey)
	return cfg, nil
}

// Validate the configuration: field values, the transliteration name, and that every rule compiles.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrapf(ErrConfiguration, "%v", err)
	}
	if _, err := c.Transliterator(); err != nil {
		return err
	}
	if _, err := substitute.CompileAll(c.Rules); err != nil {
		return errors.Wrapf(ErrConfiguration, "%v", err)
	}
	return nil
}

// Transliterator configured, or nil for none.
func (c *Config) Transliterator() (translit.Transliterator, error) {
	t, err := translit.ByName(c.Transliteration)
	if err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "%v", err)
	}
	return t, nil
}

// Sides returns the configured position columns with their parsed sides.
func (c *Config) Sides() (map[string]deltas.Side, error) {
	sides := make(map[string]deltas.Side, len(c.Columns))
	for _, name := range slices.Sorted(maps.Keys(c.Columns)) {
		side, err := deltas.ParseSide(c.Columns[name])
		if err != nil {
			return nil, errors.Wrapf(ErrConfiguration, "column %q: %v", name, err)
		}
		sides[name] = side
	}
	return sides, nil
}
