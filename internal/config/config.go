package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the conventional name of the configuration file.
const FileName = "tally.yaml"

// EnvPrefix prefixes environment overrides, e.g. TALLY_SERVER_ADDR.
const EnvPrefix = "TALLY"

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Client ClientConfig `yaml:"client" mapstructure:"client"`
	Review ReviewConfig `yaml:"review" mapstructure:"review"`
	Events EventsConfig `yaml:"events" mapstructure:"events"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ServerConfig controls the HTTP backend.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DataConfig locates the ledger files.
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
	Git bool   `yaml:"git" mapstructure:"git"` // commit every ledger change
}

// ClientConfig selects how the review front end reaches the backend.
type ClientConfig struct {
	Transport      string   `yaml:"transport" mapstructure:"transport"` // "http" or "channel"
	BaseURL        string   `yaml:"base_url" mapstructure:"base_url"`
	ChannelCommand []string `yaml:"channel_command,omitempty" mapstructure:"channel_command"` // empty = this binary's "channel" command
}

// ReviewConfig holds the review workflow policies.
type ReviewConfig struct {
	AllowSkip     bool   `yaml:"allow_skip" mapstructure:"allow_skip"`
	RefreshPolicy string `yaml:"refresh_policy" mapstructure:"refresh_policy"` // "completion" or "close"
	DefaultLabel  string `yaml:"default_label" mapstructure:"default_label"`   // "empty" or "raw"
}

// EventsConfig enables publishing ledger events to Kafka.
type EventsConfig struct {
	Brokers []string `yaml:"brokers,omitempty" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

const (
	TransportHTTP    = "http"
	TransportChannel = "channel"

	RefreshOnCompletion = "completion"
	RefreshOnClose      = "close"

	DefaultLabelEmpty = "empty"
	DefaultLabelRaw   = "raw"
)

// FlagKeys maps command-line flag names to configuration keys. Flags
// present on the FlagSet passed to Load override file and env values.
var FlagKeys = map[string]string{
	"addr":           "server.addr",
	"data-dir":       "data.dir",
	"transport":      "client.transport",
	"base-url":       "client.base_url",
	"allow-skip":     "review.allow_skip",
	"refresh-policy": "review.refresh_policy",
	"default-label":  "review.default_label",
	"log-level":      "log.level",
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: "127.0.0.1:4242"},
		Data:   DataConfig{Dir: "data"},
		Client: ClientConfig{
			Transport: TransportHTTP,
			BaseURL:   "http://127.0.0.1:4242",
		},
		Review: ReviewConfig{
			AllowSkip:     true,
			RefreshPolicy: RefreshOnCompletion,
			DefaultLabel:  DefaultLabelEmpty,
		},
		Events: EventsConfig{Topic: "tally.operations"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads configuration from path (optional, "" skips the file), then
// applies TALLY_* environment variables and any flags in FlagKeys that
// were set on flags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("data.dir", d.Data.Dir)
	v.SetDefault("data.git", d.Data.Git)
	v.SetDefault("client.transport", d.Client.Transport)
	v.SetDefault("client.base_url", d.Client.BaseURL)
	v.SetDefault("client.channel_command", d.Client.ChannelCommand)
	v.SetDefault("review.allow_skip", d.Review.AllowSkip)
	v.SetDefault("review.refresh_policy", d.Review.RefreshPolicy)
	v.SetDefault("review.default_label", d.Review.DefaultLabel)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Client.Transport {
	case TransportHTTP, TransportChannel:
	default:
		return fmt.Errorf("invalid client.transport %q (want %s or %s)", c.Client.Transport, TransportHTTP, TransportChannel)
	}
	switch c.Review.RefreshPolicy {
	case RefreshOnCompletion, RefreshOnClose:
	default:
		return fmt.Errorf("invalid review.refresh_policy %q (want %s or %s)", c.Review.RefreshPolicy, RefreshOnCompletion, RefreshOnClose)
	}
	switch c.Review.DefaultLabel {
	case DefaultLabelEmpty, DefaultLabelRaw:
	default:
		return fmt.Errorf("invalid review.default_label %q (want %s or %s)", c.Review.DefaultLabel, DefaultLabelEmpty, DefaultLabelRaw)
	}
	return nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
