/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the service configuration.
//
// Values are read from a YAML (or JSON) file and may be overridden by
// environment variables prefixed with FABRIC_API, dots replaced by
// underscores (FABRIC_API_FABRIC_CHANNEL overrides fabric.channel).
// The resulting Config is immutable and is passed to constructors.
package config

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	yaml "gopkg.in/yaml.v2"
)

const (
	cmdRoot = "FABRIC_API"

	defaultCommitTimeout = 30000
	defaultAddress       = ":3000"
)

// Config is the complete service configuration
type Config struct {
	Fabric  FabricConfig  `mapstructure:"fabric" yaml:"fabric"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`
}

// FabricConfig names the network endpoints and the identity used for every invocation
type FabricConfig struct {
	Channel        string   `mapstructure:"channel" yaml:"channel"`
	EndorsingPeers []string `mapstructure:"endorsingPeers" yaml:"endorsingPeers"`
	EventPeer      string   `mapstructure:"eventPeer" yaml:"eventPeer"`
	Orderer        string   `mapstructure:"orderer" yaml:"orderer"`
	// Peers is the positional form: [0] endorses, [1] delivers events
	Peers []string `mapstructure:"peers" yaml:"peers,omitempty"`
	// Orderers is the positional form of Orderer; the first entry is used
	Orderers          []string `mapstructure:"orderers" yaml:"orderers,omitempty"`
	Organization      string   `mapstructure:"organization" yaml:"organization"`
	User              string   `mapstructure:"user" yaml:"user"`
	CredentialStore   string   `mapstructure:"credentialStore" yaml:"credentialStore"`
	ConnectionProfile string   `mapstructure:"connectionProfile" yaml:"connectionProfile"`
	// Timeout is the commit wait in milliseconds
	Timeout int `mapstructure:"timeout" yaml:"timeout"`
}

// CommitTimeout returns the commit wait as a duration
func (f FabricConfig) CommitTimeout() time.Duration {
	return time.Duration(f.Timeout) * time.Millisecond
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Address         string        `mapstructure:"address" yaml:"address"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// LoggingConfig configures the log sink and levels
type LoggingConfig struct {
	Level    string `mapstructure:"level" yaml:"level"`
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
	// Modules overrides the level per logger module, e.g. fabsdk/fab: debug
	Modules map[string]string `mapstructure:"modules" yaml:"modules,omitempty"`
}

// MetricsConfig configures the Prometheus metrics
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	Path      string `mapstructure:"path" yaml:"path"`
}

// JournalConfig configures where invocation outcomes are recorded.
// Each recorder is enabled when its connection settings are present.
type JournalConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	Kafka    KafkaConfig    `mapstructure:"kafka" yaml:"kafka"`
}

// PostgresConfig configures the Postgres journal
type PostgresConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// KafkaConfig configures the Kafka journal
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers" yaml:"brokers"`
	Topic   string   `mapstructure:"topic" yaml:"topic"`
	// BatchTimeout bounds how long a write waits for the batch to fill
	BatchTimeout time.Duration `mapstructure:"batchTimeout" yaml:"batchTimeout"`
	// Async publishes without waiting for the broker; failures are only logged
	Async bool `mapstructure:"async" yaml:"async"`
}

type options struct {
	envPrefix  string
	file       string
	reader     io.Reader
	configType string
}

// Option configures Load
type Option func(opts *options) error

// FromFile reads the named config file
func FromFile(name string) Option {
	return func(opts *options) error {
		if name == "" {
			return errors.New("filename is required")
		}
		opts.file = name
		return nil
	}
}

// FromReader reads the configuration from in.
// configType can be "json" or "yaml".
func FromReader(in io.Reader, configType string) Option {
	return func(opts *options) error {
		if configType == "" {
			return errors.New("empty config type")
		}
		opts.reader = in
		opts.configType = configType
		return nil
	}
}

// FromRaw reads the configuration from a byte array
func FromRaw(configBytes []byte, configType string) Option {
	return FromReader(bytes.NewBuffer(configBytes), configType)
}

// WithEnvPrefix defines the prefix for environment variable overrides.
// See viper SetEnvPrefix for more information.
func WithEnvPrefix(prefix string) Option {
	return func(opts *options) error {
		opts.envPrefix = prefix
		return nil
	}
}

// Load reads, decodes and validates the configuration
func Load(opts ...Option) (*Config, error) {
	o := options{envPrefix: cmdRoot}
	for _, option := range opts {
		if err := option(&o); err != nil {
			return nil, errors.WithMessage(err, "Error in options passed to load config")
		}
	}

	v := newViper(o.envPrefix)
	setDefaults(v)

	switch {
	case o.file != "":
		v.SetConfigFile(o.file)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "loading config file failed: %s", o.file)
		}
	case o.reader != nil:
		v.SetConfigType(o.configType)
		if err := v.MergeConfig(o.reader); err != nil {
			return nil, errors.Wrap(err, "reading config failed")
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, errors.Wrap(err, "decoding config failed")
	}

	cfg.applyPositional()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper(cmdRootPrefix string) *viper.Viper {
	myViper := viper.New()
	myViper.SetEnvPrefix(cmdRootPrefix)
	myViper.AutomaticEnv()
	replacer := strings.NewReplacer(".", "_")
	myViper.SetEnvKeyReplacer(replacer)
	return myViper
}

// setDefaults registers every key so that environment overrides apply even
// when the file omits it
func setDefaults(v *viper.Viper) {
	v.SetDefault("fabric.channel", "")
	v.SetDefault("fabric.endorsingPeers", []string{})
	v.SetDefault("fabric.eventPeer", "")
	v.SetDefault("fabric.orderer", "")
	v.SetDefault("fabric.organization", "")
	v.SetDefault("fabric.user", "")
	v.SetDefault("fabric.credentialStore", "")
	v.SetDefault("fabric.connectionProfile", "")
	v.SetDefault("fabric.timeout", defaultCommitTimeout)

	v.SetDefault("server.address", defaultAddress)
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "0s")
	v.SetDefault("server.shutdownTimeout", "15s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "fabric_api")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("journal.postgres.dsn", "")
	v.SetDefault("journal.kafka.brokers", []string{})
	v.SetDefault("journal.kafka.topic", "transaction-outcomes")
	v.SetDefault("journal.kafka.batchTimeout", "10ms")
	v.SetDefault("journal.kafka.async", false)
}

// applyPositional fills the named roles from the positional lists when the
// named roles are absent
func (c *Config) applyPositional() {
	f := &c.Fabric
	if len(f.EndorsingPeers) == 0 && len(f.Peers) > 0 {
		f.EndorsingPeers = []string{f.Peers[0]}
	}
	if f.EventPeer == "" && len(f.Peers) > 1 {
		f.EventPeer = f.Peers[1]
	}
	if f.Orderer == "" && len(f.Orderers) > 0 {
		f.Orderer = f.Orderers[0]
	}
}

// Validate checks that every required setting is present
func (c *Config) Validate() error {
	f := c.Fabric
	switch {
	case f.Channel == "":
		return errors.New("fabric.channel is required")
	case len(f.EndorsingPeers) == 0:
		return errors.New("fabric.endorsingPeers requires at least one peer")
	case f.EventPeer == "":
		return errors.New("fabric.eventPeer is required")
	case f.Orderer == "":
		return errors.New("fabric.orderer is required")
	case f.User == "":
		return errors.New("fabric.user is required")
	case f.ConnectionProfile == "":
		return errors.New("fabric.connectionProfile is required")
	case f.Timeout <= 0:
		return errors.Errorf("fabric.timeout must be positive, got %d", f.Timeout)
	}

	for _, p := range f.EndorsingPeers {
		if p == "" {
			return errors.New("fabric.endorsingPeers contains an empty entry")
		}
	}

	if _, err := logging.LogLevel(c.Logging.Level); err != nil {
		return errors.WithMessage(err, "invalid logging.level")
	}
	for module, level := range c.Logging.Modules {
		if _, err := logging.LogLevel(level); err != nil {
			return errors.WithMessagef(err, "invalid level for logging module %s", module)
		}
	}
	if c.Logging.Encoding != "json" && c.Logging.Encoding != "console" {
		return errors.Errorf("logging.encoding must be json or console, got %s", c.Logging.Encoding)
	}

	if len(c.Journal.Kafka.Brokers) > 0 && c.Journal.Kafka.Topic == "" {
		return errors.New("journal.kafka.topic is required when brokers are set")
	}
	return nil
}

// YAML returns the effective configuration in YAML form
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling config failed")
	}
	return out, nil
}
