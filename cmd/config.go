// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by all commands.
type Config struct {
	Port        string `yaml:"port"`
	Baud        int    `yaml:"baud"`
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`

	ReadTimeout       time.Duration `yaml:"read_timeout"`
	SettleDelay       time.Duration `yaml:"settle_delay"`
	MaxDiscardedLines int           `yaml:"max_discarded_lines"`

	// BreakerTimeout is how long polling commands wait before probing an
	// instrument that stopped answering.
	BreakerTimeout time.Duration `yaml:"breaker_timeout"`

	Record string `yaml:"record"`
	Replay string `yaml:"replay"`

	Log LogConfig `yaml:"log"`

	// Overrides applied on top of scorpion.DefaultCommandSet
	Commands scorpion.CommandSet `yaml:"commands"`
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the settings used when no file or flag says
// otherwise.
func DefaultConfig() *Config {
	return &Config{
		Baud:              scorpion.DefaultBaudRate,
		ReadTimeout:       scorpion.DefaultReadTimeout,
		SettleDelay:       scorpion.DefaultSettleDelay,
		MaxDiscardedLines: scorpion.DefaultMaxDiscardedLines,
		BreakerTimeout:    10 * time.Second,
		Log:               LogConfig{Level: "info"},
	}
}

// LoadConfig reads path on top of DefaultConfig. An empty path returns the
// defaults. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return c, nil
}

// ApplyFlags overrides settings with every flag set on the command line.
func (c *Config) ApplyFlags(flags *pflag.FlagSet) {
	if flags.Changed("port") {
		c.Port = portName
	}
	if flags.Changed("baud") {
		c.Baud = baudRate
	}
	if flags.Changed("url") {
		c.URL = wsURL
	}
	if flags.Changed("username") {
		c.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		c.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("read-timeout") {
		c.ReadTimeout = readTimeout
	}
	if flags.Changed("settle-delay") {
		c.SettleDelay = settleDelay
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("log-json") {
		c.Log.JSON = logJSON
	}
	if flags.Changed("record") {
		c.Record = recordPath
	}
	if flags.Changed("replay") {
		c.Replay = replayPath
	}
}

// Validate rejects settings no connection could use.
func (c *Config) Validate() error {
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %s", c.ReadTimeout)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative, got %s", c.SettleDelay)
	}
	if c.MaxDiscardedLines <= 0 {
		return fmt.Errorf("max_discarded_lines must be positive, got %d", c.MaxDiscardedLines)
	}
	if c.Record != "" && c.Replay != "" {
		return errors.New("--record and --replay cannot be used together")
	}
	return nil
}

// CommandSet returns the default mnemonics with the configured overrides.
func (c *Config) CommandSet() scorpion.CommandSet {
	return scorpion.DefaultCommandSet().Merge(c.Commands)
}

// DriverOptions converts the settings into driver options.
func (c *Config) DriverOptions() []scorpion.Option {
	return []scorpion.Option{
		scorpion.WithBaudRate(c.Baud),
		scorpion.WithReadTimeout(c.ReadTimeout),
		scorpion.WithSettleDelay(c.SettleDelay),
		scorpion.WithMaxDiscardedLines(c.MaxDiscardedLines),
		scorpion.WithCommandSet(c.CommandSet()),
	}
}
