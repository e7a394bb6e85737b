// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/FishPiOffical/fishpi-go/api"
)

// clientFlags carries the flags every subcommand shares.
type clientFlags struct {
	configPath string
	baseURL    string
	apiKey     string
	logLevel   string
	jsonOut    bool
}

func (f *clientFlags) addTo(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "", "YAML config file (default "+defaultConfigPath()+")")
	flagSet.StringVar(&f.baseURL, "base-url", "", "platform base URL (default "+api.DefaultBaseURL+")")
	flagSet.StringVar(&f.apiKey, "api-key", "", "API key (overrides the config file)")
	flagSet.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flagSet.BoolVar(&f.jsonOut, "json", false, "machine-readable JSON output")
}

// parseFlags parses args. The first result is true when help was
// requested and the command should exit cleanly.
func parseFlags(flagSet *pflag.FlagSet, args []string) (bool, error) {
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// fileConfig is the YAML config file shape.
type fileConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	UserAgent string `yaml:"user_agent"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "fishpi", "config.yaml")
}

// loadFileConfig reads and parses path. A missing file is an error only
// when the path was given explicitly.
func loadFileConfig(path string, explicit bool) (fileConfig, error) {
	var config fileConfig
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return config, nil
		}
		return config, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config, nil
}

// settings is the effective configuration: flags override file values,
// file values override defaults.
type settings struct {
	baseURL   string
	apiKey    string
	userAgent string
	level     slog.Level
	jsonOut   bool
}

func (f *clientFlags) resolve() (settings, error) {
	path, explicit := f.configPath, f.configPath != ""
	if !explicit {
		path = defaultConfigPath()
	}
	file, err := loadFileConfig(path, explicit)
	if err != nil {
		return settings{}, err
	}

	resolved := settings{
		baseURL:   file.BaseURL,
		apiKey:    file.APIKey,
		userAgent: file.UserAgent,
		jsonOut:   f.jsonOut,
	}
	if f.baseURL != "" {
		resolved.baseURL = f.baseURL
	}
	if f.apiKey != "" {
		resolved.apiKey = f.apiKey
	}
	if err := resolved.level.UnmarshalText([]byte(f.logLevel)); err != nil {
		return settings{}, fmt.Errorf("bad --log-level %q: %w", f.logLevel, err)
	}
	return resolved, nil
}

// newLogger builds the stderr logger: text for terminals, JSON when
// redirected.
func newLogger(level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, options))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, options))
}

func (s settings) client(logger *slog.Logger) (*api.Client, error) {
	return api.NewClient(api.ClientConfig{
		BaseURL:   s.baseURL,
		UserAgent: s.userAgent,
		Logger:    logger,
	})
}

func (s settings) session(logger *slog.Logger) (*api.Session, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("an API key is required: run 'fishpi login' and put the key in %s, or pass --api-key", defaultConfigPath())
	}
	client, err := s.client(logger)
	if err != nil {
		return nil, err
	}
	return client.SessionFromKey(s.apiKey)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
