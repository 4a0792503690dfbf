// Package config loads the watcher configuration from ~/.imsgwatch/config.toml
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/matheus3301/imsgwatch/internal/chatdb"
	"github.com/matheus3301/imsgwatch/internal/paths"
	"github.com/matheus3301/imsgwatch/internal/snapshot"
	"github.com/matheus3301/imsgwatch/internal/watch"
)

// Environment variables that override the file.
const (
	EnvTargets = "IMSGWATCH_TARGETS"
	EnvChatDB  = "IMSGWATCH_CHAT_DB"
)

// ErrNoTargets is returned by Validate when nothing is configured to watch.
var ErrNoTargets = errors.New("no targets configured: set targets in config.toml or " + EnvTargets)

// Duration is a time.Duration written as a string such as "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full watcher configuration.
type Config struct {
	Targets            []string `toml:"targets"`
	ChatDBPath         string   `toml:"chat_db_path"`
	ChangeLogPath      string   `toml:"change_log_path"`
	SocketPath         string   `toml:"socket_path"`
	Window             int      `toml:"window"`
	PollInterval       Duration `toml:"poll_interval"`
	QueryTimeout       Duration `toml:"query_timeout"`
	Service            string   `toml:"service"`
	Scope              string   `toml:"scope"`        // "handle" or "chat"
	Comparison         string   `toml:"comparison"`   // "exact" or "missing"
	IncludeFromMe      bool     `toml:"include_from_me"`
	SkipMissingTargets bool     `toml:"skip_missing_targets"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ChatDBPath:    paths.DefaultChatDBPath(),
		ChangeLogPath: paths.ChangeLogPath(),
		SocketPath:    paths.SocketPath(),
		Window:        watch.DefaultWindow,
		PollInterval:  Duration{watch.DefaultInterval},
		QueryTimeout:  Duration{chatdb.DefaultQueryTimeout},
		Service:       chatdb.DefaultService,
		Scope:         string(chatdb.ScopeHandle),
		Comparison:    "exact",
	}
}

// Load reads config from path on top of Default. A missing file is not an
// error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvTargets); v != "" {
		c.Targets = ParseTargets(v)
	}
	if v := getenv(EnvChatDB); v != "" {
		c.ChatDBPath = v
	}
}

// ParseTargets splits a comma separated list, dropping spaces, empty
// entries and duplicates.
func ParseTargets(s string) []string {
	s = strings.ReplaceAll(s, " ", "")
	var out []string
	seen := make(map[string]bool)
	for _, t := range strings.Split(s, ",") {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Validate checks the configuration before the watcher starts.
func (c *Config) Validate() error {
	c.Targets = ParseTargets(strings.Join(c.Targets, ","))
	if len(c.Targets) == 0 {
		return ErrNoTargets
	}
	if c.ChatDBPath == "" {
		return errors.New("chat_db_path is empty")
	}
	if _, err := os.Stat(c.ChatDBPath); err != nil {
		return fmt.Errorf("chat database: %w", err)
	}
	if c.ChangeLogPath == "" {
		return errors.New("change_log_path is empty")
	}
	if c.Window < 1 {
		return fmt.Errorf("window must be at least 1, got %d", c.Window)
	}
	if c.PollInterval.Duration <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.QueryTimeout.Duration <= 0 {
		return fmt.Errorf("query_timeout must be positive, got %s", c.QueryTimeout)
	}
	if _, err := chatdb.ParseScope(c.Scope); err != nil {
		return err
	}
	if _, err := snapshot.ComparatorByName(c.Comparison); err != nil {
		return err
	}
	return nil
}

// WatchOptions converts a validated config into watcher options.
func (c *Config) WatchOptions() (watch.Options, error) {
	scope, err := chatdb.ParseScope(c.Scope)
	if err != nil {
		return watch.Options{}, err
	}
	cmp, err := snapshot.ComparatorByName(c.Comparison)
	if err != nil {
		return watch.Options{}, err
	}
	return watch.Options{
		Targets:            c.Targets,
		Window:             c.Window,
		Interval:           c.PollInterval.Duration,
		Service:            c.Service,
		Scope:              scope,
		IncludeFromMe:      c.IncludeFromMe,
		SkipMissingTargets: c.SkipMissingTargets,
		Compare:            cmp,
	}, nil
}
