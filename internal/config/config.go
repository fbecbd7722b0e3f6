package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Zero values are replaced by
// defaults in Load so a missing file or empty document still yields a
// runnable server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Chat      ChatConfig      `yaml:"chat"`
	Retention RetentionConfig `yaml:"retention"`
	Social    SocialConfig    `yaml:"social"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Address   string `yaml:"address"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
	UploadDir string `yaml:"upload_dir"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type ChatConfig struct {
	DefaultChannel string `yaml:"default_channel"`
	HistoryLimit   int    `yaml:"history_limit"`
}

// RetentionConfig drives the periodic history sweep. Cron uses standard
// five-field syntax; Window is a Go duration string.
type RetentionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	Window  string `yaml:"window"`
}

type SocialConfig struct {
	MailboxCap int `yaml:"mailbox_cap"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

const (
	defaultAddress    = "127.0.0.1"
	defaultPort       = 3000
	defaultStaticDir  = "./public"
	defaultUploadDir  = "./uploads"
	defaultDBPath     = "./data"
	defaultChannel    = "general"
	defaultHistory    = 500
	defaultCron       = "0 * * * *"
	defaultWindow     = "24h"
	defaultMailboxCap = 200
)

// Load reads the YAML config at path (if it exists) and applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if _, err := cfg.RetentionWindow(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = defaultStaticDir
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = defaultUploadDir
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultDBPath
	}
	if c.Chat.DefaultChannel == "" {
		c.Chat.DefaultChannel = defaultChannel
	}
	if c.Chat.HistoryLimit == 0 {
		c.Chat.HistoryLimit = defaultHistory
	}
	if c.Retention.Cron == "" {
		c.Retention.Cron = defaultCron
	}
	if c.Retention.Window == "" {
		c.Retention.Window = defaultWindow
	}
	if c.Social.MailboxCap == 0 {
		c.Social.MailboxCap = defaultMailboxCap
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CAMPFIRE_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("CAMPFIRE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("CAMPFIRE_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("CAMPFIRE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// RetentionWindow parses the configured eviction window.
func (c *Config) RetentionWindow() (time.Duration, error) {
	d, err := time.ParseDuration(c.Retention.Window)
	if err != nil {
		return 0, fmt.Errorf("invalid retention window %q: %w", c.Retention.Window, err)
	}
	return d, nil
}

// ListenAddr is the host:port the fiber app binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
