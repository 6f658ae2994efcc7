package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/modwatch/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

type Config struct {
	// Articles and AllowedUsers accept a list or a comma separated string and are parsed by hand.
	Articles         []string `koanf:"-"`
	Discover         bool     `koanf:"discover"`
	MinPosts         int      `koanf:"min_posts"`
	MaxInactive      int      `koanf:"max_inactive"`
	DiscoverInterval int      `koanf:"discover_interval"`
	PollInterval     int      `koanf:"poll_interval"`
	DBPath           string   `koanf:"db_path"`
	HTTPPort         string   `koanf:"http_port"`
	APIURL           string   `koanf:"api_url"`
	RSSURL           string   `koanf:"rss_url"`
	UserAgent        string   `koanf:"user_agent"`
	RequestTimeout   int      `koanf:"request_timeout"`
	RateLimit        float64  `koanf:"rate_limit"`
	TelegramBotToken string   `koanf:"telegram_bot_token"`
	TelegramAPIURL   string   `koanf:"telegram_api_url"`
	TelegramChatID   int64    `koanf:"telegram_chat_id"`
	AllowedUsers     []int64  `koanf:"-"`
	DigestHour       int      `koanf:"digest_hour"`
	AppEnv           AppEnv   `koanf:"-"`
	LogLevel         string   `koanf:"log_level"`
}

var defaults = map[string]any{
	"discover":          false,
	"min_posts":         50,
	"max_inactive":      60,
	"discover_interval": 5,
	"poll_interval":     240,
	"db_path":           "data/moderated_postings.db",
	"http_port":         "8080",
	"api_url":           "https://capi.ds.at/forum-serve-graphql/v1/",
	"rss_url":           "https://www.derstandard.at/rss",
	"request_timeout":   30,
	"rate_limit":        4,
	"telegram_api_url":  "https://api.telegram.org",
	"digest_hour":       7,
	"app_env":           "production",
	"log_level":         "info",
}

// Load reads .env, the first config file found in the working directory and the
// environment, in increasing precedence. args are extra article references, e.g.
// positional command line arguments.
func Load(args ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Could not load .env file", "error", err)
	}

	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Load environment variables (they override config file values)
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	cfg.Articles = append(ParseList(k.Get("articles")), args...)
	cfg.AllowedUsers = ParseAllowedUsers(k.Get("allowed_users"))

	if appEnv, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the poll loop cannot run without.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return oops.With("poll_interval", c.PollInterval).Wrap(errors.ErrInvalidInterval)
	}
	if c.DiscoverInterval <= 0 {
		return oops.With("discover_interval", c.DiscoverInterval).Wrap(errors.ErrInvalidInterval)
	}
	if c.DigestHour < 0 || c.DigestHour > 23 {
		return oops.Errorf("digest_hour must be between 0 and 23, got %d", c.DigestHour)
	}
	if len(c.Articles) == 0 && !c.Discover {
		return errors.ErrNoForums
	}
	return nil
}

// PollEvery is the wait between poll cycles
func (c *Config) PollEvery() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// MaxInactiveFor is the inactivity threshold for eviction; zero disables eviction.
func (c *Config) MaxInactiveFor() time.Duration {
	return time.Duration(c.MaxInactive) * time.Minute
}

// Timeout is the per-request timeout for outgoing HTTP calls
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// StatusServerEnabled reports whether the HTTP status view should be served.
func (c *Config) StatusServerEnabled() bool {
	return c.HTTPPort != "" && c.HTTPPort != "0"
}

// TelegramEnabled reports whether a bot token is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseList accepts a comma separated string or a list and returns the non-empty trimmed entries.
func ParseList(v any) []string {
	var parts []string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []interface{}:
		parts = lo.Map(val, func(item interface{}, _ int) string {
			return fmt.Sprint(item)
		})
	default:
		parts = []string{fmt.Sprint(val)}
	}

	return lo.FilterMap(parts, func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, part != ""
	})
}

// ParseAllowedUsers parses Telegram user ids from a comma separated string or a list
func ParseAllowedUsers(v any) []int64 {
	if list, ok := v.([]interface{}); ok {
		return lo.FilterMap(list, func(item interface{}, _ int) (int64, bool) {
			switch val := item.(type) {
			case int64:
				return val, true
			case int:
				return int64(val), true
			case float64:
				return int64(val), true
			case string:
				return parseUserID(val)
			default:
				return 0, false
			}
		})
	}

	return lo.FilterMap(ParseList(v), func(part string, _ int) (int64, bool) {
		return parseUserID(part)
	})
}

func parseUserID(s string) (int64, bool) {
	var id int64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &id); err == nil {
		return id, true
	}
	return 0, false
}
