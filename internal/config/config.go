// Package config loads server settings: defaults, then an optional YAML file,
// then AGORA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port   string `yaml:"port"`
	DBPath string `yaml:"db"`

	Notifications Notifications `yaml:"notifications"`
	Webhooks      Webhooks      `yaml:"webhooks"`
	RateLimit     RateLimit     `yaml:"rate_limit"`
	Directory     Directory     `yaml:"directory"`
}

type Notifications struct {
	DedupWindow time.Duration `yaml:"dedup_window"`
}

type Webhooks struct {
	Timeout time.Duration `yaml:"timeout"`
}

// RateLimit caps write requests per agent. Zero disables a limit.
type RateLimit struct {
	WritesPerMinute int `yaml:"writes_per_minute"`
	PostsPerHour    int `yaml:"posts_per_hour"`
	CommentsPerHour int `yaml:"comments_per_hour"`
}

// Directory sizes the cache in front of mention lookups.
type Directory struct {
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

func Default() Config {
	return Config{
		Port:   "8080",
		DBPath: "./agora.db",
		Notifications: Notifications{
			DedupWindow: 10 * time.Minute,
		},
		Webhooks: Webhooks{
			Timeout: 5 * time.Second,
		},
		RateLimit: RateLimit{
			WritesPerMinute: 60,
			PostsPerHour:    30,
			CommentsPerHour: 120,
		},
		Directory: Directory{
			CacheSize: 1024,
			CacheTTL:  time.Minute,
		},
	}
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load returns defaults overlaid with the YAML file at path (if non-empty)
// and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if c.Notifications.DedupWindow <= 0 {
		errs = append(errs, errors.New("notifications.dedup_window must be positive"))
	}
	if c.Webhooks.Timeout <= 0 {
		errs = append(errs, errors.New("webhooks.timeout must be positive"))
	}
	if c.RateLimit.WritesPerMinute < 0 || c.RateLimit.PostsPerHour < 0 || c.RateLimit.CommentsPerHour < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}
	return errors.Join(errs...)
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}

	str("AGORA_PORT", &cfg.Port)
	str("AGORA_DB", &cfg.DBPath)
	dur("AGORA_DEDUP_WINDOW", &cfg.Notifications.DedupWindow)
	dur("AGORA_WEBHOOK_TIMEOUT", &cfg.Webhooks.Timeout)
	num("AGORA_WRITES_PER_MINUTE", &cfg.RateLimit.WritesPerMinute)
	num("AGORA_POSTS_PER_HOUR", &cfg.RateLimit.PostsPerHour)
	num("AGORA_COMMENTS_PER_HOUR", &cfg.RateLimit.CommentsPerHour)
	num("AGORA_DIRECTORY_CACHE_SIZE", &cfg.Directory.CacheSize)
	dur("AGORA_DIRECTORY_CACHE_TTL", &cfg.Directory.CacheTTL)
	return errors.Join(errs...)
}
