package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dalbo/briefingbot/internal/clock"
)

// ICSConfig describes one ICS subscription source.
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// ScheduleConfig holds the cron expressions for the three daily digests.
type ScheduleConfig struct {
	Morning   string `yaml:"morning" json:"morning"`
	Afternoon string `yaml:"afternoon" json:"afternoon"`
	Evening   string `yaml:"evening" json:"evening"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Secrets are credentials loaded from the environment, never from the
// YAML file.
type Secrets struct {
	TodoistToken   string
	TelegramToken  string
	TelegramChatID int64
	OpenAIKey      string
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the trigger API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone every due-date and event classification
	// runs against.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Schedules are cron expressions for the automatic digests.
	Schedules ScheduleConfig `yaml:"schedules" json:"schedules"`

	// TaskFilter is an optional server-side task query (e.g. "today | overdue").
	TaskFilter string `yaml:"task_filter" json:"task_filter"`

	// CacheDir is where ICS bodies and HTTP cache metadata live.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// ICS is the list of subscribed calendar sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, protects all endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// Secrets come from the environment; excluded from YAML round trips.
	Secrets Secrets `yaml:"-" json:"-"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		Timezone: clock.DefaultZoneName,
		Schedules: ScheduleConfig{
			Morning:   "0 8 * * *",
			Afternoon: "0 14 * * *",
			Evening:   "0 20 * * *",
		},
		CacheDir: "./var/ics-cache",
		ICS:      []ICSConfig{},
	}
}

// Normalize fills missing or zero values with defaults so partially
// filled configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = clock.DefaultZoneName
	}
	if c.Schedules.Morning == "" {
		c.Schedules.Morning = "0 8 * * *"
	}
	if c.Schedules.Afternoon == "" {
		c.Schedules.Afternoon = "0 14 * * *"
	}
	if c.Schedules.Evening == "" {
		c.Schedules.Evening = "0 20 * * *"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/ics-cache"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Load reads the YAML config at path, creating a default file on first
// run, then overlays secrets from the environment. A .env file in the
// working directory is honored when present.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if saveErr := Save(path, cfg); saveErr != nil {
				return cfg, saveErr
			}
			cfg.loadSecrets()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.loadSecrets()

	return &cfg, nil
}

// loadSecrets overlays credentials from the environment. godotenv only
// fills variables that are not already set, so real environment values
// win over the .env file.
func (c *Config) loadSecrets() {
	_ = godotenv.Load()

	c.Secrets.TodoistToken = os.Getenv("TODOIST_TOKEN")
	c.Secrets.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	c.Secrets.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Secrets.TelegramChatID = id
		}
	}
}

// Save writes cfg to path atomically with 0600 permissions, creating the
// parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".briefingbot-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
