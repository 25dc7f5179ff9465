package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Bitrix24 Bitrix24Config
	Github   GithubConfig
	Redis    RedisConfig

	// ConfigPath is the path of the identity-mapping file inside the
	// source repository.
	ConfigPath string

	// MappingCacheTTL bounds how long a parsed mapping stays cached in
	// server mode.
	MappingCacheTTL time.Duration

	// RunID, when set, links error reports back to the triggering
	// automation run.
	RunID string

	Debug bool
}

type ServerConfig struct {
	Port     int
	LogLevel string
}

func (c *ServerConfig) Addr() string {
	return "0.0.0.0:" + strconv.Itoa(c.Port)
}

type Bitrix24Config struct {
	WebhookURL string
	ChatID     string
	BotName    string
}

type GithubConfig struct {
	APIURL string
	Token  string

	// Repository is the owner/name slug of the repository running the
	// job, used for the error-report run link.
	Repository string

	// SHA pins the mapping-file revision in one-shot mode. Server mode
	// leaves it empty and falls back to each event's default branch.
	SHA string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadFromEnv reads configuration from the environment. Every value is
// also readable as a GitHub Action input (INPUT_<NAME>), which wins
// over the plain variable.
func LoadFromEnv() (*Config, error) {
	serverPort, err := getEnvOrDefaultInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}

	redisDB, err := getEnvOrDefaultInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := getEnvOrDefaultDuration("MAPPING_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	debug, err := parseDebugFlag(getInputOrEnv("DEBUG-FLAG", "DEBUG"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     serverPort,
			LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Bitrix24: Bitrix24Config{
			WebhookURL: getInputOrEnv("BITRIX24-WEBHOOK-URL", "BITRIX24_WEBHOOK_URL"),
			ChatID:     getInputOrEnv("CHAT-ID", "CHAT_ID"),
			BotName:    getInputOrEnv("BOT-NAME", "BOT_NAME"),
		},
		Github: GithubConfig{
			APIURL:     getEnvOrDefault("GITHUB_API_URL", "https://api.github.com"),
			Token:      getInputOrEnv("REPO-TOKEN", "GITHUB_TOKEN"),
			Repository: os.Getenv("GITHUB_REPOSITORY"),
			SHA:        os.Getenv("GITHUB_SHA"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		ConfigPath:      getInputOrEnv("CONFIGURATION-PATH", "CONFIG_PATH"),
		MappingCacheTTL: cacheTTL,
		RunID:           getInputOrEnv("RUN-ID", "GITHUB_RUN_ID"),
		Debug:           debug,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Bitrix24.WebhookURL == "" {
		return fmt.Errorf("BITRIX24_WEBHOOK_URL is required")
	}
	if c.Bitrix24.ChatID == "" {
		return fmt.Errorf("CHAT_ID is required")
	}
	if c.Github.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}
	if c.ConfigPath == "" {
		return fmt.Errorf("CONFIG_PATH is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

// getInputOrEnv reads a GitHub Action input first (the runner exposes
// input foo-bar as INPUT_FOO-BAR), then the plain environment variable.
func getInputOrEnv(input, env string) string {
	if v := os.Getenv("INPUT_" + strings.ToUpper(input)); v != "" {
		return v
	}
	return os.Getenv(env)
}

func parseDebugFlag(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse debug flag %q: %w", v, err)
	}
	return b, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	return i, nil
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	return d, nil
}
