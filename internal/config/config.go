package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Telegram
	AdminIDs      []int64
	ChannelIDs    []int64
	BotUsername   string
	WebhookSecret string

	// Blogger
	BloggerBlogID          string
	BloggerAPIKey          string
	BloggerCredentialsFile string

	// Search
	SearchLimit          int // Per-channel result cap (default: 50)
	SearchTimeoutSeconds int // Per-channel timeout (default: 20)

	// Workflow
	SessionTTLMinutes    int    // Idle minutes before a session is dropped (default: 120)
	PublishRetrySchedule string // Cron spec for the publish retry job

	// Server
	ServerPort       string
	OperatorAPIToken string // Bearer token for /api/operators

	// Paths
	BlacklistFile string // $CONFIG_DIR/blacklist.txt
	DatabaseFile  string // $CONFIG_DIR/catalogarr.db

	// Observability
	LogLevel       string
	TracingEnabled bool
}

// PublishingEnabled reports whether a blog is configured
func (c *Config) PublishingEnabled() bool {
	return c.BloggerBlogID != ""
}

// IsAdmin reports whether the operator may drive the ingestion workflow
func (c *Config) IsAdmin(operatorID int64) bool {
	for _, id := range c.AdminIDs {
		if id == operatorID {
			return true
		}
	}
	return false
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_TTL_MINUTES", 120)
	v.SetDefault("SEARCH_LIMIT", 50)
	v.SetDefault("SEARCH_TIMEOUT_SECONDS", 20)
	v.SetDefault("PUBLISH_RETRY_SCHEDULE", "*/30 * * * *")
	v.SetDefault("TRACING_ENABLED", false)

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "catalogarr")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	adminIDs, err := parseIDList(v.GetString("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_IDS: %w", err)
	}
	channelIDs, err := parseIDList(v.GetString("CHANNEL_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHANNEL_IDS: %w", err)
	}

	config := &Config{
		// Telegram
		AdminIDs:      adminIDs,
		ChannelIDs:    channelIDs,
		BotUsername:   strings.TrimPrefix(v.GetString("BOT_USERNAME"), "@"),
		WebhookSecret: v.GetString("TELEGRAM_WEBHOOK_SECRET"),

		// Blogger
		BloggerBlogID:          v.GetString("BLOGGER_BLOG_ID"),
		BloggerAPIKey:          v.GetString("BLOGGER_API_KEY"),
		BloggerCredentialsFile: v.GetString("BLOGGER_CREDENTIALS_FILE"),

		// Search
		SearchLimit:          v.GetInt("SEARCH_LIMIT"),
		SearchTimeoutSeconds: v.GetInt("SEARCH_TIMEOUT_SECONDS"),

		// Workflow
		SessionTTLMinutes:    v.GetInt("SESSION_TTL_MINUTES"),
		PublishRetrySchedule: v.GetString("PUBLISH_RETRY_SCHEDULE"),

		// Server
		ServerPort:       v.GetString("SERVER_PORT"),
		OperatorAPIToken: v.GetString("OPERATOR_API_TOKEN"),

		// Paths
		BlacklistFile: filepath.Join(configDir, "blacklist.txt"),
		DatabaseFile:  filepath.Join(configDir, "catalogarr.db"),

		// Observability
		LogLevel:       v.GetString("LOG_LEVEL"),
		TracingEnabled: v.GetBool("TRACING_ENABLED"),
	}

	// Validate required fields
	if len(config.AdminIDs) == 0 {
		return nil, fmt.Errorf("ADMIN_IDS is required")
	}
	if len(config.ChannelIDs) == 0 {
		return nil, fmt.Errorf("CHANNEL_IDS is required")
	}
	if config.BotUsername == "" {
		return nil, fmt.Errorf("BOT_USERNAME is required")
	}
	if config.OperatorAPIToken == "" {
		return nil, fmt.Errorf("OPERATOR_API_TOKEN is required")
	}
	if config.PublishingEnabled() && config.BloggerAPIKey == "" && config.BloggerCredentialsFile == "" {
		return nil, fmt.Errorf("BLOGGER_API_KEY or BLOGGER_CREDENTIALS_FILE is required when BLOGGER_BLOG_ID is set")
	}

	return config, nil
}

// parseIDList parses a comma separated list of Telegram IDs
func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a numeric id: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
