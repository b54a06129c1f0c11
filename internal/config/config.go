package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string `mapstructure:"PORT"`
	Env             string `mapstructure:"ENV"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	OpenAIAPIKey    string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel     string `mapstructure:"OPENAI_MODEL"`
	GenerateTimeout int    `mapstructure:"GENERATE_TIMEOUT"`
	MaxTokens       int    `mapstructure:"MAX_TOKENS"`
	TelegramToken   string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	PhysicianChatID int64  `mapstructure:"PHYSICIAN_CHAT_ID"`
}

// Load reads configuration from a local .env file and the process
// environment. Only the OpenAI key is mandatory; the database and Telegram
// collaborators degrade to no-ops when unconfigured.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("GENERATE_TIMEOUT", 45)
	v.SetDefault("MAX_TOKENS", 2048)

	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("OPENAI_MODEL")
	v.BindEnv("GENERATE_TIMEOUT")
	v.BindEnv("MAX_TOKENS")
	v.BindEnv("TELEGRAM_BOT_TOKEN")
	v.BindEnv("PHYSICIAN_CHAT_ID")

	// Missing .env is fine; env vars still apply.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}
