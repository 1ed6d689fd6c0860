package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Path string
	}
	Server struct {
		Port int
	}
	Auth struct {
		JWTSecret string
	}
	OpenAI struct {
		APIKey      string
		Model       string
		Temperature float32
		MaxTokens   int
	}
	Notify struct {
		Slack struct {
			Token   string
			Channel string
		}
		Email struct {
			SMTPHost    string
			SMTPPort    int
			From        string
			Password    string
			ToReceivers []string
		}
	}
	Scheduler struct {
		Enabled bool
	}
}

// LoadConfig loads the configuration from config.yaml, falling back to
// defaults when the file is missing.
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("database.path", "data/podsight.db")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("openai.model", "gpt-4-turbo-preview")
	viper.SetDefault("openai.temperature", 0.7)
	viper.SetDefault("openai.maxtokens", 3000)
	viper.SetDefault("scheduler.enabled", true)

	viper.SetEnvPrefix("podsight")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		fmt.Printf("Error unmarshaling config: %v\n", err)
	}

	return &config
}
