package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the service.
// The values are read by viper from a config file or environment variable.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	HTTPAddress string `mapstructure:"HTTP_ADDRESS"`

	// Persistence. Solutions stay in memory when DATABASE_URL is empty.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Solve event fan-out. In-process broker when REDIS_ADDRESS is empty.
	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Solver defaults.
	SolveTimeBudget time.Duration `mapstructure:"SOLVE_TIME_BUDGET"`

	// Mapping provider. Estimate-only when MAPPING_BASE_URL is empty.
	MappingBaseURL string        `mapstructure:"MAPPING_BASE_URL"`
	MappingAPIKey  string        `mapstructure:"MAPPING_API_KEY"`
	MappingProfile string        `mapstructure:"MAPPING_PROFILE"`
	MappingRateRPS float64       `mapstructure:"MAPPING_RATE_RPS"`
	MappingTimeout time.Duration `mapstructure:"MAPPING_TIMEOUT"`
	EstimateSpeed  float64       `mapstructure:"ESTIMATE_SPEED_KPH"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is fine; the environment alone is enough.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("HTTP_ADDRESS", ":8080")
	viper.SetDefault("SOLVE_TIME_BUDGET", 30*time.Second)
	viper.SetDefault("MAPPING_PROFILE", "driving-car")
	viper.SetDefault("MAPPING_RATE_RPS", 10.0)
	viper.SetDefault("MAPPING_TIMEOUT", 10*time.Second)
	viper.SetDefault("ESTIMATE_SPEED_KPH", 40.0)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
