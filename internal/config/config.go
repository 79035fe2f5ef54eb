package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	PlanAPI struct {
		BaseURL     string        `yaml:"base_url"`
		AccessToken string        `yaml:"access_token"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"plan_api"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Auth struct {
		SigningKey string        `yaml:"signing_key"`
		AccessTTL  time.Duration `yaml:"access_ttl"`
		RefreshTTL time.Duration `yaml:"refresh_ttl"`
	} `yaml:"auth"`
	Engine struct {
		PollInterval       time.Duration `yaml:"poll_interval"`
		PendingMaxAttempts int           `yaml:"pending_max_attempts"`
		DefaultMaxAttempts int           `yaml:"default_max_attempts"`
		RolloverCheckDelay time.Duration `yaml:"rollover_check_delay"`
		RolloverGraceDays  int           `yaml:"rollover_grace_days"`
		ViewIdleTimeout    time.Duration `yaml:"view_idle_timeout"`
	} `yaml:"engine"`
}

func LoadConfig() Config {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		log.Fatalf("Failed to unmarshal config data: %v", err)
	}

	// Secrets come from the environment when set, overriding the file.
	if v := os.Getenv("PLAN_API_TOKEN"); v != "" {
		cfg.PlanAPI.AccessToken = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SIGNING_KEY"); v != "" {
		cfg.Auth.SigningKey = v
	}
	return cfg
}
