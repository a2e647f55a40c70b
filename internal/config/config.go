package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		Env     string `yaml:"env"`
		Version string `yaml:"version"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	Push struct {
		GatewayURL string `yaml:"gateway_url"`
		APIKey     string `yaml:"api_key"`
	} `yaml:"push"`

	SMS struct {
		GatewayURL string `yaml:"gateway_url"`
		APIKey     string `yaml:"api_key"`
		From       string `yaml:"from"`
	} `yaml:"sms"`

	Dispatch struct {
		IntervalSeconds int     `yaml:"interval_seconds"`
		BatchSize       int     `yaml:"batch_size"`
		RetryAttempts   int     `yaml:"retry_attempts"`
		RetryDelayMS    int     `yaml:"retry_delay_ms"`
		RetryBackoff    float64 `yaml:"retry_backoff"`
	} `yaml:"dispatch"`

	Cleanup struct {
		ReadRetentionDays int `yaml:"read_retention_days"`
	} `yaml:"cleanup"`

	Diagnostics struct {
		BufferSize int    `yaml:"buffer_size"`
		RelayWSURL string `yaml:"relay_ws_url"`
		RelayURL   string `yaml:"relay_url"`
	} `yaml:"diagnostics"`

	FirstAdminEmail    string `yaml:"-"`
	FirstAdminPassword string `yaml:"-"`
}

var AppConfig *Config

// LoadConfig reads config.yaml unless DATABASE_URL is set in the
// environment, in which case the environment wins (test/CI mode).
func LoadConfig() {
	_ = godotenv.Load()

	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}
	} else {
		cfg.Database.DSN = dbURL
		cfg.Server.Env = os.Getenv("SERVER_ENV")
		cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
		cfg.JWT.TTL = 60

		cfg.Email.SMTPHost = "smtp.test.com"
		cfg.Email.SMTPPort = 587
		cfg.Email.FromEmail = "noreply@sav3.app"
		cfg.Email.FromName = "SAV3"
	}

	cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Version == "" {
		cfg.Server.Version = "v1"
	}
	if cfg.JWT.TTL <= 0 {
		cfg.JWT.TTL = 60
	}
	if cfg.Dispatch.IntervalSeconds <= 0 {
		cfg.Dispatch.IntervalSeconds = 15
	}
	if cfg.Dispatch.BatchSize <= 0 {
		cfg.Dispatch.BatchSize = 100
	}
	if cfg.Dispatch.RetryAttempts <= 0 {
		cfg.Dispatch.RetryAttempts = 3
	}
	if cfg.Dispatch.RetryDelayMS <= 0 {
		cfg.Dispatch.RetryDelayMS = 500
	}
	if cfg.Dispatch.RetryBackoff <= 1 {
		cfg.Dispatch.RetryBackoff = 2
	}
	if cfg.Cleanup.ReadRetentionDays <= 0 {
		cfg.Cleanup.ReadRetentionDays = 90
	}
	if cfg.Diagnostics.BufferSize <= 0 {
		cfg.Diagnostics.BufferSize = 500
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
