package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type FilesConfig struct {
	RootDir  string `yaml:"root_dir"`
	FontPath string `yaml:"font_path"`
}

type JWTConfig struct {
	Secret        string `yaml:"secret"`
	AccessTTLStr  string `yaml:"access_ttl"`
	RefreshTTLStr string `yaml:"refresh_ttl"`

	// Parsed from the *TTLStr fields by LoadConfig.
	AccessTTL  time.Duration `yaml:"-"`
	RefreshTTL time.Duration `yaml:"-"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	DryRun   bool   `yaml:"dry_run"`
}

type AnalysisConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	DryRun  bool   `yaml:"dry_run"`
}

type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	JWT      JWTConfig      `yaml:"jwt"`
	Files    FilesConfig    `yaml:"files"`
	Telegram TelegramConfig `yaml:"telegram"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	if cfg.Files.RootDir == "" {
		cfg.Files.RootDir = "./files"
	}
	if cfg.Files.FontPath == "" {
		cfg.Files.FontPath = "assets/fonts/DejaVuSans.ttf"
	}
	cfg.JWT.AccessTTL = parseTTL(cfg.JWT.AccessTTLStr, 15*time.Minute)
	cfg.JWT.RefreshTTL = parseTTL(cfg.JWT.RefreshTTLStr, 30*24*time.Hour)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	return &cfg
}

func parseTTL(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		panic("Failed to parse ttl " + s + ": " + err.Error())
	}
	return d
}
