package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type LinearConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
	TeamID   string `yaml:"team_id"`
}

type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	BaseURL  string `yaml:"base_url"`
	Channel  string `yaml:"channel"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TrackingConfig struct {
	DwellHours int `yaml:"dwell_hours"`
}

type SchedulerConfig struct {
	IntervalHours   int `yaml:"interval_hours"`
	SummaryMinHours int `yaml:"summary_min_hours"`
}

type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	PasswordHash string `yaml:"password_hash"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Linear    LinearConfig    `yaml:"linear"`
	Slack     SlackConfig     `yaml:"slack"`
	MQ        MQConfig        `yaml:"mq"`
	Redis     RedisConfig     `yaml:"redis"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Auth      AuthConfig      `yaml:"auth"`
}

func Load() *Config {
	f, err := os.Open("config.yaml")
	if err != nil {
		log.Fatalf("failed to open config.yaml: %v", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config.yaml: %v", err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":3000"
	}
	if cfg.Linear.Endpoint == "" {
		cfg.Linear.Endpoint = "https://api.linear.app/graphql"
	}
	if cfg.Slack.BaseURL == "" {
		cfg.Slack.BaseURL = "https://slack.com/api"
	}
	if cfg.Tracking.DwellHours == 0 {
		cfg.Tracking.DwellHours = 48
	}
	if cfg.Scheduler.IntervalHours == 0 {
		cfg.Scheduler.IntervalHours = 168 // weekly sweep
	}
	if cfg.Scheduler.SummaryMinHours == 0 {
		cfg.Scheduler.SummaryMinHours = 24
	}
}

func overrideFromEnv(cfg *Config) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	if key := os.Getenv("LINEAR_API_KEY"); key != "" {
		cfg.Linear.APIKey = key
	}
	if endpoint := os.Getenv("LINEAR_ENDPOINT"); endpoint != "" {
		cfg.Linear.Endpoint = endpoint
	}
	if team := os.Getenv("LINEAR_TEAM_ID"); team != "" {
		cfg.Linear.TeamID = team
	}

	if token := os.Getenv("SLACK_BOT_TOKEN"); token != "" {
		cfg.Slack.BotToken = token
	}
	if channel := os.Getenv("SLACK_CHANNEL"); channel != "" {
		cfg.Slack.Channel = channel
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.Redis.DB = n
		}
	}

	if hours := os.Getenv("TRACKING_DWELL_HOURS"); hours != "" {
		if n, err := strconv.Atoi(hours); err == nil {
			cfg.Tracking.DwellHours = n
		}
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if hash := os.Getenv("DASHBOARD_PASSWORD_HASH"); hash != "" {
		cfg.Auth.PasswordHash = hash
	}
}
