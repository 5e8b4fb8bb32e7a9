package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env-default:"local"`
	BaseURL    string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	RabbitMQ   `yaml:"rabbitmq"`
	Redis      `yaml:"redis"`
	Tokens     `yaml:"tokens"`
	Security   `yaml:"security"`
	RateLimits `yaml:"rate_limits"`
	SMTP       `yaml:"smtp"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"password" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env-required:"true"`
	QueueName string `yaml:"queue_name" env-required:"true"`
}

// Redis is optional; when enabled the rate limiter windows are shared across
// authority processes instead of living in process memory.
type Redis struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Addr     string `yaml:"addr" env-default:"localhost:6379"`
	Password string `yaml:"password" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
}

type Tokens struct {
	VerificationTokenTTL time.Duration `yaml:"verification_token_ttl" env-default:"24h"`
	ResetTokenTTL        time.Duration `yaml:"reset_token_ttl" env-default:"1h"`
	AccessTokenTTL       time.Duration `yaml:"access_token_ttl" env-default:"15m"`
	JWTSecret            string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
}

type Security struct {
	MaxLoginAttempts     int           `yaml:"max_login_attempts" env-default:"5"`
	LockoutDuration      time.Duration `yaml:"lockout_duration" env-default:"30m"`
	RequireVerifiedLogin bool          `yaml:"require_verified_login" env-default:"false"`
}

type RateLimits struct {
	LoginAttempts  int           `yaml:"login_attempts" env-default:"10"`
	LoginWindow    time.Duration `yaml:"login_window" env-default:"15m"`
	ResetAttempts  int           `yaml:"reset_attempts" env-default:"3"`
	ResetWindow    time.Duration `yaml:"reset_window" env-default:"1h"`
	ResendAttempts int           `yaml:"resend_attempts" env-default:"3"`
	ResendWindow   time.Duration `yaml:"resend_window" env-default:"15m"`
}

// SMTP is consumed by the mail_sender binary only.
type SMTP struct {
	Host     string `yaml:"host" env-default:"smtp.gmail.com"`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME" env-default:""`
	Password string `yaml:"password" env:"SMTP_PASSWORD" env-default:""`
	From     string `yaml:"from" env-default:"noreply@skillswap.com"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}
