// Package config loads process settings from an optional config file, a
// .env file and ROOMRENT_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/MrEthical07/roomrent"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "ROOMRENT"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	S3      S3Config      `mapstructure:"s3"`
	Mail    MailConfig    `mapstructure:"mail"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// PublicBaseURL is where the site is served; verification links point
	// here.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	// TrustProxy reads client addresses from X-Forwarded-For. Only set it
	// when a reverse proxy in front of the server rewrites that header.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type S3Config struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// MailConfig selects the email provider: "smtp", "brevo" or "log".
type MailConfig struct {
	Provider string      `mapstructure:"provider"`
	SMTP     SMTPConfig  `mapstructure:"smtp"`
	Brevo    BrevoConfig `mapstructure:"brevo"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type BrevoConfig struct {
	APIKey    string `mapstructure:"api_key"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type MetricsConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Histograms bool `mapstructure:"histograms"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("log.development", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "roomrent")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.public_base_url", "")
	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.smtp.host", "")
	v.SetDefault("mail.smtp.port", "587")
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")
	v.SetDefault("mail.smtp.from", "")
	v.SetDefault("mail.brevo.api_key", "")
	v.SetDefault("mail.brevo.from_email", "")
	v.SetDefault("mail.brevo.from_name", "Roomrent")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "roomrent")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.histograms", false)
	v.SetDefault("public_base_url", "http://localhost:8080")
}

// Load reads configuration. path may be empty; a missing .env file is not
// an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("config: jwt.secret must be at least 32 bytes")
	}
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		return errors.New("config: mongo.uri and mongo.database are required")
	}
	switch c.Mail.Provider {
	case "log":
	case "smtp":
		if c.Mail.SMTP.Host == "" || c.Mail.SMTP.Port == "" {
			return errors.New("config: mail.smtp.host and mail.smtp.port are required")
		}
	case "brevo":
		if c.Mail.Brevo.APIKey == "" || c.Mail.Brevo.FromEmail == "" {
			return errors.New("config: mail.brevo.api_key and mail.brevo.from_email are required")
		}
	default:
		return fmt.Errorf("config: unknown mail.provider %q", c.Mail.Provider)
	}
	return nil
}

// Engine returns the auth engine settings derived from c.
func (c *Config) Engine() roomrent.Config {
	ec := roomrent.DefaultConfig()
	ec.JWT.PrivateKey = []byte(c.JWT.Secret)
	ec.JWT.Issuer = c.JWT.Issuer
	ec.JWT.AccessTTL = c.JWT.TTL
	ec.EmailVerification.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
	ec.Metrics.Enabled = c.Metrics.Enabled
	ec.Metrics.EnableLatencyHistograms = c.Metrics.Histograms
	return ec
}
