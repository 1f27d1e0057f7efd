package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Address       string `env:"API_ADDR" envDefault:":8080"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"./data/review.db"`
	UploadRoot    string `env:"UPLOAD_ROOT" envDefault:"./data/uploads"`
	FlatMirrorDir string `env:"FLAT_MIRROR_DIR"`
	MaxUploadMB   int    `env:"MAX_UPLOAD_MB" envDefault:"2048"`
	BusyRetries   int    `env:"BUSY_RETRIES" envDefault:"3"`
	BusyBackoffMS int    `env:"BUSY_BACKOFF_MS" envDefault:"500"`
	CORSOrigins   string `env:"CORS_ORIGINS" envDefault:"*"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`

	Workers      int `env:"WORKERS" envDefault:"2"`
	JobQueueSize int `env:"JOB_QUEUE_SIZE" envDefault:"100"`
}

// Load reads the optional env files (".env" when none are named) and then parses the
// environment. Variables already set in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, errors.Wrap(err, "load env file")
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return errors.New("DATABASE_PATH must not be empty")
	}
	if c.UploadRoot == "" {
		return errors.New("UPLOAD_ROOT must not be empty")
	}
	if c.MaxUploadMB < 0 || c.BusyRetries < 0 || c.BusyBackoffMS < 0 {
		return errors.New("MAX_UPLOAD_MB, BUSY_RETRIES and BUSY_BACKOFF_MS must not be negative")
	}
	return nil
}

// MaxUploadBytes is the upload cap in bytes; 0 disables it.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// BusyBackoff is the linear backoff unit for busy retries.
func (c *Config) BusyBackoff() time.Duration {
	return time.Duration(c.BusyBackoffMS) * time.Millisecond
}

// MinioEnabled reports whether the object-store mirror is configured.
func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioBucket != ""
}

// AllowedOrigins normalizes the comma separated CORS_ORIGINS list.
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}
