package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		MaxBodyBytes   int64    `yaml:"maxBodyBytes"`
		RateCapacity   int      `yaml:"rateCapacity"`
		RateRefill     int      `yaml:"rateRefill"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	OpenAI struct {
		APIKey  string        `yaml:"apiKey"`
		Model   string        `yaml:"model"`
		BaseURL string        `yaml:"baseURL"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"openai"`

	Analysis struct {
		SchemaVersion string `yaml:"schemaVersion"`
		Summary       bool   `yaml:"summary"`
	} `yaml:"analysis"`

	Cache struct {
		Driver string        `yaml:"driver"` // memory | redis
		TTL    time.Duration `yaml:"ttl"`
		Size   int           `yaml:"size"`
		URL    string        `yaml:"url"`
	} `yaml:"cache"`

	Database struct {
		Driver   string `yaml:"driver"` // "" | mysql | postgres
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Sink struct {
		Dir string `yaml:"dir"`
	} `yaml:"sink"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load baca file config.yaml, lalu .env dan environment variables.
// A missing config file is fine; everything can come from the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.MaxBodyBytes = 64 << 10
	c.Server.RateCapacity = 30
	c.Server.RateRefill = 1
	c.OpenAI.Model = "gpt-4o-mini"
	c.OpenAI.Timeout = 30 * time.Second
	c.Analysis.SchemaVersion = "v2"
	c.Analysis.Summary = true
	c.Cache.Driver = "memory"
	c.Cache.TTL = 10 * time.Minute
	c.Cache.Size = 1024
	c.Sink.Dir = "results"
	c.Minio.Region = "us-east-1"
	return &c
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.Model, "OPENAI_MODEL_NAME")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Database.DSN, "DATABASE_DSN")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Analysis.SchemaVersion, "ANALYSIS_SCHEMA_VERSION")
	setString(&c.Sink.Dir, "RESULT_DIR")
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Cache.URL = v
		c.Cache.Driver = "redis"
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is not set"))
	}
	switch c.Cache.Driver {
	case "memory", "none":
	case "redis":
		if c.Cache.URL == "" {
			errs = append(errs, errors.New("cache.url is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache driver %q", c.Cache.Driver))
	}
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		errs = append(errs, errors.New("minio.endpoint and minio.bucketName are required when minio is enabled"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port %d", c.Server.Port))
	}
	return errors.Join(errs...)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
