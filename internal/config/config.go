// Package config assembles server settings from defaults, an optional TOML
// file and the environment, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultConfigFile    = "config.toml"
	DefaultSessionSecret = "secret_key_change_me"
)

type Config struct {
	Port     string   `koanf:"port"`
	AppEnv   string   `koanf:"app_env"`
	Session  Session  `koanf:"session"`
	Database Database `koanf:"database"`
	Supabase Supabase `koanf:"supabase"`
	Redis    Redis    `koanf:"redis"`
	R2       R2       `koanf:"r2"`
	Upload   Upload   `koanf:"upload"`
	Votes    Votes    `koanf:"votes"`
}

type Session struct {
	Secret string `koanf:"secret"`
}

type Database struct {
	URL string `koanf:"url"`
}

type Supabase struct {
	URL            string `koanf:"url"`
	AnonKey        string `koanf:"anon_key"`
	ServiceRoleKey string `koanf:"service_role_key"`
	JWTSecret      string `koanf:"jwt_secret"`
}

type Redis struct {
	URL                     string `koanf:"url"`
	IdentityCacheTTLSeconds int    `koanf:"identity_cache_ttl_seconds"`
}

// R2 holds the Cloudflare R2 (S3 API) bucket settings.
type R2 struct {
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	BucketName      string `koanf:"bucket_name"`
	PublicBaseURL   string `koanf:"public_base_url"`
}

type Upload struct {
	MaxBytes int64 `koanf:"max_bytes"`
}

type Votes struct {
	EngineCacheSize  int `koanf:"engine_cache_size"`
	EngineTTLSeconds int `koanf:"engine_ttl_seconds"`
}

// envKeys maps environment variables onto config paths.
var envKeys = map[string]string{
	"PORT":                       "port",
	"APP_ENV":                    "app_env",
	"SESSION_SECRET":             "session.secret",
	"DATABASE_URL":               "database.url",
	"SUPABASE_URL":               "supabase.url",
	"SUPABASE_ANON_KEY":          "supabase.anon_key",
	"SUPABASE_SERVICE_ROLE_KEY":  "supabase.service_role_key",
	"SUPABASE_JWT_SECRET":        "supabase.jwt_secret",
	"REDIS_URL":                  "redis.url",
	"IDENTITY_CACHE_TTL_SECONDS": "redis.identity_cache_ttl_seconds",
	"R2_ENDPOINT":                "r2.endpoint",
	"R2_ACCESS_KEY_ID":           "r2.access_key_id",
	"R2_SECRET_ACCESS_KEY":       "r2.secret_access_key",
	"R2_BUCKET_NAME":             "r2.bucket_name",
	"R2_PUBLIC_BASE_URL":         "r2.public_base_url",
	"UPLOAD_MAX_BYTES":           "upload.max_bytes",
	"VOTE_ENGINE_CACHE_SIZE":     "votes.engine_cache_size",
	"VOTE_ENGINE_TTL_SECONDS":    "votes.engine_ttl_seconds",
}

var defaults = map[string]any{
	"port":                             "8080",
	"app_env":                          "production",
	"session.secret":                   DefaultSessionSecret,
	"redis.identity_cache_ttl_seconds": 30,
	"upload.max_bytes":                 int64(5 * 1024 * 1024),
	"votes.engine_cache_size":          4096,
	"votes.engine_ttl_seconds":         1800,
}

// Load reads .env (if present), then CONFIG_FILE or config.toml (if present),
// then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_FILE")
	required := path != ""
	if path == "" {
		path = DefaultConfigFile
	}
	return load(path, required, os.Getenv)
}

func load(path string, required bool, getenv func(string) string) (*Config, error) {
	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("config: default %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", path, err)
			}
		} else if required || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	for env, key := range envKeys {
		if val := strings.TrimSpace(getenv(env)); val != "" {
			if err := k.Set(key, val); err != nil {
				return nil, fmt.Errorf("config: env %s: %w", env, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

func (c *Config) IdentityCacheTTL() time.Duration {
	return time.Duration(c.Redis.IdentityCacheTTLSeconds) * time.Second
}

func (c *Config) VoteEngineTTL() time.Duration {
	return time.Duration(c.Votes.EngineTTLSeconds) * time.Second
}
