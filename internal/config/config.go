package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret = "super-secret-key-change-in-production"
	defaultAddr      = ":5000"
)

// SandboxConfig configures the code execution sandbox
type SandboxConfig struct {
	Command     string        `json:"command"`
	Args        []string      `json:"args"`
	Timeout     time.Duration `json:"timeout"`
	Parallelism int           `json:"parallelism"` // concurrent test cases per coding question
}

// Config holds everything the server needs, built once at startup
type Config struct {
	Addr         string        `json:"addr"`
	MongoURI     string        `json:"-"` // may carry credentials
	MongoDB      string        `json:"mongoDb"`
	RedisAddr    string        `json:"-"`
	JWTSecret    string        `json:"-"`
	AdminSecret  string        `json:"-"`
	TokenTTL     time.Duration `json:"tokenTtl"`
	CORSOrigins  string        `json:"corsOrigins"`
	ExamCacheTTL time.Duration `json:"examCacheTtl"`
	Sandbox      SandboxConfig `json:"sandbox"`
	LogLevel     string        `json:"logLevel"`
	LogFormat    string        `json:"logFormat"`
}

// legacyEnv are the unprefixed variable names the deployment .env files use
var legacyEnv = map[string]string{
	"mongo-uri":    "MONGO_URI",
	"redis-addr":   "REDIS_URI",
	"jwt-secret":   "JWT_SECRET",
	"admin-secret": "ADMIN_SECRET",
	"port":         "PORT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mongo-uri", "mongodb://localhost:27017")
	v.SetDefault("mongo-db", "proctorexam")
	v.SetDefault("redis-addr", "localhost:6379")
	v.SetDefault("jwt-secret", defaultJWTSecret)
	v.SetDefault("admin-secret", "")
	v.SetDefault("token-ttl", 24*time.Hour)
	v.SetDefault("cors-origins", "*")
	v.SetDefault("exam-cache-ttl", 10*time.Minute)
	v.SetDefault("sandbox-command", "python3")
	v.SetDefault("sandbox-args", []string{"-c"})
	v.SetDefault("sandbox-timeout", 3*time.Second)
	v.SetDefault("sandbox-parallelism", 1)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")
}

// Load reads .env (if present), then resolves every key from flags already
// bound to v, PROCTOR_* environment variables, legacy names and defaults.
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	setDefaults(v)
	v.SetEnvPrefix("PROCTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "PROCTOR_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		Addr:         v.GetString("addr"),
		MongoURI:     v.GetString("mongo-uri"),
		MongoDB:      v.GetString("mongo-db"),
		RedisAddr:    v.GetString("redis-addr"),
		JWTSecret:    v.GetString("jwt-secret"),
		AdminSecret:  v.GetString("admin-secret"),
		TokenTTL:     v.GetDuration("token-ttl"),
		CORSOrigins:  v.GetString("cors-origins"),
		ExamCacheTTL: v.GetDuration("exam-cache-ttl"),
		Sandbox: SandboxConfig{
			Command:     v.GetString("sandbox-command"),
			Args:        v.GetStringSlice("sandbox-args"),
			Timeout:     v.GetDuration("sandbox-timeout"),
			Parallelism: v.GetInt("sandbox-parallelism"),
		},
		LogLevel:  v.GetString("log-level"),
		LogFormat: v.GetString("log-format"),
	}
	// An explicit addr (flag, PROCTOR_ADDR or config file) beats PORT.
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
		if port := v.GetString("port"); port != "" {
			cfg.Addr = ":" + strings.TrimPrefix(port, ":")
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == defaultJWTSecret {
		slog.Warn("JWT_SECRET not set, using default secret")
	}
	if cfg.AdminSecret == "" {
		slog.Warn("ADMIN_SECRET not set, admin registration is disabled")
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret must not be empty")
	}
	if c.Sandbox.Command == "" {
		return fmt.Errorf("sandbox command must not be empty")
	}
	if c.Sandbox.Timeout <= 0 {
		return fmt.Errorf("sandbox timeout must be positive, got %s", c.Sandbox.Timeout)
	}
	if c.Sandbox.Parallelism < 1 {
		c.Sandbox.Parallelism = 1
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// RedisOptions accepts either host:port or a redis:// URL
func (c *Config) RedisOptions() (*redis.Options, error) {
	if strings.HasPrefix(c.RedisAddr, "redis://") || strings.HasPrefix(c.RedisAddr, "rediss://") {
		return redis.ParseURL(c.RedisAddr)
	}
	return &redis.Options{Addr: c.RedisAddr}, nil
}
