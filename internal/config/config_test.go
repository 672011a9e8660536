package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PROCTOR_ADDR", "")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, "proctorexam", cfg.MongoDB)
	assert.Equal(t, "python3", cfg.Sandbox.Command)
	assert.Equal(t, []string{"-c"}, cfg.Sandbox.Args)
	assert.Equal(t, 3*time.Second, cfg.Sandbox.Timeout)
	assert.Equal(t, 1, cfg.Sandbox.Parallelism)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_SECRET", "letmein")
	t.Setenv("PORT", "8080")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017", cfg.MongoURI)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "letmein", cfg.AdminSecret)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestLoadAddrPrecedence(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		port string
		want string
	}{
		{"default", "", "", "", ":5000"},
		{"port only", "", "", "8080", ":8080"},
		{"prefixed env beats port", "", ":9000", "8080", ":9000"},
		{"flag beats port", ":7070", "", "8080", ":7070"},
		{"flag beats prefixed env", ":7070", ":9000", "8080", ":7070"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORT", tt.port)
			t.Setenv("PROCTOR_PORT", "")
			t.Setenv("PROCTOR_ADDR", tt.env)

			v := viper.New()
			if tt.flag != "" {
				fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
				fs.String("addr", "", "")
				require.NoError(t, fs.Set("addr", tt.flag))
				require.NoError(t, v.BindPFlag("addr", fs.Lookup("addr")))
			}

			cfg, err := Load(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Addr)
		})
	}
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	t.Setenv("JWT_SECRET", "legacy")
	t.Setenv("PROCTOR_JWT_SECRET", "prefixed")
	t.Setenv("PROCTOR_SANDBOX_TIMEOUT", "5s")
	t.Setenv("PROCTOR_SANDBOX_PARALLELISM", "4")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "prefixed", cfg.JWTSecret)
	assert.Equal(t, 5*time.Second, cfg.Sandbox.Timeout)
	assert.Equal(t, 4, cfg.Sandbox.Parallelism)
}

func TestLoadRejectsBadSandboxTimeout(t *testing.T) {
	t.Setenv("PROCTOR_SANDBOX_TIMEOUT", "0s")

	_, err := Load(viper.New())
	assert.Error(t, err)
}

func TestRedisOptions(t *testing.T) {
	cfg := &Config{RedisAddr: "redis://:pw@cache:6380/2"}
	opts, err := cfg.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	cfg.RedisAddr = "localhost:6379"
	opts, err = cfg.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
}
