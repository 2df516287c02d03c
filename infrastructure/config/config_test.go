package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_BACKEND", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, BackendDynamoDB, cfg.StoreBackend)
	assert.Equal(t, "ParentIndex", cfg.ParentIndexName)
	assert.Equal(t, 3, cfg.StoreMaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.StoreRetryDelay)
	assert.True(t, cfg.EnforceParentExists)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storeBackend: mongo
mongoDatabase: fromfile
logLevel: warn
storeRetryDelay: 250ms
corsOrigins: ["https://a.example"]
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MONGO_DATABASE", "fromenv")
	t.Setenv("CORS_ORIGINS", "https://b.example, https://c.example")
	t.Setenv("ENFORCE_PARENT_EXISTS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, "fromenv", cfg.MongoDatabase)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreRetryDelay)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.EnforceParentExists)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.StoreBackend = "redis" }, "unknown STORE_BACKEND"},
		{"dynamodb without table", func(c *Config) { c.DynamoDBTable = "" }, "DYNAMODB_TABLE"},
		{"mongo without uri", func(c *Config) { c.StoreBackend = BackendMongo; c.MongoURI = "" }, "MONGO_URI"},
		{"memory in production", func(c *Config) { c.StoreBackend = BackendMemory; c.Environment = "production" }, "not allowed in production"},
		{"events without bus", func(c *Config) { c.EnableEvents = true; c.EventBusName = "" }, "EVENT_BUS_NAME"},
		{"negative retries", func(c *Config) { c.StoreMaxRetries = -1 }, "STORE_MAX_RETRIES"},
		{"negative tree depth", func(c *Config) { c.MaxTreeDepth = -1 }, "MAX_TREE_DEPTH"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigWatcher_AppliesLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: info\n"), 0o600))

	cfg := Defaults()
	require.NoError(t, cfg.loadFile(path))

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	w, err := NewConfigWatcher(cfg, level, zap.NewNop(), WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	reloaded := make(chan *Config, 1)
	w.OnChange(func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		return level.Level() == zapcore.DebugLevel
	}, 5*time.Second, 20*time.Millisecond)

	select {
	case c := <-reloaded:
		assert.Equal(t, "debug", c.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("OnChange callback was not called")
	}
	assert.Equal(t, "debug", w.GetConfig().LogLevel)
}

func TestConfigWatcher_EnvStillWinsAfterReload(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("MAX_TREE_DEPTH", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: info\nmaxTreeDepth: 4\n"), 0o600))

	t.Setenv("CONFIG_FILE", path)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)

	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	w, err := NewConfigWatcher(cfg, level, zap.NewNop(), WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	reloaded := make(chan *Config, 1)
	w.OnChange(func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\nmaxTreeDepth: 6\n"), 0o600))

	select {
	case c := <-reloaded:
		assert.Equal(t, "warn", c.LogLevel)
		assert.Equal(t, 6, c.MaxTreeDepth)
	case <-time.After(5 * time.Second):
		t.Fatal("OnChange callback was not called")
	}
	assert.Equal(t, zapcore.WarnLevel, level.Level())
	assert.Equal(t, "warn", w.GetConfig().LogLevel)
}

func TestConfigWatcher_RequiresFile(t *testing.T) {
	_, err := NewConfigWatcher(Defaults(), zap.NewAtomicLevel(), zap.NewNop())
	assert.Error(t, err)
}
