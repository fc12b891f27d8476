package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: activities-service\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, StoreMemory, cfg.Registry.Store)
	assert.Equal(t, "activities", cfg.Registry.RedisKeyPrefix)
	assert.False(t, cfg.Registry.EnforceCapacity)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 30*time.Second, GetDuration(cfg.Server.ShutdownTimeout))
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9000"
registry:
  store: memory
`)
	t.Setenv("SERVER_ADDRESS", ":9100")
	t.Setenv("REGISTRY_ENFORCE_CAPACITY", "true")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Address)
	assert.True(t, cfg.Registry.EnforceCapacity)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	path := writeConfig(t, `
registry:
  store: redis
database:
  redis:
    address: "${TEST_REDIS_ADDR}"
`)
	t.Setenv("TEST_REDIS_ADDR", "redis:6379")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "redis:6379", cfg.Database.Redis.Address)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown store",
			body:    "registry:\n  store: mongo\n",
			wantErr: "registry.store",
		},
		{
			name:    "redis store without address",
			body:    "registry:\n  store: redis\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "audit without postgres",
			body:    "audit:\n  enabled: true\n",
			wantErr: "database.postgres.host",
		},
		{
			name: "email without sender",
			body: `
notifications:
  aws:
    region: us-east-1
  email:
    enabled: true
`,
			wantErr: "from_email",
		},
		{
			name: "events without topic",
			body: `
notifications:
  aws:
    region: us-east-1
  events:
    enabled: true
`,
			wantErr: "topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "activities", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=activities sslmode=disable", p.GetDSN())
}

func TestLoadFromFile_ShippedConfig(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("AWS_REGION", "")

	configDir := filepath.Join("..", "..", "..", "configs")
	cfg, err := LoadFromFile(filepath.Join(configDir, "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Registry.Store)
	assert.Equal(t, filepath.Join(configDir, "activity-catalog.json"), cfg.Registry.SeedPath)
	assert.FileExists(t, cfg.Registry.SeedPath)
	assert.False(t, cfg.Registry.ReseedOnStart)
	assert.Empty(t, cfg.Database.Redis.Address)
	assert.Empty(t, cfg.Notifications.AWS.Region)
	assert.False(t, cfg.Notifications.Enabled())
}

func TestLoadFromFile_SeedPathResolution(t *testing.T) {
	absSeed := filepath.Join(t.TempDir(), "catalog.json")

	tests := []struct {
		name     string
		seedPath string
		want     func(configDir string) string
	}{
		{name: "relative to config file", seedPath: "seeds/catalog.json", want: func(dir string) string { return filepath.Join(dir, "seeds", "catalog.json") }},
		{name: "absolute kept", seedPath: absSeed, want: func(string) string { return absSeed }},
		{name: "empty uses built-in seed", seedPath: "", want: func(string) string { return "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "registry:\n  seed_path: \""+tt.seedPath+"\"\n")
			cfg, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want(filepath.Dir(path)), cfg.Registry.SeedPath)
		})
	}
}

func TestLoad_ResolvesSeedAgainstFoundConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "configs", "config.yaml"),
		[]byte("registry:\n  seed_path: activity-catalog.json\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.Registry.SeedPath))
	assert.True(t, strings.HasSuffix(cfg.Registry.SeedPath, filepath.Join("configs", "activity-catalog.json")), cfg.Registry.SeedPath)
}
