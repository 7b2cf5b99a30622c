package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearKeys(t *testing.T) {
	t.Helper()
	t.Setenv("LLM_API_KEY", "")
	t.Setenv(apiKeyName, "")
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	clearKeys(t)
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	t.Setenv("LLM_SECRETS_FILE", filepath.Join(dir, "missing-secrets.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "remobot.db", cfg.DSN())
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Empty(t, cfg.LLM.APIKey)
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	clearKeys(t)
	path := writeFile(t, dir, "config.toml", `
[app]
port = 9000

[database]
driver = "mysql"
host = "db"
port = 3307
user = "bot"
password = "pw"
db = "chat"
params = "parseTime=true"
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_SECRETS_FILE", "")
	t.Setenv("APP_PORT", "9100")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.App.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "bot:pw@tcp(db:3307)/chat?parseTime=true", cfg.DSN())
}

func TestLoadAPIKeyFromSecretsFile(t *testing.T) {
	dir := t.TempDir()
	clearKeys(t)
	secrets := writeFile(t, dir, "secrets.toml", "[api_keys]\nGROQ_API_KEY = \"gsk-from-secrets\"\n")
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	t.Setenv("LLM_SECRETS_FILE", secrets)
	t.Setenv(apiKeyName, "gsk-from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gsk-from-secrets", cfg.LLM.APIKey)
}

func TestLoadAPIKeyFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	clearKeys(t)
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	t.Setenv("LLM_SECRETS_FILE", "")
	t.Setenv(apiKeyName, "gsk-from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gsk-from-env", cfg.LLM.APIKey)
}

func TestPostgresDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database = DatabaseConfig{Driver: "postgres", Host: "pg", Port: 5432, User: "u", Password: "p", DB: "d", Params: "sslmode=disable"}
	assert.Equal(t, "host=pg port=5432 user=u password=p dbname=d sslmode=disable", cfg.DSN())
}

func TestDSNDefaultPortFollowsDriver(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.Driver = "postgres"
	cfg.Database.Params = ""
	assert.Equal(t, "host=127.0.0.1 port=5432 user=root password= dbname=remobot", cfg.DSN())

	cfg.Database.Driver = "mysql"
	cfg.Database.Params = "parseTime=true"
	assert.Equal(t, "root:@tcp(127.0.0.1:3306)/remobot?parseTime=true", cfg.DSN())
}
