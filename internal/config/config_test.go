package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "OPENAI_MODEL_NAME", "OPENAI_BASE_URL", "DATABASE_DSN", "DATABASE_DRIVER",
		"ANALYSIS_SCHEMA_VERSION", "RESULT_DIR", "REDIS_URL", "PORT",
	} {
		t.Setenv(k, "")
	}
	// keep godotenv from picking up a developer's .env
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "v2", cfg.Analysis.SchemaVersion)
	assert.EqualError(t, cfg.Validate(), "OPENAI_API_KEY is not set")
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  port: 9000
openai:
  apiKey: from-file
  timeout: 45s
analysis:
  schemaVersion: v1
cache:
  ttl: 5m
database:
  driver: mysql
  host: db
  port: 3306
  user: spark
  password: secret
  name: sparklens
`)
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("OPENAI_MODEL_NAME", "gpt-4o")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(path)

	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 45*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, "v1", cfg.Analysis.SchemaVersion)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "spark:secret@tcp(db:3306)/sparklens?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")

	_, err := Load("")

	assert.Error(t, err)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Cache.Driver = "memcached"
	cfg.Database.Driver = "sqlite"
	cfg.Minio.Enabled = true

	err := cfg.Validate()

	require.Error(t, err)
	for _, want := range []string{"OPENAI_API_KEY", "memcached", "sqlite", "minio.endpoint"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestDSNOverride(t *testing.T) {
	cfg := Default()
	cfg.Database.DSN = "postgres://u:p@db/sparklens?sslmode=disable"

	assert.Equal(t, cfg.Database.DSN, cfg.PostgresDSN())
	assert.Equal(t, cfg.Database.DSN, cfg.MySQLDSN())
}
