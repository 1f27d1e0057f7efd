package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir so no stray .env file is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, "./data/review.db", cfg.DatabasePath)
	assert.Equal(t, int64(2048)<<20, cfg.MaxUploadBytes())
	assert.Equal(t, 3, cfg.BusyRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.BusyBackoff())
	assert.Equal(t, "*", cfg.AllowedOrigins())
	assert.False(t, cfg.MinioEnabled())
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadFromEnvFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATABASE_PATH=/tmp/from-file.db\nMINIO_ENDPOINT=localhost:9000\nMINIO_BUCKET=videos\n"), 0o644))
	t.Setenv("BUSY_RETRIES", "5")
	t.Setenv("CORS_ORIGINS", " http://a.test , http://b.test ,")
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_PATH")
		os.Unsetenv("MINIO_ENDPOINT")
		os.Unsetenv("MINIO_BUCKET")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.DatabasePath)
	assert.Equal(t, 5, cfg.BusyRetries)
	assert.Equal(t, "http://a.test,http://b.test", cfg.AllowedOrigins())
	assert.True(t, cfg.MinioEnabled())
}

func TestLoadRejectsNegativeValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BUSY_RETRIES", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerLevel(t *testing.T) {
	l := InitLogger("debug", "")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.Same(t, Log, l)

	l = InitLogger("nonsense", "")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	logFile := filepath.Join(t.TempDir(), "service.log")
	l = InitLogger("info", logFile)
	l.Info("hello")
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
