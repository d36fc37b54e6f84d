package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadWithoutEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")

	s := Load()
	assert.False(t, s.EnvFile)
	assert.Equal(t, "9090", s.Port)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, s.AllowedOrigins)
	assert.Equal(t, 100*time.Millisecond, s.BatchWindow)
	assert.Equal(t, "0 9 * * *", s.ReminderSchedule)
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	assert.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GCS_BUCKET=salon-photos\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GCS_BUCKET") })

	s := Load()
	assert.True(t, s.EnvFile)
	assert.Equal(t, "salon-photos", s.StorageBucket)
}
