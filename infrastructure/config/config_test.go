package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	domainconfig "ideabox/domain/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 300, cfg.Redis.TTL)
	assert.Equal(t, 2*time.Second, cfg.Sentiment.Timeout)

	domain, err := cfg.DomainConfig()
	require.NoError(t, err)
	assert.Equal(t, 30, domain.MaxTitleLength)
	assert.Equal(t, 50, domain.MaxDescriptionLength)
	assert.Equal(t, "S100", domain.InitialStatus)
	assert.Equal(t, domainconfig.TitleMatchExact, domain.TitleMatchMode)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("IDEA_TITLE_MATCH_MODE", "suffix")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()

	require.NoError(t, err)
	domain, err := cfg.DomainConfig()
	require.NoError(t, err)
	assert.Equal(t, domainconfig.TitleMatchSuffix, domain.TitleMatchMode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, `
server:
  address: ":9090"
storage:
  driver: postgres
postgres:
  dsn: "postgres://u:p@localhost:5432/ideas"
ideas:
  title_match_mode: contains
`))

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://u:p@localhost:5432/ideas", cfg.Postgres.DSN)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}},
		{"postgres without dsn", map[string]string{"STORAGE_DRIVER": "postgres"}},
		{"production without secret", map[string]string{"ENVIRONMENT": "production"}},
		{"unknown match mode", map[string]string{"IDEA_TITLE_MATCH_MODE": "fuzzy"}},
		{"zero title length", map[string]string{"IDEA_MAX_TITLE_LENGTH": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_PATH", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()

			assert.Error(t, err)
		})
	}
}
