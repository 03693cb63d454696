package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plain-stack/stackctl/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stackctl.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `{
		"compose_file": "/srv/app/docker-compose.yml",
		"app_service": "app",
		"db_service": "db",
		"db_user": "app",
		"db_name": "appdb",
		"data_dir": "/srv/app/data",
		"env_file": "/srv/app/.env",
		"backup_dir": "/srv/backups",
		"health_url": "http://localhost:8080/healthz",
		"ready_timeout": "90s",
		"disk_threshold": 70
	}`)

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.AppService)
	assert.Equal(t, "db", cfg.DBService)
	assert.Equal(t, 90*time.Second, cfg.ReadyTimeout.Duration)
	assert.Equal(t, 70, cfg.DiskThreshold)
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `{
		"app_service": "app",
		"db_service": "db",
		"db_user": "app",
		"db_name": "appdb",
		"data_dir": "/srv/app/data",
		"env_file": "/srv/app/.env",
		"backup_dir": "/srv/backups",
		"health_url": "http://localhost:8080/healthz"
	}`)

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.ReadyTimeout.Duration)
	assert.Equal(t, 2*time.Second, cfg.ReadyInterval.Duration)
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout.Duration)
	assert.Equal(t, 80, cfg.DiskThreshold)
	assert.Equal(t, cfg.DataDir, cfg.DiskPath, "disk check defaults to the data directory")
}

func TestLoadFromFile_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{
			name:    "missing required fields",
			content: `{"app_service": "app"}`,
		},
		{
			name: "threshold out of range",
			content: `{
				"app_service": "app", "db_service": "db",
				"db_user": "app", "db_name": "appdb",
				"data_dir": "/d", "env_file": "/e", "backup_dir": "/b",
				"health_url": "http://localhost/healthz",
				"disk_threshold": 150
			}`,
		},
		{
			name: "bad health url",
			content: `{
				"app_service": "app", "db_service": "db",
				"db_user": "app", "db_name": "appdb",
				"data_dir": "/d", "env_file": "/e", "backup_dir": "/b",
				"health_url": "not a url"
			}`,
		},
		{
			name: "bad duration",
			content: `{
				"app_service": "app", "db_service": "db",
				"db_user": "app", "db_name": "appdb",
				"data_dir": "/d", "env_file": "/e", "backup_dir": "/b",
				"health_url": "http://localhost/healthz",
				"ready_timeout": "ninety seconds"
			}`,
		},
		{
			name:    "not json",
			content: `ready_timeout: 90s`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadFromFile(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
