package assessment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 0.3, cfg.MatchThreshold)
	assert.Equal(t, 15, cfg.HeaderScanRows)
	assert.Equal(t, 10, cfg.KeywordLimit)
}

func TestLoadConfigJSONKeepsDefaultsForUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"matchThreshold": 0.45, "defaultType": "aks"}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.45, cfg.MatchThreshold)
	assert.Equal(t, "aks", cfg.DefaultType)
	assert.Equal(t, 50, cfg.ReconcileBatchSize)
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assessor.yaml")
	data := "checklistDir: /srv/checklists\nemptyRowLimit: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/checklists", cfg.ChecklistDir)
	assert.Equal(t, 4, cfg.EmptyRowLimit)
	assert.Equal(t, "checklist.json", cfg.MainChecklistPath)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"matchThreshold":`), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "decode config")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	for _, name := range []string{"nested/config.json", "nested/config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.Reviewer = "Auditor"
			cfg.KeywordLimit = 12

			require.NoError(t, SaveConfig(path, cfg))
			_, err := os.Stat(path + ".tmp")
			assert.True(t, os.IsNotExist(err))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestConfigCloneIsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.DefaultType = "redis"
	assert.Equal(t, "alz", cfg.DefaultType)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvChecklistDir, "/data/checklists")
	t.Setenv(EnvDefaultType, "keyvault")
	t.Setenv(EnvMatchThreshold, "0.5")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "/data/checklists", cfg.ChecklistDir)
	assert.Equal(t, "keyvault", cfg.DefaultType)
	assert.Equal(t, 0.5, cfg.MatchThreshold)
}

func TestApplyEnvRejectsBadThreshold(t *testing.T) {
	for _, v := range []string{"abc", "0", "1.5"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv(EnvMatchThreshold, v)
			cfg := DefaultConfig()
			assert.Error(t, cfg.ApplyEnv())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv(EnvDefaultType, "")
	require.NoError(t, os.Unsetenv(EnvDefaultType))

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(EnvDefaultType+"=cosmosdb\n"), 0o644))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "cosmosdb", os.Getenv(EnvDefaultType))

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "cosmosdb", cfg.DefaultType)
}
