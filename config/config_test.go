package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/netfab/config"
)

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netfabd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[engine]
workers = 8
scheduler = "single-cpu"
queue_capacity = 2048

[log]
level = "debug"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, "single-cpu", cfg.Engine.Scheduler)
	assert.Equal(t, 2048, cfg.Engine.QueueCapacity)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_UnknownScheduler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netfabd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[engine]
scheduler = "does-not-exist"
`), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, config.Default().Validate())
}
