package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyansa/flintrock/internal/config"
)

func TestLoadMissingDefaultPathIsTolerated(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Launch.InstallSpark)
	assert.Equal(t, "us-east-1", cfg.Providers.EC2.Region)
	assert.Equal(t, "ec2-user", cfg.Providers.EC2.User)
	assert.Equal(t, "m3.medium", cfg.Providers.EC2.InstanceType)
	assert.Equal(t, "default", cfg.Providers.EC2.Tenancy)
}

func TestLoadMissingExplicitPathIsAnError(t *testing.T) {
	dir := t.TempDir()
	_, err := config.Load(filepath.Join(dir, "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadExplicitFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
launch:
  num-slaves: 4
  spark-version: "2.1.0"
providers:
  ec2:
    region: eu-west-1
    key-name: my-key
modules:
  spark:
    version: "2.1.0"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Launch.NumSlaves)
	assert.Equal(t, "eu-west-1", cfg.Providers.EC2.Region)
	assert.Equal(t, "my-key", cfg.Providers.EC2.KeyName)
	assert.Equal(t, "2.1.0", cfg.Modules.Spark.Version)
}
