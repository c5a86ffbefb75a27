package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Plans.Unauthenticated.NameGenerations)
	assert.Equal(t, 50, cfg.Plans.Pro.NameGenerations)
	assert.Equal(t, "Popular", cfg.Plans.Pro.Badge)
	assert.Equal(t, "https://registry.npmjs.org", cfg.Providers.Registry.BaseURL)
	assert.Equal(t, 240, cfg.Stripe.PortalCacheTTLSeconds)
}

func TestLoad_OverridePlan(t *testing.T) {
	path := writeConfig(t, `
plans:
  pro:
    name_generations: 75
    link: https://buy.stripe.com/pro
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 75, cfg.Plans.Pro.NameGenerations)
	assert.Equal(t, "https://buy.stripe.com/pro", cfg.Plans.Pro.Link)
	// 未覆盖的字段保留默认值
	assert.Equal(t, "Pro", cfg.Plans.Pro.Title)
}

func TestLoad_PrefersLocalConfig(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	local := filepath.Join(filepath.Dir(path), "config.local.yaml")
	require.NoError(t, os.WriteFile(local, []byte("server:\n  port: 7070\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOSSConfig_Enabled(t *testing.T) {
	assert.False(t, OSSConfig{}.Enabled())
	assert.True(t, OSSConfig{Endpoint: "oss.example.com", AccessKeyID: "id", BucketName: "logos"}.Enabled())
}
