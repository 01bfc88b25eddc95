package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvUserAgent, "")
	t.Setenv(EnvCookie, "")
	t.Setenv(EnvDatabase, "")
	os.Unsetenv(EnvUserAgent)
	os.Unsetenv(EnvCookie)
	os.Unsetenv(EnvDatabase)

	return dir
}

func TestLoadMerged_NoProfile(t *testing.T) {
	dir := isolate(t)

	cfg, used, err := LoadMerged(Options{EnvFile: filepath.Join(dir, "none.env")})
	require.NoError(t, err)

	assert.Contains(t, used, "default config")
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, filepath.Join(dir, "mangawatch", "tracked.db"), cfg.Database)
	assert.Equal(t, "@every 6h", cfg.Schedule)
}

func TestLoadMerged_Precedence(t *testing.T) {
	dir := isolate(t)

	path, err := InitDefaultConfig()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`
timeout: 10s
retries: 5
user_agent: from-file
cookie: file-cookie
workers: 2
allow_ext: [".JPG", "png"]
disabled_sites: [omegascans]
sites:
  - name: example
    base_url: https://example.org/
    search_url: "search?q={query}"
    cards: {item: div.card}
    chapters: {item: li}
    updates: {item: div.upd, chapter: a.ch}
`), 0o644))

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("MANGAWATCH_COOKIE=env-cookie\nMANGAWATCH_DATABASE=/tmp/env.db\n"), 0o644))
	t.Setenv(EnvDatabase, "/tmp/process.db")

	cfg, used, err := LoadMerged(Options{EnvFile: envFile, Workers: 8, Debug: true})
	require.NoError(t, err)

	assert.Equal(t, path, used)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, "from-file", cfg.UserAgent)
	assert.Equal(t, "env-cookie", cfg.Cookie)
	assert.Equal(t, "/tmp/process.db", cfg.Database)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"jpg", "png"}, cfg.AllowExt)
	assert.Equal(t, []string{"omegascans"}, cfg.DisabledSites)

	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, "div.card", cfg.Sites[0].Cards.Item)

	rules := cfg.SiteRules()
	require.Len(t, rules, 4)
	assert.Equal(t, "example", rules[3].Name)
	assert.Equal(t, []string{"jpg", "png"}, rules[3].Pictures.AllowExt)
}

func TestLoadMerged_IgnoreConfig(t *testing.T) {
	dir := isolate(t)

	path, err := InitDefaultConfig()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("retries: 9\n"), 0o644))

	cfg, used, err := LoadMerged(Options{IgnoreConfig: true, EnvFile: filepath.Join(dir, "none.env")})
	require.NoError(t, err)

	assert.Equal(t, "(ignored config)", used)
	assert.Equal(t, 3, cfg.Retries)
}

func TestLoadMerged_BadYAML(t *testing.T) {
	isolate(t)

	path, err := InitDefaultConfig()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("timeout: [oops"), 0o644))

	_, _, err = LoadMerged(Options{})
	assert.ErrorContains(t, err, path)
}

func TestSaveYAMLRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "c.yaml")

	in := DefaultConfig()
	in.Timeout = 45 * time.Second
	require.NoError(t, SaveYAML(in, path))

	out, err := loadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
