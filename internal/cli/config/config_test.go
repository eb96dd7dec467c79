package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantServers int
		shouldError bool
	}{
		{
			name:        "single server",
			content:     `{"servers":[{"url":"http://localhost:8000/","alias":"local"}]}`,
			wantServers: 1,
		},
		{
			name:        "two servers",
			content:     `{"servers":[{"url":"https://api.postmat.pl","alias":"prod"},{"url":"http://localhost:8000","alias":"local"}]}`,
			wantServers: 2,
		},
		{
			name:        "missing scheme",
			content:     `{"servers":[{"url":"localhost:8000","alias":"local"}]}`,
			shouldError: true,
		},
		{
			name:        "missing alias",
			content:     `{"servers":[{"url":"http://localhost:8000"}]}`,
			shouldError: true,
		},
		{
			name:        "duplicate alias",
			content:     `{"servers":[{"url":"http://a:8000","alias":"x"},{"url":"http://b:8000","alias":"x"}]}`,
			shouldError: true,
		},
		{
			name:        "malformed json",
			content:     `{"servers":`,
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := Load(path)
			if tt.shouldError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, cfg.Servers, tt.wantServers)
		})
	}
}

func TestLoad_TrimsTrailingSlash(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"servers":[{"url":"http://localhost:8000/","alias":"local"}]}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Servers[0].URL)
}

func TestFindConfigFile_SearchesParents(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(filepath.Join(root, ConfigFileName), DefaultConfig("http://localhost:8000")))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	chdir(t, nested)

	cfg, err := LoadFromCurrentDir()
	require.NoError(t, err)

	server, err := cfg.GetDefaultServer()
	require.NoError(t, err)
	assert.Equal(t, "default", server.Alias)
}

func TestFindConfigFile_NotFound(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := FindConfigFile()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetServerByURLOrAlias(t *testing.T) {
	cfg := &Config{Servers: []Server{
		{URL: "https://api.postmat.pl", Alias: "prod"},
		{URL: "http://localhost:8000", Alias: "local"},
	}}

	server, err := cfg.GetServerByURLOrAlias("http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, "local", server.Alias)

	server, err = cfg.GetServerByURLOrAlias("prod")
	require.NoError(t, err)
	assert.Equal(t, "https://api.postmat.pl", server.URL)

	_, err = cfg.GetServerByURLOrAlias("staging")
	assert.Error(t, err)

	_, err = (&Config{}).GetDefaultServer()
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("POSTMAT_API_URL", "http://sandbox:8080/")
	t.Setenv("POSTMAT_TIMEOUT", "5s")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://sandbox:8080", env.APIURL)
	assert.Equal(t, 5*time.Second, env.Timeout)
	assert.Equal(t, "warn", env.LogLevel)

	t.Setenv("POSTMAT_TIMEOUT", "0s")
	_, err = LoadEnv()
	assert.Error(t, err)
}
