package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.SelectedServerURL)
	assert.Empty(t, cfg.LoggedIn)
}

func TestSelectedServer(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, SetSelectedServer("http://localhost:8000"))

	selected, err := GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", selected)

	_, err = os.Stat(filepath.Join(home, ".config", "postmat", "config.json"))
	assert.NoError(t, err)
}

func TestFlag(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	local := Flag{ServerURL: "http://localhost:8000"}
	prod := Flag{ServerURL: "https://api.postmat.pl"}

	require.NoError(t, local.SetLoggedIn(true))
	require.NoError(t, prod.SetLoggedIn(true))
	require.NoError(t, SetSelectedServer("http://localhost:8000"))

	require.NoError(t, local.SetLoggedIn(false))

	loggedIn, err := local.IsLoggedIn()
	require.NoError(t, err)
	assert.False(t, loggedIn)

	loggedIn, err = prod.IsLoggedIn()
	require.NoError(t, err)
	assert.True(t, loggedIn)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.SelectedServerURL, "clearing a flag keeps the selection")
	assert.NotContains(t, cfg.LoggedIn, "http://localhost:8000")
}

func TestLoad_CorruptFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "postmat")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0600))

	_, err := Load()
	assert.Error(t, err)
}
