package creds

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
)

func sample() *Credentials {
	return &Credentials{
		Host:     "sap.example.com",
		Port:     44300,
		User:     "DEVELOPER",
		Password: "secret",
		Client:   "100",
		UseHTTPS: true,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, Save(path, sample()))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sample(), loaded)
}

func TestSaveOwnerOnlyPermissions(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, Save(path, sample()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), DefaultPath))
	require.Error(t, err)
	require.NotNil(t, aerr.As(err))
	assert.Equal(t, aerr.KindNotFound, aerr.As(err).Kind)
}

func TestLoadInvalidJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Credentials)
	}{
		{"missing host", func(c *Credentials) { c.Host = "" }},
		{"zero port", func(c *Credentials) { c.Port = 0 }},
		{"port out of range", func(c *Credentials) { c.Port = 70000 }},
		{"missing user", func(c *Credentials) { c.User = "" }},
		{"missing client", func(c *Credentials) { c.Client = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := sample()
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestExistsAndRemove(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultPath)
	assert.False(t, Exists(path))

	require.NoError(t, Save(path, sample()))
	assert.True(t, Exists(path))

	require.NoError(t, Remove(path))
	assert.False(t, Exists(path))
	// Removing twice is not an error.
	require.NoError(t, Remove(path))
}
