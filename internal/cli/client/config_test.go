package client

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useConfigDir points the global config at a temp directory for one test.
func useConfigDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	oldGetConfigDir := getConfigDirFunc
	oldGetConfigPath := getConfigPathFunc
	getConfigDirFunc = func() (string, error) {
		return tmpDir, nil
	}
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	t.Cleanup(func() {
		getConfigDirFunc = oldGetConfigDir
		getConfigPathFunc = oldGetConfigPath
	})
	return configPath
}

func TestGetConfigDir(t *testing.T) {
	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.NotEmpty(t, dir)
	assert.True(t, filepath.IsAbs(dir))
	assert.True(t, strings.HasSuffix(dir, "docchat"))
}

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.True(t, strings.HasSuffix(path, "config.json"))
}

func TestLoadGlobalConfig_FileNotExists(t *testing.T) {
	useConfigDir(t)

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestLoadGlobalConfig_ValidFile(t *testing.T) {
	configPath := useConfigDir(t)

	data, _ := json.MarshalIndent(GlobalConfig{APIURL: "http://docs.internal:8080"}, "", "  ")
	require.NoError(t, os.WriteFile(configPath, data, 0600))

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, "http://docs.internal:8080", config.APIURL)
}

func TestLoadGlobalConfig_InvalidJSON(t *testing.T) {
	configPath := useConfigDir(t)
	require.NoError(t, os.WriteFile(configPath, []byte("{invalid json}"), 0600))

	config, err := LoadGlobalConfig()
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestSaveGlobalConfig_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, "docchat")
	configPath := filepath.Join(configDir, "config.json")

	oldGetConfigDir := getConfigDirFunc
	oldGetConfigPath := getConfigPathFunc
	getConfigDirFunc = func() (string, error) {
		return configDir, nil
	}
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	defer func() {
		getConfigDirFunc = oldGetConfigDir
		getConfigPathFunc = oldGetConfigPath
	}()

	err := SaveGlobalConfig(&GlobalConfig{APIURL: "http://localhost:8080"})
	require.NoError(t, err)

	assert.DirExists(t, configDir)
	assert.FileExists(t, configPath)
}

func TestSaveGlobalConfig_SetCorrectPermissions(t *testing.T) {
	configPath := useConfigDir(t)

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://localhost:8080"}))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSaveGlobalConfig_NilConfig(t *testing.T) {
	err := SaveGlobalConfig(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config cannot be nil")
}

func TestDeleteGlobalConfig(t *testing.T) {
	configPath := useConfigDir(t)
	require.NoError(t, os.WriteFile(configPath, []byte("{}"), 0600))

	require.NoError(t, DeleteGlobalConfig())
	assert.NoFileExists(t, configPath)

	// Deleting again is not an error.
	require.NoError(t, DeleteGlobalConfig())
}

func TestResolveAPIURL(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		useConfigDir(t)
		t.Setenv(envAPIURL, "http://env:8080")

		source, url := ResolveAPIURL("http://flag:8080")
		assert.Equal(t, SourceFlag, source)
		assert.Equal(t, "http://flag:8080", url)
	})

	t.Run("env over global config", func(t *testing.T) {
		useConfigDir(t)
		require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://saved:8080"}))
		t.Setenv(envAPIURL, "http://env:8080")

		source, url := ResolveAPIURL("")
		assert.Equal(t, SourceEnv, source)
		assert.Equal(t, "http://env:8080", url)
	})

	t.Run("global config", func(t *testing.T) {
		useConfigDir(t)
		require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://saved:8080"}))
		t.Setenv(envAPIURL, "")

		source, url := ResolveAPIURL("")
		assert.Equal(t, SourceGlobalConfig, source)
		assert.Equal(t, "http://saved:8080", url)
	})

	t.Run("default", func(t *testing.T) {
		useConfigDir(t)
		t.Setenv(envAPIURL, "")

		source, url := ResolveAPIURL("")
		assert.Equal(t, SourceDefault, source)
		assert.Equal(t, defaultAPIURL, url)
	})
}

func TestRunConfigSetURL(t *testing.T) {
	useConfigDir(t)

	var out bytes.Buffer
	require.NoError(t, runConfigSetURL(&out, "https://docs.example.com"))
	assert.Contains(t, out.String(), "https://docs.example.com")

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, "https://docs.example.com", config.APIURL)
}

func TestRunConfigSetURL_RejectsInvalidURL(t *testing.T) {
	configPath := useConfigDir(t)

	for _, raw := range []string{"localhost:8080", "ftp://host", "http://"} {
		err := runConfigSetURL(&bytes.Buffer{}, raw)
		assert.Error(t, err, raw)
	}
	assert.NoFileExists(t, configPath)
}

func TestRunConfigShow_JSON(t *testing.T) {
	configPath := useConfigDir(t)
	t.Setenv(envAPIURL, "http://env:8080")

	var out bytes.Buffer
	require.NoError(t, runConfigShow(&out, "", true))

	var shown map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
	assert.Equal(t, "http://env:8080", shown["api_url"])
	assert.Equal(t, "env", shown["source"])
	assert.Equal(t, configPath, shown["config_path"])
}
