package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethanis/pipecache/internal/adapters/config"
	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/ethanis/pipecache/internal/core/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipecache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newLoader(t *testing.T) *config.FileLoader {
	t.Helper()
	return config.NewLoader(mocks.NewMockLogger(gomock.NewController(t)))
}

func TestLoad_Success(t *testing.T) {
	t.Setenv(config.EndpointEnvVar, "")
	content := `
version: "1"
endpoint: https://cache.example.com
workingDirectory: web
cache:
  key: [npm, Linux, package-lock.json]
  restoreKeys:
    - [npm, Linux]
    - [npm]
  paths: [node_modules, .npm]
  format: files
  hitVariable: NPM_CACHE_RESTORED
`
	cfg, err := newLoader(t).Load(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, "https://cache.example.com", cfg.Endpoint)
	assert.Equal(t, "web", cfg.WorkingDirectory)
	assert.Equal(t, []string{"npm", "Linux", "package-lock.json"}, cfg.Cache.KeyParts)
	assert.Equal(t, [][]string{{"npm", "Linux"}, {"npm"}}, cfg.Cache.RestoreKeys)
	assert.Equal(t, []string{"node_modules", ".npm"}, cfg.Cache.Paths)
	assert.Equal(t, domain.FormatFileSet, cfg.Cache.Format)
	assert.Equal(t, "NPM_CACHE_RESTORED", cfg.Cache.HitVariable)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(config.EndpointEnvVar, "")
	content := `
endpoint: file:///var/cache/pipecache
cache:
  key: [npm, Linux]
  paths: [node_modules]
`
	cfg, err := newLoader(t).Load(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.WorkingDirectory)
	assert.Nil(t, cfg.Cache.RestoreKeys)
	assert.Equal(t, domain.FormatSingleArchive, cfg.Cache.Format)
	assert.Equal(t, domain.DefaultHitVariable, cfg.Cache.HitVariable)
}

func TestLoad_EndpointEnvOverride(t *testing.T) {
	t.Setenv(config.EndpointEnvVar, "https://override.example.com")
	content := `
endpoint: https://cache.example.com
cache:
  key: [npm]
  paths: [node_modules]
`
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any())

	cfg, err := config.NewLoader(log).Load(writeConfig(t, content))
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", cfg.Endpoint)
}

func TestLoad_EnvFillsMissingEndpoint(t *testing.T) {
	t.Setenv(config.EndpointEnvVar, "https://cache.example.com")
	content := `
cache:
  key: [npm]
  paths: [node_modules]
`
	cfg, err := newLoader(t).Load(writeConfig(t, content))
	require.NoError(t, err)
	assert.Equal(t, "https://cache.example.com", cfg.Endpoint)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing key",
			content: `
cache:
  paths: [node_modules]
`,
		},
		{
			name: "empty key part",
			content: `
cache:
  key: [npm, ""]
  paths: [node_modules]
`,
		},
		{
			name: "empty restore key",
			content: `
cache:
  key: [npm]
  restoreKeys:
    - []
  paths: [node_modules]
`,
		},
		{
			name: "empty restore key part",
			content: `
cache:
  key: [npm]
  restoreKeys:
    - [npm, ""]
  paths: [node_modules]
`,
		},
		{
			name: "missing paths",
			content: `
cache:
  key: [npm]
`,
		},
		{
			name: "unsupported version",
			content: `
version: "2"
cache:
  key: [npm]
  paths: [node_modules]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newLoader(t).Load(writeConfig(t, tt.content))
			require.ErrorIs(t, err, domain.ErrConfigInvalid)
		})
	}
}

func TestLoad_UnsupportedVersionCarriesMetadata(t *testing.T) {
	content := `
version: "2"
cache:
  key: [npm]
  paths: [node_modules]
`
	_, err := newLoader(t).Load(writeConfig(t, content))
	require.Error(t, err)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "2", zErr.Metadata()["version"])
}

func TestLoad_UnknownFormat(t *testing.T) {
	content := `
cache:
  key: [npm]
  paths: [node_modules]
  format: zipball
`
	_, err := newLoader(t).Load(writeConfig(t, content))
	require.ErrorIs(t, err, domain.ErrUnknownContentFormat)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		_, err := newLoader(t).Load("non-existent-file.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := newLoader(t).Load(writeConfig(t, "cache: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config file")
	})
}
