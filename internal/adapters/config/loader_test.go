package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/recon/internal/adapters/config"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), 0o600))
}

func TestLoad_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "include"), 0o750))
	writeConfig(t, root, `
version: "1"
revision: legacy
directives:
  cdivision: true
  c_string_type: unicode
search_path: [include]
lib_dir: build/recon
native_command: ["cc", "-c", "{unit}", "-o", "{output}"]
`)

	cfg, err := config.NewLoader(mocks.NewMockLogger(ctrl)).Load(root)
	require.NoError(t, err)

	assert.Equal(t, domain.RevisionLegacy, cfg.Revision)
	assert.True(t, cfg.Directives.Bool("cdivision"))
	assert.Equal(t, "unicode", cfg.Directives.Value("c_string_type"))
	assert.Equal(t, []string{filepath.Join(root, "include")}, cfg.SearchPath)
	assert.Equal(t, filepath.Join(root, "build", "recon"), cfg.LibDir)
	assert.Equal(t, []string{"cc", "-c", "{unit}", "-o", "{output}"}, cfg.NativeCommand)
	assert.False(t, cfg.Force)
}

func TestLoad_Discovery(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	nested := filepath.Join(root, "pkg", "sub")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	writeConfig(t, root, "revision: \"2\"\n")

	cfg, err := config.NewLoader(mocks.NewMockLogger(ctrl)).Load(nested)
	require.NoError(t, err)
	assert.Equal(t, domain.RevisionLegacy, cfg.Revision)
	assert.Equal(t, filepath.Join(root, domain.DefaultLibDir), cfg.LibDir, "lib dir resolves against the config file")
}

func TestLoad_NoFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	cwd := t.TempDir()

	cfg, err := config.NewLoader(mocks.NewMockLogger(ctrl)).Load(cwd)
	require.NoError(t, err)

	want := domain.DefaultConfiguration()
	assert.Equal(t, want.Fingerprint(), cfg.Fingerprint())
	assert.Equal(t, filepath.Join(cwd, domain.DefaultLibDir), cfg.LibDir)
}

func TestLoad_EmptyFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	writeConfig(t, root, "")

	cfg, err := config.NewLoader(mocks.NewMockLogger(ctrl)).Load(root)
	require.NoError(t, err)
	assert.Equal(t, domain.RevisionCurrent, cfg.Revision)
}

func TestLoad_MissingSearchPathWarns(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	root := t.TempDir()
	writeConfig(t, root, "search_path: [missing]\n")

	logger.EXPECT().Warn("search path entry " + filepath.Join(root, "missing") + " is not a directory")

	cfg, err := config.NewLoader(logger).Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "missing")}, cfg.SearchPath)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		wantMsg string
	}{
		{name: "unknown key", content: "optimize: true\n", wantMsg: "failed to parse config file"},
		{name: "malformed yaml", content: "revision: [\n", wantMsg: "failed to parse config file"},
		{name: "unknown revision", content: "revision: \"4\"\n", wantErr: domain.ErrUnknownRevision},
		{name: "unknown directive", content: "directives:\n  fast_math: true\n", wantErr: domain.ErrUnknownDirective},
		{name: "bad directive value", content: "directives:\n  boundscheck: 3\n", wantErr: domain.ErrInvalidDirectiveValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			root := t.TempDir()
			writeConfig(t, root, tt.content)

			_, err := config.NewLoader(mocks.NewMockLogger(ctrl)).Load(root)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}

			var zErr *zerr.Error
			require.ErrorAs(t, err, &zErr)
			assert.Equal(t, filepath.Join(root, domain.ConfigFileName), zErr.Metadata()["config_path"])
		})
	}
}
