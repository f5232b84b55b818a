package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/cmisexport/cmd/cmisexport/opts"
	"github.com/walteh/cmisexport/pkg/config"
	"github.com/walteh/cmisexport/pkg/repository"
	"github.com/walteh/cmisexport/pkg/repository/memory"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

// 🧪 newTestCmd builds an export command with the root persistent flags attached
func newTestCmd(t *testing.T, args ...string) (*opts.RootOpts, *exportFlags, func() (*config.Config, error)) {
	t.Helper()
	ctx := testContext(t)
	rootOpts := &opts.RootOpts{UserLogger: opts.NewUserLogger(ctx)}

	cmd, flags := newExportCmd(rootOpts)
	cmd.PersistentFlags().StringVarP(&rootOpts.ConfigFile, "config", "c", "", "config file")
	require.NoError(t, cmd.ParseFlags(args))

	return rootOpts, flags, func() (*config.Config, error) {
		return resolveConfig(ctx, cmd, rootOpts.ConfigFile, flags)
	}
}

func TestResolveConfigFlagsOnly(t *testing.T) {
	t.Setenv(config.EnvPassword, "")
	t.Setenv(config.EnvToken, "")

	_, _, resolve := newTestCmd(t,
		"--url", "https://cms.example.com/browser",
		"--user", "admin",
		"--path", "/site/docs/",
		"--dest", "out/",
		"--full-paths",
		"--ignore", "**/*.tmp",
		"--ignore", "site/private/**",
	)

	cfg, err := resolve()
	require.NoError(t, err)

	assert.Equal(t, "https://cms.example.com/browser", cfg.Repository.URL)
	assert.Equal(t, "admin", cfg.Repository.Username)
	assert.Equal(t, config.DefaultBinding, cfg.Repository.Binding)
	assert.Equal(t, "/site/docs", cfg.Export.Path)
	assert.Equal(t, "out", cfg.Export.Destination)
	assert.True(t, cfg.Export.FullPaths)
	assert.False(t, cfg.Export.WellFormedXML)
	assert.Equal(t, 0, cfg.Export.MaxDepth, "unchanged flag keeps the config default")
	assert.Equal(t, []string{"**/*.tmp", "site/private/**"}, cfg.Export.Ignore)
}

func TestResolveConfigFileWithOverrides(t *testing.T) {
	t.Setenv(config.EnvPassword, "from-env")

	dir := t.TempDir()
	file := filepath.Join(dir, "cmisexport.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`repository:
  url: https://cms.example.com/browser
  repository_id: main
export:
  path: /site
  destination: ./from-file
  ignore:
    - "**/*.bak"
`), 0o644))

	_, _, resolve := newTestCmd(t,
		"-c", file,
		"--dest", "./from-flag",
		"--ignore", "**/*.tmp",
		"--well-formed-xml",
		"--max-depth", "3",
	)

	cfg, err := resolve()
	require.NoError(t, err)

	assert.Equal(t, "main", cfg.Repository.RepositoryID)
	assert.Equal(t, "from-env", cfg.Repository.Password)
	assert.Equal(t, "/site", cfg.Export.Path)
	assert.Equal(t, "from-flag", cfg.Export.Destination)
	assert.True(t, cfg.Export.WellFormedXML)
	assert.Equal(t, 3, cfg.Export.MaxDepth)
	assert.Equal(t, []string{"**/*.bak", "**/*.tmp"}, cfg.Export.Ignore)
	assert.Equal(t, file, cfg.Location())
}

func TestResolveConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing_url",
			args:    []string{"--path", "/site", "--dest", "out"},
			wantErr: "repository.url is required",
		},
		{
			name:    "relative_path",
			args:    []string{"--url", "http://x", "--path", "site", "--dest", "out"},
			wantErr: "export.path must be absolute",
		},
		{
			name:    "explicit_config_missing",
			args:    []string{"-c", filepath.Join(os.TempDir(), "does-not-exist.yaml"), "--url", "http://x"},
			wantErr: "loading config",
		},
		{
			name:    "bad_ignore_pattern",
			args:    []string{"--url", "http://x", "--path", "/site", "--dest", "out", "--ignore", "[a-"},
			wantErr: "invalid pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, resolve := newTestCmd(t, tt.args...)
			_, err := resolve()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolveConfigDefaultFileAbsent(t *testing.T) {
	ctx := testContext(t)
	rootOpts := &opts.RootOpts{
		ConfigFile: filepath.Join(t.TempDir(), "cmisexport.yaml"),
		UserLogger: opts.NewUserLogger(ctx),
	}
	cmd, flags := newExportCmd(rootOpts)
	require.NoError(t, cmd.ParseFlags([]string{"--url", "http://x", "--path", "/site", "--dest", "out"}))

	cfg, err := resolveConfig(ctx, cmd, rootOpts.ConfigFile, flags)
	require.NoError(t, err)
	assert.Empty(t, cfg.Location())
}

func TestRunExport(t *testing.T) {
	repo := memory.New()
	repo.AddFolder("/site")
	repo.AddFolder("/site/docs")
	repo.AddFolder("/site/docs/sub")
	repo.AddDocument("report.pdf", []byte("0123456789"), []repository.Property{
		{ID: "cmis:name", QueryName: "cmis:name", Values: []string{"report.pdf"}},
	}, "/site/docs/sub")

	repository.Register("memory-test", func(ctx context.Context, cfg config.RepositoryConfig) (repository.Session, error) {
		return repo, nil
	})

	ctx := testContext(t)
	out := t.TempDir()
	cfg := &config.Config{
		Repository: config.RepositoryConfig{Binding: "memory-test", URL: "memory://"},
		Export:     config.ExportConfig{Path: "/site/docs", Destination: out},
	}
	require.NoError(t, cfg.Validate())

	err := runExport(ctx, cfg, opts.NewUserLogger(ctx))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "sub", "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	meta, err := os.ReadFile(filepath.Join(out, "sub", "report.pdf_metadata.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(meta), "<cmis:name>report.pdf</cmis:name>")
	assert.Contains(t, string(meta), "<sourcePath>/site/docs/sub</sourcePath>")
}

func TestRunExportUnknownBinding(t *testing.T) {
	ctx := testContext(t)
	cfg := &config.Config{
		Repository: config.RepositoryConfig{Binding: "nope", URL: "memory://"},
		Export:     config.ExportConfig{Path: "/site", Destination: t.TempDir()},
	}

	err := runExport(ctx, cfg, opts.NewUserLogger(ctx))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `binding "nope" not registered`)
}
