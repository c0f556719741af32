package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-topology/pkg/logging"
	"github.com/dd0wney/cluso-topology/pkg/metrics"
	"github.com/dd0wney/cluso-topology/pkg/model/modeltest"
	"github.com/dd0wney/cluso-topology/pkg/refinement"
	"github.com/dd0wney/cluso-topology/pkg/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, refinement.DefaultMaxIterations, cfg.Pipeline.MaxIterations)
	assert.Equal(t, logging.InfoLevel, cfg.Level())
	assert.IsType(t, refinement.FirstChooser{}, cfg.Chooser())
	assert.NotNil(t, cfg.MetricsRegistry())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
pattern_namespaces:
  - http://example.org/patterns
pattern_namespace_prefixes:
  - http://example.org/patterns/
pipeline:
  max_iterations: 7
  chooser: none
store:
  backend: file
  path: /tmp/models
  compress: false
metrics:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, logging.DebugLevel, cfg.Level())
	assert.Equal(t, 7, cfg.Pipeline.MaxIterations)
	assert.IsType(t, refinement.NoneChooser{}, cfg.Chooser())
	assert.Equal(t, StoreConfig{Backend: BackendFile, Path: "/tmp/models"}, cfg.Store)
	assert.Nil(t, cfg.MetricsRegistry())

	ns := cfg.Namespaces()
	assert.True(t, ns.IsPatternNamespace("http://example.org/patterns"))
	assert.True(t, ns.IsPatternNamespace("http://example.org/patterns/security"))
	assert.False(t, ns.IsPatternNamespace("http://example.org/types"))
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "pipeline:\n  chooser: first\n"))
	require.NoError(t, err)
	assert.Equal(t, refinement.DefaultMaxIterations, cfg.Pipeline.MaxIterations)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TOPOLOGY_STORE_BACKEND", "postgres")
	t.Setenv("TOPOLOGY_DATABASE_URL", "postgres://localhost/topology")
	t.Setenv("TOPOLOGY_PATTERN_NAMESPACES", "http://a.org, ,http://b.org")
	t.Setenv("TOPOLOGY_MAX_ITERATIONS", "12")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, logging.ErrorLevel, cfg.Level())
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/topology", cfg.Store.DatabaseURL)
	assert.Equal(t, []string{"http://a.org", "http://b.org"}, cfg.PatternNamespaces)
	assert.Equal(t, 12, cfg.Pipeline.MaxIterations)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "pipeline: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("bad iteration env", func(t *testing.T) {
		t.Setenv("TOPOLOGY_MAX_ITERATIONS", "many")
		_, err := Load("")
		assert.ErrorContains(t, err, "TOPOLOGY_MAX_ITERATIONS")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
log_level: loud
pipeline:
  max_iterations: -1
  chooser: random
store:
  backend: postgres
`))
		require.Error(t, err)
		for _, field := range []string{
			"Config.LogLevel",
			"Config.Pipeline.MaxIterations",
			"Config.Pipeline.Chooser",
			"Config.Store.DatabaseURL",
		} {
			assert.ErrorContains(t, err, field)
		}
	})
}

func TestValidate_StoreRules(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = BackendPostgres
	cfg.Store.DatabaseURL = "mysql://localhost/topology"
	assert.ErrorContains(t, cfg.Validate(), "Config.Store.DatabaseURL: must be a postgres:// or postgresql:// URL")

	cfg.Store.DatabaseURL = "postgresql://localhost/topology"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Pipeline.MaxIterations = MaxIterationsLimit + 1
	assert.ErrorContains(t, cfg.Validate(), "Config.Pipeline.MaxIterations")
}

func TestValidate_EmptyNamespace(t *testing.T) {
	cfg := Default()
	cfg.PatternNamespaces = []string{"http://a.org", " "}
	assert.ErrorContains(t, cfg.Validate(), "Config.PatternNamespaces[1]: must not be empty")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		reg := metrics.NewRegistry()
		st, err := OpenStore(ctx, Default(), reg, nil)
		require.NoError(t, err)
		defer st.Close()

		m := modeltest.TwoNodeModel()
		require.NoError(t, st.SetElement(ctx, store.IDOf(m), m))
		ok, err := st.Exists(ctx, store.IDOf(m))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("file", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Backend = BackendFile
		cfg.Store.Path = filepath.Join(t.TempDir(), "models")

		st, err := OpenStore(ctx, cfg, nil, logging.NewNopLogger())
		require.NoError(t, err)
		defer st.Close()

		m := modeltest.ThreeTierModel()
		require.NoError(t, st.SetElement(ctx, store.IDOf(m), m))
		got, err := st.GetElement(ctx, store.IDOf(m))
		require.NoError(t, err)
		assert.Equal(t, m.Detector.NodeIDs(), got.Detector.NodeIDs())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Backend = "redis"
		_, err := OpenStore(ctx, cfg, nil, nil)
		assert.ErrorContains(t, err, "unknown store backend")
	})
}
