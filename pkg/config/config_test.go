package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 2500, cfg.MaxCallDepth)
	assert.Equal(t, 10*time.Second, cfg.Test262.Timeout)
	assert.Positive(t, cfg.Test262.Workers)
	assert.True(t, cfg.HasFeature("anything"))
	_, ok := cfg.Seed()
	assert.False(t, ok)
	require.NoError(t, cfg.Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
features:
  Temporal: false
  Proxy: true
random_seed: 42
verbosity: 2
job_limit: 10
test262:
  root: /tmp/test262
  workers: 3
  timeout: 1500ms
  exclude: [intl402, annexB]
`), "inline")
	require.NoError(t, err)

	assert.False(t, cfg.HasFeature("Temporal"))
	assert.True(t, cfg.HasFeature("Proxy"))
	assert.True(t, cfg.HasFeature("generators"))
	seed, ok := cfg.Seed()
	require.True(t, ok)
	assert.Equal(t, int64(42), seed)
	assert.Equal(t, 2, cfg.Verbosity)
	assert.Equal(t, 10, cfg.JobLimit)
	assert.Equal(t, 2500, cfg.MaxCallDepth, "unset keys keep their default")
	assert.Equal(t, "/tmp/test262", cfg.Test262.Root)
	assert.Equal(t, 3, cfg.Test262.Workers)
	assert.Equal(t, 1500*time.Millisecond, cfg.Test262.Timeout)
	assert.Equal(t, []string{"intl402", "annexB"}, cfg.Test262.Exclude)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil, "empty")
	require.NoError(t, err)
	assert.Equal(t, Default().JobLimit, cfg.JobLimit)
	assert.NotNil(t, cfg.Features)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("no_such_key: 1\n"), "bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestValidateCollectsAllIssues(t *testing.T) {
	_, err := Parse([]byte("job_limit: -1\nmax_call_depth: -2\n"), "neg")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 2)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specjs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_call_depth: 100\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.MaxCallDepth)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
