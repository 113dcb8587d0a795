package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostatsplot/domain/core"
	"gostatsplot/domain/stats"
	"gostatsplot/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.APIPort)
	assert.Equal(t, stats.DefaultOptions(), cfg.Plot.Options)
	assert.Equal(t, "png", cfg.Output.Format)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "gostatsplot.yaml", `
server:
  api_port: 9000
  shutdown_timeout: 3s
plot:
  parallel: 4
  options:
    type: robust
    k: 3
    p_adjust_method: BH
    seed: 7
output:
  format: svg
log_level: debug
`)
	cfg, err := Load(path, writeFile(t, "empty.env", ""))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.APIPort)
	assert.Equal(t, 8081, cfg.Server.UIPort)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 4, cfg.Plot.Parallel)
	assert.Equal(t, stats.Robust, cfg.Plot.Options.Type)
	assert.Equal(t, 3, cfg.Plot.Options.K)
	assert.Equal(t, stats.AdjustBH, cfg.Plot.Options.PAdjust)
	assert.Equal(t, uint64(7), cfg.Plot.Options.Seed)
	// fields absent from the file keep their defaults
	assert.Equal(t, 0.95, cfg.Plot.Options.ConfLevel)
	assert.True(t, cfg.Plot.Options.ResultsSubtitle)
}

func TestEnvironmentOverridesFileAndEnvFile(t *testing.T) {
	path := writeFile(t, "c.yaml", "server:\n  api_port: 9000\n")
	envFile := writeFile(t, "test.env", "GOSTATSPLOT_UI_PORT=9100\nGOSTATSPLOT_API_PORT=9200\n")
	// registered so the value godotenv sets is removed after the test
	t.Setenv("GOSTATSPLOT_UI_PORT", "")
	require.NoError(t, os.Unsetenv("GOSTATSPLOT_UI_PORT"))
	t.Setenv("GOSTATSPLOT_API_PORT", "9300")
	t.Setenv("GOSTATSPLOT_TYPE", "np")
	t.Setenv("GOSTATSPLOT_SEED", "123")
	t.Setenv("DATABASE_URL", "postgres://localhost/plots")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)
	// the process environment wins over the env file
	assert.Equal(t, 9300, cfg.Server.APIPort)
	assert.Equal(t, 9100, cfg.Server.UIPort)
	assert.Equal(t, stats.Nonparametric, cfg.Plot.Options.Type)
	assert.Equal(t, uint64(123), cfg.Plot.Options.Seed)
	assert.Equal(t, "postgres://localhost/plots", cfg.Database.URL)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	empty := writeFile(t, "empty.env", "")
	cases := map[string]string{
		"port":       "server:\n  api_port: 70000\n",
		"conf level": "plot:\n  options:\n    conf_level: 1.2\n",
		"type":       "plot:\n  options:\n    type: frequentist\n",
		"format":     "output:\n  format: gif\n",
		"log level":  "log_level: loud\n",
		"yaml":       "server: [",
	}
	for name, content := range cases {
		_, err := Load(writeFile(t, "bad.yaml", content), empty)
		require.Error(t, err, name)
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err), name)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), empty)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	t.Setenv("GOSTATSPLOT_TYPE", "bogus")
	_, err = Load("", empty)
	assert.ErrorIs(t, err, core.ErrUnsupportedTestKind)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
