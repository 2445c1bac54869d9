package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthwatch/internal/config"
	"healthwatch/internal/services"
)

const cliSecret = "cli-test-secret-that-is-long-enough-for-hs256"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeSplit(t, args...)
	return out, err
}

func executeSplit(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "healthwatch "+config.Version+" (built "+config.BuildTime+")\n", out)
}

func TestConfigCommandAppliesModeFlagAndRedactsSecret(t *testing.T) {
	t.Setenv("MONITOR_ENV", "production")
	t.Setenv("MONITOR_JWT_SECRET", cliSecret)

	out, err := execute(t, "config", "--mode", "experimental")
	require.NoError(t, err)
	assert.NotContains(t, out, cliSecret)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, config.ModeExperimental, cfg.Mode)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, "REDACTED", cfg.JWTSecret)
}

func TestConfigCommandPrintsWarnings(t *testing.T) {
	t.Setenv("MONITOR_ENV", "staging")

	out, errOut, err := executeSplit(t, "config")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(errOut, "warning: unknown mode"))
	assert.NotContains(t, out, "warning")

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, config.ModeProduction, cfg.Mode)
}

func TestRunFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("MONITOR_INTERVAL", "1m")
	t.Setenv("MONITOR_SAMPLER", "host")

	cmd := newRunCommand()
	require.NoError(t, cmd.Flags().Set("interval", "5s"))

	cfg, warnings := loadConfig(cmd)
	assert.Empty(t, warnings)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, config.SamplerHost, cfg.Sampler)
}

func TestTokenCommandIssuesValidToken(t *testing.T) {
	t.Setenv("MONITOR_JWT_SECRET", cliSecret)

	out, err := execute(t, "token", "--server", "web-01")
	require.NoError(t, err)

	auth, err := services.NewAuthService(cliSecret, "", 0, zerolog.Nop())
	require.NoError(t, err)
	claims, err := auth.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "web-01", claims.ServerName)
}

func TestTokenCommandRejectsBadServerName(t *testing.T) {
	t.Setenv("MONITOR_JWT_SECRET", cliSecret)

	_, err := execute(t, "token", "--server", "web 01")
	assert.Error(t, err)
}

func TestConfigCommandYAMLOutput(t *testing.T) {
	t.Setenv("MONITOR_ENV", "development")

	out, err := execute(t, "config", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "mode: development\n")
	assert.Contains(t, out, "debug: true\n")

	_, err = execute(t, "config", "-o", "xml")
	assert.Error(t, err)
}
