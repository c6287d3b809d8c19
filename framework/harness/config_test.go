package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, PortRange{Min: 7000, Max: 12000}, c.Ports)
	assert.Equal(t, "/is_alive", c.Probe.LivenessPath)
	assert.Equal(t, 100*time.Millisecond, c.Probe.Interval)
	assert.Equal(t, 500*time.Millisecond, c.Probe.RequestTimeout)
	assert.Equal(t, 3*time.Second, c.TerminateTimeout)
	assert.Equal(t, 3, c.LaunchAttempts)
	assert.False(t, c.Browser)
}

func TestFixedDelayWithoutLivenessPathIsKept(t *testing.T) {
	c := Config{Probe: ProbeConfig{FixedDelay: time.Second}}.WithDefaults()
	assert.Equal(t, "", c.Probe.LivenessPath)
	assert.Equal(t, time.Second, c.Probe.FixedDelay)
}

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, `
ports:
  min: 9000
  max: 9100
probe:
  interval: 250ms
  maxAttempts: 7
terminateTimeout: 1s
browser: true
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, PortRange{Min: 9000, Max: 9100}, c.Ports)
	assert.Equal(t, 250*time.Millisecond, c.Probe.Interval)
	assert.Equal(t, uint(7), c.Probe.MaxAttempts)
	assert.Equal(t, "/is_alive", c.Probe.LivenessPath)
	assert.Equal(t, time.Second, c.TerminateTimeout)
	assert.Equal(t, DefaultLaunchAttempts, c.LaunchAttempts)
	assert.True(t, c.Browser)
}

func TestLoadConfigRejectsInvalidRange(t *testing.T) {
	path := writeFile(t, "ports:\n  min: 9100\n  max: 9000\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := writeFile(t, "ports: [")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
