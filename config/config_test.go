package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestEffectiveThresholdHonorsOffMode(t *testing.T) {
	cfg := Default()
	cfg.Mode = JoinModeOff
	require.Equal(t, 0, cfg.EffectiveThreshold())

	cfg.Mode = JoinModeThreshold
	cfg.WideningThreshold = 16
	require.Equal(t, 16, cfg.EffectiveThreshold())
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := Default()
	cfg.Mode = "bogus"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveThresholdInThresholdMode(t *testing.T) {
	cfg := Default()
	cfg.WideningThreshold = 0
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeBudget(t *testing.T) {
	cfg := Default()
	cfg.Budget = -time.Second
	require.Error(t, cfg.Validate())
}

func TestLoadFillsDefaultsAroundProvidedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("widening_threshold: 3\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.WideningThreshold)
	require.Equal(t, JoinModeThreshold, cfg.Mode)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: bogus\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadReportsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
