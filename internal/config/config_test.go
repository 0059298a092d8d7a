package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw", cfg.Paths.RawDir)
	assert.Equal(t, "data/interim", cfg.Paths.InterimDir)
	assert.Equal(t, "data/processed", cfg.Paths.ProcessedDir)
	assert.Equal(t, "electricity_%d.csv", cfg.Paths.FilePattern)
	assert.Equal(t, 2, cfg.Source.SkipRows)
	assert.Equal(t, "utf-8", cfg.Source.Encoding)
	assert.Equal(t, []int{2020, 2021, 2022, 2023}, cfg.Source.Years)
	assert.Equal(t, "-", cfg.Source.MissingToken)
	assert.Equal(t, "INDONESIA", cfg.Source.AggregateMarker)
	assert.Equal(t, "drop", cfg.Clean.MissingPolicy)
	assert.Equal(t, "Propinsi", cfg.Boundary.NameProperty)
	assert.Equal(t, 2020, cfg.Features.BaseYear)
	assert.Equal(t, 2023, cfg.Features.ComparisonYear)
	assert.InDelta(t, 1.5, cfg.Features.IQRMultiplier, 0.001)
	assert.InDelta(t, 30000, cfg.Features.Thresholds.High, 0.001)
	assert.Equal(t, "", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestDefaultsMatchLoad(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, loaded, Defaults())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
source:
  skip_rows: 3
  years: [2021, 2022]
clean:
  missing_policy: fill_mean
store:
  driver: sqlite
  database_url: runs.db
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Source.SkipRows)
	assert.Equal(t, []int{2021, 2022}, cfg.Source.Years)
	assert.Equal(t, "fill_mean", cfg.Clean.MissingPolicy)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "Propinsi", cfg.Boundary.NameProperty)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ELECTRICITY_STORE_DRIVER", "postgres")
	t.Setenv("ELECTRICITY_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("ELECTRICITY_SERVER_PORT", "3000")
	t.Setenv("ELECTRICITY_BOUNDARY_NAME_PROPERTY", "PROVINSI")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "PROVINSI", cfg.Boundary.NameProperty)
}

func TestLoadEnvWithoutFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("ELECTRICITY_STORE_DRIVER", "sqlite")
	t.Setenv("ELECTRICITY_STORE_DATABASE_URL", "runs.db")
	t.Setenv("ELECTRICITY_PROVINCE_TABLE_FILE", "provinces.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "runs.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "provinces.yaml", cfg.Province.TableFile)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("source: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func TestValidatePipeline_Defaults(t *testing.T) {
	assert.NoError(t, Defaults().Validate("pipeline"))
}

func TestValidate_MissingPolicy(t *testing.T) {
	cfg := Defaults()
	cfg.Clean.MissingPolicy = "interpolate"

	err := cfg.Validate("pipeline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clean.missing_policy")
}

func TestValidate_FilePattern(t *testing.T) {
	cfg := Defaults()
	cfg.Paths.FilePattern = "electricity.csv"

	err := cfg.Validate("pipeline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paths.file_pattern")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Source.SkipRows = -1
	cfg.Source.Years = nil
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("pipeline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.skip_rows must be >= 0")
	assert.Contains(t, err.Error(), "source.years must not be empty")
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidate_Thresholds(t *testing.T) {
	cfg := Defaults()
	cfg.Features.Thresholds.Low = cfg.Features.Thresholds.Medium

	err := cfg.Validate("pipeline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictly increasing")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidatePublish_RequiresURL(t *testing.T) {
	cfg := Defaults()

	err := cfg.Validate("publish")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/electricity"
	assert.NoError(t, cfg.Validate("publish"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := Defaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
