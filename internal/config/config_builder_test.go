// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package config

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// Earlier sources win: a DSN from the environment is not overridden by the
// JSON file, which only fills fields still unset.
func TestBuild_EnvWinsOverJSON(t *testing.T) {
	jsonPath := writeTempJSONConfig(t, map[string]any{
		"storage": map[string]any{
			"db": map[string]any{
				"dsn":    "postgres://json/db",
				"driver": "sqlite3",
			},
		},
	})

	setEnvVars(t, map[string]string{
		"CONFIG":                  jsonPath,
		"STORAGE_DB_DATABASE_URI": "postgres://env/db",
	})

	cfg, err := GetEngineConfigNoFlags()
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.Storage.DB.DSN)
	// The driver default from the env source is itself an earlier value, so
	// the JSON driver never applies either.
	assert.Equal(t, "pgx", cfg.Storage.DB.Driver)
}

func TestBuild_JSONFillsMissingDSN(t *testing.T) {
	jsonPath := writeTempJSONConfig(t, map[string]any{
		"storage": map[string]any{
			"db": map[string]any{
				"dsn": "postgres://json/db",
			},
		},
	})

	setEnvVars(t, map[string]string{"CONFIG": jsonPath})

	cfg, err := GetEngineConfigNoFlags()
	require.NoError(t, err)
	assert.Equal(t, "postgres://json/db", cfg.Storage.DB.DSN)
}

func TestBuild_ValidationRejectsEmptyDSN(t *testing.T) {
	// No DSN from any source.
	setEnvVars(t, map[string]string{
		"CONFIG":                  "",
		"STORAGE_DB_DATABASE_URI": "",
	})

	_, err := GetEngineConfigNoFlags()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStorageConfigs)
}

func TestBuild_ValidationRejectsUnknownDriver(t *testing.T) {
	setEnvVars(t, map[string]string{
		"STORAGE_DB_DATABASE_URI": "nucrm.db",
		"STORAGE_DB_DRIVER":       "oracle",
	})

	_, err := GetEngineConfigNoFlags()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStorageConfigs)
}

func TestBuild_MissingJSONFileFails(t *testing.T) {
	setEnvVars(t, map[string]string{
		"CONFIG":                  "/does/not/exist.json",
		"STORAGE_DB_DATABASE_URI": "nucrm.db",
	})

	_, err := GetEngineConfigNoFlags()
	require.Error(t, err)
}

func TestParseJSON_KeysNeverReadFromDisk(t *testing.T) {
	// A config file carrying key material must not populate the key fields:
	// keys are environment-only.
	jsonPath := writeTempJSONConfig(t, map[string]any{
		"keys": map[string]any{
			"confidential": "leaked-key",
			"restricted":   "leaked-key",
		},
		"storage": map[string]any{
			"db": map[string]any{"dsn": "nucrm.db"},
		},
	})

	cfg, err := parseJSON(jsonPath)
	require.NoError(t, err)
	assert.Empty(t, cfg.Keys.Confidential)
	assert.Empty(t, cfg.Keys.Restricted)
}

func TestValidate_BatchSize(t *testing.T) {
	cfg := &EngineConfig{}
	cfg.Storage.DB.DSN = "nucrm.db"
	cfg.Storage.DB.Driver = "sqlite3"
	cfg.Migrator.BatchSize = 0

	err := cfg.validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidMigratorConfigs))
}
