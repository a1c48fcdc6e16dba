// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// jsonConfig mirrors the subset of [EngineConfig] that may legally live in
// a configuration file. Master keys are intentionally absent: key material
// is environment-only and a key found on disk would be a deployment error.
type jsonConfig struct {
	Storage struct {
		DB struct {
			DSN    string `json:"dsn"`
			Driver string `json:"driver"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Migrator struct {
		BatchSize int `json:"batch_size"`
	} `json:"migrator,omitempty"`
}

func parseJSON(jsonFilePath string) (*EngineConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg jsonConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	return &EngineConfig{
		Storage: Storage{
			DB: DB{
				DSN:    jsonCfg.Storage.DB.DSN,
				Driver: jsonCfg.Storage.DB.Driver,
			},
		},
		Migrator: Migrator{
			BatchSize: jsonCfg.Migrator.BatchSize,
		},
	}, nil
}
