// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package config

import "flag"

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-d database DSN
//	-driver database driver name ("pgx" or "sqlite3")
//	-batch-size migrator batch size
//	-c/-config json file path with configs
//
// Master keys deliberately have no flag form: command lines leak through
// process listings and shell history.
func ParseFlags() *EngineConfig {
	var databaseDSN string
	var databaseDriver string
	var batchSize int
	var jsonConfigPath string

	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&databaseDriver, "driver", "", "Database driver (pgx or sqlite3)")
	flag.IntVar(&batchSize, "batch-size", 0, "Migrator batch size")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &EngineConfig{
		Storage: Storage{
			DB: DB{
				DSN:    databaseDSN,
				Driver: databaseDriver,
			},
		},
		Migrator: Migrator{
			BatchSize: batchSize,
		},
		JSONFilePath: jsonConfigPath,
	}
}
