// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

// Package config provides configuration loading, merging, and validation
// for the confidentiality engine and the transition CLI.
//
// Configuration is assembled from multiple sources in the following priority
// order (earlier sources win; later sources only fill fields still unset):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//
// Master key material is environment-only: keys never appear in the JSON
// file or on the command line (process listings and config files on disk
// are not an acceptable place for key material).
//
// The main entry point is [GetEngineConfig].
package config
