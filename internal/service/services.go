// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package service

import (
	"github.com/atomworks/nucrm/internal/audit"
	"github.com/atomworks/nucrm/internal/keystore"
	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/internal/store"
)

// Services aggregates the engine's record-facing services.
type Services struct {
	Companies CompanyService
	Flags     FlagService
}

// NewServices wires all services over the shared repositories, the loaded
// key store, and the audit sink.
func NewServices(repos *store.Repositories, keys *keystore.KeyStore, sink audit.Sink, logger *logger.Logger) *Services {
	return &Services{
		Companies: NewCompanyService(repos.Companies, repos.Relationships, keys, sink, logger),
		Flags:     NewFlagService(repos.FieldFlags, logger),
	}
}
