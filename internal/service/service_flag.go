// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package service

import (
	"context"
	"fmt"

	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/internal/policy"
	"github.com/atomworks/nucrm/internal/store"
	"github.com/atomworks/nucrm/models"
)

// flagService implements [FlagService]. Flags are a query/display filter
// on plaintext columns — no encryption happens here — but changing them is
// still gated: a user may only flag data they are allowed to see.
type flagService struct {
	flags  store.FieldFlagRepository
	logger *logger.Logger
}

// NewFlagService constructs a [FlagService].
func NewFlagService(flags store.FieldFlagRepository, logger *logger.Logger) FlagService {
	return &flagService{
		flags:  flags,
		logger: logger,
	}
}

// SetFlag implements [FlagService].
func (s *flagService) SetFlag(ctx context.Context, user models.User, domain models.Domain, flag models.FieldFlag) error {
	if !policy.CanFlag(user.UserPermissions, domain) {
		return fmt.Errorf("%w: %s", ErrFlagPermission, domain)
	}

	flag.CreatedBy = user.Login
	return s.flags.SetFlag(ctx, flag)
}

// ClearFlag implements [FlagService]. Clearing uses the same gate as
// setting.
func (s *flagService) ClearFlag(ctx context.Context, user models.User, domain models.Domain, recordType string, recordID int64, fieldName string) error {
	if !policy.CanFlag(user.UserPermissions, domain) {
		return fmt.Errorf("%w: %s", ErrFlagPermission, domain)
	}

	return s.flags.ClearFlag(ctx, recordType, recordID, fieldName)
}

// IsFlagged implements [FlagService]. Reading flag state is not gated:
// the flag's existence drives query filtering, not data disclosure.
func (s *flagService) IsFlagged(ctx context.Context, recordType string, recordID int64, fieldName string) (bool, error) {
	return s.flags.IsFlagged(ctx, recordType, recordID, fieldName)
}

// ListFlags implements [FlagService].
func (s *flagService) ListFlags(ctx context.Context, recordType string, recordID int64) ([]models.FieldFlag, error) {
	return s.flags.ListFlags(ctx, recordType, recordID)
}

// ClearOrphans implements [FlagService]. Called by record-owning
// collaborators when a record outside this engine's tables is deleted.
func (s *flagService) ClearOrphans(ctx context.Context, recordType string, recordID int64) error {
	return s.flags.ClearOrphans(ctx, recordType, recordID)
}
