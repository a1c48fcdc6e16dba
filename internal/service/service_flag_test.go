package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/models"
)

// fakeFlagRepo is an in-memory FieldFlagRepository keyed by the flag
// triple.
type fakeFlagRepo struct {
	flags map[string]models.FieldFlag
}

func newFakeFlagRepo() *fakeFlagRepo {
	return &fakeFlagRepo{flags: make(map[string]models.FieldFlag)}
}

func flagKey(recordType string, recordID int64, fieldName string) string {
	return fmt.Sprintf("%s/%d/%s", recordType, recordID, fieldName)
}

func (r *fakeFlagRepo) IsFlagged(_ context.Context, recordType string, recordID int64, fieldName string) (bool, error) {
	_, ok := r.flags[flagKey(recordType, recordID, fieldName)]
	return ok, nil
}

func (r *fakeFlagRepo) SetFlag(_ context.Context, flag models.FieldFlag) error {
	key := flagKey(flag.RecordType, flag.RecordID, flag.FieldName)
	if _, ok := r.flags[key]; ok {
		return nil
	}
	r.flags[key] = flag
	return nil
}

func (r *fakeFlagRepo) ClearFlag(_ context.Context, recordType string, recordID int64, fieldName string) error {
	delete(r.flags, flagKey(recordType, recordID, fieldName))
	return nil
}

func (r *fakeFlagRepo) ListFlags(_ context.Context, recordType string, recordID int64) ([]models.FieldFlag, error) {
	out := make([]models.FieldFlag, 0, len(r.flags))
	for _, f := range r.flags {
		if f.RecordType == recordType && f.RecordID == recordID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFlagRepo) ClearOrphans(_ context.Context, recordType string, recordID int64) error {
	for k, f := range r.flags {
		if f.RecordType == recordType && f.RecordID == recordID {
			delete(r.flags, k)
		}
	}
	return nil
}

func TestSetFlag_RequiresDomainAccess(t *testing.T) {
	repo := newFakeFlagRepo()
	svc := NewFlagService(repo, logger.Nop())

	flag := models.FieldFlag{RecordType: models.RecordTypeCompany, RecordID: 7, FieldName: "email"}

	err := svc.SetFlag(context.Background(), salesUser, models.DomainConfidential, flag)
	if !errors.Is(err, ErrFlagPermission) {
		t.Fatalf("expected ErrFlagPermission, got %v", err)
	}

	if err := svc.SetFlag(context.Background(), finance, models.DomainConfidential, flag); err != nil {
		t.Fatalf("SetFlag error: %v", err)
	}

	stored := repo.flags[flagKey(models.RecordTypeCompany, 7, "email")]
	if stored.CreatedBy != "finance" {
		t.Errorf("CreatedBy = %q, want the acting user", stored.CreatedBy)
	}
}

func TestSetFlag_CannotFlagAcrossDomains(t *testing.T) {
	svc := NewFlagService(newFakeFlagRepo(), logger.Nop())

	// Confidential access does not grant restricted flagging.
	flag := models.FieldFlag{RecordType: models.RecordTypeCompany, RecordID: 7, FieldName: "notes"}
	err := svc.SetFlag(context.Background(), finance, models.DomainRestricted, flag)
	if !errors.Is(err, ErrFlagPermission) {
		t.Fatalf("expected ErrFlagPermission, got %v", err)
	}
}

func TestClearFlag_SameGateAsSet(t *testing.T) {
	repo := newFakeFlagRepo()
	svc := NewFlagService(repo, logger.Nop())

	flag := models.FieldFlag{RecordType: models.RecordTypeCompany, RecordID: 7, FieldName: "email"}
	if err := svc.SetFlag(context.Background(), finance, models.DomainConfidential, flag); err != nil {
		t.Fatalf("SetFlag error: %v", err)
	}

	err := svc.ClearFlag(context.Background(), salesUser, models.DomainConfidential, models.RecordTypeCompany, 7, "email")
	if !errors.Is(err, ErrFlagPermission) {
		t.Fatalf("expected ErrFlagPermission, got %v", err)
	}

	if err := svc.ClearFlag(context.Background(), fullAccess, models.DomainConfidential, models.RecordTypeCompany, 7, "email"); err != nil {
		t.Fatalf("ClearFlag error: %v", err)
	}

	flagged, err := svc.IsFlagged(context.Background(), models.RecordTypeCompany, 7, "email")
	if err != nil {
		t.Fatalf("IsFlagged error: %v", err)
	}
	if flagged {
		t.Fatal("flag not cleared")
	}
}

func TestIsFlagged_ReadIsUngated(t *testing.T) {
	repo := newFakeFlagRepo()
	svc := NewFlagService(repo, logger.Nop())

	flagged, err := svc.IsFlagged(context.Background(), models.RecordTypeCompany, 7, "email")
	if err != nil {
		t.Fatalf("IsFlagged error: %v", err)
	}
	if flagged {
		t.Fatal("expected unflagged field")
	}
}
