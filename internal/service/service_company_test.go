package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/atomworks/nucrm/internal/audit"
	"github.com/atomworks/nucrm/internal/codec"
	"github.com/atomworks/nucrm/internal/config"
	"github.com/atomworks/nucrm/internal/field"
	"github.com/atomworks/nucrm/internal/keystore"
	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/internal/store"
	"github.com/atomworks/nucrm/models"
)

// fakeCompanyRepo is an in-memory CompanyRepository.
type fakeCompanyRepo struct {
	companies map[int64]models.Company
	nextID    int64
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{companies: make(map[int64]models.Company)}
}

func (r *fakeCompanyRepo) CreateCompany(_ context.Context, company models.Company) (models.Company, error) {
	r.nextID++
	company.ID = r.nextID
	r.companies[company.ID] = company
	return company, nil
}

func (r *fakeCompanyRepo) GetCompany(_ context.Context, id int64) (models.Company, error) {
	company, ok := r.companies[id]
	if !ok {
		return models.Company{}, store.ErrCompanyNotFound
	}
	return company, nil
}

func (r *fakeCompanyRepo) UpdateFinancials(_ context.Context, id int64, update store.CompanyFinancialsUpdate) error {
	company, ok := r.companies[id]
	if !ok {
		return store.ErrCompanyNotFound
	}
	if update.AnnualRevenueEnc != nil {
		company.AnnualRevenueEnc = update.AnnualRevenueEnc
	}
	if update.ContractValueEnc != nil {
		company.ContractValueEnc = update.ContractValueEnc
	}
	if update.RelationshipNotesEnc != nil {
		company.RelationshipNotesEnc = update.RelationshipNotesEnc
	}
	r.companies[id] = company
	return nil
}

func (r *fakeCompanyRepo) UpdateRate(_ context.Context, id int64, plain *string, blob []byte, confidential bool) error {
	company, ok := r.companies[id]
	if !ok {
		return store.ErrCompanyNotFound
	}
	company.NegotiatedRate = plain
	company.NegotiatedRateEnc = blob
	company.RateConfidential = confidential
	r.companies[id] = company
	return nil
}

func (r *fakeCompanyRepo) DeleteCompany(_ context.Context, id int64) error {
	if _, ok := r.companies[id]; !ok {
		return store.ErrCompanyNotFound
	}
	delete(r.companies, id)
	return nil
}

// fakeRelationshipRepo is an in-memory RelationshipRepository.
type fakeRelationshipRepo struct {
	rels   []models.Relationship
	nextID int64
}

func (r *fakeRelationshipRepo) CreateRelationship(_ context.Context, rel models.Relationship) (models.Relationship, error) {
	r.nextID++
	rel.ID = r.nextID
	r.rels = append(r.rels, rel)
	return rel, nil
}

func (r *fakeRelationshipRepo) ListByCompany(_ context.Context, companyID int64, includeConfidential bool) ([]models.Relationship, error) {
	out := make([]models.Relationship, 0, len(r.rels))
	for _, rel := range r.rels {
		if rel.FromCompanyID != companyID && rel.ToCompanyID != companyID {
			continue
		}
		if rel.Confidential && !includeConfidential {
			continue
		}
		out = append(out, rel)
	}
	return out, nil
}

func testKeyStore(t *testing.T) *keystore.KeyStore {
	t.Helper()
	ks, err := keystore.Load(config.Keys{
		Confidential: base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x11}, 32)),
		Restricted:   base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x22}, 32)),
	}, logger.Nop())
	if err != nil {
		t.Fatalf("keystore.Load error: %v", err)
	}
	return ks
}

func newTestCompanyService(t *testing.T) (CompanyService, *fakeCompanyRepo, *fakeRelationshipRepo, *keystore.KeyStore) {
	t.Helper()
	companies := newFakeCompanyRepo()
	rels := &fakeRelationshipRepo{}
	ks := testKeyStore(t)
	svc := NewCompanyService(companies, rels, ks, audit.NopSink{}, logger.Nop())
	return svc, companies, rels, ks
}

var (
	fullAccess = models.User{
		Login: "director",
		UserPermissions: models.UserPermissions{
			HasConfidentialAccess: true,
			IsInternalTeam:        true,
		},
	}
	salesUser = models.User{Login: "sales"}
	finance   = models.User{
		Login:           "finance",
		UserPermissions: models.UserPermissions{HasConfidentialAccess: true},
	}
)

func companyInput() CompanyInput {
	return CompanyInput{
		Name:              "Westvale Components",
		AnnualRevenue:     models.MustDecimal("120000000"),
		ContractValue:     models.MustDecimal("5000000.00"),
		RelationshipNotes: models.Text("sole qualified supplier of control rod assemblies"),
		NegotiatedRate:    models.MustDecimal("99.50"),
	}
}

func TestCreateCompany_StoresCiphertextOnly(t *testing.T) {
	svc, companies, _, ks := newTestCompanyService(t)

	created, err := svc.CreateCompany(context.Background(), companyInput())
	if err != nil {
		t.Fatalf("CreateCompany error: %v", err)
	}

	stored := companies.companies[created.ID]
	if stored.AnnualRevenue != nil || stored.ContractValue != nil || stored.RelationshipNotes != nil {
		t.Fatal("protected plaintext columns must stay NULL on the create path")
	}
	if stored.AnnualRevenueEnc == nil || stored.ContractValueEnc == nil || stored.RelationshipNotesEnc == nil {
		t.Fatal("expected ciphertext for every protected field")
	}

	aead, err := ks.Cipher(models.DomainConfidential)
	if err != nil {
		t.Fatalf("Cipher error: %v", err)
	}
	v, err := codec.Decrypt(stored.ContractValueEnc, aead)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if v.Raw != "5000000.00" {
		t.Fatalf("stored contract value = %q, want exact magnitude", v.Raw)
	}

	// Rate flag off: plaintext column, no ciphertext.
	if stored.NegotiatedRate == nil || *stored.NegotiatedRate != "99.50" {
		t.Fatalf("unflagged rate = %v, want plaintext 99.50", stored.NegotiatedRate)
	}
	if stored.NegotiatedRateEnc != nil {
		t.Fatal("unflagged rate must not be encrypted")
	}
}

func TestCreateCompany_RequiresName(t *testing.T) {
	svc, _, _, _ := newTestCompanyService(t)

	_, err := svc.CreateCompany(context.Background(), CompanyInput{})
	if !errors.Is(err, ErrInvalidDataProvided) {
		t.Fatalf("expected ErrInvalidDataProvided, got %v", err)
	}
}

func TestGetCompanyView_FullAccess(t *testing.T) {
	svc, _, _, _ := newTestCompanyService(t)

	created, err := svc.CreateCompany(context.Background(), companyInput())
	if err != nil {
		t.Fatalf("CreateCompany error: %v", err)
	}

	view, err := svc.GetCompanyView(context.Background(), fullAccess, created.ID)
	if err != nil {
		t.Fatalf("GetCompanyView error: %v", err)
	}

	if view.AnnualRevenue != "120000000" {
		t.Errorf("annual revenue = %q", view.AnnualRevenue)
	}
	if view.ContractValue != "5000000.00" {
		t.Errorf("contract value = %q", view.ContractValue)
	}
	if view.RelationshipNotes != "sole qualified supplier of control rod assemblies" {
		t.Errorf("notes = %q", view.RelationshipNotes)
	}
	if view.NegotiatedRate != "99.50" {
		t.Errorf("rate = %q", view.NegotiatedRate)
	}
}

func TestGetCompanyView_UnauthorizedSeesPlaceholders(t *testing.T) {
	svc, _, _, _ := newTestCompanyService(t)

	created, err := svc.CreateCompany(context.Background(), companyInput())
	if err != nil {
		t.Fatalf("CreateCompany error: %v", err)
	}

	view, err := svc.GetCompanyView(context.Background(), salesUser, created.ID)
	if err != nil {
		t.Fatalf("GetCompanyView error: %v", err)
	}

	if view.Name != "Westvale Components" {
		t.Errorf("unprotected name = %q, must stay visible", view.Name)
	}
	if view.AnnualRevenue != field.PlaceholderConfidential {
		t.Errorf("annual revenue = %q, want %q", view.AnnualRevenue, field.PlaceholderConfidential)
	}
	if view.ContractValue != field.PlaceholderConfidential {
		t.Errorf("contract value = %q, want %q", view.ContractValue, field.PlaceholderConfidential)
	}
	if view.RelationshipNotes != field.PlaceholderRestricted {
		t.Errorf("notes = %q, want %q", view.RelationshipNotes, field.PlaceholderRestricted)
	}
	// Unflagged rate is plaintext and visible to everyone.
	if view.NegotiatedRate != "99.50" {
		t.Errorf("rate = %q, want plaintext passthrough", view.NegotiatedRate)
	}
}

// A finance user holds Confidential but not Restricted: the two domains
// must resolve independently within one view.
func TestGetCompanyView_DomainsIndependent(t *testing.T) {
	svc, _, _, _ := newTestCompanyService(t)

	created, err := svc.CreateCompany(context.Background(), companyInput())
	if err != nil {
		t.Fatalf("CreateCompany error: %v", err)
	}

	view, err := svc.GetCompanyView(context.Background(), finance, created.ID)
	if err != nil {
		t.Fatalf("GetCompanyView error: %v", err)
	}

	if view.ContractValue != "5000000.00" {
		t.Errorf("contract value = %q, want plaintext for confidential access", view.ContractValue)
	}
	if view.RelationshipNotes != field.PlaceholderRestricted {
		t.Errorf("notes = %q, want restricted placeholder", view.RelationshipNotes)
	}
}

// Rows the backfill has not reached yet hold legacy plaintext. The policy
// gate applies to them exactly as to encrypted rows.
func TestGetCompanyView_LegacyPlaintextGated(t *testing.T) {
	svc, companies, _, _ := newTestCompanyService(t)

	revenue := "5000000.00"
	companies.companies[1] = models.Company{
		ID:            1,
		Name:          "Legacy Row Ltd",
		AnnualRevenue: &revenue,
	}
	companies.nextID = 1

	view, err := svc.GetCompanyView(context.Background(), finance, 1)
	if err != nil {
		t.Fatalf("GetCompanyView error: %v", err)
	}
	if view.AnnualRevenue != "5000000.00" {
		t.Errorf("authorized legacy read = %q, want passthrough", view.AnnualRevenue)
	}
	if view.ContractValue != "" {
		t.Errorf("absent field = %q, want empty", view.ContractValue)
	}

	view, err = svc.GetCompanyView(context.Background(), salesUser, 1)
	if err != nil {
		t.Fatalf("GetCompanyView error: %v", err)
	}
	if view.AnnualRevenue != field.PlaceholderConfidential {
		t.Errorf("unauthorized legacy read = %q, want placeholder", view.AnnualRevenue)
	}
}

func TestGetCompanyView_CorruptedFieldUnavailable(t *testing.T) {
	svc, companies, _, _ := newTestCompanyService(t)

	created, err := svc.CreateCompany(context.Background(), companyInput())
	if err != nil {
		t.Fatalf("CreateCompany error: %v", err)
	}

	stored := companies.companies[created.ID]
	stored.ContractValueEnc = bytes.Clone(stored.ContractValueEnc)
	stored.ContractValueEnc[len(stored.ContractValueEnc)-1] ^= 0x01
	companies.companies[created.ID] = stored

	view, err := svc.GetCompanyView(context.Background(), fullAccess, created.ID)
	if err != nil {
		t.Fatalf("GetCompanyView error: %v", err)
	}
	if view.ContractValue != field.Unavailable {
		t.Errorf("corrupted field = %q, want %q", view.ContractValue, field.Unavailable)
	}
	// One bad field must not poison its neighbours.
	if view.AnnualRevenue != "120000000" {
		t.Errorf("intact field = %q, want plaintext", view.AnnualRevenue)
	}
}

func TestSetRateConfidential_RaiseEncryptsStoredPlaintext(t *testing.T) {
	svc, companies, _, ks := newTestCompanyService(t)

	created, err := svc.CreateCompany(context.Background(), companyInput())
	if err != nil {
		t.Fatalf("CreateCompany error: %v", err)
	}

	if err := svc.SetRateConfidential(context.Background(), salesUser, created.ID, true); err != nil {
		t.Fatalf("SetRateConfidential error: %v", err)
	}

	stored := companies.companies[created.ID]
	if stored.NegotiatedRate != nil {
		t.Fatal("plaintext rate column must be cleared when the flag is raised")
	}
	if !stored.RateConfidential {
		t.Fatal("flag not raised")
	}

	aead, err := ks.Cipher(models.DomainConfidential)
	if err != nil {
		t.Fatalf("Cipher error: %v", err)
	}
	v, err := codec.Decrypt(stored.NegotiatedRateEnc, aead)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if v != models.MustDecimal("99.50") {
		t.Fatalf("encrypted rate = %+v, want decimal 99.50", v)
	}
}

func TestSetRateConfidential_FreeTextRateProtectedAsText(t *testing.T) {
	svc, companies, _, ks := newTestCompanyService(t)

	rate := "TBD after Q3 review"
	companies.companies[1] = models.Company{ID: 1, Name: "Old", NegotiatedRate: &rate}
	companies.nextID = 1

	if err := svc.SetRateConfidential(context.Background(), salesUser, 1, true); err != nil {
		t.Fatalf("SetRateConfidential error: %v", err)
	}

	aead, err := ks.Cipher(models.DomainConfidential)
	if err != nil {
		t.Fatalf("Cipher error: %v", err)
	}
	v, err := codec.Decrypt(companies.companies[1].NegotiatedRateEnc, aead)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if v != models.Text(rate) {
		t.Fatalf("encrypted legacy rate = %+v, want text", v)
	}
}

func TestSetRateConfidential_ClearRequiresDomainAccess(t *testing.T) {
	svc, companies, _, _ := newTestCompanyService(t)

	input := companyInput()
	input.RateConfidential = true
	created, err := svc.CreateCompany(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateCompany error: %v", err)
	}

	err = svc.SetRateConfidential(context.Background(), salesUser, created.ID, false)
	if !errors.Is(err, field.ErrRewriteDenied) {
		t.Fatalf("expected ErrRewriteDenied, got %v", err)
	}

	if err := svc.SetRateConfidential(context.Background(), finance, created.ID, false); err != nil {
		t.Fatalf("SetRateConfidential error: %v", err)
	}

	stored := companies.companies[created.ID]
	if stored.RateConfidential {
		t.Fatal("flag not cleared")
	}
	if stored.NegotiatedRateEnc != nil {
		t.Fatal("stale ciphertext left behind after clearing")
	}
	if stored.NegotiatedRate == nil || *stored.NegotiatedRate != "99.50" {
		t.Fatalf("rewritten rate = %v, want 99.50", stored.NegotiatedRate)
	}
}

func TestSetRateConfidential_CorruptedCiphertextLocksFlag(t *testing.T) {
	svc, companies, _, _ := newTestCompanyService(t)

	input := companyInput()
	input.RateConfidential = true
	created, err := svc.CreateCompany(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateCompany error: %v", err)
	}

	stored := companies.companies[created.ID]
	stored.NegotiatedRateEnc[len(stored.NegotiatedRateEnc)-1] ^= 0xFF

	err = svc.SetRateConfidential(context.Background(), finance, created.ID, false)
	if !errors.Is(err, field.ErrFlagLocked) {
		t.Fatalf("expected ErrFlagLocked, got %v", err)
	}

	after := companies.companies[created.ID]
	if !after.RateConfidential {
		t.Fatal("flag must stay up while the ciphertext is unreadable")
	}
}

func TestSetRateConfidential_NoopWhenUnchanged(t *testing.T) {
	svc, companies, _, _ := newTestCompanyService(t)

	created, err := svc.CreateCompany(context.Background(), companyInput())
	if err != nil {
		t.Fatalf("CreateCompany error: %v", err)
	}
	before := companies.companies[created.ID]

	if err := svc.SetRateConfidential(context.Background(), salesUser, created.ID, false); err != nil {
		t.Fatalf("SetRateConfidential error: %v", err)
	}
	after := companies.companies[created.ID]
	if after.NegotiatedRate == nil || *after.NegotiatedRate != *before.NegotiatedRate {
		t.Fatal("no-op flip must leave the record untouched")
	}
}

func TestUpdateFinancials_EncryptsSelectedFields(t *testing.T) {
	svc, companies, _, ks := newTestCompanyService(t)

	created, err := svc.CreateCompany(context.Background(), companyInput())
	if err != nil {
		t.Fatalf("CreateCompany error: %v", err)
	}

	revenue := models.MustDecimal("140000000")
	if err := svc.UpdateFinancials(context.Background(), created.ID, FinancialsUpdate{AnnualRevenue: &revenue}); err != nil {
		t.Fatalf("UpdateFinancials error: %v", err)
	}

	aead, err := ks.Cipher(models.DomainConfidential)
	if err != nil {
		t.Fatalf("Cipher error: %v", err)
	}
	v, err := codec.Decrypt(companies.companies[created.ID].AnnualRevenueEnc, aead)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if v != revenue {
		t.Fatalf("updated revenue = %+v, want %+v", v, revenue)
	}
}

func TestCreateRelationship_RejectsSelfEdge(t *testing.T) {
	svc, _, _, _ := newTestCompanyService(t)

	_, err := svc.CreateRelationship(context.Background(), models.Relationship{FromCompanyID: 1, ToCompanyID: 1})
	if !errors.Is(err, ErrInvalidDataProvided) {
		t.Fatalf("expected ErrInvalidDataProvided, got %v", err)
	}
}

func TestListRelationships_ConfidentialEdgesHiddenEntirely(t *testing.T) {
	svc, _, _, _ := newTestCompanyService(t)

	mustCreate := func(rel models.Relationship) {
		t.Helper()
		if _, err := svc.CreateRelationship(context.Background(), rel); err != nil {
			t.Fatalf("CreateRelationship error: %v", err)
		}
	}
	mustCreate(models.Relationship{FromCompanyID: 1, ToCompanyID: 2, Kind: "supplier"})
	mustCreate(models.Relationship{FromCompanyID: 1, ToCompanyID: 3, Kind: "exclusive supplier", Confidential: true})

	visible, err := svc.ListRelationships(context.Background(), salesUser, 1)
	if err != nil {
		t.Fatalf("ListRelationships error: %v", err)
	}
	if len(visible) != 1 || visible[0].ToCompanyID != 2 {
		t.Fatalf("sales user sees %+v, want only the public edge", visible)
	}

	all, err := svc.ListRelationships(context.Background(), fullAccess, 1)
	if err != nil {
		t.Fatalf("ListRelationships error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("internal team sees %d edges, want 2", len(all))
	}
}
