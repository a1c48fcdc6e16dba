package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
)

func newTestTransitionRepo(t *testing.T) (*transitionRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	d, mock, db := newTestDB(t)
	return &transitionRepository{DB: d, logger: d.logger}, mock, db
}

func TestScanPredicate(t *testing.T) {
	spec, err := columnSpec("annual_revenue")
	if err != nil {
		t.Fatalf("columnSpec error: %v", err)
	}
	want := "annual_revenue IS NOT NULL AND annual_revenue_enc IS NULL"
	if got := scanPredicate(spec); got != want {
		t.Errorf("predicate = %q, want %q", got, want)
	}

	// The conditional rate column only migrates rows whose flag is raised:
	// plaintext with the flag off is the legitimate stored form.
	spec, err = columnSpec("negotiated_rate")
	if err != nil {
		t.Fatalf("columnSpec error: %v", err)
	}
	want = "negotiated_rate IS NOT NULL AND negotiated_rate_enc IS NULL AND rate_confidential = TRUE"
	if got := scanPredicate(spec); got != want {
		t.Errorf("predicate = %q, want %q", got, want)
	}
}

func TestColumnSpec_UnknownColumnRejected(t *testing.T) {
	for _, name := range []string{"name", "id", "annual_revenue_enc", "companies; DROP TABLE companies"} {
		if _, err := columnSpec(name); !errors.Is(err, ErrUnknownColumn) {
			t.Errorf("columnSpec(%q) = %v, want ErrUnknownColumn", name, err)
		}
	}
}

func TestProtectedColumnNames_DeterministicOrder(t *testing.T) {
	names := ProtectedColumnNames()
	want := []string{"annual_revenue", "contract_value", "negotiated_rate", "relationship_notes"}
	if len(names) != len(want) {
		t.Fatalf("got %d columns, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestScanUnmigrated(t *testing.T) {
	repo, mock, db := newTestTransitionRepo(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "annual_revenue"}).
		AddRow(int64(1), "5000000.00").
		AddRow(int64(3), "120000")

	mock.ExpectQuery("SELECT id, annual_revenue FROM companies WHERE annual_revenue IS NOT NULL AND annual_revenue_enc IS NULL AND id > \\$1").
		WithArgs(int64(0), 100).
		WillReturnRows(rows)

	got, err := repo.ScanUnmigrated(context.Background(), "annual_revenue", 0, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].ID != 1 || got[0].Plaintext != "5000000.00" {
		t.Errorf("unexpected first row: %+v", got[0])
	}
}

func TestScanUnmigrated_UnknownColumn(t *testing.T) {
	repo, mock, db := newTestTransitionRepo(t)
	defer db.Close()

	if _, err := repo.ScanUnmigrated(context.Background(), "nope", 0, 100); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no SQL should run for an unknown column: %v", err)
	}
}

func TestCountUnmigrated(t *testing.T) {
	repo, mock, db := newTestTransitionRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))

	n, err := repo.CountUnmigrated(context.Background(), "contract_value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 17 {
		t.Fatalf("count = %d, want 17", n)
	}
}

func TestWriteCiphertext_GuardsAgainstOverwrite(t *testing.T) {
	repo, mock, db := newTestTransitionRepo(t)
	defer db.Close()

	blob := []byte{0x01, 0xAA}
	mock.ExpectExec("UPDATE companies SET contract_value_enc = \\$1 WHERE id = \\$2 AND contract_value_enc IS NULL").
		WithArgs(blob, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.WriteCiphertext(context.Background(), 5, "contract_value", blob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReadCiphertext(t *testing.T) {
	repo, mock, db := newTestTransitionRepo(t)
	defer db.Close()

	blob := []byte{0x01, 0xAA}
	mock.ExpectQuery("SELECT relationship_notes_enc FROM companies").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"relationship_notes_enc"}).AddRow(blob))

	got, err := repo.ReadCiphertext(context.Background(), 5, "relationship_notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(blob) {
		t.Fatalf("blob mismatch: %x != %x", got, blob)
	}
}

func TestListDual(t *testing.T) {
	repo, mock, db := newTestTransitionRepo(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "annual_revenue", "annual_revenue_enc"}).
		AddRow(int64(4), "100.00", []byte{0x01, 0xAA})

	mock.ExpectQuery("SELECT id, annual_revenue, annual_revenue_enc FROM companies").
		WithArgs(int64(0), 50).
		WillReturnRows(rows)

	got, err := repo.ListDual(context.Background(), "annual_revenue", 0, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Plaintext != "100.00" {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestRetryable_ClassifierDriven(t *testing.T) {
	repo, _, db := newTestTransitionRepo(t)
	defer db.Close()

	if !repo.Retryable(pgError(pgerrcode.ConnectionFailure)) {
		t.Error("connection failure must be retryable")
	}
	if !repo.Retryable(pgError(pgerrcode.DeadlockDetected)) {
		t.Error("deadlock rollback must be retryable")
	}
	if repo.Retryable(pgError(pgerrcode.UniqueViolation)) {
		t.Error("constraint violation must not be retryable")
	}
	if repo.Retryable(errors.New("plain error")) {
		t.Error("unclassified error must not be retryable")
	}
}
