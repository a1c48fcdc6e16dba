package models

// MigrationReport is the outcome of one transition-migrator run. Counters
// are cumulative across all batches of the run, including batches that
// completed before an abort.
type MigrationReport struct {
	// RunID identifies this run in logs and audit events.
	RunID string

	// DryRun is true when no writes were performed.
	DryRun bool

	// Scanned is the number of rows matched by the scan predicate
	// (plaintext present, ciphertext absent).
	Scanned int

	// Encrypted is the number of rows whose ciphertext column was written
	// (or would have been written, in a dry run) and verified.
	Encrypted int

	// Skipped counts rows skipped due to a row-level encode failure. These
	// are logged individually and left for a later run.
	Skipped int

	// VerifyMismatches counts decode-after-encode comparisons that failed.
	// Any value above zero means the run aborted mid-column.
	VerifyMismatches int
}

// Failed reports whether the run left unresolved rows behind. The CLI maps
// this to a non-zero exit code.
func (r MigrationReport) Failed() bool {
	return r.Skipped > 0 || r.VerifyMismatches > 0
}
