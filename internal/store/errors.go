// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known
// failure conditions. Callers should use [errors.Is] to match against
// these values.
var (
	// ErrCompanyNotFound is returned when a query or update targets a
	// company id that does not exist.
	ErrCompanyNotFound = errors.New("company was not found")

	// ErrCompanyNotSaved is returned when an INSERT or UPDATE completes
	// without error but affects zero rows.
	ErrCompanyNotSaved = errors.New("company was not saved")

	// ErrUnknownColumn is returned when a caller names a column outside
	// the statically declared protected-field set. Column names reach SQL
	// text directly, so anything unrecognised is rejected before the query
	// is built.
	ErrUnknownColumn = errors.New("unknown protected column")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain
// logic can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised
	// SQL query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open
	// transaction fails. The transaction is considered rolled back.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrScanningRow is returned when scanning column values from a single
	// result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when an error is detected during
	// multi-row iteration.
	ErrScanningRows = errors.New("failed to scan rows")
)
