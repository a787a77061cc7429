package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownField indicates a field key outside the fixed field set.
	ErrUnknownField = errors.New("unknown field")

	// ErrStructuralReference indicates a staged reference that resolves to
	// a position removed or invalidated by structural operations.
	ErrStructuralReference = errors.New("unresolvable structural reference")

	// ErrValidation indicates the staged edits failed validation.
	// The wrapping error carries the aggregated issue list.
	ErrValidation = errors.New("validation failed")

	// ErrLastClaim indicates a deletion that would leave the document
	// without any claims.
	ErrLastClaim = errors.New("cannot delete the last claim")

	// ErrCommitInProgress indicates a commit is already running.
	ErrCommitInProgress = errors.New("commit in progress")

	// ErrStaleDocument indicates the document file changed on disk after it
	// was loaded. The session must reload before committing.
	ErrStaleDocument = errors.New("document changed on disk")

	// ErrPersistence indicates the document could not be written to disk.
	// The in-memory document and staged edits are left intact.
	ErrPersistence = errors.New("persistence failed")

	// ErrImportMalformed indicates an import file that could not be parsed
	// as a remittance document.
	ErrImportMalformed = errors.New("malformed import file")
)
