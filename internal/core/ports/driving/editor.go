// Package driving defines the inbound ports: the use-case interfaces the
// CLI calls into.
package driving

import (
	"context"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
)

// ProgressStage identifies a phase of a running commit.
type ProgressStage string

const (
	StageValidating ProgressStage = "validating"
	StageStructural ProgressStage = "structural"
	StageFields     ProgressStage = "fields"
	StagePersisting ProgressStage = "persisting"
)

// ProgressFunc observes commit progress. It has no control authority: the
// commit neither waits on it nor reacts to it.
type ProgressFunc func(stage ProgressStage, done, total int)

// SkippedEdit records a staged edit dropped during commit because its
// structural reference could not be resolved.
type SkippedEdit struct {
	Edit   domain.FieldEdit
	Reason string
}

// CommitReceipt summarises a successful commit.
type CommitReceipt struct {
	ID            string
	FieldEdits    int
	ClaimsAdded   int
	ClaimsDeleted int
	LinesAdded    int
	LinesDeleted  int
	Placeholders  int
	Skipped       []SkippedEdit
	Advisory      string
	BackupPath    string
}

// ImportReport summarises a merge-import of external documents.
type ImportReport struct {
	ClaimsImported int
	FilesImported  int
	Failed         map[string]error
}

// Editor is the staged-edit contract over one open remittance document.
// All claim and line references are 1-based positions as the document stood
// when the reference was staged.
type Editor interface {
	// Document returns the current in-memory document. Callers must not
	// mutate it; all changes go through staging.
	Document() *domain.Remittance

	// StageFieldEdit stages a field change without touching the document.
	StageFieldEdit(edit domain.FieldEdit) error

	// StageStructuralOp stages an add or delete without touching the
	// document.
	StageStructuralOp(op domain.StructuralOp) error

	// Pending returns the number of staged changes.
	Pending() int

	// Validate simulates the staged changes against a copy of the document
	// and returns the findings without committing anything.
	Validate() []domain.Issue

	// Commit validates, applies and persists the staged changes, then
	// clears the buffer. On failure the document and buffer are intact.
	Commit(ctx context.Context, progress ProgressFunc) (*CommitReceipt, error)

	// Discard drops every staged change.
	Discard()

	// ImportDocuments appends the claims of external documents, assigning
	// fresh claim ids, and persists. Bypasses the staging buffer.
	ImportDocuments(ctx context.Context, paths []string) (*ImportReport, error)

	// Reload re-reads the document from disk, discarding staged changes.
	Reload(ctx context.Context) error
}
