// Package driven defines the outbound ports: interfaces the core depends on
// and adapters implement.
package driven

import (
	"context"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
)

// RemittanceStore loads and persists the remittance document.
type RemittanceStore interface {
	// Load reads and normalises the document at path.
	Load(ctx context.Context, path string) (*domain.Remittance, error)

	// BackupAndWrite copies the current file at path to its backup
	// location, then writes the document. The backup step is skipped when
	// no file exists yet.
	BackupAndWrite(ctx context.Context, path string, r *domain.Remittance) error

	// BackupPath returns the backup location for a document path.
	BackupPath(path string) string
}

// DocumentWatcher reports external modification of the open document file.
type DocumentWatcher interface {
	// Watch starts watching the given path.
	Watch(path string) error

	// Changed reports whether the watched file was modified by another
	// writer since Watch or the last Reset.
	Changed() bool

	// Reset marks the file's current state as the session's own, typically
	// after the session wrote or reloaded it.
	Reset()

	// Close stops watching.
	Close() error
}
