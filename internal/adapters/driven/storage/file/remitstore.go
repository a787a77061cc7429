// Package file implements document persistence over plain JSON files with a
// backup-then-write cycle.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driven"
	"github.com/brightvale-health/remitdesk/internal/logger"
)

// DefaultBackupSuffix is appended to the document path for backups.
const DefaultBackupSuffix = ".backup"

// Ensure RemittanceStore implements the interface.
var _ driven.RemittanceStore = (*RemittanceStore)(nil)

// RemittanceStore reads and writes remittance documents as JSON.
type RemittanceStore struct {
	backupSuffix string
}

// NewRemittanceStore creates a store. An empty suffix selects the default.
func NewRemittanceStore(backupSuffix string) *RemittanceStore {
	if backupSuffix == "" {
		backupSuffix = DefaultBackupSuffix
	}
	return &RemittanceStore{backupSuffix: backupSuffix}
}

// Load reads the document at path and normalises its shape.
func (s *RemittanceStore) Load(_ context.Context, path string) (*domain.Remittance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc domain.Remittance
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, domain.ErrInvalidInput)
	}
	doc.Normalize()
	return &doc, nil
}

// BackupAndWrite copies the current file to the backup path, then writes the
// document through a temp file and rename. The backup is overwritten on every
// call; it holds the last pre-commit state only.
func (s *RemittanceStore) BackupAndWrite(_ context.Context, path string, r *domain.Remittance) error {
	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, s.BackupPath(path)); err != nil {
			return fmt.Errorf("backing up %s: %w", path, err)
		}
		logger.Debug("backup written to %s", s.BackupPath(path))
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".remitdesk-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// BackupPath returns the backup location for a document path.
func (s *RemittanceStore) BackupPath(path string) string {
	return path + s.backupSuffix
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
