package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
)

func writeDoc(t *testing.T, path string, doc *domain.Remittance) {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
}

func TestLoad_NormalizesShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	writeDoc(t, path, &domain.Remittance{Claims: []domain.Claim{{ClaimID: 1}}})

	store := NewRemittanceStore("")
	doc, err := store.Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Claims, 1)
	require.Len(t, doc.Claims[0].Lines, 1)
	assert.NotNil(t, doc.Claims[0].Lines[0].Adjustments)
}

func TestLoad_MissingFile(t *testing.T) {
	store := NewRemittanceStore("")
	_, err := store.Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoad_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	store := NewRemittanceStore("")
	_, err := store.Load(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBackupAndWrite_KeepsPriorState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	store := NewRemittanceStore("")

	first := &domain.Remittance{Header: domain.Header{CheckNumber: "one"}, Claims: []domain.Claim{{ClaimID: 1}}}
	writeDoc(t, path, first)

	second := &domain.Remittance{Header: domain.Header{CheckNumber: "two"}, Claims: []domain.Claim{{ClaimID: 1}}}
	require.NoError(t, store.BackupAndWrite(context.Background(), path, second))

	current, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "two", current.Header.CheckNumber)

	backup, err := store.Load(context.Background(), store.BackupPath(path))
	require.NoError(t, err)
	assert.Equal(t, "one", backup.Header.CheckNumber)
}

func TestBackupAndWrite_FirstWriteNeedsNoBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.json")
	store := NewRemittanceStore("")

	doc := &domain.Remittance{Claims: []domain.Claim{{ClaimID: 1}}}
	require.NoError(t, store.BackupAndWrite(context.Background(), path, doc))

	_, err := os.Stat(store.BackupPath(path))
	assert.True(t, os.IsNotExist(err))

	loaded, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, loaded.Claims, 1)
}

func TestBackupAndWrite_OverwritesOlderBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	store := NewRemittanceStore("")

	writeDoc(t, path, &domain.Remittance{Header: domain.Header{CheckNumber: "one"}})
	require.NoError(t, store.BackupAndWrite(context.Background(), path,
		&domain.Remittance{Header: domain.Header{CheckNumber: "two"}, Claims: []domain.Claim{{ClaimID: 1}}}))
	require.NoError(t, store.BackupAndWrite(context.Background(), path,
		&domain.Remittance{Header: domain.Header{CheckNumber: "three"}, Claims: []domain.Claim{{ClaimID: 1}}}))

	backup, err := store.Load(context.Background(), store.BackupPath(path))
	require.NoError(t, err)
	assert.Equal(t, "two", backup.Header.CheckNumber)
}

func TestBackupPath_CustomSuffix(t *testing.T) {
	store := NewRemittanceStore(".bak")
	assert.Equal(t, "/tmp/doc.json.bak", store.BackupPath("/tmp/doc.json"))

	def := NewRemittanceStore("")
	assert.Equal(t, "/tmp/doc.json.backup", def.BackupPath("/tmp/doc.json"))
}
