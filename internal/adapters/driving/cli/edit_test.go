package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagefile "github.com/brightvale-health/remitdesk/internal/adapters/driven/storage/file"
	"github.com/brightvale-health/remitdesk/internal/core/domain"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driving"
	"github.com/brightvale-health/remitdesk/internal/core/services"
)

func wireFileEditor(t *testing.T) {
	t.Helper()
	old := newEditor
	store := storagefile.NewRemittanceStore("")
	newEditor = func(path string) (driving.Editor, error) {
		return services.NewEditorSession(context.Background(), store, nil, path)
	}
	t.Cleanup(func() { newEditor = old })
}

func executeCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeTestDoc(t *testing.T) string {
	t.Helper()
	doc := domain.Remittance{
		Header: domain.Header{CheckNumber: "789", CheckAmount: "100.00", PayerName: "Acme Mutual"},
		Claims: []domain.Claim{{
			ClaimID:         1,
			PatientLastName: "Doe",
			Billed:          "100.00",
			Lines: []domain.ServiceLine{{
				CPT:         "99213",
				Billed:      "100.00",
				Paid:        "100.00",
				Adjustments: []domain.Adjustment{},
			}},
		}},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func writeScript(t *testing.T, script any) string {
	t.Helper()
	data, err := json.Marshal(script)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "edits.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestShowCommand(t *testing.T) {
	wireFileEditor(t)
	doc := writeTestDoc(t)

	out, err := executeCLI(t, "show", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Mutual")
	assert.Contains(t, out, "Claim 1 (id 1): Doe")
	assert.Contains(t, out, "Totals: billed 100.00")
}

func TestValidateCommand_CleanScript(t *testing.T) {
	wireFileEditor(t)
	doc := writeTestDoc(t)
	script := writeScript(t, map[string]any{
		"header": map[string]string{"check_number": "1000"},
	})

	out, err := executeCLI(t, "validate", doc, script)
	require.NoError(t, err)
	assert.Contains(t, out, "no validation issues")
}

func TestValidateCommand_ReportsIssues(t *testing.T) {
	wireFileEditor(t)
	doc := writeTestDoc(t)
	script := writeScript(t, map[string]any{
		"lines": []map[string]any{
			{"claim": 1, "line": 1, "fields": map[string]string{"cpt": "12"}},
		},
	})

	out, err := executeCLI(t, "validate", doc, script)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, out, "cpt must be exactly 5 digits")
}

func TestApplyCommand_CommitsAndBacksUp(t *testing.T) {
	wireFileEditor(t)
	doc := writeTestDoc(t)
	script := writeScript(t, map[string]any{
		"claims": []map[string]any{
			{"claim": 1, "fields": map[string]string{"billed": "$1,250.00"}},
		},
	})

	out, err := executeCLI(t, "apply", doc, script)
	require.NoError(t, err)
	assert.Contains(t, out, "Committed")
	assert.Contains(t, out, "field edits: 1")

	data, err := os.ReadFile(doc)
	require.NoError(t, err)
	var saved domain.Remittance
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "1250.00", saved.Claims[0].Billed)

	_, err = os.Stat(doc + ".backup")
	assert.NoError(t, err)
}

func TestApplyCommand_StructuralScript(t *testing.T) {
	wireFileEditor(t)
	doc := writeTestDoc(t)
	script := writeScript(t, map[string]any{
		"structural": []map[string]any{
			{
				"level": "claim", "action": "add", "index": 1,
				"payload": map[string]any{
					"patient_last_name": "Birch",
					"billed":            "50.00",
					"service_lines": []map[string]any{
						{"billed": "50.00", "paid": "50.00", "adjustments": []any{}},
					},
				},
			},
		},
	})

	out, err := executeCLI(t, "apply", doc, script)
	require.NoError(t, err)
	assert.Contains(t, out, "claims: +1 -0")

	data, err := os.ReadFile(doc)
	require.NoError(t, err)
	var saved domain.Remittance
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Len(t, saved.Claims, 2)
	assert.Equal(t, "Birch", saved.Claims[0].PatientLastName)
	assert.Equal(t, 2, saved.Claims[0].ClaimID)
}

func TestImportCommand(t *testing.T) {
	wireFileEditor(t)
	doc := writeTestDoc(t)
	eob := writeTestDoc(t)

	out, err := executeCLI(t, "import", doc, eob, "missing.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 claim(s) from 1 file(s).")
	assert.Contains(t, out, "skipped missing.json")

	data, err := os.ReadFile(doc)
	require.NoError(t, err)
	var saved domain.Remittance
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Len(t, saved.Claims, 2)
	assert.Equal(t, 2, saved.Claims[1].ClaimID)
}

func TestTotalsCommand(t *testing.T) {
	wireFileEditor(t)
	doc := writeTestDoc(t)

	out, err := executeCLI(t, "totals", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "billed 100.00")
	assert.Contains(t, out, "paid 100.00")
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "remitdesk version")
}

func TestShowCommand_EditorUnconfigured(t *testing.T) {
	old := newEditor
	newEditor = nil
	defer func() { newEditor = old }()

	_, err := executeCLI(t, "show", "whatever.json")
	assert.Error(t, err)
}
