package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driving"
)

var showCmd = &cobra.Command{
	Use:   "show [document]",
	Short: "Print a document's header, claims and totals",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate [document] [edit-script]",
	Short: "Validate staged edits without committing",
	Long: `Stages the edit script against the document and reports every
validation finding. Nothing is written; the document is untouched.`,
	Args: cobra.ExactArgs(2),
	RunE: runValidate,
}

var applyCmd = &cobra.Command{
	Use:   "apply [document] [edit-script]",
	Short: "Stage, validate, commit and persist an edit script",
	Long: `Stages the edit script, validates it, applies it with positions
reconciled against the staged structural changes, recomputes totals, and
writes the document after backing up the prior state.`,
	Args: cobra.ExactArgs(2),
	RunE: runApply,
}

var totalsCmd = &cobra.Command{
	Use:   "totals [document]",
	Short: "Print billed/allowed/paid totals and the payment advisory",
	Args:  cobra.ExactArgs(1),
	RunE:  runTotals,
}

var importCmd = &cobra.Command{
	Use:   "import [document] [eob-file]...",
	Short: "Append claims from other documents",
	Long: `Loads each additional document and appends its claims with freshly
assigned claim ids. Malformed files are skipped and reported; the rest
import normally.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(totalsCmd)
	rootCmd.AddCommand(importCmd)
}

func openEditor(path string) (driving.Editor, error) {
	if newEditor == nil {
		return nil, errors.New("editor not configured")
	}
	return newEditor(path)
}

func runShow(cmd *cobra.Command, args []string) error {
	ed, err := openEditor(args[0])
	if err != nil {
		return err
	}

	doc := ed.Document()
	cmd.Printf("Payer: %s  Payee: %s\n", doc.Header.PayerName, doc.Header.PayeeName)
	cmd.Printf("Check %s dated %s for %s (%s)\n",
		doc.Header.CheckNumber, doc.Header.CheckDate, doc.Header.CheckAmount, doc.Header.PaymentMethod)
	cmd.Printf("Claims: %d\n\n", len(doc.Claims))

	for i := range doc.Claims {
		c := &doc.Claims[i]
		ct := c.Totals()
		cmd.Printf("Claim %d (id %d): %s, %s - billed %.2f allowed %.2f paid %.2f, %d line(s)\n",
			i+1, c.ClaimID, c.PatientLastName, c.PatientFirstName,
			ct.Billed, ct.Allowed, ct.Paid, len(c.Lines))
		for j := range c.Lines {
			l := &c.Lines[j]
			cmd.Printf("  Line %d: %s %s-%s billed %s paid %s\n",
				j+1, l.CPT, l.FromDate, l.ToDate, l.Billed, l.Paid)
		}
	}

	printTotals(cmd, doc)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	ed, err := openEditor(args[0])
	if err != nil {
		return err
	}
	script, err := loadEditScript(args[1])
	if err != nil {
		return err
	}
	if err := stageScript(ed, script); err != nil {
		return err
	}

	issues := ed.Validate()
	if len(issues) == 0 {
		cmd.Printf("OK: %d staged change(s), no validation issues.\n", ed.Pending())
		return nil
	}
	for _, iss := range issues {
		cmd.Printf("  %s\n", iss.String())
	}
	return fmt.Errorf("%d validation issue(s): %w", len(issues), domain.ErrValidation)
}

func runApply(cmd *cobra.Command, args []string) error {
	ed, err := openEditor(args[0])
	if err != nil {
		return err
	}
	script, err := loadEditScript(args[1])
	if err != nil {
		return err
	}
	if err := stageScript(ed, script); err != nil {
		return err
	}

	progress := func(stage driving.ProgressStage, done, total int) {
		cmd.Printf("  [%s] %d/%d\n", stage, done, total)
	}
	receipt, err := ed.Commit(context.Background(), progress)
	if err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}

	cmd.Printf("Committed %s\n", receipt.ID)
	cmd.Printf("  field edits: %d\n", receipt.FieldEdits)
	cmd.Printf("  claims: +%d -%d  lines: +%d -%d\n",
		receipt.ClaimsAdded, receipt.ClaimsDeleted, receipt.LinesAdded, receipt.LinesDeleted)
	if receipt.Placeholders > 0 {
		cmd.Printf("  placeholders materialized: %d\n", receipt.Placeholders)
	}
	for _, sk := range receipt.Skipped {
		cmd.Printf("  skipped %s %s: %s\n", sk.Edit.Scope, sk.Edit.Key, sk.Reason)
	}
	if receipt.Advisory != "" {
		cmd.Printf("  advisory: %s\n", receipt.Advisory)
	}
	cmd.Printf("  backup: %s\n", receipt.BackupPath)
	return nil
}

func runTotals(cmd *cobra.Command, args []string) error {
	ed, err := openEditor(args[0])
	if err != nil {
		return err
	}
	printTotals(cmd, ed.Document())
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ed, err := openEditor(args[0])
	if err != nil {
		return err
	}

	report, err := ed.ImportDocuments(context.Background(), args[1:])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %d claim(s) from %d file(s).\n", report.ClaimsImported, report.FilesImported)
	if len(report.Failed) > 0 {
		paths := make([]string, 0, len(report.Failed))
		for p := range report.Failed {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			cmd.Printf("  skipped %s: %v\n", p, report.Failed[p])
		}
	}
	return nil
}

func printTotals(cmd *cobra.Command, doc *domain.Remittance) {
	t := doc.Totals()
	cmd.Printf("\nTotals: billed %.2f  allowed %.2f  paid %.2f across %d claim(s)\n",
		t.Billed, t.Allowed, t.Paid, len(t.Claims))
	if advisory := doc.PaymentAdvisory(); advisory != "" {
		cmd.Printf("Advisory: %s\n", advisory)
	}
}
