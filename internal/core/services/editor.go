package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driven"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driving"
	"github.com/brightvale-health/remitdesk/internal/logger"
)

// Ensure EditorSession implements the interface.
var _ driving.Editor = (*EditorSession)(nil)

// ValidationFailure aggregates every validator finding of a failed commit.
// Findings are returned in full, never one at a time.
type ValidationFailure struct {
	Issues []domain.Issue
}

func (e *ValidationFailure) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, iss := range e.Issues {
		msgs[i] = iss.String()
	}
	return fmt.Sprintf("%d validation issue(s): %s", len(e.Issues), strings.Join(msgs, "; "))
}

func (e *ValidationFailure) Unwrap() error { return domain.ErrValidation }

// EditorSession owns one open document and one edit buffer. It is the single
// writer for its document path and must not be shared across goroutines.
type EditorSession struct {
	store      driven.RemittanceStore
	watcher    driven.DocumentWatcher
	path       string
	doc        *domain.Remittance
	buffer     *domain.EditBuffer
	committing bool
}

// NewEditorSession loads the document at path and opens a session over it.
// The watcher is optional; when present it guards against external writers.
func NewEditorSession(ctx context.Context, store driven.RemittanceStore, watcher driven.DocumentWatcher, path string) (*EditorSession, error) {
	doc, err := store.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if watcher != nil {
		if err := watcher.Watch(path); err != nil {
			return nil, fmt.Errorf("watching document: %w", err)
		}
	}
	logger.Info("opened %s: %d claim(s)", path, len(doc.Claims))
	return &EditorSession{
		store:   store,
		watcher: watcher,
		path:    path,
		doc:     doc,
		buffer:  domain.NewEditBuffer(),
	}, nil
}

// Document returns the current in-memory document.
func (s *EditorSession) Document() *domain.Remittance {
	return s.doc
}

// StageFieldEdit stages a field change. The key must belong to the fixed
// field set of its scope; references must be positive.
func (s *EditorSession) StageFieldEdit(edit domain.FieldEdit) error {
	switch edit.Scope {
	case domain.ScopeHeader:
		if _, err := (&domain.Header{}).Field(edit.Key); err != nil {
			return err
		}
	case domain.ScopeClaim:
		if edit.Claim < 1 {
			return fmt.Errorf("claim reference %d: %w", edit.Claim, domain.ErrInvalidInput)
		}
		if _, err := (&domain.Claim{}).Field(edit.Key); err != nil {
			return err
		}
	case domain.ScopeLine:
		if edit.Claim < 1 || edit.Line < 1 {
			return fmt.Errorf("line reference %d/%d: %w", edit.Claim, edit.Line, domain.ErrInvalidInput)
		}
		if _, err := (&domain.ServiceLine{}).Field(edit.Key); err != nil {
			return err
		}
	default:
		return fmt.Errorf("edit scope %q: %w", edit.Scope, domain.ErrInvalidInput)
	}
	logger.Debug("staged field edit %s %d/%d %s", edit.Scope, edit.Claim, edit.Line, edit.Key)
	return s.buffer.RecordFieldEdit(edit)
}

// StageStructuralOp stages an add or delete.
func (s *EditorSession) StageStructuralOp(op domain.StructuralOp) error {
	if op.Level == domain.LevelLine && op.Claim < 1 {
		return fmt.Errorf("claim reference %d: %w", op.Claim, domain.ErrInvalidInput)
	}
	logger.Debug("staged %s %s at %d", op.Kind, op.Level, op.Index)
	return s.buffer.RecordStructuralOp(op)
}

// Pending returns the number of staged changes.
func (s *EditorSession) Pending() int {
	return s.buffer.Len()
}

// Validate simulates the staged changes on a copy and reports every finding.
// Unresolvable structural references appear as findings too; they never abort
// the scan.
func (s *EditorSession) Validate() []domain.Issue {
	sim := s.doc.Clone()
	var stats applyStats
	s.applyAll(sim, nil, &stats)

	issues := domain.ValidateDocument(sim)
	for _, sk := range stats.skipped {
		issues = append(issues, domain.Issue{
			Location: editLocation(sk.Edit),
			Message:  sk.Reason,
		})
	}
	return issues
}

// Commit validates, applies and persists the staged changes. Everything runs
// against a deep copy; the copy replaces the session document only after the
// write succeeds, so a persistence failure leaves both the document and the
// buffer intact for retry.
func (s *EditorSession) Commit(ctx context.Context, progress driving.ProgressFunc) (*driving.CommitReceipt, error) {
	if s.committing {
		return nil, domain.ErrCommitInProgress
	}
	s.committing = true
	defer func() { s.committing = false }()

	if s.watcher != nil && s.watcher.Changed() {
		return nil, fmt.Errorf("%s: %w", s.path, domain.ErrStaleDocument)
	}

	// Unresolvable structural references skip their own edit only; they are
	// surfaced in the receipt, not treated as blocking findings.
	emit(progress, driving.StageValidating, 0, 1)
	sim := s.doc.Clone()
	var simStats applyStats
	s.applyAll(sim, nil, &simStats)
	if issues := domain.ValidateDocument(sim); len(issues) > 0 {
		return nil, &ValidationFailure{Issues: issues}
	}
	emit(progress, driving.StageValidating, 1, 1)

	next := s.doc.Clone()
	var stats applyStats
	s.applyAll(next, progress, &stats)

	// The derived claim count is only recomputed when something was staged;
	// a commit over an empty buffer reproduces the document byte for byte.
	if s.buffer.Pending() {
		next.Header.ClaimCount = strconv.Itoa(len(next.Claims))
	}
	advisory := next.PaymentAdvisory()
	if advisory != "" {
		logger.Warn("%s", advisory)
	}

	emit(progress, driving.StagePersisting, 0, 1)
	if err := s.store.BackupAndWrite(ctx, s.path, next); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	emit(progress, driving.StagePersisting, 1, 1)

	s.doc = next
	s.buffer.Reset()
	if s.watcher != nil {
		s.watcher.Reset()
	}

	return &driving.CommitReceipt{
		ID:            uuid.NewString(),
		FieldEdits:    stats.fieldEdits,
		ClaimsAdded:   stats.claimsAdded,
		ClaimsDeleted: stats.claimsDeleted,
		LinesAdded:    stats.linesAdded,
		LinesDeleted:  stats.linesDeleted,
		Placeholders:  stats.placeholders,
		Skipped:       stats.skipped,
		Advisory:      advisory,
		BackupPath:    s.store.BackupPath(s.path),
	}, nil
}

// Discard drops every staged change.
func (s *EditorSession) Discard() {
	s.buffer.Reset()
}

// ImportDocuments appends the claims of external documents with freshly
// assigned claim ids and persists the result. Malformed files are skipped and
// reported; the staging buffer is not involved.
func (s *EditorSession) ImportDocuments(ctx context.Context, paths []string) (*driving.ImportReport, error) {
	report := &driving.ImportReport{Failed: make(map[string]error)}
	next := s.doc.Clone()

	for _, p := range paths {
		imported, err := s.store.Load(ctx, p)
		if err != nil {
			report.Failed[p] = fmt.Errorf("%w: %v", domain.ErrImportMalformed, err)
			logger.Warn("import %s skipped: %v", p, err)
			continue
		}
		for i := range imported.Claims {
			c := imported.Claims[i]
			c.ClaimID = next.NextClaimID()
			c.Normalize()
			next.Claims = append(next.Claims, c)
			report.ClaimsImported++
		}
		report.FilesImported++
	}

	if report.ClaimsImported > 0 {
		next.Header.ClaimCount = strconv.Itoa(len(next.Claims))
		if err := s.store.BackupAndWrite(ctx, s.path, next); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		s.doc = next
		if s.watcher != nil {
			s.watcher.Reset()
		}
	}
	return report, nil
}

// Reload re-reads the document from disk and discards staged changes.
func (s *EditorSession) Reload(ctx context.Context) error {
	doc, err := s.store.Load(ctx, s.path)
	if err != nil {
		return fmt.Errorf("reloading document: %w", err)
	}
	s.doc = doc
	s.buffer.Reset()
	if s.watcher != nil {
		s.watcher.Reset()
	}
	return nil
}

type applyStats struct {
	fieldEdits    int
	claimsAdded   int
	claimsDeleted int
	linesAdded    int
	linesDeleted  int
	placeholders  int
	skipped       []driving.SkippedEdit
}

func (st *applyStats) skip(e domain.FieldEdit, reason string) {
	st.skipped = append(st.skipped, driving.SkippedEdit{Edit: e, Reason: reason})
}

// applyAll mutates doc with every staged change, in the fixed order later
// phases depend on: header fields, claim deletions (descending), claim
// additions (ascending), claim fields, then per claim the same three-phase
// pattern over its lines.
func (s *EditorSession) applyAll(doc *domain.Remittance, progress driving.ProgressFunc, stats *applyStats) {
	claimOps := s.buffer.ClaimOps()
	fieldEdits := s.buffer.FieldEdits()

	for _, e := range fieldEdits {
		if e.Scope != domain.ScopeHeader {
			continue
		}
		if err := doc.Header.SetField(e.Key, editValue(e)); err != nil {
			stats.skip(e, err.Error())
			continue
		}
		stats.fieldEdits++
	}

	emit(progress, driving.StageStructural, 0, len(s.buffer.Ops()))
	s.applyClaimStructure(doc, claimOps, stats)
	emit(progress, driving.StageStructural, len(s.buffer.Ops()), len(s.buffer.Ops()))

	emit(progress, driving.StageFields, 0, len(fieldEdits))
	for _, e := range fieldEdits {
		if e.Scope != domain.ScopeClaim {
			continue
		}
		pos, err := resolvePosition(e.Claim, claimOps)
		if err != nil {
			stats.skip(e, err.Error())
			continue
		}
		s.materializeClaims(doc, pos, stats)
		if err := doc.Claims[pos-1].SetField(e.Key, editValue(e)); err != nil {
			stats.skip(e, err.Error())
			continue
		}
		stats.fieldEdits++
	}

	for _, ref := range s.lineClaimRefs(fieldEdits) {
		s.applyLinePhases(doc, ref, claimOps, fieldEdits, stats)
	}
	emit(progress, driving.StageFields, len(fieldEdits), len(fieldEdits))
}

// applyClaimStructure runs claim deletions then additions and returns the
// deletions that were actually applied.
func (s *EditorSession) applyClaimStructure(doc *domain.Remittance, claimOps []domain.StructuralOp, stats *applyStats) []domain.StructuralOp {
	var applied []domain.StructuralOp
	for _, op := range deletionOrder(claimOps) {
		if op.Index < 1 || op.Index > len(doc.Claims) {
			continue
		}
		doc.Claims = append(doc.Claims[:op.Index-1], doc.Claims[op.Index:]...)
		applied = append(applied, op)
		stats.claimsDeleted++
	}

	adds := additionOrder(claimOps)
	delsBefore := countDeletesBefore(applied)
	for i := range adds {
		pos := insertPosition(adds, i, len(doc.Claims), delsBefore)
		c := domain.Claim{}
		if adds[i].ClaimPayload != nil {
			c = adds[i].ClaimPayload.Clone()
		}
		// A payload id that is zero or already taken gets a fresh one;
		// claim ids stay unique across the document.
		if c.ClaimID == 0 || doc.ClaimIDInUse(c.ClaimID) {
			c.ClaimID = doc.NextClaimID()
		}
		c.Normalize()
		doc.Claims = append(doc.Claims, domain.Claim{})
		copy(doc.Claims[pos:], doc.Claims[pos-1:])
		doc.Claims[pos-1] = c
		stats.claimsAdded++
	}
	return applied
}

// applyLinePhases runs deletions, additions and field edits for the lines of
// the claim staged at position ref.
func (s *EditorSession) applyLinePhases(doc *domain.Remittance, ref int, claimOps []domain.StructuralOp, fieldEdits []domain.FieldEdit, stats *applyStats) {
	pos, err := resolvePosition(ref, claimOps)
	if err != nil {
		for _, e := range fieldEdits {
			if e.Scope == domain.ScopeLine && e.Claim == ref {
				stats.skip(e, err.Error())
			}
		}
		return
	}
	s.materializeClaims(doc, pos, stats)
	claim := &doc.Claims[pos-1]
	lineOps := s.buffer.LineOps(ref)

	var appliedDels []domain.StructuralOp
	for _, op := range deletionOrder(lineOps) {
		if op.Index < 1 || op.Index > len(claim.Lines) {
			continue
		}
		claim.Lines = append(claim.Lines[:op.Index-1], claim.Lines[op.Index:]...)
		appliedDels = append(appliedDels, op)
		stats.linesDeleted++
	}
	if len(claim.Lines) == 0 {
		claim.Normalize()
	}

	adds := additionOrder(lineOps)
	delsBefore := countDeletesBefore(appliedDels)
	for i := range adds {
		lpos := insertPosition(adds, i, len(claim.Lines), delsBefore)
		l := domain.NewServiceLine()
		if adds[i].LinePayload != nil {
			l = *adds[i].LinePayload
			l.Adjustments = append([]domain.Adjustment(nil), adds[i].LinePayload.Adjustments...)
		}
		claim.Lines = append(claim.Lines, domain.ServiceLine{})
		copy(claim.Lines[lpos:], claim.Lines[lpos-1:])
		claim.Lines[lpos-1] = l
		stats.linesAdded++
	}

	for _, e := range fieldEdits {
		if e.Scope != domain.ScopeLine || e.Claim != ref {
			continue
		}
		lpos, err := resolvePosition(e.Line, lineOps)
		if err != nil {
			stats.skip(e, err.Error())
			continue
		}
		for len(claim.Lines) < lpos {
			claim.Lines = append(claim.Lines, domain.NewServiceLine())
			stats.placeholders++
		}
		if err := claim.Lines[lpos-1].SetField(e.Key, editValue(e)); err != nil {
			stats.skip(e, err.Error())
			continue
		}
		stats.fieldEdits++
	}
}

// materializeClaims grows the claim list with defaulted placeholders so that
// position pos exists. Placeholders take fresh claim ids.
func (s *EditorSession) materializeClaims(doc *domain.Remittance, pos int, stats *applyStats) {
	for len(doc.Claims) < pos {
		doc.Claims = append(doc.Claims, domain.NewClaim(doc.NextClaimID()))
		stats.placeholders++
	}
}

// lineClaimRefs returns the distinct staging-time claim references touched by
// line-level work, in first-staged order.
func (s *EditorSession) lineClaimRefs(fieldEdits []domain.FieldEdit) []int {
	seen := make(map[int]bool)
	var refs []int
	for _, op := range s.buffer.Ops() {
		if op.Level == domain.LevelLine && !seen[op.Claim] {
			seen[op.Claim] = true
			refs = append(refs, op.Claim)
		}
	}
	for _, e := range fieldEdits {
		if e.Scope == domain.ScopeLine && !seen[e.Claim] {
			seen[e.Claim] = true
			refs = append(refs, e.Claim)
		}
	}
	return refs
}

// editValue returns the staged value, normalised for monetary keys so
// "$1,234.56" persists as "1234.56".
func editValue(e domain.FieldEdit) string {
	if domain.MoneyKey(e.Key) {
		return domain.NormalizeMoney(e.Value)
	}
	return e.Value
}

func editLocation(e domain.FieldEdit) string {
	switch e.Scope {
	case domain.ScopeHeader:
		return "Header"
	case domain.ScopeClaim:
		return fmt.Sprintf("Claim %d", e.Claim)
	default:
		return fmt.Sprintf("Claim %d, Line %d", e.Claim, e.Line)
	}
}

func emit(p driving.ProgressFunc, stage driving.ProgressStage, done, total int) {
	if p != nil {
		p(stage, done, total)
	}
}
