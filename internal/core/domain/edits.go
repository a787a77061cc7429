package domain

import "fmt"

// EditScope identifies which level of the document a field edit targets.
type EditScope string

const (
	ScopeHeader EditScope = "header"
	ScopeClaim  EditScope = "claim"
	ScopeLine   EditScope = "line"
)

// OpKind is the kind of a structural operation.
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpDelete OpKind = "delete"
)

// OpLevel is the document level a structural operation acts on.
type OpLevel string

const (
	LevelClaim OpLevel = "claim"
	LevelLine  OpLevel = "line"
)

// FieldEdit is one staged field change. Claim and Line are 1-based positions
// as they stood when the edit was staged; Line is zero for header and claim
// scope, Claim is zero for header scope.
type FieldEdit struct {
	Scope EditScope
	Claim int
	Line  int
	Key   string
	Value string
}

// StructuralOp is one staged add or delete. Index is the 1-based position the
// operation referred to at staging time: for deletes, the position of the
// element to remove; for adds, the position the new element should occupy.
// For line-level ops, Claim is the 1-based position of the owning claim.
type StructuralOp struct {
	Kind  OpKind
	Level OpLevel
	Claim int
	Index int

	// Exactly one payload is set for adds, matching Level. Nil payloads
	// materialise as fully defaulted elements.
	ClaimPayload *Claim
	LinePayload  *ServiceLine
}

// EditBuffer accumulates staged changes without touching the document.
// Field edits are last-write-wins per (scope, claim, line, key); structural
// operations are append-only in staging order, which is the order every
// later position reconciliation replays them in.
type EditBuffer struct {
	fields     []FieldEdit
	fieldIndex map[fieldKey]int
	ops        []StructuralOp
}

type fieldKey struct {
	scope EditScope
	claim int
	line  int
	key   string
}

// NewEditBuffer returns an empty buffer.
func NewEditBuffer() *EditBuffer {
	return &EditBuffer{fieldIndex: make(map[fieldKey]int)}
}

// RecordFieldEdit stages a field change. Re-staging the same target replaces
// the previous value in place, keeping the first-staged slot.
func (b *EditBuffer) RecordFieldEdit(e FieldEdit) error {
	switch e.Scope {
	case ScopeHeader, ScopeClaim, ScopeLine:
	default:
		return fmt.Errorf("edit scope %q: %w", e.Scope, ErrInvalidInput)
	}
	k := fieldKey{scope: e.Scope, claim: e.Claim, line: e.Line, key: e.Key}
	if i, ok := b.fieldIndex[k]; ok {
		b.fields[i].Value = e.Value
		return nil
	}
	b.fieldIndex[k] = len(b.fields)
	b.fields = append(b.fields, e)
	return nil
}

// RecordStructuralOp stages an add or delete.
func (b *EditBuffer) RecordStructuralOp(op StructuralOp) error {
	if op.Kind != OpAdd && op.Kind != OpDelete {
		return fmt.Errorf("op kind %q: %w", op.Kind, ErrInvalidInput)
	}
	if op.Level != LevelClaim && op.Level != LevelLine {
		return fmt.Errorf("op level %q: %w", op.Level, ErrInvalidInput)
	}
	if op.Index < 1 {
		return fmt.Errorf("op index %d: %w", op.Index, ErrInvalidInput)
	}
	b.ops = append(b.ops, op)
	return nil
}

// FieldEdits returns the staged field edits in first-staged order.
func (b *EditBuffer) FieldEdits() []FieldEdit {
	return b.fields
}

// Ops returns all staged structural operations in staging order.
func (b *EditBuffer) Ops() []StructuralOp {
	return b.ops
}

// ClaimOps returns the claim-level structural operations in staging order.
func (b *EditBuffer) ClaimOps() []StructuralOp {
	var out []StructuralOp
	for _, op := range b.ops {
		if op.Level == LevelClaim {
			out = append(out, op)
		}
	}
	return out
}

// LineOps returns the line-level structural operations staged against the
// claim at the given staging-time position, in staging order.
func (b *EditBuffer) LineOps(claimRef int) []StructuralOp {
	var out []StructuralOp
	for _, op := range b.ops {
		if op.Level == LevelLine && op.Claim == claimRef {
			out = append(out, op)
		}
	}
	return out
}

// Pending reports whether anything is staged.
func (b *EditBuffer) Pending() bool {
	return len(b.fields) > 0 || len(b.ops) > 0
}

// Len returns the number of staged field edits plus structural operations.
func (b *EditBuffer) Len() int {
	return len(b.fields) + len(b.ops)
}

// Reset discards every staged change.
func (b *EditBuffer) Reset() {
	b.fields = nil
	b.ops = nil
	b.fieldIndex = make(map[fieldKey]int)
}
