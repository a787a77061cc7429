package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditBuffer_LastWriteWins(t *testing.T) {
	b := NewEditBuffer()
	require.NoError(t, b.RecordFieldEdit(FieldEdit{Scope: ScopeClaim, Claim: 1, Key: "billed", Value: "10.00"}))
	require.NoError(t, b.RecordFieldEdit(FieldEdit{Scope: ScopeClaim, Claim: 1, Key: "billed", Value: "20.00"}))
	require.NoError(t, b.RecordFieldEdit(FieldEdit{Scope: ScopeClaim, Claim: 2, Key: "billed", Value: "30.00"}))

	edits := b.FieldEdits()
	require.Len(t, edits, 2)
	assert.Equal(t, "20.00", edits[0].Value)
	assert.Equal(t, "30.00", edits[1].Value)
}

func TestEditBuffer_DistinctTargetsKeptApart(t *testing.T) {
	b := NewEditBuffer()
	require.NoError(t, b.RecordFieldEdit(FieldEdit{Scope: ScopeLine, Claim: 1, Line: 1, Key: "paid", Value: "5.00"}))
	require.NoError(t, b.RecordFieldEdit(FieldEdit{Scope: ScopeLine, Claim: 1, Line: 2, Key: "paid", Value: "6.00"}))
	require.NoError(t, b.RecordFieldEdit(FieldEdit{Scope: ScopeHeader, Key: "paid", Value: "7.00"}))

	assert.Len(t, b.FieldEdits(), 3)
}

func TestEditBuffer_OpsKeepStagingOrder(t *testing.T) {
	b := NewEditBuffer()
	require.NoError(t, b.RecordStructuralOp(StructuralOp{Kind: OpAdd, Level: LevelClaim, Index: 2}))
	require.NoError(t, b.RecordStructuralOp(StructuralOp{Kind: OpDelete, Level: LevelClaim, Index: 1}))
	require.NoError(t, b.RecordStructuralOp(StructuralOp{Kind: OpAdd, Level: LevelLine, Claim: 1, Index: 1}))

	ops := b.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, OpAdd, ops[0].Kind)
	assert.Equal(t, OpDelete, ops[1].Kind)

	assert.Len(t, b.ClaimOps(), 2)
	assert.Len(t, b.LineOps(1), 1)
	assert.Empty(t, b.LineOps(2))
}

func TestEditBuffer_RejectsInvalidOps(t *testing.T) {
	b := NewEditBuffer()
	assert.ErrorIs(t, b.RecordStructuralOp(StructuralOp{Kind: "replace", Level: LevelClaim, Index: 1}), ErrInvalidInput)
	assert.ErrorIs(t, b.RecordStructuralOp(StructuralOp{Kind: OpAdd, Level: "header", Index: 1}), ErrInvalidInput)
	assert.ErrorIs(t, b.RecordStructuralOp(StructuralOp{Kind: OpAdd, Level: LevelClaim, Index: 0}), ErrInvalidInput)
	assert.ErrorIs(t, b.RecordFieldEdit(FieldEdit{Scope: "document", Key: "x"}), ErrInvalidInput)
}

func TestEditBuffer_PendingAndReset(t *testing.T) {
	b := NewEditBuffer()
	assert.False(t, b.Pending())
	assert.Zero(t, b.Len())

	require.NoError(t, b.RecordFieldEdit(FieldEdit{Scope: ScopeHeader, Key: "npi", Value: "123"}))
	require.NoError(t, b.RecordStructuralOp(StructuralOp{Kind: OpDelete, Level: LevelClaim, Index: 1}))
	assert.True(t, b.Pending())
	assert.Equal(t, 2, b.Len())

	b.Reset()
	assert.False(t, b.Pending())
	assert.Empty(t, b.FieldEdits())
	assert.Empty(t, b.Ops())
}
