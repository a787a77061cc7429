package services

import (
	"fmt"
	"sort"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
)

// resolvePosition maps a 1-based staging-time position to its final position
// by replaying the structural operations for that list. An add staged at the
// reference position lands exactly there, so a reference to a newly added
// element resolves to the element itself without a special case.
func resolvePosition(ref int, ops []domain.StructuralOp) (int, error) {
	adjusted := ref
	for _, op := range ops {
		if op.Index >= ref {
			continue
		}
		switch op.Kind {
		case domain.OpAdd:
			adjusted++
		case domain.OpDelete:
			adjusted--
		}
	}
	if adjusted < 1 {
		return 0, fmt.Errorf("position %d resolves to %d: %w", ref, adjusted, domain.ErrStructuralReference)
	}
	return adjusted, nil
}

// deletionOrder returns the delete operations sorted by descending
// staging-time index, so applying them never shifts a later target.
func deletionOrder(ops []domain.StructuralOp) []domain.StructuralOp {
	var dels []domain.StructuralOp
	for _, op := range ops {
		if op.Kind == domain.OpDelete {
			dels = append(dels, op)
		}
	}
	sort.SliceStable(dels, func(i, j int) bool { return dels[i].Index > dels[j].Index })
	return dels
}

// additionOrder returns the add operations sorted by ascending staging-time
// index. The sort is stable so same-position adds keep staging order and each
// lands after the previously inserted one.
func additionOrder(ops []domain.StructuralOp) []domain.StructuralOp {
	var adds []domain.StructuralOp
	for _, op := range ops {
		if op.Kind == domain.OpAdd {
			adds = append(adds, op)
		}
	}
	sort.SliceStable(adds, func(i, j int) bool { return adds[i].Index < adds[j].Index })
	return adds
}

// insertPosition computes the 1-based slot for the add at slot i of the
// addition order, against a list of the given current length. Deletions are
// already applied when additions run; previously inserted adds all sit at or
// before this one's slot, so each shifts it by one.
func insertPosition(adds []domain.StructuralOp, i, listLen int, deletesBefore func(index int) int) int {
	pos := adds[i].Index - deletesBefore(adds[i].Index) + i
	if pos < 1 {
		pos = 1
	}
	if pos > listLen+1 {
		pos = listLen + 1
	}
	return pos
}

// countDeletesBefore returns a counter of delete operations with a
// staging-time index strictly below the given index.
func countDeletesBefore(ops []domain.StructuralOp) func(index int) int {
	return func(index int) int {
		n := 0
		for _, op := range ops {
			if op.Kind == domain.OpDelete && op.Index < index {
				n++
			}
		}
		return n
	}
}
