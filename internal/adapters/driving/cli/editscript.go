package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driving"
)

// editScript is the batch input format: field edits per scope plus structural
// operations, all keyed by 1-based positions as the document stands now.
type editScript struct {
	Header     map[string]string `json:"header,omitempty"`
	Claims     []claimEdits      `json:"claims,omitempty"`
	Lines      []lineEdits       `json:"lines,omitempty"`
	Structural []structuralEntry `json:"structural,omitempty"`
}

type claimEdits struct {
	Claim  int               `json:"claim"`
	Fields map[string]string `json:"fields"`
}

type lineEdits struct {
	Claim  int               `json:"claim"`
	Line   int               `json:"line"`
	Fields map[string]string `json:"fields"`
}

type structuralEntry struct {
	Level   string          `json:"level"`
	Action  string          `json:"action"`
	Claim   int             `json:"claim,omitempty"`
	Index   int             `json:"index"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func loadEditScript(path string) (*editScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading edit script: %w", err)
	}
	var script editScript
	if err := json.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parsing edit script %s: %w", path, err)
	}
	return &script, nil
}

// stageScript stages every entry of the script in file order. The editor owns
// all reconciliation; the script only carries positions and values.
func stageScript(ed driving.Editor, script *editScript) error {
	for key, value := range script.Header {
		err := ed.StageFieldEdit(domain.FieldEdit{Scope: domain.ScopeHeader, Key: key, Value: value})
		if err != nil {
			return fmt.Errorf("header %s: %w", key, err)
		}
	}
	for _, ce := range script.Claims {
		for key, value := range ce.Fields {
			err := ed.StageFieldEdit(domain.FieldEdit{
				Scope: domain.ScopeClaim, Claim: ce.Claim, Key: key, Value: value,
			})
			if err != nil {
				return fmt.Errorf("claim %d %s: %w", ce.Claim, key, err)
			}
		}
	}
	for _, le := range script.Lines {
		for key, value := range le.Fields {
			err := ed.StageFieldEdit(domain.FieldEdit{
				Scope: domain.ScopeLine, Claim: le.Claim, Line: le.Line, Key: key, Value: value,
			})
			if err != nil {
				return fmt.Errorf("claim %d line %d %s: %w", le.Claim, le.Line, key, err)
			}
		}
	}
	for i, se := range script.Structural {
		op, err := se.toOp()
		if err != nil {
			return fmt.Errorf("structural entry %d: %w", i+1, err)
		}
		if err := ed.StageStructuralOp(op); err != nil {
			return fmt.Errorf("structural entry %d: %w", i+1, err)
		}
	}
	return nil
}

func (se structuralEntry) toOp() (domain.StructuralOp, error) {
	op := domain.StructuralOp{
		Kind:  domain.OpKind(se.Action),
		Level: domain.OpLevel(se.Level),
		Claim: se.Claim,
		Index: se.Index,
	}
	if op.Kind != domain.OpAdd || len(se.Payload) == 0 {
		return op, nil
	}

	switch op.Level {
	case domain.LevelClaim:
		var c domain.Claim
		if err := json.Unmarshal(se.Payload, &c); err != nil {
			return op, fmt.Errorf("claim payload: %w", err)
		}
		op.ClaimPayload = &c
	case domain.LevelLine:
		var l domain.ServiceLine
		if err := json.Unmarshal(se.Payload, &l); err != nil {
			return op, fmt.Errorf("line payload: %w", err)
		}
		op.LinePayload = &l
	}
	return op, nil
}
