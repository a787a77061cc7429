package domain

import (
	"math"
	"strconv"
)

// ClaimTotals is the billed/allowed/paid summary for one claim.
type ClaimTotals struct {
	Billed  float64
	Allowed float64
	Paid    float64
}

// DocumentTotals is the document-wide summary plus the per-claim breakdown.
type DocumentTotals struct {
	Billed  float64
	Allowed float64
	Paid    float64
	Claims  []ClaimTotals
}

// parseAmount converts a monetary field to a number. Unparsable values count
// as zero so totals stay computable over partially keyed documents.
func parseAmount(v string) float64 {
	f, err := strconv.ParseFloat(NormalizeMoney(v), 64)
	if err != nil {
		return 0
	}
	return f
}

// Totals sums this claim's service lines.
func (c *Claim) Totals() ClaimTotals {
	var t ClaimTotals
	for i := range c.Lines {
		t.Billed += parseAmount(c.Lines[i].Billed)
		t.Allowed += parseAmount(c.Lines[i].Allowed)
		t.Paid += parseAmount(c.Lines[i].Paid)
	}
	return t
}

// Totals sums every claim in the document.
func (r *Remittance) Totals() DocumentTotals {
	t := DocumentTotals{Claims: make([]ClaimTotals, 0, len(r.Claims))}
	for i := range r.Claims {
		ct := r.Claims[i].Totals()
		t.Claims = append(t.Claims, ct)
		t.Billed += ct.Billed
		t.Allowed += ct.Allowed
		t.Paid += ct.Paid
	}
	return t
}

// PaymentAdvisory compares the header check amount against the total paid.
// It returns a non-empty message when they differ by more than a cent.
// Advisory only, never blocks a commit.
func (r *Remittance) PaymentAdvisory() string {
	check := parseAmount(r.Header.CheckAmount)
	paid := r.Totals().Paid
	if math.Abs(check-paid) > 0.01 {
		return "check amount " + strconv.FormatFloat(check, 'f', 2, 64) +
			" does not match total paid " + strconv.FormatFloat(paid, 'f', 2, 64)
	}
	return ""
}
