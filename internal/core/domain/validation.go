package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Issue is one validation finding with a human-readable location.
type Issue struct {
	Location string
	Message  string
}

func (i Issue) String() string {
	if i.Location == "" {
		return i.Message
	}
	return i.Location + ": " + i.Message
}

var (
	moneyRe = regexp.MustCompile(`^-?\d*\.?\d{0,2}$`)
	cptRe   = regexp.MustCompile(`^\d{5}$`)
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	codeRe  = regexp.MustCompile(`^[A-Za-z0-9]{1,5}$`)
)

// NormalizeMoney strips currency symbols, thousands separators and spaces so
// monetary values validate and persist in a uniform form.
func NormalizeMoney(v string) string {
	r := strings.NewReplacer("$", "", ",", "", " ", "")
	return r.Replace(strings.TrimSpace(v))
}

// ValidMoney reports whether a value is an acceptable monetary amount after
// normalisation. Empty values are acceptable; required-field checks are
// separate.
func ValidMoney(v string) bool {
	n := NormalizeMoney(v)
	if n == "" {
		return true
	}
	return moneyRe.MatchString(n)
}

// ValidDate reports whether a value is an acceptable YYYY-MM-DD date.
// Empty values are acceptable.
func ValidDate(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	return dateRe.MatchString(v)
}

// ValidCPT reports whether a value is an acceptable procedure code.
// Empty values are acceptable.
func ValidCPT(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	return cptRe.MatchString(v)
}

// ValidAdjustmentCode reports whether a value is an acceptable adjustment
// group or reason code. Empty values are acceptable.
func ValidAdjustmentCode(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	return codeRe.MatchString(v)
}

// ValidateDocument checks every claim, line and adjustment against the field
// rules and returns the findings in document order. An empty result means the
// document is acceptable.
func ValidateDocument(r *Remittance) []Issue {
	var issues []Issue

	if len(r.Claims) == 0 {
		issues = append(issues, Issue{Message: ErrLastClaim.Error()})
	}
	if !ValidDate(r.Header.CheckDate) {
		issues = append(issues, Issue{Location: "Header", Message: "check_date must be YYYY-MM-DD"})
	}
	if !ValidMoney(r.Header.CheckAmount) {
		issues = append(issues, Issue{Location: "Header", Message: "check_amount is not a valid amount"})
	}

	firstByID := make(map[int]int)
	for ci := range r.Claims {
		c := &r.Claims[ci]
		loc := fmt.Sprintf("Claim %d", ci+1)

		if strings.TrimSpace(c.PatientLastName) == "" {
			issues = append(issues, Issue{Location: loc, Message: "patient_last_name is required"})
		}
		if c.ClaimID < 1 {
			issues = append(issues, Issue{Location: loc, Message: "claim_id is required"})
		} else if first, ok := firstByID[c.ClaimID]; ok {
			issues = append(issues, Issue{Location: loc,
				Message: fmt.Sprintf("claim_id %d duplicates claim %d", c.ClaimID, first)})
		} else {
			firstByID[c.ClaimID] = ci + 1
		}
		if strings.TrimSpace(c.Billed) == "" {
			issues = append(issues, Issue{Location: loc, Message: "billed is required"})
		} else if !ValidMoney(c.Billed) {
			issues = append(issues, Issue{Location: loc, Message: "billed is not a valid amount"})
		}
		if !ValidDate(c.PeriodStartDate) {
			issues = append(issues, Issue{Location: loc, Message: "period_start_date must be YYYY-MM-DD"})
		}
		if !ValidDate(c.PeriodEndDate) {
			issues = append(issues, Issue{Location: loc, Message: "period_end_date must be YYYY-MM-DD"})
		}

		for li := range c.Lines {
			issues = append(issues, validateLine(&c.Lines[li], ci+1, li+1)...)
		}
	}
	return issues
}

func validateLine(l *ServiceLine, claimNo, lineNo int) []Issue {
	var issues []Issue
	loc := fmt.Sprintf("Claim %d, Line %d", claimNo, lineNo)

	if !ValidCPT(l.CPT) {
		issues = append(issues, Issue{Location: loc, Message: "cpt must be exactly 5 digits"})
	}
	if !ValidDate(l.FromDate) {
		issues = append(issues, Issue{Location: loc, Message: "from_date must be YYYY-MM-DD"})
	}
	if !ValidDate(l.ToDate) {
		issues = append(issues, Issue{Location: loc, Message: "to_date must be YYYY-MM-DD"})
	}
	for _, pair := range [...]struct{ key, val string }{
		{"billed", l.Billed},
		{"allowed", l.Allowed},
		{"deduct", l.Deduct},
		{"coins", l.Coins},
		{"copay", l.Copay},
		{"paid", l.Paid},
		{"balance", l.Balance},
	} {
		if !ValidMoney(pair.val) {
			issues = append(issues, Issue{Location: loc, Message: pair.key + " is not a valid amount"})
		}
	}

	for ai, adj := range l.Adjustments {
		aloc := fmt.Sprintf("%s, Adjustment %d", loc, ai+1)
		if !ValidMoney(adj.Amount) {
			issues = append(issues, Issue{Location: aloc, Message: "amount is not a valid amount"})
		}
		if !ValidAdjustmentCode(adj.GroupCode) {
			issues = append(issues, Issue{Location: aloc, Message: "group_code must be 1-5 alphanumeric characters"})
		}
		if !ValidAdjustmentCode(adj.ReasonCode) {
			issues = append(issues, Issue{Location: aloc, Message: "reason_code must be 1-5 alphanumeric characters"})
		}
	}
	return issues
}
