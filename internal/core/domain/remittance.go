package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format for all date fields.
const DateLayout = "2006-01-02"

// Remittance is the canonical document for one editing session: a header of
// scalar fields plus an ordered list of claims. Claim order defines the claim
// number (1-based position); the number is purely positional and shifts as
// claims are inserted or deleted. ClaimID is the stable identity.
type Remittance struct {
	Header Header  `json:"header"`
	Claims []Claim `json:"claims"`
}

// Header holds the file- and transaction-level scalar fields.
// The field set is closed; lookups go through Field/SetField by wire key.
type Header struct {
	JobFilename        string `json:"job_filename"`
	OutFilename        string `json:"out_filename"`
	JobFilepath        string `json:"job_filepath"`
	MLStatus           string `json:"ml_status"`
	JobID              string `json:"job_id"`
	ClientName         string `json:"client_name"`
	ClaimCount         string `json:"claim_count"`
	AutopopulateStatus string `json:"autopopulate_status"`
	TransactionID      string `json:"transaction_id"`
	NPI                string `json:"npi"`
	DefaultNPI         string `json:"default_npi"`
	TaxID              string `json:"tax_id"`
	PaymentMethod      string `json:"payment_method"`
	CheckNumber        string `json:"check_number"`
	CheckDate          string `json:"check_date"`
	CheckAmount        string `json:"check_amount"`
	RemainingAmount    string `json:"remaining_amount"`
	PayeeName          string `json:"payee_name"`
	PayerName          string `json:"payer_name"`
}

// Claim is one billing record grouping one or more service lines.
type Claim struct {
	// ClaimID is a unique positive integer, assigned monotonically and
	// never reused, even after deletions. Not positional.
	ClaimID int `json:"claim_id"`

	PatientAccountNo    string `json:"patient_account_no"`
	PayerClaimID        string `json:"payer_claim_id"`
	PayerAccountNumber  string `json:"payer_account_number"`
	PeriodStartDate     string `json:"period_start_date"`
	PeriodEndDate       string `json:"period_end_date"`
	StatusCode          string `json:"status_code"`
	PatientFirstName    string `json:"patient_first_name"`
	PatientMiddleName   string `json:"patient_middle_name"`
	PatientLastName     string `json:"patient_last_name"`
	PatientIdentifier   string `json:"patient_identifier"`
	SubscriberFirstName string `json:"subscriber_first_name"`
	SubscriberLastName  string `json:"subscriber_last_name"`
	SubscriberID        string `json:"subscriber_identifier"`
	ProviderFirstName   string `json:"rendering_provider_first_name"`
	ProviderLastName    string `json:"rendering_provider_last_name"`
	ProviderIdentifier  string `json:"rendering_provider_identifier"`
	Billed              string `json:"billed"`

	// Lines is the ordered service-line list. Always non-empty after
	// normalisation.
	Lines []ServiceLine `json:"service_lines"`
}

// ServiceLine is one itemised charge entry. The key set is fixed and closed;
// every line is normalised so all keys exist with typed defaults.
type ServiceLine struct {
	FromDate    string       `json:"from_date"`
	ToDate      string       `json:"to_date"`
	CPT         string       `json:"cpt"`
	Units       string       `json:"units"`
	Billed      string       `json:"billed"`
	Allowed     string       `json:"allowed"`
	Deduct      string       `json:"deduct"`
	Coins       string       `json:"coins"`
	Copay       string       `json:"copay"`
	Paid        string       `json:"paid"`
	Balance     string       `json:"balance"`
	GroupCode   string       `json:"group_code"`
	Remark      string       `json:"remark"`
	Adjustments []Adjustment `json:"adjustments"`
}

// Adjustment is one entry of a service line's adjustment sub-list.
type Adjustment struct {
	GroupCode  string `json:"group_code"`
	ReasonCode string `json:"reason_code"`
	Amount     string `json:"amount"`
	Remark     string `json:"remark"`
}

// NewServiceLine returns a fully defaulted service line. The from-date
// defaults to today, matching how new lines are seeded for keyers.
func NewServiceLine() ServiceLine {
	return ServiceLine{
		FromDate:    time.Now().Format(DateLayout),
		Adjustments: []Adjustment{},
	}
}

// NewClaim returns a defaulted claim with the given id and one default line.
func NewClaim(id int) Claim {
	return Claim{
		ClaimID: id,
		Lines:   []ServiceLine{NewServiceLine()},
	}
}

// Normalize repairs the document shape in place: at least one claim, at least
// one line per claim, and non-nil adjustment lists. Downstream code never
// branches on missing keys or nil lists.
func (r *Remittance) Normalize() {
	if len(r.Claims) == 0 {
		r.Claims = []Claim{NewClaim(r.NextClaimID())}
	}
	for i := range r.Claims {
		r.Claims[i].Normalize()
	}
}

// Normalize repairs the claim shape in place.
func (c *Claim) Normalize() {
	if len(c.Lines) == 0 {
		c.Lines = []ServiceLine{NewServiceLine()}
	}
	for i := range c.Lines {
		if c.Lines[i].Adjustments == nil {
			c.Lines[i].Adjustments = []Adjustment{}
		}
	}
}

// NextClaimID scans existing ids and returns max+1. Never returns 0 and never
// reuses an id: deleted ids leave gaps, ids are not repacked.
func (r *Remittance) NextClaimID() int {
	max := 0
	for i := range r.Claims {
		if r.Claims[i].ClaimID > max {
			max = r.Claims[i].ClaimID
		}
	}
	return max + 1
}

// ClaimIDInUse reports whether any claim currently carries the given id.
func (r *Remittance) ClaimIDInUse(id int) bool {
	for i := range r.Claims {
		if r.Claims[i].ClaimID == id {
			return true
		}
	}
	return false
}

// ClaimAt returns the claim at the given 1-based position.
func (r *Remittance) ClaimAt(pos int) (*Claim, error) {
	if pos < 1 || pos > len(r.Claims) {
		return nil, fmt.Errorf("claim %d: %w", pos, ErrNotFound)
	}
	return &r.Claims[pos-1], nil
}

// LineAt returns the service line at the given 1-based position.
func (c *Claim) LineAt(pos int) (*ServiceLine, error) {
	if pos < 1 || pos > len(c.Lines) {
		return nil, fmt.Errorf("line %d: %w", pos, ErrNotFound)
	}
	return &c.Lines[pos-1], nil
}

// Clone returns a deep copy of the document. Commit applies staged edits to a
// clone and swaps it in only after persistence succeeds.
func (r *Remittance) Clone() *Remittance {
	out := &Remittance{Header: r.Header, Claims: make([]Claim, len(r.Claims))}
	for i := range r.Claims {
		out.Claims[i] = r.Claims[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the claim.
func (c *Claim) Clone() Claim {
	out := *c
	out.Lines = make([]ServiceLine, len(c.Lines))
	for i := range c.Lines {
		out.Lines[i] = c.Lines[i]
		out.Lines[i].Adjustments = append([]Adjustment(nil), c.Lines[i].Adjustments...)
	}
	return out
}

// Field returns a header field by its wire key.
func (h *Header) Field(key string) (string, error) {
	p, err := h.fieldPtr(key)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// SetField overwrites a header field by its wire key.
func (h *Header) SetField(key, value string) error {
	p, err := h.fieldPtr(key)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

func (h *Header) fieldPtr(key string) (*string, error) {
	switch key {
	case "job_filename":
		return &h.JobFilename, nil
	case "out_filename":
		return &h.OutFilename, nil
	case "job_filepath":
		return &h.JobFilepath, nil
	case "ml_status":
		return &h.MLStatus, nil
	case "job_id":
		return &h.JobID, nil
	case "client_name":
		return &h.ClientName, nil
	case "claim_count":
		return &h.ClaimCount, nil
	case "autopopulate_status":
		return &h.AutopopulateStatus, nil
	case "transaction_id":
		return &h.TransactionID, nil
	case "npi":
		return &h.NPI, nil
	case "default_npi":
		return &h.DefaultNPI, nil
	case "tax_id":
		return &h.TaxID, nil
	case "payment_method":
		return &h.PaymentMethod, nil
	case "check_number":
		return &h.CheckNumber, nil
	case "check_date":
		return &h.CheckDate, nil
	case "check_amount":
		return &h.CheckAmount, nil
	case "remaining_amount":
		return &h.RemainingAmount, nil
	case "payee_name":
		return &h.PayeeName, nil
	case "payer_name":
		return &h.PayerName, nil
	}
	return nil, fmt.Errorf("header field %q: %w", key, ErrUnknownField)
}

// Field returns a claim field by its wire key. ClaimID is rendered as text so
// callers see a uniform scalar view.
func (c *Claim) Field(key string) (string, error) {
	if key == "claim_id" {
		return strconv.Itoa(c.ClaimID), nil
	}
	p, err := c.fieldPtr(key)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// SetField overwrites a claim field by its wire key.
func (c *Claim) SetField(key, value string) error {
	if key == "claim_id" {
		id, err := strconv.Atoi(value)
		if err != nil || id < 1 {
			return fmt.Errorf("claim_id %q: %w", value, ErrInvalidInput)
		}
		c.ClaimID = id
		return nil
	}
	p, err := c.fieldPtr(key)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

func (c *Claim) fieldPtr(key string) (*string, error) {
	switch key {
	case "patient_account_no":
		return &c.PatientAccountNo, nil
	case "payer_claim_id":
		return &c.PayerClaimID, nil
	case "payer_account_number":
		return &c.PayerAccountNumber, nil
	case "period_start_date":
		return &c.PeriodStartDate, nil
	case "period_end_date":
		return &c.PeriodEndDate, nil
	case "status_code":
		return &c.StatusCode, nil
	case "patient_first_name":
		return &c.PatientFirstName, nil
	case "patient_middle_name":
		return &c.PatientMiddleName, nil
	case "patient_last_name":
		return &c.PatientLastName, nil
	case "patient_identifier":
		return &c.PatientIdentifier, nil
	case "subscriber_first_name":
		return &c.SubscriberFirstName, nil
	case "subscriber_last_name":
		return &c.SubscriberLastName, nil
	case "subscriber_identifier":
		return &c.SubscriberID, nil
	case "rendering_provider_first_name":
		return &c.ProviderFirstName, nil
	case "rendering_provider_last_name":
		return &c.ProviderLastName, nil
	case "rendering_provider_identifier":
		return &c.ProviderIdentifier, nil
	case "billed":
		return &c.Billed, nil
	}
	return nil, fmt.Errorf("claim field %q: %w", key, ErrUnknownField)
}

// Field returns a line field by its wire key. The adjustment list is rendered
// as its JSON form.
func (l *ServiceLine) Field(key string) (string, error) {
	if key == "adjustments" {
		data, err := json.Marshal(l.Adjustments)
		if err != nil {
			return "", fmt.Errorf("marshalling adjustments: %w", err)
		}
		return string(data), nil
	}
	p, err := l.fieldPtr(key)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// SetField overwrites a line field by its wire key. The adjustments key
// accepts a JSON list of adjustment records.
func (l *ServiceLine) SetField(key, value string) error {
	if key == "adjustments" {
		var adjs []Adjustment
		if err := json.Unmarshal([]byte(value), &adjs); err != nil {
			return fmt.Errorf("adjustments %q: %w", value, ErrInvalidInput)
		}
		if adjs == nil {
			adjs = []Adjustment{}
		}
		l.Adjustments = adjs
		return nil
	}
	p, err := l.fieldPtr(key)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

func (l *ServiceLine) fieldPtr(key string) (*string, error) {
	switch key {
	case "from_date":
		return &l.FromDate, nil
	case "to_date":
		return &l.ToDate, nil
	case "cpt":
		return &l.CPT, nil
	case "units":
		return &l.Units, nil
	case "billed":
		return &l.Billed, nil
	case "allowed":
		return &l.Allowed, nil
	case "deduct":
		return &l.Deduct, nil
	case "coins":
		return &l.Coins, nil
	case "copay":
		return &l.Copay, nil
	case "paid":
		return &l.Paid, nil
	case "balance":
		return &l.Balance, nil
	case "group_code":
		return &l.GroupCode, nil
	case "remark":
		return &l.Remark, nil
	}
	return nil, fmt.Errorf("line field %q: %w", key, ErrUnknownField)
}

// MoneyKey reports whether a field key holds a monetary amount.
// Monetary field-edit values are stored in normalised form.
func MoneyKey(key string) bool {
	switch key {
	case "billed", "allowed", "deduct", "coins", "copay", "paid",
		"balance", "check_amount", "remaining_amount", "amount":
		return true
	}
	return false
}
