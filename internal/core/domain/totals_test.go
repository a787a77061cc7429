package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimTotals(t *testing.T) {
	c := Claim{Lines: []ServiceLine{
		{Billed: "100.00", Allowed: "80.00", Paid: "75.00"},
		{Billed: "50.00", Allowed: "40.00", Paid: "40.00"},
	}}

	ct := c.Totals()
	assert.InDelta(t, 150.00, ct.Billed, 0.001)
	assert.InDelta(t, 120.00, ct.Allowed, 0.001)
	assert.InDelta(t, 115.00, ct.Paid, 0.001)
}

func TestTotals_UnparsableCountsAsZero(t *testing.T) {
	c := Claim{Lines: []ServiceLine{
		{Billed: "garbage", Paid: "10.00"},
		{Billed: "", Paid: "n/a"},
	}}

	ct := c.Totals()
	assert.InDelta(t, 0.0, ct.Billed, 0.001)
	assert.InDelta(t, 10.00, ct.Paid, 0.001)
}

func TestDocumentTotals(t *testing.T) {
	r := Remittance{Claims: []Claim{
		{Lines: []ServiceLine{{Billed: "$1,000.00", Paid: "800.00"}}},
		{Lines: []ServiceLine{{Billed: "500.00", Paid: "400.00"}}},
	}}

	dt := r.Totals()
	assert.InDelta(t, 1500.00, dt.Billed, 0.001)
	assert.InDelta(t, 1200.00, dt.Paid, 0.001)
	assert.Len(t, dt.Claims, 2)
}

func TestPaymentAdvisory_Threshold(t *testing.T) {
	within := Remittance{
		Header: Header{CheckAmount: "100.00"},
		Claims: []Claim{{Lines: []ServiceLine{{Paid: "100.004"}}}},
	}
	assert.Empty(t, within.PaymentAdvisory())

	beyond := Remittance{
		Header: Header{CheckAmount: "100.00"},
		Claims: []Claim{{Lines: []ServiceLine{{Paid: "100.02"}}}},
	}
	assert.NotEmpty(t, beyond.PaymentAdvisory())
}
