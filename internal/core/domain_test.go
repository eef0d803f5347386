package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-01-31" {
		t.Errorf("expected 2024-01-31, got %s", d.String())
	}

	for _, bad := range []string{"", "31/01/2024", "2024-13-01", "today"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("%q expected error", bad)
		}
	}
}

func TestParseInterval(t *testing.T) {
	cases := map[string]Interval{
		"weekly":    Weekly,
		"monthly":   Monthly,
		"quarterly": Quarterly,
		"annual":    Annual,
		"ANNUAL":    Annual,
		"":          Monthly,
		"biweekly":  Monthly, // unrecognized falls back to monthly
	}
	for in, want := range cases {
		if got := ParseInterval(in); got != want {
			t.Errorf("ParseInterval(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestPaymentMethodOrCash(t *testing.T) {
	cases := map[string]PaymentMethod{
		"pix":         Pix,
		"card":        Card,
		"transfer":    Transfer,
		"cash":        Cash,
		"PIX":         Pix,
		"":            Cash,
		"boleto":      Cash,
		"credit card": Cash,
	}
	for in, want := range cases {
		if got := PaymentMethodOrCash(in); got != want {
			t.Errorf("PaymentMethodOrCash(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestBillValidate(t *testing.T) {
	valid := Bill{
		UserID:        "u1",
		Kind:          Payable,
		Amount:        decimal.NewFromInt(100),
		DueDate:       NewDate(2024, 6, 1),
		PartyName:     "supplier",
		PaymentMethod: Pix,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid bill rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Bill)
	}{
		{"missing user", func(b *Bill) { b.UserID = "" }},
		{"bad kind", func(b *Bill) { b.Kind = "loan" }},
		{"zero amount", func(b *Bill) { b.Amount = decimal.Zero }},
		{"negative amount", func(b *Bill) { b.Amount = decimal.NewFromInt(-5) }},
		{"zero date", func(b *Bill) { b.DueDate = Date{} }},
		{"bad payment method", func(b *Bill) { b.PaymentMethod = "check" }},
		{"negative recurrence count", func(b *Bill) {
			b.Recurrence = RecurrencePolicy{IsRecurring: true, Count: -1}
		}},
		{"end date before due date", func(b *Bill) {
			b.Recurrence = RecurrencePolicy{IsRecurring: true, EndDate: NewDate(2024, 1, 1)}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			if err := b.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		UserID:        "u1",
		Type:          Expense,
		Amount:        decimal.NewFromFloat(50.0),
		Category:      "Alimentação",
		PaymentMethod: Card,
		Date:          NewDate(2024, 6, 1),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	bad := valid
	bad.Type = "refund"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown type")
	}

	bad = valid
	bad.Amount = decimal.Zero
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero amount")
	}
}
