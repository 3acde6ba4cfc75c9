package core

import (
	"errors"
	"strings"
	"testing"

	"financeflow/internal/apperrors"
)

func validCandidate() Candidate {
	return Candidate{
		Kind:        "expense",
		Amount:      "12.50",
		Category:    "Food & Dining",
		Description: "  Lunch  ",
		Date:        "2025-06-01",
		Notes:       " team ",
	}
}

func TestCandidateValidate(t *testing.T) {
	e, err := validCandidate().Validate()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Kind != Expense || e.Amount.Cents != 1250 || e.Description != "Lunch" || e.Notes != "team" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.Date != NewDate(2025, 6, 1) {
		t.Fatalf("unexpected date %s", e.Date)
	}
}

func TestCandidateValidateFieldMessages(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Candidate)
		field  string
		msg    string
	}{
		{"missing kind", func(c *Candidate) { c.Kind = "" }, "kind", "Transaction type is required"},
		{"unknown kind", func(c *Candidate) { c.Kind = "gift" }, "kind", "Transaction type is required"},
		{"missing amount", func(c *Candidate) { c.Amount = " " }, "amount", "Amount is required"},
		{"zero amount", func(c *Candidate) { c.Amount = "0" }, "amount", "Amount must be a valid positive number"},
		{"negative amount", func(c *Candidate) { c.Amount = "-5" }, "amount", "Amount must be a valid positive number"},
		{"text amount", func(c *Candidate) { c.Amount = "ten" }, "amount", "Amount must be a valid positive number"},
		{"missing category", func(c *Candidate) { c.Category = "" }, "category", "Category is required"},
		{"blank description", func(c *Candidate) { c.Description = "   " }, "description", "Description is required"},
		{"missing date", func(c *Candidate) { c.Date = "" }, "date", "Date is required"},
		{"bad date", func(c *Candidate) { c.Date = "2025-02-30" }, "date", "Date must be a valid date (YYYY-MM-DD)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCandidate()
			tc.mutate(&c)
			_, err := c.Validate()
			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if got := verr.Fields[tc.field]; got != tc.msg {
				t.Fatalf("field %s: expected %q, got %q", tc.field, tc.msg, got)
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("expected a single field error, got %v", verr.Fields)
			}
		})
	}
}

func TestCandidateValidateReportsEveryField(t *testing.T) {
	_, err := Candidate{}.Validate()
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, f := range []string{"kind", "amount", "category", "description", "date"} {
		if _, ok := verr.Fields[f]; !ok {
			t.Fatalf("expected %s to be reported, got %v", f, verr.Fields)
		}
	}
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation in chain")
	}
}

func TestCandidateValidateRules(t *testing.T) {
	onlySalary := func(e *Entry, verr *apperrors.ValidationError) {
		if e.Category != "Salary" {
			verr.Add("category", "Category is not valid for this transaction type")
		}
	}
	_, err := validCandidate().Validate(onlySalary)
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) || verr.Fields["category"] == "" {
		t.Fatalf("expected category rule to fire, got %v", err)
	}
}

func TestCandidateValidateRuleMayNormalize(t *testing.T) {
	upper := func(e *Entry, _ *apperrors.ValidationError) {
		e.Category = strings.ToUpper(e.Category)
	}
	e, err := validCandidate().Validate(upper)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if e.Category != strings.ToUpper(validCandidate().Category) {
		t.Errorf("expected rule change to be kept, got %q", e.Category)
	}
}

func TestNewCandidateRoundTrip(t *testing.T) {
	e, err := validCandidate().Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	tx := e.Transaction("txn_1", NewDate(2025, 6, 1).Time)
	again, err := NewCandidate(tx).Validate()
	if err != nil || again != e {
		t.Fatalf("expected identical entry, got %+v (err=%v)", again, err)
	}
}
