package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		in  string
		out Kind
		ok  bool
	}{
		{"income", Income, true},
		{"Expense", Expense, true},
		{" EXPENSE ", Expense, true},
		{"", "", false},
		{"transfer", "", false},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrInvalidKind) {
			t.Fatalf("%q expected ErrInvalidKind, got %v", tc.in, err)
		}
	}
}

func TestDateCompareAndAddDays(t *testing.T) {
	d := NewDate(2024, 2, 28)
	if got := d.AddDays(1).String(); got != "2024-02-29" {
		t.Fatalf("expected leap day, got %s", got)
	}
	if got := d.AddDays(-30).String(); got != "2024-01-29" {
		t.Fatalf("expected 2024-01-29, got %s", got)
	}
	if d.Compare(d) != 0 || d.Compare(d.AddDays(1)) != -1 || d.AddDays(1).Compare(d) != 1 {
		t.Fatalf("unexpected compare results")
	}
}

func TestDateOfIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2025, 3, 9, 23, 30, 0, 0, loc)
	if got := DateOf(late); got != NewDate(2025, 3, 9) {
		t.Fatalf("expected 2025-03-09, got %s", got)
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2025-13-01"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	d, err := ParseDate(" 2025-01-31 ")
	if err != nil || d != NewDate(2025, 1, 31) {
		t.Fatalf("unexpected parse: %v %v", d, err)
	}
}

func TestTransactionJSONLayout(t *testing.T) {
	tx := Transaction{
		ID:          "txn_1",
		Kind:        Expense,
		Amount:      Money{Cents: 1250},
		Category:    "Food & Dining",
		Description: "Lunch",
		Date:        NewDate(2025, 6, 1),
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"txn_1","kind":"expense","amount":12.5,"category":"Food & Dining","description":"Lunch","date":"2025-06-01","notes":"","createdAt":"2025-06-01T12:00:00Z"}`
	if string(b) != want {
		t.Fatalf("unexpected layout:\n got %s\nwant %s", b, want)
	}

	var back Transaction
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != tx {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, tx)
	}
}

func TestTransactionUnmarshalRejectsBadShape(t *testing.T) {
	bad := []string{
		`{"id":"a","kind":"gift","amount":1,"date":"2025-01-01"}`,
		`{"id":"a","kind":"income","amount":1,"date":"01/02/2025"}`,
		`{"id":"a","kind":"income","amount":"lots","date":"2025-01-01"}`,
	}
	for _, in := range bad {
		var tx Transaction
		if err := json.Unmarshal([]byte(in), &tx); err == nil {
			t.Fatalf("expected error for %s", in)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:          "txn_1",
		Kind:        Income,
		Amount:      Money{Cents: 1},
		Category:    "Salary",
		Description: "June",
		Date:        NewDate(2025, 6, 30),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	cases := []func(*Transaction){
		func(tx *Transaction) { tx.ID = "" },
		func(tx *Transaction) { tx.Kind = "gift" },
		func(tx *Transaction) { tx.Amount = Money{} },
		func(tx *Transaction) { tx.Category = " " },
		func(tx *Transaction) { tx.Description = "" },
		func(tx *Transaction) { tx.Date = Date{} },
	}
	for i, mutate := range cases {
		tx := good
		mutate(&tx)
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSigned(t *testing.T) {
	in := Transaction{Kind: Income, Amount: Money{Cents: 100}}
	out := Transaction{Kind: Expense, Amount: Money{Cents: 40}}
	if in.Signed().Cents != 100 || out.Signed().Cents != -40 {
		t.Fatalf("unexpected signed amounts %d %d", in.Signed().Cents, out.Signed().Cents)
	}
}
