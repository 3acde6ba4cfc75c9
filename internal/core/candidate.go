package core

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"financeflow/internal/apperrors"
)

// Candidate is unvalidated transaction input as typed by a user.
type Candidate struct {
	Kind        string `json:"kind" validate:"required,oneof=income expense"`
	Amount      string `json:"amount" validate:"required,amount"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Notes       string `json:"notes"`
}

// Entry is a Candidate that passed validation, with every field parsed.
type Entry struct {
	Kind        Kind
	Amount      Money
	Category    string
	Description string
	Date        Date
	Notes       string
}

// Rule is an extra check run after the field tags, e.g. a category catalog lookup.
// It only runs when the tag checks passed for every field, and may normalize e in place.
type Rule func(e *Entry, verr *apperrors.ValidationError)

// Field messages shown to users, keyed by field then failing tag.
var fieldMessages = map[string]map[string]string{
	"kind":        {"": "Transaction type is required"},
	"amount":      {"required": "Amount is required", "": "Amount must be a valid positive number"},
	"category":    {"": "Category is required"},
	"description": {"": "Description is required"},
	"date":        {"required": "Date is required", "": "Date must be a valid date (YYYY-MM-DD)"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := ParseAmount(fl.Field().String())
		return err == nil
	})
	return v
}

// NewCandidate builds a Candidate for a known entry, as used when editing a stored record.
func NewCandidate(t Transaction) Candidate {
	return Candidate{
		Kind:        t.Kind.String(),
		Amount:      t.Amount.String(),
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.String(),
		Notes:       t.Notes,
	}
}

// Normalize trims every field and lower-cases the kind.
func (c Candidate) Normalize() Candidate {
	return Candidate{
		Kind:        strings.ToLower(strings.TrimSpace(c.Kind)),
		Amount:      strings.TrimSpace(c.Amount),
		Category:    strings.TrimSpace(c.Category),
		Description: strings.TrimSpace(c.Description),
		Date:        strings.TrimSpace(c.Date),
		Notes:       strings.TrimSpace(c.Notes),
	}
}

// Validate normalizes the candidate and checks every field, returning the parsed Entry.
// On failure the error is a *apperrors.ValidationError naming every rejected field.
func (c Candidate) Validate(rules ...Rule) (Entry, error) {
	c = c.Normalize()
	verr := apperrors.NewValidationError()

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Entry{}, err
		}
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), messageFor(fe.Field(), fe.Tag()))
		}
		return Entry{}, verr
	}

	amount, _ := ParseAmount(c.Amount)
	date, _ := ParseDate(c.Date)
	e := Entry{
		Kind:        Kind(c.Kind),
		Amount:      amount,
		Category:    c.Category,
		Description: c.Description,
		Date:        date,
		Notes:       c.Notes,
	}
	for _, rule := range rules {
		rule(&e, verr)
	}
	if verr.HasErrors() {
		return Entry{}, verr
	}
	return e, nil
}

// Transaction stamps the entry with an identity.
func (e Entry) Transaction(id string, createdAt time.Time) Transaction {
	return Transaction{
		ID:          id,
		Kind:        e.Kind,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
		Notes:       e.Notes,
		CreatedAt:   createdAt,
	}
}

func messageFor(field, tag string) string {
	msgs, ok := fieldMessages[field]
	if !ok {
		return "Invalid value"
	}
	if msg, ok := msgs[tag]; ok {
		return msg
	}
	return msgs[""]
}
