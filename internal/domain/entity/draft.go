package entity

import (
	"math"
	"strconv"
	"strings"
)

// Draft holds the in-progress values of the expense form
type Draft struct {
	Name            string
	Amount          float64
	Type            ExpenseType
	ShortNote       string
	TransactionDate string
}

// NewDraft returns a draft with every field at its default
func NewDraft() *Draft {
	d := &Draft{}
	d.Reset()
	return d
}

// SetName sets the expense name
func (d *Draft) SetName(name string) {
	d.Name = name
}

// SetAmount sets the amount
func (d *Draft) SetAmount(amount float64) {
	d.Amount = amount
}

// SetAmountInput parses raw form input as a float. Input that does not parse
// is stored as NaN, the same value a browser number field yields.
func (d *Draft) SetAmountInput(input string) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		amount = math.NaN()
	}
	d.Amount = amount
}

// SetType sets the expense type
func (d *Draft) SetType(t ExpenseType) {
	d.Type = t
}

// SetShortNote sets the short note
func (d *Draft) SetShortNote(note string) {
	d.ShortNote = note
}

// SetTransactionDate sets the transaction date
func (d *Draft) SetTransactionDate(date string) {
	d.TransactionDate = date
}

// SubmitEnabled reports whether every field holds a non-default value.
//
// NaN compares unequal to 0, so an unparseable amount counts as set.
func (d *Draft) SubmitEnabled() bool {
	return d.Name != "" &&
		d.Amount != 0 &&
		d.Type != TypeUnset &&
		d.ShortNote != "" &&
		d.TransactionDate != ""
}

// Reset returns all fields to their defaults
func (d *Draft) Reset() {
	d.Name = ""
	d.Amount = 0
	d.Type = TypeUnset
	d.ShortNote = ""
	d.TransactionDate = ""
}

// IsZero reports whether the draft is at its defaults
func (d *Draft) IsZero() bool {
	return d.Name == "" &&
		d.Amount == 0 &&
		d.Type == TypeUnset &&
		d.ShortNote == "" &&
		d.TransactionDate == ""
}

// AmountInput renders the amount back into a form value. The default and NaN
// both render as an empty field.
func (d *Draft) AmountInput() string {
	if d.Amount == 0 || math.IsNaN(d.Amount) {
		return ""
	}
	return strconv.FormatFloat(d.Amount, 'f', -1, 64)
}

// Expense builds a new record from the draft with a fresh ID
func (d *Draft) Expense() Expense {
	return Expense{
		ID:              NewExpenseID(),
		Name:            d.Name,
		Amount:          d.Amount,
		Type:            d.Type,
		ShortNote:       d.ShortNote,
		TransactionDate: d.TransactionDate,
	}
}
