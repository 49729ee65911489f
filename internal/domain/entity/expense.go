package entity

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExpenseType classifies an expense as money coming in or going out
type ExpenseType string

const (
	// TypeUnset is the placeholder shown before a type has been chosen
	TypeUnset ExpenseType = "Select type"
	// TypeCredit marks money received
	TypeCredit ExpenseType = "Credit"
	// TypeDebit marks money spent
	TypeDebit ExpenseType = "Debit"
)

// DateLayout is the format of Expense.TransactionDate
const DateLayout = "2006-01-02"

// ExpenseTypes lists the selectable types in display order
var ExpenseTypes = []ExpenseType{TypeCredit, TypeDebit}

// Valid reports whether t is one of the selectable types
func (t ExpenseType) Valid() bool {
	return t == TypeCredit || t == TypeDebit
}

var (
	ErrEmptyName       = errors.New("name must not be empty")
	ErrInvalidAmount   = errors.New("amount must be a non-zero number")
	ErrInvalidType     = errors.New("type must be Credit or Debit")
	ErrEmptyShortNote  = errors.New("short note must not be empty")
	ErrInvalidDate     = errors.New("transaction date must be in YYYY-MM-DD format")
	ErrUsernameMissing = errors.New("username must not be empty")
)

// Expense is a single entry of a user's expense list.
//
// ID is assigned locally and never leaves the process; the collection
// resource only knows entries by position.
type Expense struct {
	ID              string      `json:"-"`
	Name            string      `json:"name"`
	Amount          float64     `json:"amount"`
	Type            ExpenseType `json:"type"`
	ShortNote       string      `json:"shortNote"`
	TransactionDate string      `json:"transactionDate"`
}

// expenseWire is the JSON shape of an Expense. Amount is a pointer so that a
// non-numeric amount can travel as null.
type expenseWire struct {
	Name            string      `json:"name"`
	Amount          *float64    `json:"amount"`
	Type            ExpenseType `json:"type"`
	ShortNote       string      `json:"shortNote"`
	TransactionDate string      `json:"transactionDate"`
}

// MarshalJSON encodes the expense, writing a NaN or infinite amount as null
func (e Expense) MarshalJSON() ([]byte, error) {
	w := expenseWire{
		Name:            e.Name,
		Type:            e.Type,
		ShortNote:       e.ShortNote,
		TransactionDate: e.TransactionDate,
	}
	if !math.IsNaN(e.Amount) && !math.IsInf(e.Amount, 0) {
		amount := e.Amount
		w.Amount = &amount
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the expense; a null amount becomes 0
func (e *Expense) UnmarshalJSON(data []byte) error {
	var w expenseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	e.Name = w.Name
	e.Amount = 0
	if w.Amount != nil {
		e.Amount = *w.Amount
	}
	e.Type = w.Type
	e.ShortNote = w.ShortNote
	e.TransactionDate = w.TransactionDate
	return nil
}

// Validate ensures the expense is fit to be stored
func (e *Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}

	if e.Amount == 0 || math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
		return ErrInvalidAmount
	}

	if !e.Type.Valid() {
		return ErrInvalidType
	}

	if strings.TrimSpace(e.ShortNote) == "" {
		return ErrEmptyShortNote
	}

	if _, err := time.Parse(DateLayout, e.TransactionDate); err != nil {
		return ErrInvalidDate
	}

	return nil
}

// Equal compares the wire-visible fields of two expenses, ignoring ID
func (e Expense) Equal(other Expense) bool {
	sameAmount := e.Amount == other.Amount || (math.IsNaN(e.Amount) && math.IsNaN(other.Amount))
	return e.Name == other.Name &&
		sameAmount &&
		e.Type == other.Type &&
		e.ShortNote == other.ShortNote &&
		e.TransactionDate == other.TransactionDate
}

// NewExpenseID returns a fresh local identifier
func NewExpenseID() string {
	return uuid.New().String()
}

// AssignIDs gives every expense without an ID a fresh one
func AssignIDs(expenses []Expense) {
	for i := range expenses {
		if expenses[i].ID == "" {
			expenses[i].ID = NewExpenseID()
		}
	}
}

// CarryIDs gives each entry of next the ID of an equal, not yet matched entry
// of prev, and a fresh ID when there is none
func CarryIDs(prev, next []Expense) {
	used := make([]bool, len(prev))
	for i := range next {
		next[i].ID = ""
		for j := range prev {
			if !used[j] && prev[j].Equal(next[i]) {
				used[j] = true
				next[i].ID = prev[j].ID
				break
			}
		}
	}
	AssignIDs(next)
}

// IndexOf returns the position of the expense with the given ID, or -1
func IndexOf(expenses []Expense, id string) int {
	for i := range expenses {
		if expenses[i].ID == id {
			return i
		}
	}
	return -1
}

// ExpenseList is the request body that replaces a user's collection
type ExpenseList struct {
	Expenses []Expense `json:"expenses"`
}
