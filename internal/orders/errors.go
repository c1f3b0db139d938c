package orders

import (
	"errors"
	"fmt"
	"strings"

	"jem-backend/internal/models"
	"jem-backend/internal/validation"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrBundleInactive = errors.New("bundle type is not available")
)

// ValidationError reports malformed input such as a bad phone number or a
// missing field. The user fixes the form and resubmits.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: []validation.FieldError{{Field: field, Message: msg}}}
}

type Shortage struct {
	ItemID    uint   `json:"item_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (s Shortage) String() string {
	if s.Available <= 0 {
		return fmt.Sprintf("%s is out of stock", s.Name)
	}
	return fmt.Sprintf("only %d of %s left (requested %d)", s.Available, s.Name, s.Requested)
}

// StockError lists every selected item whose stock cannot cover the request.
type StockError struct {
	Shortages []Shortage
}

func (e *StockError) Error() string {
	msgs := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		msgs = append(msgs, s.String())
	}
	return "insufficient stock: " + strings.Join(msgs, "; ")
}

// DuplicateSubmissionError means an order already exists for the request's
// submission key. Reference points at that order.
type DuplicateSubmissionError struct {
	Reference string
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("order %s was already placed for this submission", e.Reference)
}

// CompositionError means the selection does not match the bundle's required
// counts for Category, or contains an item from the wrong category.
type CompositionError struct {
	Category models.Category
	Required int
	Selected int
	// ItemName is set when an item of another category was selected.
	ItemName string
}

func (e *CompositionError) Error() string {
	if e.ItemName != "" {
		return fmt.Sprintf("%s is not a %s", e.ItemName, e.Category)
	}
	return fmt.Sprintf("please select exactly %d %s, you selected %d",
		e.Required, e.Category.Plural(), e.Selected)
}
