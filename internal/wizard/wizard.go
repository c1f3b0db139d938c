// Package wizard implements the bundle-order flow as a finite state machine.
//
// The State is plain data (JSON-serializable) so any session store can hold it
// between requests; Wizard carries the dependencies and applies transitions:
//
//	SELECT_BUNDLE -> SELECT_SNACKS -> SELECT_JUICES -> REVIEW -> COMMITTED
//
// Selection-time stock checks are advisory. The commit re-validates everything.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"jem-backend/internal/models"
	"jem-backend/internal/orders"

	"github.com/google/uuid"
)

type Step string

const (
	StepSelectBundle Step = "SELECT_BUNDLE"
	StepSelectSnacks Step = "SELECT_SNACKS"
	StepSelectJuices Step = "SELECT_JUICES"
	StepReview       Step = "REVIEW"
	StepCommitted    Step = "COMMITTED"
)

var (
	ErrWrongStep        = errors.New("wizard step not allowed")
	ErrAlreadyCommitted = errors.New("order already submitted")
)

type State struct {
	Step     Step          `json:"step"`
	BundleID uint          `json:"bundle_id,omitempty"`
	Snacks   []orders.Line `json:"snacks,omitempty"`
	Juices   []orders.Line `json:"juices,omitempty"`
	// SubmissionKey identifies the reviewed selection. Every confirm of it
	// carries the same key, so at most one order is created for it.
	SubmissionKey string `json:"submission_key,omitempty"`
	// LastOrderRef survives the reset after a successful commit so a repeated
	// confirmation can be answered with the existing order.
	LastOrderRef string `json:"last_order_ref,omitempty"`
}

// Current treats the zero State as the first step.
func (s State) Current() Step {
	if s.Step == "" {
		return StepSelectBundle
	}
	return s.Step
}

// Lines returns the stored selection for a category.
func (s State) Lines(c models.Category) []orders.Line {
	if c == models.CategorySnack {
		return s.Snacks
	}
	return s.Juices
}

func (s State) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Decode restores a State. Empty input yields the zero State.
func Decode(raw []byte) (State, error) {
	var s State
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("decode wizard state: %w", err)
	}
	return s, nil
}

// Reset abandons the current selection. Nothing persistent exists yet.
func (s *State) Reset() {
	*s = State{Step: StepSelectBundle}
}

// AlreadyCommittedError carries the reference of the order the session created.
type AlreadyCommittedError struct {
	Reference string
}

func (e *AlreadyCommittedError) Error() string {
	return fmt.Sprintf("order %s already submitted", e.Reference)
}

func (e *AlreadyCommittedError) Unwrap() error { return ErrAlreadyCommitted }

type Catalog interface {
	GetBundle(ctx context.Context, id uint) (*models.BundleType, error)
	ItemsByID(ctx context.Context, ids []uint) (map[uint]models.Item, error)
	AvailableByStock(ctx context.Context, c models.Category) ([]models.Item, error)
}

type Orders interface {
	Commit(ctx context.Context, req orders.Request) (*models.Order, error)
	Quote(ctx context.Context, bundleID uint, snacks, juices []orders.Line) (*orders.Quote, error)
}

type Wizard struct {
	catalog Catalog
	orders  Orders
	newKey  func() string
}

func New(c Catalog, o Orders) *Wizard {
	return &Wizard{catalog: c, orders: o, newKey: uuid.NewString}
}

// SelectBundle (re)starts the selection with the given bundle type.
func (w *Wizard) SelectBundle(ctx context.Context, st *State, bundleID uint) error {
	bundle, err := w.catalog.GetBundle(ctx, bundleID)
	if err != nil {
		return err
	}
	if !bundle.IsActive {
		return fmt.Errorf("bundle type %d: %w", bundle.ID, orders.ErrBundleInactive)
	}
	*st = State{Step: StepSelectSnacks, BundleID: bundle.ID, LastOrderRef: st.LastOrderRef}
	return nil
}

// SelectSnacks stores the snack picks and advances to juice selection. It may be
// called again from later steps to revise the snacks; juices are then re-picked.
func (w *Wizard) SelectSnacks(ctx context.Context, st *State, lines []orders.Line) error {
	if err := allow(st, "select snacks", StepSelectSnacks, StepSelectJuices, StepReview); err != nil {
		return err
	}
	merged, err := w.check(ctx, st, models.CategorySnack, lines)
	if err != nil {
		return err
	}
	st.Snacks = merged
	st.Juices = nil
	st.SubmissionKey = ""
	st.Step = StepSelectJuices
	return nil
}

// SelectJuices stores the juice picks and advances to review.
func (w *Wizard) SelectJuices(ctx context.Context, st *State, lines []orders.Line) error {
	if err := allow(st, "select juices", StepSelectJuices, StepReview); err != nil {
		return err
	}
	merged, err := w.check(ctx, st, models.CategoryJuice, lines)
	if err != nil {
		return err
	}
	st.Juices = merged
	st.SubmissionKey = w.newKey()
	st.Step = StepReview
	return nil
}

// Review prices the current selection. It never mutates state.
func (w *Wizard) Review(ctx context.Context, st State) (*orders.Quote, error) {
	if err := allow(&st, "review", StepReview); err != nil {
		return nil, err
	}
	return w.orders.Quote(ctx, st.BundleID, st.Snacks, st.Juices)
}

// Confirm commits the order. On success the selection is cleared and the state
// moves to COMMITTED; on failure the state points at the step the user must fix.
func (w *Wizard) Confirm(ctx context.Context, st *State, customer orders.CustomerInput) (*models.Order, error) {
	if st.Current() == StepCommitted && st.LastOrderRef != "" {
		return nil, &AlreadyCommittedError{Reference: st.LastOrderRef}
	}
	if err := allow(st, "confirm", StepReview); err != nil {
		return nil, err
	}
	if _, err := customer.Normalize(); err != nil {
		return nil, err
	}
	if st.SubmissionKey == "" {
		st.SubmissionKey = w.newKey()
	}

	order, err := w.orders.Commit(ctx, orders.Request{
		BundleTypeID:  st.BundleID,
		Snacks:        st.Snacks,
		Juices:        st.Juices,
		Customer:      customer,
		SubmissionKey: st.SubmissionKey,
	})
	if err != nil {
		var (
			ce  *orders.CompositionError
			dup *orders.DuplicateSubmissionError
		)
		switch {
		case errors.As(err, &dup):
			// A concurrent confirm of the same selection won.
			*st = State{Step: StepCommitted, LastOrderRef: dup.Reference}
			return nil, &AlreadyCommittedError{Reference: dup.Reference}
		case errors.As(err, &ce):
			rewind(st, ce.Category)
		}
		return nil, err
	}

	*st = State{Step: StepCommitted, LastOrderRef: order.Reference}
	return order, nil
}

func (w *Wizard) check(ctx context.Context, st *State, c models.Category, lines []orders.Line) ([]orders.Line, error) {
	bundle, err := w.catalog.GetBundle(ctx, st.BundleID)
	if err != nil {
		return nil, err
	}
	if !bundle.IsActive {
		return nil, fmt.Errorf("bundle type %d: %w", bundle.ID, orders.ErrBundleInactive)
	}
	merged, err := orders.Merge(lines)
	if err != nil {
		return nil, err
	}
	if err := orders.CheckComposition(*bundle, c, merged); err != nil {
		return nil, err
	}
	items, err := w.catalog.ItemsByID(ctx, orders.ItemIDs(merged))
	if err != nil {
		return nil, err
	}
	if err := orders.CheckLines(items, c, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func rewind(st *State, c models.Category) {
	switch c {
	case models.CategorySnack:
		st.Snacks, st.Juices = nil, nil
		st.SubmissionKey = ""
		st.Step = StepSelectSnacks
	case models.CategoryJuice:
		st.Juices = nil
		st.SubmissionKey = ""
		st.Step = StepSelectJuices
	}
}

func allow(st *State, action string, steps ...Step) error {
	cur := st.Current()
	for _, s := range steps {
		if cur == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s at step %s", ErrWrongStep, action, cur)
}
