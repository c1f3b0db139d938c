package handlers

import (
	"errors"

	"jem-backend/internal/models"
	"jem-backend/internal/orders"
	"jem-backend/internal/wizard"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const stateKey = "wizard"

// OrderHandler drives the bundle wizard. Its state lives in the visitor's session.
type OrderHandler struct {
	Wizard   *wizard.Wizard
	Sessions *session.Store
}

func NewOrderHandler(w *wizard.Wizard, sessions *session.Store) *OrderHandler {
	return &OrderHandler{Wizard: w, Sessions: sessions}
}

type BundleChoice struct {
	BundleTypeID uint `json:"bundle_type_id" validate:"required"`
}

type LinesRequest struct {
	Lines []orders.Line `json:"lines"`
}

type AutofillRequest struct {
	Favorites []uint `json:"favorites"`
}

func (h *OrderHandler) load(c *fiber.Ctx) (*session.Session, wizard.State, error) {
	sess, err := h.Sessions.Get(c)
	if err != nil {
		return nil, wizard.State{}, err
	}
	raw, _ := sess.Get(stateKey).(string)
	st, err := wizard.Decode([]byte(raw))
	if err != nil {
		// A corrupt state is not worth failing over; start again.
		st = wizard.State{}
	}
	return sess, st, nil
}

func (h *OrderHandler) save(sess *session.Session, st wizard.State) error {
	raw, err := st.Encode()
	if err != nil {
		return err
	}
	sess.Set(stateKey, string(raw))
	return sess.Save()
}

// update loads the state, applies fn and persists the result even when fn
// fails, because a failed confirm may rewind the step.
func (h *OrderHandler) update(c *fiber.Ctx, fn func(st *wizard.State) error) (wizard.State, error) {
	sess, st, err := h.load(c)
	if err != nil {
		return st, err
	}
	fnErr := fn(&st)
	if err := h.save(sess, st); err != nil {
		return st, err
	}
	return st, fnErr
}

// Get returns the wizard state; at REVIEW it includes the priced summary.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	_, st, err := h.load(c)
	if err != nil {
		return writeError(c, err, "")
	}
	return h.stateWithReview(c, st)
}

func (h *OrderHandler) SelectBundle(c *fiber.Ctx) error {
	var req BundleChoice
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if ok, err := validate(c, req); !ok {
		return err
	}
	st, err := h.update(c, func(st *wizard.State) error {
		return h.Wizard.SelectBundle(c.UserContext(), st, req.BundleTypeID)
	})
	if err != nil {
		return writeError(c, err, st.Current())
	}
	return c.JSON(fiber.Map{"state": st, "step": st.Current()})
}

func (h *OrderHandler) SelectSnacks(c *fiber.Ctx) error {
	return h.selectLines(c, models.CategorySnack)
}

func (h *OrderHandler) SelectJuices(c *fiber.Ctx) error {
	return h.selectLines(c, models.CategoryJuice)
}

func (h *OrderHandler) selectLines(c *fiber.Ctx, cat models.Category) error {
	var req LinesRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	st, err := h.update(c, func(st *wizard.State) error {
		return h.apply(c, st, cat, req.Lines)
	})
	if err != nil {
		return writeError(c, err, st.Current())
	}
	return h.stateWithReview(c, st)
}

func (h *OrderHandler) apply(c *fiber.Ctx, st *wizard.State, cat models.Category, lines []orders.Line) error {
	if cat == models.CategorySnack {
		return h.Wizard.SelectSnacks(c.UserContext(), st, lines)
	}
	return h.Wizard.SelectJuices(c.UserContext(), st, lines)
}

func (h *OrderHandler) stateWithReview(c *fiber.Ctx, st wizard.State) error {
	resp := fiber.Map{"state": st, "step": st.Current()}
	if st.Current() == wizard.StepReview {
		quote, err := h.Wizard.Review(c.UserContext(), st)
		if err != nil {
			return writeError(c, err, st.Current())
		}
		resp["review"] = quote
	}
	return c.JSON(resp)
}

// Autofill picks the category's items automatically and applies the selection.
func (h *OrderHandler) Autofill(c *fiber.Ctx) error {
	cat := models.Category(c.Params("category"))
	switch c.Params("category") {
	case "snacks":
		cat = models.CategorySnack
	case "juices":
		cat = models.CategoryJuice
	}
	if !cat.Valid() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown category"})
	}

	var req AutofillRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
	}

	var lines []orders.Line
	st, err := h.update(c, func(st *wizard.State) error {
		var err error
		lines, err = h.Wizard.Autofill(c.UserContext(), *st, cat, req.Favorites)
		if err != nil {
			return err
		}
		return h.apply(c, st, cat, lines)
	})
	if err != nil {
		return writeError(c, err, st.Current())
	}
	return h.stateWithReview(c, st)
}

type ConfirmRequest struct {
	Customer orders.CustomerInput `json:"customer"`
}

// Confirm commits the order and redirects to its receipt.
func (h *OrderHandler) Confirm(c *fiber.Ctx) error {
	var req ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	var order *models.Order
	st, err := h.update(c, func(st *wizard.State) error {
		var err error
		order, err = h.Wizard.Confirm(c.UserContext(), st, req.Customer)
		return err
	})

	var ac *wizard.AlreadyCommittedError
	if errors.As(err, &ac) {
		c.Location(receiptURL(ac.Reference))
		return c.Status(fiber.StatusSeeOther).JSON(fiber.Map{
			"message":   "Order already submitted",
			"reference": ac.Reference,
			"step":      st.Current(),
		})
	}
	if err != nil {
		return writeError(c, err, st.Current())
	}

	c.Location(receiptURL(order.Reference))
	return c.Status(fiber.StatusSeeOther).JSON(fiber.Map{
		"message": "Order placed successfully",
		"order":   order,
		"step":    st.Current(),
	})
}

// Reset clears the wizard.
func (h *OrderHandler) Reset(c *fiber.Ctx) error {
	st, err := h.update(c, func(st *wizard.State) error {
		st.Reset()
		return nil
	})
	if err != nil {
		return writeError(c, err, "")
	}
	return c.JSON(fiber.Map{"state": st, "step": st.Current()})
}

func receiptURL(ref string) string {
	return "/orders/" + ref + "/receipt"
}
