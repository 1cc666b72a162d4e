package storefront

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/contact"
	"github.com/noah-isme/toko-storefront/internal/events"
	"github.com/noah-isme/toko-storefront/internal/session"
)

// RecentEvents exposes the tail of the event log.
type RecentEvents interface {
	Recent(n int) []events.Event
}

// Handler wires the storefront service to HTTP. Routes expect session.Middleware
// to have run.
type Handler struct {
	Svc    *Service
	Events RecentEvents
	// SubmitLimit, when set, wraps the contact submission route.
	SubmitLimit func(http.Handler) http.Handler
}

// Routes registers the storefront endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/cart", h.GetCart)
	r.Post("/cart/items", h.AddItem)
	r.Delete("/cart/items/{index}", h.RemoveItem)
	r.Post("/cart/checkout", h.Checkout)
	r.Get("/contact", h.GetContact)
	if h.SubmitLimit != nil {
		r.With(h.SubmitLimit).Post("/contact", h.SubmitContact)
	} else {
		r.Post("/contact", h.SubmitContact)
	}
}

// GetCart returns the session cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	common.Data(w, http.StatusOK, h.Svc.Cart(sess))
}

// AddItem appends an item. Malformed names or prices return the unchanged cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var payload struct {
		Name  string    `json:"name"`
		Price priceText `json:"price"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	view, added := h.Svc.AddItem(r.Context(), sess, payload.Name, string(payload.Price))
	common.Data(w, http.StatusOK, map[string]any{
		"added": added,
		"cart":  view,
	})
}

// RemoveItem deletes the item at the {index} path parameter. Stale or
// non-numeric indexes return the unchanged cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "index")))
	if err != nil {
		index = -1
	}
	view, removed := h.Svc.RemoveItem(r.Context(), sess, index)
	common.Data(w, http.StatusOK, map[string]any{
		"removed": removed,
		"cart":    view,
	})
}

// Checkout finalizes the cart: 201 when confirmed, 422 when the cart is empty.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	out, view := h.Svc.Checkout(r.Context(), sess)
	status := http.StatusCreated
	if out.State != checkout.Confirmed {
		status = http.StatusUnprocessableEntity
	}
	common.Data(w, status, map[string]any{
		"outcome": out,
		"total":   totalText(out),
		"cart":    view,
	})
}

// GetContact returns the stored form values and last result.
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	common.Data(w, http.StatusOK, h.Svc.ContactState(sess))
}

// SubmitContact validates the contact form: 200 when valid, 422 with the result otherwise.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var form contact.Form
	if err := decodeJSON(r, &form); err != nil {
		common.WriteError(w, err)
		return
	}
	res := h.Svc.SubmitContact(r.Context(), sess, form)
	status := http.StatusOK
	if !res.Valid {
		status = http.StatusUnprocessableEntity
	}
	common.Data(w, status, res)
}

// RecentEvents lists the newest domain events, at most ?limit= of them.
func (h *Handler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "event log disabled", nil)
		return
	}
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}
	common.Data(w, http.StatusOK, h.Events.Recent(limit))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "storefront service not configured", nil)
		return nil, false
	}
	sess, ok := session.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session not resolved", nil)
		return nil, false
	}
	return sess, true
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return common.BadRequest("request body is required", nil)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return common.BadRequest("request body is required", err)
		}
		return common.BadRequest("invalid request body", err)
	}
	return nil
}

func totalText(out checkout.Outcome) string {
	if out.State != checkout.Confirmed {
		return ""
	}
	return out.Total.StringFixed(2)
}
