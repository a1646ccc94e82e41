package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portfolio-cms/apiserver/internal/auth"
	"github.com/portfolio-cms/apiserver/internal/middleware"
	"github.com/portfolio-cms/apiserver/internal/services"
	"github.com/portfolio-cms/apiserver/types"
)

const contactNotFound = "Contact not found"

// ContactHandler provides HTTP handlers for the contact form and inbox.
type ContactHandler struct {
	responder
	contactService *services.ContactService
}

func NewContactHandler(contactService *services.ContactService, exposeDetail bool) *ContactHandler {
	return &ContactHandler{
		responder:      responder{exposeDetail: exposeDetail},
		contactService: contactService,
	}
}

// ContactRouter registers the public submit route and the admin inbox.
func ContactRouter(r chi.Router, contactService *services.ContactService, requireAuth func(http.Handler) http.Handler, exposeDetail bool) {
	handler := NewContactHandler(contactService, exposeDetail)

	r.Post("/", handler.Submit)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth, middleware.RequireCapability(auth.CapReadInbox))
		r.Get("/", handler.Inbox)
		r.Get("/{id}", handler.Get)
		r.Patch("/{id}/read", handler.MarkRead)
		r.Delete("/{id}", handler.Delete)
	})
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10,max=1000"`
}

type ContactCreatedResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	contact, err := h.contactService.Submit(r.Context(), types.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ContactCreatedResponse{Message: "Message sent successfully", ID: contact.ID})
}

func (h *ContactHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	inbox, err := h.contactService.Inbox(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inbox)
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	contact, err := h.contactService.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, orNotFound(err, contactNotFound))
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	contact, err := h.contactService.MarkRead(r.Context(), id)
	if err != nil {
		h.fail(w, r, orNotFound(err, contactNotFound))
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.contactService.Delete(r.Context(), id); err != nil {
		h.fail(w, r, orNotFound(err, contactNotFound))
		return
	}
	writeMessage(w, "Contact deleted successfully")
}
