package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/internal/http/response"
	"github.com/diagnosis/party-hub/internal/service"
)

// GuestHandler serves the author's address book and the public
// self-registration endpoints, which share the /guest prefix.
type GuestHandler struct {
	guests        service.GuestService
	parties       service.PartyService
	requireAuthor func(http.Handler) http.Handler
	rateLimit     func(http.Handler) http.Handler
}

func NewGuestHandler(
	guests service.GuestService,
	parties service.PartyService,
	requireAuthor func(http.Handler) http.Handler,
	rateLimit func(http.Handler) http.Handler,
) *GuestHandler {
	return &GuestHandler{
		guests:        guests,
		parties:       parties,
		requireAuthor: requireAuthor,
		rateLimit:     rateLimit,
	}
}

func (h *GuestHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/public_party/{party_id}", h.publicParty)
	r.With(h.rateLimit).Post("/public_guest/{party_id}", h.register)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuthor)
		r.Get("/", h.list)
		r.Post("/new", h.create)
		r.Get("/{id}", h.get)
		r.Post("/{id}/update", h.update)
		r.Delete("/{id}/delete", h.delete)
	})
	return r
}

func (h *GuestHandler) list(w http.ResponseWriter, r *http.Request) {
	guests, err := h.guests.List(r.Context(), authorID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, guests)
}

func (h *GuestHandler) create(w http.ResponseWriter, r *http.Request) {
	g, err := h.guests.Create(r.Context(), authorID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{
		"status":   "success",
		"message":  "Guest created successfully",
		"guest_id": g.ID,
	})
}

func (h *GuestHandler) get(w http.ResponseWriter, r *http.Request) {
	g, err := h.guests.Get(r.Context(), chi.URLParam(r, "id"), authorID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, g)
}

func (h *GuestHandler) update(w http.ResponseWriter, r *http.Request) {
	var in domain.GuestUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	if _, err := h.guests.Update(r.Context(), chi.URLParam(r, "id"), authorID(r), in); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, "Guest updated successfully")
}

func (h *GuestHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.guests.Delete(r.Context(), chi.URLParam(r, "id"), authorID(r)); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, "Guest deleted successfully")
}

func (h *GuestHandler) publicParty(w http.ResponseWriter, r *http.Request) {
	p, err := h.parties.PublicParty(r.Context(), chi.URLParam(r, "party_id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"id":                p.ID,
		"name":              p.Name,
		"date":              p.Date,
		"location":          p.Location,
		"invitation_blocks": p.Blocks(),
	})
}

func (h *GuestHandler) register(w http.ResponseWriter, r *http.Request) {
	var in domain.PublicRegistration
	if !decodeJSON(w, r, &in) {
		return
	}
	inv, err := h.guests.Register(r.Context(), chi.URLParam(r, "party_id"), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"invitation_id": inv.ID})
}
