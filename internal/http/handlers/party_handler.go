package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/internal/http/response"
	"github.com/diagnosis/party-hub/internal/service"
)

type PartyHandler struct {
	svc service.PartyService
}

func NewPartyHandler(svc service.PartyService) *PartyHandler {
	return &PartyHandler{svc: svc}
}

// Routes must be mounted behind Session.RequireAuthor.
func (h *PartyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/new", h.create)
	r.Get("/{id}", h.details)
	r.Post("/{id}/update", h.update)
	r.Delete("/{id}/delete", h.delete)
	r.Post("/{id}/add/{guest}", h.addGuest)
	r.Delete("/{id}/remove/{guest}", h.removeGuest)
	r.Post("/{id}/promote/{guest}", h.setOrganizer(true))
	r.Post("/{id}/demote/{guest}", h.setOrganizer(false))
	return r
}

type partyJSON struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Date             string         `json:"date"`
	Duration         float64        `json:"duration"`
	Location         string         `json:"location"`
	RespondUntil     string         `json:"respond_until"`
	Frozen           bool           `json:"frozen"`
	Public           bool           `json:"public"`
	MaxGuests        int            `json:"max_guests"`
	HasRSVPBlock     bool           `json:"has_rsvp_block"`
	InvitationBlocks []domain.Block `json:"invitation_blocks"`
}

type partyDetailsJSON struct {
	partyJSON
	Guests []domain.PartyGuest `json:"guests"`
}

func toPartyJSON(p *domain.Party) partyJSON {
	return partyJSON{
		ID:               p.ID,
		Name:             p.Name,
		Date:             p.Date,
		Duration:         p.Duration,
		Location:         p.Location,
		RespondUntil:     p.RespondUntil,
		Frozen:           p.Frozen,
		Public:           p.Public,
		MaxGuests:        p.MaxGuests,
		HasRSVPBlock:     p.HasRSVPBlock,
		InvitationBlocks: p.Blocks(),
	}
}

func (h *PartyHandler) list(w http.ResponseWriter, r *http.Request) {
	parties, err := h.svc.List(r.Context(), authorID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	out := make([]partyJSON, 0, len(parties))
	for i := range parties {
		out = append(out, toPartyJSON(&parties[i]))
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *PartyHandler) create(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Create(r.Context(), authorID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{
		"status":   "success",
		"message":  "Party created successfully",
		"party_id": p.ID,
	})
}

func (h *PartyHandler) details(w http.ResponseWriter, r *http.Request) {
	p, guests, err := h.svc.Details(r.Context(), chi.URLParam(r, "id"), authorID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, partyDetailsJSON{partyJSON: toPartyJSON(p), Guests: guests})
}

func (h *PartyHandler) update(w http.ResponseWriter, r *http.Request) {
	var in domain.PartyUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	if _, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), authorID(r), in); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, "Party updated successfully")
}

func (h *PartyHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), authorID(r)); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, "Party deleted successfully")
}

func (h *PartyHandler) addGuest(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.AddGuest(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "guest"), authorID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, "Guest added to party")
}

func (h *PartyHandler) removeGuest(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveGuest(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "guest"), authorID(r)); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, "Guest removed from party")
}

func (h *PartyHandler) setOrganizer(organizer bool) http.HandlerFunc {
	msg := "Organizer demoted to guest"
	if organizer {
		msg = "Guest promoted to organizer"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.svc.SetOrganizer(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "guest"), authorID(r), organizer)
		if err != nil {
			response.FromError(w, r, err)
			return
		}
		response.Success(w, msg)
	}
}
