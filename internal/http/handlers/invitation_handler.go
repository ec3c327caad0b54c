package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/internal/http/response"
	"github.com/diagnosis/party-hub/internal/platform/calendar"
	"github.com/diagnosis/party-hub/internal/service"
)

// InvitationHandler needs no session: knowing the invitation id is the
// permission.
type InvitationHandler struct {
	svc service.InvitationService
}

func NewInvitationHandler(svc service.InvitationService) *InvitationHandler {
	return &InvitationHandler{svc: svc}
}

func (h *InvitationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.details)
	r.Post("/{id}", h.saveAnswers)
	r.Get("/{id}/calendar.ics", h.calendar)
	return r
}

type invitationPartyJSON struct {
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	Duration     float64 `json:"duration"`
	Location     string  `json:"location"`
	RespondUntil string  `json:"respond_until"`
	Frozen       bool    `json:"frozen"`
	MaxGuests    int     `json:"max_guests"`
	Attending    int     `json:"attending"`
}

type invitationJSON struct {
	InvitationBlocks       []domain.Block                   `json:"invitation_blocks"`
	InvitationBlockAnswers domain.Answers                   `json:"invitation_block_answers"`
	OtherGuestsAnswers     []map[string]domain.VisibleAnswer `json:"other_guests_answers"`
	GuestName              string                           `json:"guest_name"`
	GuestSalutation        string                           `json:"guest_salutation"`
	GuestFirst             string                           `json:"guest_first"`
	GuestLast              string                           `json:"guest_last"`
	IsOrganizer            bool                             `json:"is_organizer"`
	Party                  invitationPartyJSON              `json:"party"`
}

func (h *InvitationHandler) details(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, invitationJSON{
		InvitationBlocks:       d.Blocks,
		InvitationBlockAnswers: d.Answers,
		OtherGuestsAnswers:     d.Others,
		GuestName:              d.Guest.DisplayName(),
		GuestSalutation:        d.Guest.Salutation,
		GuestFirst:             d.Guest.First,
		GuestLast:              d.Guest.Last,
		IsOrganizer:            d.Invitation.Organizer,
		Party: invitationPartyJSON{
			Name:         d.Party.Name,
			Date:         d.Party.Date,
			Duration:     d.Party.Duration,
			Location:     d.Party.Location,
			RespondUntil: d.Party.RespondUntil,
			Frozen:       d.Party.Frozen,
			MaxGuests:    d.Party.MaxGuests,
			Attending:    d.Attending,
		},
	})
}

func (h *InvitationHandler) saveAnswers(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Answers json.RawMessage `json:"answers"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	// a non-object answers value stores as no answers
	answers := domain.ParseAnswers(string(in.Answers))

	if err := h.svc.SaveAnswers(r.Context(), chi.URLParam(r, "id"), answers); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Answers saved successfully",
	})
}

func (h *InvitationHandler) calendar(w http.ResponseWriter, r *http.Request) {
	ics, err := h.svc.Calendar(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, calendar.ErrNoDate) {
		response.WriteError(w, http.StatusUnprocessableEntity, "The party has no date yet", response.CodeUnprocessable)
		return
	}
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="party.ics"`)
	_, _ = w.Write([]byte(ics))
}
