package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/internal/http/response"
	"github.com/diagnosis/party-hub/internal/platform/push"
	"github.com/diagnosis/party-hub/internal/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/vapid-public-key", h.publicKey)
	r.Post("/web-push-subscribe/{guest_id}", h.subscribe)
	r.Post("/associate-guest/{guest_id}", h.associate)
	return r
}

func (h *NotificationHandler) publicKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.svc.PublicKey()
	if errors.Is(err, push.ErrNotConfigured) {
		response.Unavailable(w, "Web push is not configured")
		return
	}
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

func (h *NotificationHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Endpoint string `json:"endpoint"`
		P256dh   string `json:"p256dh"`
		Auth     string `json:"auth"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	sub := domain.PushSubscription{Endpoint: in.Endpoint, P256dh: in.P256dh, Auth: in.Auth}
	if err := h.svc.Subscribe(r.Context(), chi.URLParam(r, "guest_id"), sub); err != nil {
		response.FromError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *NotificationHandler) associate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Endpoint string `json:"endpoint"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.svc.Associate(r.Context(), chi.URLParam(r, "guest_id"), in.Endpoint); err != nil {
		response.FromError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
