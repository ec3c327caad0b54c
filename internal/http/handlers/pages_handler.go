package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/diagnosis/party-hub/internal/http/response"
	"github.com/diagnosis/party-hub/internal/service"
	"github.com/diagnosis/party-hub/pkg/logger"
)

// Languages the pages are translated to; the first one is the fallback.
var (
	pageLanguages = []language.Tag{language.English, language.German}
	pageLangCodes = []string{"en", "de"}
	pageMatcher   = language.NewMatcher(pageLanguages)
)

// PagesHandler serves the HTML pages and static assets.
type PagesHandler struct {
	pagesDir    string
	staticDir   string
	invitations service.InvitationService
	parties     service.PartyService
}

func NewPagesHandler(pagesDir, staticDir string, invitations service.InvitationService, parties service.PartyService) *PagesHandler {
	return &PagesHandler{
		pagesDir:    pagesDir,
		staticDir:   staticDir,
		invitations: invitations,
		parties:     parties,
	}
}

// pageLanguage picks "de" or "en" from Accept-Language.
func pageLanguage(r *http.Request) string {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return pageLangCodes[0]
	}
	_, idx, conf := pageMatcher.Match(tags...)
	if conf == language.No {
		return pageLangCodes[0]
	}
	return pageLangCodes[idx]
}

// Page serves {pagesDir}/{lang}/{name}_{lang}.html.
func (h *PagesHandler) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := pageLanguage(r)
		w.Header().Set("Content-Language", lang)
		w.Header().Set("Vary", "Accept-Language")
		http.ServeFile(w, r, filepath.Join(h.pagesDir, lang, name+"_"+lang+".html"))
	}
}

// Invitation serves the invitation page for a known invitation id.
func (h *PagesHandler) Invitation(w http.ResponseWriter, r *http.Request) {
	ok, err := h.invitations.Exists(r.Context(), chi.URLParam(r, "invitation_id"))
	if err != nil {
		logger.ErrorContext(r.Context(), "Invitation lookup failed", "error", err)
		response.InternalError(w, "Internal server error")
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.Page("invitation")(w, r)
}

// Register serves the sign-up page of a public party.
func (h *PagesHandler) Register(w http.ResponseWriter, r *http.Request) {
	if _, err := h.parties.PublicParty(r.Context(), chi.URLParam(r, "party_id")); err != nil {
		response.FromError(w, r, err)
		return
	}
	h.Page("public_guest")(w, r)
}

func (h *PagesHandler) Static() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir)))
}

// ServiceWorker lets the push worker control the whole origin.
func (h *PagesHandler) ServiceWorker(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Service-Worker-Allowed", "/")
	w.Header().Set("Content-Type", "application/javascript")
	http.ServeFile(w, r, filepath.Join(h.staticDir, "web-push-service-worker.js"))
}

func (h *PagesHandler) Favicon(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.staticDir, "logo", "favicon.ico"))
}

func (h *PagesHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.staticDir, "manifest.json"))
}
