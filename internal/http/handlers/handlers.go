package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/diagnosis/party-hub/internal/http/middleware"
	"github.com/diagnosis/party-hub/internal/http/response"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into v and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			response.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large", response.CodeInvalidInput)
		case errors.Is(err, io.EOF):
			response.BadRequest(w, "Request body is empty")
		default:
			response.WriteErrorWithDetails(w, http.StatusBadRequest, "Invalid JSON format", response.CodeInvalidInput, err.Error())
		}
		return false
	}
	return true
}

// authorID is only valid behind Session.RequireAuthor.
func authorID(r *http.Request) string {
	if a := middleware.Author(r); a != nil {
		return a.ID
	}
	return ""
}
