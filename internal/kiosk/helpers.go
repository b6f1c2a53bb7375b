package kiosk

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/GillesGroulard/familisapp/internal/slideshow"
	"github.com/GillesGroulard/familisapp/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("slideshow-service: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps slideshow and session errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoSession), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, slideshow.ErrUnknownReaction):
		return http.StatusBadRequest
	case errors.Is(err, ErrViewerInUse),
		errors.Is(err, ErrSessionEnded),
		errors.Is(err, slideshow.ErrClosed),
		errors.Is(err, slideshow.ErrEmpty),
		errors.Is(err, slideshow.ErrOverlayActive),
		errors.Is(err, slideshow.ErrNoOverlay):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
