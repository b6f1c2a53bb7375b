package kiosk

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/GillesGroulard/familisapp/internal/realtime"
	"github.com/GillesGroulard/familisapp/internal/slideshow"
)

type Server struct {
	manager  *Manager
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	secret   []byte
}

type ServerConfig struct {
	Manager       *Manager
	Hub           *realtime.Hub
	JWTSecret     string
	AllowedOrigin string
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		manager:  cfg.Manager,
		hub:      cfg.Hub,
		upgrader: realtime.NewUpgrader(cfg.AllowedOrigin),
		secret:   []byte(cfg.JWTSecret),
	}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/kiosks/{familyId}", func(r chi.Router) {
		r.Use(AuthMiddleware(s.secret))

		r.Post("/session", s.handleStartSession)
		r.Delete("/session", s.handleStopSession)
		r.Get("/", s.handleGetView)
		r.Get("/ws", s.handleWS)

		// Navigation
		r.Post("/next", s.action(call((*slideshow.Controller).Next)))
		r.Post("/previous", s.action(call((*slideshow.Controller).Previous)))
		r.Post("/video/ended", s.action(parseVideoEnded))

		// Overlays
		r.Post("/gift/open", s.action(call((*slideshow.Controller).OpenGift)))
		r.Post("/reminder/ack", s.action(call((*slideshow.Controller).AcknowledgeReminder)))
		r.Post("/reactions/open", s.action(call((*slideshow.Controller).OpenReactions)))
		r.Post("/reactions/close", s.action(call((*slideshow.Controller).CloseReactions)))
		r.Post("/reactions", s.action(parseReaction))
		r.Post("/favorite", s.action(call((*slideshow.Controller).ToggleFavorite)))

		r.Post("/unlock/press", s.action(call((*slideshow.Controller).PressUnlock)))
		r.Post("/unlock/release", s.action(call((*slideshow.Controller).ReleaseUnlock)))

		// Media frame
		r.Post("/frame/layout", s.action(parseLayout))
		r.Post("/frame/zoom", s.action(parseZoom))
		r.Post("/frame/drag", s.action(parseDrag))
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "slideshow-service",
	})
}

// handleStartSession starts the family's kiosk, or returns the one already
// running for this viewer.
// POST /kiosks/{familyId}/session
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	familyID := chi.URLParam(r, "familyId")
	sess, created, err := s.manager.Start(familyID, viewerID(r))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	v, err := sess.View(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, v)
}

// DELETE /kiosks/{familyId}/session
func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	familyID := chi.URLParam(r, "familyId")
	sess, err := s.manager.Get(familyID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if sess.ViewerID() != viewerID(r) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if err := s.manager.Stop(familyID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /kiosks/{familyId}
func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(chi.URLParam(r, "familyId"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	v, err := sess.View(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleWS attaches a display. If the kiosk is already running, its
// current view is the first frame.
// GET /kiosks/{familyId}/ws
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	familyID := chi.URLParam(r, "familyId")

	var greeting []byte
	if sess, err := s.manager.Get(familyID); err == nil {
		if v, err := sess.View(r.Context()); err == nil {
			greeting, err = realtime.Encode(realtime.TypeView, v)
			if err != nil {
				log.Printf("slideshow-service: encode greeting family=%s: %v", familyID, err)
			}
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("slideshow-service: ws upgrade: %v", err)
		return
	}
	s.hub.Attach(conn, familyID, greeting)
}

// controlFunc is one controller operation, run on the session loop.
type controlFunc func(c *slideshow.Controller) error

// parseFunc turns a request into the operation to run. Parsing happens on
// the handler goroutine, outside the session loop.
type parseFunc func(r *http.Request) (controlFunc, error)

func call(fn controlFunc) parseFunc {
	return func(*http.Request) (controlFunc, error) { return fn, nil }
}

// action runs the parsed operation on the family's session and answers
// with the view as it stands right after it.
func (s *Server) action(parse parseFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.manager.Get(chi.URLParam(r, "familyId"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		if sess.ViewerID() != viewerID(r) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		fn, err := parse(r)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				status = http.StatusBadRequest
			}
			writeError(w, status, err.Error())
			return
		}

		var v slideshow.View
		err = sess.Do(r.Context(), func(c *slideshow.Controller) error {
			if err := fn(c); err != nil {
				return err
			}
			v = c.View()
			return nil
		})
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func parseVideoEnded(r *http.Request) (controlFunc, error) {
	var body struct {
		ItemID string `json:"itemId"`
	}
	if err := decodeJSON(r, &body); err != nil || body.ItemID == "" {
		return nil, errors.New("itemId required")
	}
	return func(c *slideshow.Controller) error { return c.VideoEnded(body.ItemID) }, nil
}

func parseReaction(r *http.Request) (controlFunc, error) {
	var body struct {
		Emoji string `json:"emoji"`
	}
	if err := decodeJSON(r, &body); err != nil {
		return nil, errors.New("invalid JSON")
	}
	reaction, err := slideshow.ParseReaction(body.Emoji)
	if err != nil {
		return nil, err
	}
	return func(c *slideshow.Controller) error { return c.React(reaction) }, nil
}

func parseLayout(r *http.Request) (controlFunc, error) {
	var body struct {
		Container slideshow.Size `json:"container"`
		Media     slideshow.Size `json:"media"`
	}
	if err := decodeJSON(r, &body); err != nil {
		return nil, errors.New("invalid JSON")
	}
	return func(c *slideshow.Controller) error { return c.Layout(body.Container, body.Media) }, nil
}

func parseZoom(r *http.Request) (controlFunc, error) {
	var body struct {
		Zoom float64 `json:"zoom"`
	}
	if err := decodeJSON(r, &body); err != nil {
		return nil, errors.New("invalid JSON")
	}
	return func(c *slideshow.Controller) error { return c.Zoom(body.Zoom) }, nil
}

func parseDrag(r *http.Request) (controlFunc, error) {
	var body struct {
		Phase string  `json:"phase"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	if err := decodeJSON(r, &body); err != nil {
		return nil, errors.New("invalid JSON")
	}
	switch body.Phase {
	case "start":
		return func(c *slideshow.Controller) error { return c.DragStart(body.X, body.Y) }, nil
	case "move":
		return func(c *slideshow.Controller) error { return c.DragMove(body.X, body.Y) }, nil
	case "end":
		return func(c *slideshow.Controller) error { return c.DragEnd() }, nil
	default:
		return nil, errors.New("phase must be start, move or end")
	}
}
