package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sukalov/cifrabot/internal/cifra"
	"github.com/sukalov/cifrabot/internal/db"
)

// Songbook is the read side of db.Songbook the API serves.
type Songbook interface {
	All() []db.Song
	SearchSongs(query string) []db.Song
	FindSongByID(id int64) (db.Song, bool)
}

// Sheets parses songs, usually through the memoizing sheets.Service.
type Sheets interface {
	Parse(ctx context.Context, lyrics, chords string) cifra.Sheet
	Sheet(ctx context.Context, song db.Song, steps int) cifra.Sheet
}

// Server is the HTTP API over the songbook.
type Server struct {
	router chi.Router
	songs  Songbook
	sheets Sheets
	log    *slog.Logger
	apiKey string
}

// NewServer creates and configures the HTTP server. An empty apiKey leaves
// the /api routes open.
func NewServer(songs Songbook, sheets Sheets, log *slog.Logger, apiKey string) *Server {
	s := &Server{
		songs:  songs,
		sheets: sheets,
		log:    log,
		apiKey: apiKey,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(AuthMiddleware(s.apiKey))
		}

		r.Get("/api/songs", s.handleListSongs)
		r.Get("/api/songs/{id}", s.handleGetSong)
		r.Get("/api/songs/{id}/sheet", s.handleSongSheet)

		r.Post("/api/parse", s.handleParse)
		r.Post("/api/transpose", s.handleTranspose)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"songs":  len(s.songs.All()),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
