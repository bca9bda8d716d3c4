package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sukalov/cifrabot/internal/db"
)

const maxListed = 50

type songSummary struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Key    string `json:"key,omitempty"`
	Views  int    `json:"views"`
}

func summarize(songs []db.Song) []songSummary {
	if len(songs) > maxListed {
		songs = songs[:maxListed]
	}
	out := make([]songSummary, 0, len(songs))
	for _, song := range songs {
		out = append(out, songSummary{
			ID:     song.ID,
			Title:  song.Title,
			Artist: song.Artist,
			Key:    song.Key,
			Views:  song.Views,
		})
	}
	return out
}

// handleListSongs lists the songbook, or searches it when q is given.
func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	var songs []db.Song
	if q := r.URL.Query().Get("q"); q != "" {
		songs = s.songs.SearchSongs(q)
	} else {
		songs = s.songs.All()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total": len(songs),
		"songs": summarize(songs),
	})
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	song, ok := s.songFromURL(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// songFromURL resolves {id} and writes the error response itself when it
// cannot.
func (s *Server) songFromURL(w http.ResponseWriter, r *http.Request) (db.Song, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, "invalid song id", http.StatusBadRequest)
		return db.Song{}, false
	}
	song, found := s.songs.FindSongByID(id)
	if !found {
		jsonError(w, "song not found", http.StatusNotFound)
		return db.Song{}, false
	}
	return song, true
}
