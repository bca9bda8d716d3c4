package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/sukalov/cifrabot/internal/cifra"
	"github.com/sukalov/cifrabot/internal/render"
	"github.com/sukalov/cifrabot/internal/utils"
)

const maxBody = 1 << 20

type location struct {
	Section int `json:"section"`
	Token   int `json:"token"`
}

type sheetResponse struct {
	SongID     int64       `json:"song_id,omitempty"`
	Key        string      `json:"key,omitempty"`
	Transpose  int         `json:"transpose"`
	ChordCount int         `json:"chord_count"`
	Current    int         `json:"current"`
	Location   *location   `json:"location,omitempty"`
	Sheet      cifra.Sheet `json:"sheet"`
	Text       string      `json:"text"`
}

func newSheetResponse(sheet cifra.Sheet, current int) sheetResponse {
	resp := sheetResponse{
		ChordCount: sheet.ChordCount(),
		Current:    current,
		Sheet:      sheet,
		Text:       render.Text(sheet, render.Options{Current: current}),
	}
	if section, token, ok := sheet.Locate(current); ok {
		resp.Location = &location{Section: section, Token: token}
	}
	return resp
}

// handleSongSheet returns the parsed, transposed sheet of a song. With
// progress set, the chord playing at that point is marked.
func (s *Server) handleSongSheet(w http.ResponseWriter, r *http.Request) {
	song, ok := s.songFromURL(w, r)
	if !ok {
		return
	}

	steps := 0
	if v := r.URL.Query().Get("transpose"); v != "" {
		n, err := utils.ParseSteps(v)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		steps = n
	}

	current := -1
	sheet := s.sheets.Sheet(r.Context(), song, steps)
	if v := r.URL.Query().Get("progress"); v != "" {
		progress, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsInf(progress, 0) {
			jsonError(w, "invalid progress", http.StatusBadRequest)
			return
		}
		current = cifra.CurrentChordIndex(sheet, progress)
	}

	resp := newSheetResponse(sheet, current)
	resp.SongID = song.ID
	resp.Key = cifra.KeyName(song.Key, steps)
	resp.Transpose = steps
	writeJSON(w, http.StatusOK, resp)
}

type parseRequest struct {
	Lyrics    string `json:"lyrics"`
	Chords    string `json:"chords"`
	Transpose int    `json:"transpose"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	sheet := s.sheets.Parse(r.Context(), req.Lyrics, req.Chords)
	if req.Transpose%12 != 0 {
		sheet = sheet.Transpose(req.Transpose)
	}
	resp := newSheetResponse(sheet, -1)
	resp.Transpose = req.Transpose
	writeJSON(w, http.StatusOK, resp)
}

type transposeRequest struct {
	Text  string `json:"text"`
	Steps int    `json:"steps"`
}

// handleTranspose shifts every chord found in free text.
func (s *Server) handleTranspose(w http.ResponseWriter, r *http.Request) {
	var req transposeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"text":   cifra.TransposeAll(req.Text, req.Steps),
		"chords": cifra.ExtractChords(req.Text),
	})
}
