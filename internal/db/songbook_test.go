package db

import (
	"errors"
	"fmt"
	"testing"
)

func testSongbook() *Songbook {
	return &Songbook{songs: []Song{
		{ID: 1, Title: "Imagine", Artist: "John Lennon", Lyrics: "Imagine there's no heaven", Chords: "C Cmaj7"},
		{ID: 2, Title: "Wonderwall", Artist: "Oasis", Content: "[Em7]Today is gonna be the [G]day"},
		{ID: 3, Title: "Asa Branca", Artist: "Luiz Gonzaga", Lyrics: "Quando olhei a terra ardendo", SourceURL: "https://amdm.ru/x/"},
		{ID: 4, Title: "Garota de Ipanema", Artist: "Tom Jobim", Lyrics: "Olha que coisa mais linda"},
		{ID: 5, Title: "Refrão da saudade", Artist: "Ninguém"},
	}}
}

func TestFindSongByID(t *testing.T) {
	sb := testSongbook()
	song, ok := sb.FindSongByID(2)
	if !ok || song.Title != "Wonderwall" {
		t.Errorf("expected Wonderwall, got %+v (found=%v)", song, ok)
	}
	if _, ok := sb.FindSongByID(99); ok {
		t.Error("expected song 99 to be missing")
	}

	song, ok = sb.FindBySource("https://amdm.ru/x/")
	if !ok || song.ID != 3 {
		t.Errorf("expected song 3 by source, got %+v (found=%v)", song, ok)
	}
	if _, ok := sb.FindBySource(""); ok {
		t.Error("expected empty source to match nothing")
	}
}

func TestFormatSongName(t *testing.T) {
	if got := FormatSongName(Song{Title: "Imagine", Artist: "John Lennon"}); got != "John Lennon - Imagine" {
		t.Errorf("unexpected name %q", got)
	}
	if got := FormatSongName(Song{Title: " Untitled "}); got != "Untitled" {
		t.Errorf("unexpected name %q", got)
	}
}

func TestSearchSongs(t *testing.T) {
	sb := testSongbook()

	tests := []struct {
		query string
		want  []int64
	}{
		{"imagine", []int64{1}},
		{"OASIS", []int64{2}},
		{"refrao", []int64{5}},
		{"ninguem", []int64{5}},
		{"olh", []int64{3, 4}},
		{"today", []int64{2}},
		{"   ", nil},
		{"zzz", nil},
	}
	for _, tt := range tests {
		got := sb.SearchSongs(tt.query)
		var ids []int64
		for _, s := range got {
			ids = append(ids, s.ID)
		}
		if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
			t.Errorf("SearchSongs(%q): expected %v, got %v", tt.query, tt.want, ids)
		}
	}
}

func TestSearchSongs_TitleBeforeArtist(t *testing.T) {
	sb := &Songbook{songs: []Song{
		{ID: 1, Title: "Other", Artist: "Rosa"},
		{ID: 2, Title: "Rosa", Artist: "Pixinguinha"},
	}}
	got := sb.SearchSongs("rosa")
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Errorf("expected title match first, got %+v", got)
	}
}

func TestSongSheetSource(t *testing.T) {
	inline := Song{Lyrics: "plain", Chords: "C", Content: "[G]inline"}
	if l, c := inline.SheetSource(); l != "[G]inline" || c != "" {
		t.Errorf("expected inline content, got %q / %q", l, c)
	}

	pair := Song{Lyrics: "Hello world", Chords: "C G", Content: "Hello world"}
	if l, c := pair.SheetSource(); l != "Hello world" || c != "C G" {
		t.Errorf("expected lyrics/chords pair, got %q / %q", l, c)
	}

	contentOnly := Song{Content: "la la", Chords: "Am"}
	if l, c := contentOnly.SheetSource(); l != "la la" || c != "Am" {
		t.Errorf("expected content as lyrics, got %q / %q", l, c)
	}

	sheet := pair.Sheet()
	if sheet.ChordCount() != 2 {
		t.Errorf("expected 2 chords, got %d", sheet.ChordCount())
	}
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Refrão":    "refrao",
		"ÁGUA":      "agua",
		"coração":   "coracao",
		"plain":     "plain",
		"Ninguém 2": "ninguem 2",
	}
	for in, want := range tests {
		if got := fold(in); got != want {
			t.Errorf("fold(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("song 3: %w", ErrNotFound)) {
		t.Error("expected wrapped ErrNotFound to match")
	}
	if IsNotFound(errors.New("boom")) {
		t.Error("expected unrelated error not to match")
	}
}
