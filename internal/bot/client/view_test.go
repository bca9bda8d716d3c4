package client

import (
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sukalov/cifrabot/internal/cifra"
	"github.com/sukalov/cifrabot/internal/db"
	"github.com/sukalov/cifrabot/internal/render"
)

func TestSheetPages(t *testing.T) {
	song := db.Song{Title: "Tom & Jerry", Artist: "Band", Key: "C", Capo: 2}
	sheet := cifra.Parse("[C]Hello [G]world", "")

	pages := sheetPages(song, sheet.Transpose(2), 2, render.Options{Current: 1}, "1 m / 3 m")
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	page := pages[0]
	for _, want := range []string{
		"<b>Band - Tom &amp; Jerry</b>",
		"key: D (+2) · capo 2",
		"▶ 1 m / 3 m",
		"<pre>D     [A]\nHello world</pre>",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("expected page to contain %q, got:\n%s", want, page)
		}
	}
}

func TestSheetPages_LongAndEmpty(t *testing.T) {
	song := db.Song{Title: "Long"}
	var lines []string
	for i := 0; i < 400; i++ {
		lines = append(lines, "la la la la la")
	}
	sheet := cifra.Parse(strings.Join(lines, "\n"), "")

	pages := sheetPages(song, sheet, 0, render.DefaultOptions, "")
	if len(pages) < 2 {
		t.Fatalf("expected several pages, got %d", len(pages))
	}
	if !strings.HasPrefix(pages[0], "<b>Long</b>") || strings.Contains(pages[1], "<b>") {
		t.Error("expected the header on the first page only")
	}

	empty := sheetPages(song, cifra.Sheet{}, 0, render.DefaultOptions, "")
	if !strings.Contains(empty[0], "no lyrics yet") {
		t.Errorf("unexpected empty page %q", empty[0])
	}
}

func TestSheetPages_EscapedLyricsFitTelegram(t *testing.T) {
	song := db.Song{Title: "R&B"}
	var lines []string
	for i := 0; i < 300; i++ {
		lines = append(lines, "rock & roll <3 & \"blues\"")
	}
	sheet := cifra.Parse(strings.Join(lines, "\n"), "")

	pages := sheetPages(song, sheet, 0, render.DefaultOptions, "")
	if len(pages) < 2 {
		t.Fatalf("expected several pages, got %d", len(pages))
	}
	for i, page := range pages {
		if n := utf8.RuneCountInString(page); n > 4096 {
			t.Errorf("page %d has %d runes, over the Telegram limit", i, n)
		}
		if !strings.HasSuffix(page, "</pre>") {
			t.Errorf("page %d is not closed: %q", i, page[len(page)-20:])
		}
	}
}

func TestSheetKeyboard(t *testing.T) {
	kb := sheetKeyboard(true, true)
	row := kb.InlineKeyboard[0]
	if len(row) != 4 {
		t.Fatalf("expected 4 buttons, got %d", len(row))
	}
	if row[2].Text != "★" || *row[0].CallbackData != "tr:-1" || *row[3].CallbackData != "stop" {
		t.Errorf("unexpected keyboard %+v", row)
	}
	if got := sheetKeyboard(false, false).InlineKeyboard[0]; len(got) != 3 || got[2].Text != "☆" {
		t.Errorf("unexpected keyboard %+v", got)
	}
}

func TestParsePlayDuration(t *testing.T) {
	tests := []struct {
		arg     string
		want    time.Duration
		wantErr bool
	}{
		{"200", 200 * time.Second, false},
		{"3m20s", 200 * time.Second, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := parsePlayDuration(tt.arg)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parsePlayDuration(%q) = %v, %v", tt.arg, got, err)
		}
	}
}

func TestNormalizeSteps(t *testing.T) {
	for in, want := range map[int]int{0: 0, 3: 3, 12: 0, 13: 1, -1: -1, -13: -1} {
		if got := normalizeSteps(in); got != want {
			t.Errorf("normalizeSteps(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestTopSongs(t *testing.T) {
	counts := map[int64]int{1: 2, 2: 5, 3: 2, 4: 0, 5: 1}
	if got := topSongs(counts, 3); !reflect.DeepEqual(got, []int64{2, 1, 3}) {
		t.Errorf("unexpected order %v", got)
	}
	if got := topSongs(nil, 3); len(got) != 0 {
		t.Errorf("expected no songs, got %v", got)
	}
}

func TestFavoriteReply(t *testing.T) {
	if got := favoriteReply(true, 3); got != "added to favorites (3 in total)" {
		t.Errorf("unexpected reply %q", got)
	}
	if got := favoriteReply(false, 2); got != "removed from favorites" {
		t.Errorf("unexpected reply %q", got)
	}
}
