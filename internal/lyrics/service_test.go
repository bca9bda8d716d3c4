package lyrics

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sukalov/cifrabot/internal/lyrics/parsers/amdm"
)

type fakeExtractor struct {
	calls  int32
	active int32
	peak   int32
}

func (f *fakeExtractor) Extract(_ context.Context, pageURL string) (*amdm.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if strings.HasSuffix(pageURL, "/broken") {
		return nil, errors.New("boom")
	}
	return &amdm.Result{
		URL:    pageURL,
		Title:  "Song",
		Artist: "Artist",
		Lyrics: "Hello world",
		Chords: "F#m7 E",
	}, nil
}

func TestExtract(t *testing.T) {
	s := NewService(2)
	fake := &fakeExtractor{}
	s.Register("example.com", fake)

	result, err := s.Extract(context.Background(), "https://www.example.com/song/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Source != "example.com" || result.Key != "F#m" {
		t.Errorf("unexpected result %+v", result)
	}

	song := result.Song()
	if song.SourceURL != "https://www.example.com/song/1" || song.Chords != "F#m7 E" {
		t.Errorf("unexpected song %+v", song)
	}

	for _, u := range []string{"https://unknown.org/x", "not a url", "https://notexample.com/x"} {
		if _, err := s.Extract(context.Background(), u); err == nil {
			t.Errorf("expected error for %q", u)
		}
	}
}

func TestExtractAll(t *testing.T) {
	s := NewService(2)
	fake := &fakeExtractor{}
	s.Register("example.com", fake)

	urls := []string{
		"https://example.com/1",
		"https://example.com/broken",
		"https://example.com/3",
		"https://example.com/4",
		"https://example.com/5",
	}
	outcomes := s.ExtractAll(context.Background(), urls)
	if len(outcomes) != len(urls) {
		t.Fatalf("expected %d outcomes, got %d", len(urls), len(outcomes))
	}
	for i, o := range outcomes {
		if o.URL != urls[i] {
			t.Errorf("outcome %d: expected %q, got %q", i, urls[i], o.URL)
		}
	}
	if outcomes[1].Err == nil {
		t.Error("expected the broken page to fail")
	}
	if outcomes[0].Err != nil || outcomes[0].Result == nil {
		t.Errorf("expected first page to succeed, got %v", outcomes[0].Err)
	}
	if fake.peak > 2 {
		t.Errorf("expected at most 2 concurrent fetches, got %d", fake.peak)
	}
}

func TestExtractAll_Cancelled(t *testing.T) {
	s := NewService(1)
	s.Register("example.com", &fakeExtractor{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, o := range s.ExtractAll(ctx, []string{"https://example.com/1", "https://example.com/2"}) {
		if o.Err == nil {
			t.Errorf("expected %q to fail on a cancelled context", o.URL)
		}
	}
}

func TestGuessKey(t *testing.T) {
	tests := []struct {
		chords, want string
	}{
		{"\n  Am7  Dm\nE", "Am"},
		{"Cmaj7 G", "C"},
		{"Bb F", "Bb"},
		{"", ""},
		{"\n\n", ""},
	}
	for _, tt := range tests {
		if got := GuessKey(tt.chords); got != tt.want {
			t.Errorf("GuessKey(%q) = %q, want %q", tt.chords, got, tt.want)
		}
	}
}
