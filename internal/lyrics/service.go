package lyrics

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/remeh/sizedwaitgroup"
	"github.com/sukalov/cifrabot/internal/cifra"
	"github.com/sukalov/cifrabot/internal/db"
	"github.com/sukalov/cifrabot/internal/logger"
	"github.com/sukalov/cifrabot/internal/lyrics/parsers/amdm"
)

// SheetResult represents a chord sheet fetched from a chord site
type SheetResult struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Key       string    `json:"key,omitempty"`
	Lyrics    string    `json:"lyrics"`
	Chords    string    `json:"chords"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Song converts the result into a songbook entry.
func (r SheetResult) Song() db.Song {
	return db.Song{
		Title:     r.Title,
		Artist:    r.Artist,
		Key:       r.Key,
		Lyrics:    r.Lyrics,
		Chords:    r.Chords,
		SourceURL: r.URL,
	}
}

// Extractor fetches one page of a chord site.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (*amdm.Result, error)
}

// Service handles sheet extraction for different sources
type Service struct {
	extractors  map[string]Extractor
	concurrency int
}

// NewService creates a service that knows amdm.ru and fetches at most
// concurrency pages at once in ExtractAll.
func NewService(concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		extractors:  map[string]Extractor{"amdm.ru": amdm.NewParser()},
		concurrency: concurrency,
	}
}

// Register adds an extractor for a host and its subdomains.
func (s *Service) Register(host string, e Extractor) {
	s.extractors[host] = e
}

func (s *Service) extractorFor(pageURL string) (string, Extractor, bool) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return "", nil, false
	}
	host := strings.ToLower(u.Hostname())
	for source, e := range s.extractors {
		if host == source || strings.HasSuffix(host, "."+source) {
			return source, e, true
		}
	}
	return "", nil, false
}

// Extract fetches a chord sheet from a URL based on the source
func (s *Service) Extract(ctx context.Context, pageURL string) (*SheetResult, error) {
	source, extractor, ok := s.extractorFor(pageURL)
	if !ok {
		return nil, fmt.Errorf("unsupported URL source: %s", pageURL)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := extractor.Extract(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", pageURL, err)
	}

	return &SheetResult{
		URL:       result.URL,
		Title:     result.Title,
		Artist:    result.Artist,
		Key:       GuessKey(result.Chords),
		Lyrics:    result.Lyrics,
		Chords:    result.Chords,
		Source:    source,
		FetchedAt: result.FetchedAt,
	}, nil
}

// Outcome is the result of one URL of a batch.
type Outcome struct {
	URL    string
	Result *SheetResult
	Err    error
}

// ExtractAll fetches every URL with bounded concurrency. Outcomes keep the
// order of urls.
func (s *Service) ExtractAll(ctx context.Context, urls []string) []Outcome {
	outcomes := make([]Outcome, len(urls))
	wg := sizedwaitgroup.New(s.concurrency)
	for i, u := range urls {
		if err := wg.AddWithContext(ctx); err != nil {
			outcomes[i] = Outcome{URL: u, Err: err}
			continue
		}
		go func(i int, u string) {
			defer wg.Done()
			result, err := s.Extract(ctx, u)
			outcomes[i] = Outcome{URL: u, Result: result, Err: err}
		}(i, u)
	}
	wg.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		logger.Error(fmt.Sprintf("import: %d of %d pages failed", failed, len(urls)))
	}
	return outcomes
}

// GuessKey takes the first chord of a chord text as the song key, keeping
// a minor quality ("Am7" gives "Am").
func GuessKey(chords string) string {
	for _, line := range strings.Split(chords, "\n") {
		found := cifra.ExtractChords(line)
		if len(found) == 0 {
			continue
		}
		chord, ok := cifra.ParseChord(found[0])
		if !ok {
			continue
		}
		key := chord.Key()
		if strings.HasPrefix(chord.Suffix, "m") && !strings.HasPrefix(chord.Suffix, "maj") {
			key += "m"
		}
		return key
	}
	return ""
}
