package amdm

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sukalov/cifrabot/internal/logger"
)

const chordsBlockSelector = `pre[itemprop="chordsBlock"].field__podbor_new.podbor__text`

// Parser handles the HTML parsing and chord sheet extraction
type Parser struct {
	client *Client
	config ProcessingConfig
	now    func() time.Time
}

// NewParser creates a new AmDm parser
func NewParser() *Parser {
	return &Parser{
		client: NewClient(),
		config: DefaultConfig,
		now:    time.Now,
	}
}

// Extract fetches an AmDm.ru page and extracts its chord sheet.
func (p *Parser) Extract(ctx context.Context, pageURL string) (*Result, error) {
	logger.Debug(fmt.Sprintf("amdm: fetching page %s", pageURL))

	page, err := p.client.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	result, err := p.ParseHTML(pageURL, page)
	if err != nil {
		logger.Error(fmt.Sprintf("amdm: failed to parse %s\nError: %v", pageURL, err))
		return nil, err
	}

	logger.Debug(fmt.Sprintf("amdm: extracted %s (%d lyric chars, %d chord chars)",
		pageURL, len(result.Lyrics), len(result.Chords)))
	return result, nil
}

// ParseHTML extracts the chord sheet from an already fetched page.
func (p *Parser) ParseHTML(pageURL, page string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	block := doc.Find(chordsBlockSelector).First()
	if block.Length() == 0 {
		return nil, fmt.Errorf("target element not found")
	}

	block.Find(".podbor__author-comment").Remove()
	block.Find(".podbor__chord").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.AttrOr("data-chord", s.Text()))
		s.ReplaceWithHtml(html.EscapeString(name))
	})

	lyrics, chords := splitSheet(block.Text(), p.config)
	if strings.TrimSpace(lyrics) == "" {
		return nil, fmt.Errorf("no lyrics found")
	}

	title, artist := pageTitle(doc, pageURL)
	return &Result{
		URL:       pageURL,
		Title:     title,
		Artist:    artist,
		Lyrics:    lyrics,
		Chords:    chords,
		FetchedAt: p.now(),
	}, nil
}

// pageTitle reads the song title and artist from the page heading and
// falls back to the URL slugs (/akkordi/<artist>/<id>/<title>/).
func pageTitle(doc *goquery.Document, pageURL string) (title, artist string) {
	heading := doc.Find("h1").First()
	artist = strings.TrimSpace(heading.Find(`[itemprop="byArtist"]`).Text())
	title = strings.TrimSpace(heading.Text())
	if artist != "" {
		title = strings.TrimSpace(strings.TrimPrefix(title, artist))
	}
	title = strings.TrimLeft(title, "-– ")
	title = strings.TrimSuffix(title, "аккорды")
	title = strings.TrimRight(title, ", ")

	if title != "" && artist != "" {
		return title, artist
	}

	slugArtist, slugTitle := urlSlugs(pageURL)
	if title == "" {
		title = slugTitle
	}
	if artist == "" {
		artist = slugArtist
	}
	return title, artist
}

func urlSlugs(pageURL string) (artist, title string) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", ""
	}
	var parts []string
	for _, part := range strings.Split(u.Path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) < 4 {
		return "", ""
	}
	unslug := func(s string) string { return strings.ReplaceAll(s, "_", " ") }
	return unslug(parts[1]), unslug(parts[3])
}
