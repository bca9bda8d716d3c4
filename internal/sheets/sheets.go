// Package sheets memoizes parsed chord sheets. Parsing is pure, so a sheet
// is keyed by a hash of the text it was parsed from.
package sheets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sukalov/cifrabot/internal/cifra"
	"github.com/sukalov/cifrabot/internal/db"
)

// Cache is a shared sheet store such as redis.
type Cache interface {
	GetSheet(ctx context.Context, key string) (cifra.Sheet, bool, error)
	SetSheet(ctx context.Context, key string, sheet cifra.Sheet, ttl time.Duration) error
}

// DefaultLocalSize is the number of sheets kept in process when no size
// is configured.
const DefaultLocalSize = 512

type Service struct {
	cache Cache
	ttl   time.Duration
	local *lru.Cache[string, cifra.Sheet]
}

// NewService builds a sheet service. cache may be nil, in which case only
// the in-process LRU of up to localSize sheets is used.
func NewService(cache Cache, ttl time.Duration, localSize int) *Service {
	if localSize <= 0 {
		localSize = DefaultLocalSize
	}
	local, _ := lru.New[string, cifra.Sheet](localSize)
	return &Service{cache: cache, ttl: ttl, local: local}
}

// Key identifies a (lyrics, chords) pair.
func Key(lyrics, chords string) string {
	h := sha256.New()
	h.Write([]byte(lyrics))
	h.Write([]byte{0})
	h.Write([]byte(chords))
	return hex.EncodeToString(h.Sum(nil))
}

// Parse returns the sheet for (lyrics, chords), parsing it at most once per
// distinct input. Cache failures fall back to parsing.
func (s *Service) Parse(ctx context.Context, lyrics, chords string) cifra.Sheet {
	key := Key(lyrics, chords)

	sheet, ok := s.local.Get(key)
	if ok {
		return sheet
	}

	if s.cache != nil {
		cached, found, err := s.cache.GetSheet(ctx, key)
		if err != nil {
			log.Printf("sheet cache read failed: %v", err)
		} else if found {
			s.local.Add(key, cached)
			return cached
		}
	}

	sheet = cifra.Parse(lyrics, chords)
	s.local.Add(key, sheet)
	if s.cache != nil {
		if err := s.cache.SetSheet(ctx, key, sheet, s.ttl); err != nil {
			log.Printf("sheet cache write failed: %v", err)
		}
	}
	return sheet
}

// Sheet returns the song's sheet transposed by steps.
func (s *Service) Sheet(ctx context.Context, song db.Song, steps int) cifra.Sheet {
	lyrics, chords := song.SheetSource()
	sheet := s.Parse(ctx, lyrics, chords)
	if steps%12 == 0 {
		return sheet
	}
	return sheet.Transpose(steps)
}

// Forget drops the in-process copy, e.g. after a song was edited.
func (s *Service) Forget(song db.Song) {
	lyrics, chords := song.SheetSource()
	s.local.Remove(Key(lyrics, chords))
}

// Len reports how many sheets are held in process.
func (s *Service) Len() int {
	return s.local.Len()
}
