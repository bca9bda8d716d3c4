// Package favorites keeps per-chat favorite songs and recently opened songs
// on top of an injected key-value store.
package favorites

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Store is the storage capability the services need. redis.DBManager
// implements it.
type Store interface {
	AddFavorite(ctx context.Context, chatID, songID int64) error
	RemoveFavorite(ctx context.Context, chatID, songID int64) error
	IsFavorite(ctx context.Context, chatID, songID int64) (bool, error)
	Favorites(ctx context.Context, chatID int64) ([]int64, error)
	PushHistory(ctx context.Context, chatID int64, entry HistoryEntry, limit int) error
	History(ctx context.Context, chatID int64) ([]HistoryEntry, error)
}

type HistoryEntry struct {
	SongID     int64     `json:"song_id"`
	Title      string    `json:"title"`
	AccessedAt time.Time `json:"accessed_at"`
	Transpose  int       `json:"transpose,omitempty"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Toggle flips the favorite flag of a song and returns the new state.
func (s *Service) Toggle(ctx context.Context, chatID, songID int64) (bool, error) {
	fav, err := s.store.IsFavorite(ctx, chatID, songID)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	if fav {
		if err := s.store.RemoveFavorite(ctx, chatID, songID); err != nil {
			return true, fmt.Errorf("failed to remove favorite: %w", err)
		}
		return false, nil
	}
	if err := s.store.AddFavorite(ctx, chatID, songID); err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return true, nil
}

func (s *Service) IsFavorite(ctx context.Context, chatID, songID int64) (bool, error) {
	return s.store.IsFavorite(ctx, chatID, songID)
}

// List returns the favorite song ids of a chat.
func (s *Service) List(ctx context.Context, chatID int64) ([]int64, error) {
	ids, err := s.store.Favorites(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return ids, nil
}

func (s *Service) Count(ctx context.Context, chatID int64) (int, error) {
	ids, err := s.List(ctx, chatID)
	return len(ids), err
}

// History records which songs a chat opened, newest first.
type History struct {
	store Store
	limit int
	now   func() time.Time
}

func NewHistory(store Store, limit int) *History {
	return &History{store: store, limit: limit, now: time.Now}
}

func (h *History) Record(ctx context.Context, chatID, songID int64, title string, transpose int) error {
	entry := HistoryEntry{SongID: songID, Title: title, AccessedAt: h.now().UTC(), Transpose: transpose}
	if err := h.store.PushHistory(ctx, chatID, entry, h.limit); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// Recent returns the history with consecutive repeats of the same song
// collapsed into the newest one.
func (h *History) Recent(ctx context.Context, chatID int64) ([]HistoryEntry, error) {
	entries, err := h.store.History(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	var out []HistoryEntry
	for _, e := range entries {
		if len(out) > 0 && out[len(out)-1].SongID == e.SongID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Describe formats an entry as "Title (5 minutes ago)".
func (h *History) Describe(e HistoryEntry) string {
	return fmt.Sprintf("%s (%s)", e.Title, humanize.RelTime(e.AccessedAt, h.now(), "ago", "from now"))
}
