package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Session is what a chat is currently looking at.
type Session struct {
	ChatID       int64         `json:"chat_id"`
	SongID       int64         `json:"song_id"`
	Transpose    int           `json:"transpose"`
	MessageID    int           `json:"message_id,omitempty"`
	PlayingSince time.Time     `json:"playing_since,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Playing reports whether the session is following playback.
func (s Session) Playing() bool {
	return !s.PlayingSince.IsZero() && s.Duration > 0
}

// Elapsed returns how far into playback the session is at now, capped at
// the song duration.
func (s Session) Elapsed(now time.Time) time.Duration {
	if !s.Playing() {
		return 0
	}
	elapsed := now.Sub(s.PlayingSince)
	if elapsed < 0 {
		return 0
	}
	if elapsed > s.Duration {
		return s.Duration
	}
	return elapsed
}

// Persister stores the session list. redis.DBManager implements it.
type Persister interface {
	SaveSessions(ctx context.Context, list []Session) error
	LoadSessions(ctx context.Context) ([]Session, error)
}

type StateManager struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	store    Persister
	now      func() time.Time
}

type ByUpdated []Session

func (a ByUpdated) Len() int           { return len(a) }
func (a ByUpdated) Less(i, j int) bool { return a[i].UpdatedAt.Before(a[j].UpdatedAt) }
func (a ByUpdated) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }

func NewStateManager(store Persister) *StateManager {
	return &StateManager{
		sessions: make(map[int64]Session),
		store:    store,
		now:      time.Now,
	}
}

// Init loads the saved sessions.
func (sm *StateManager) Init(ctx context.Context) error {
	list, err := sm.store.LoadSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions = make(map[int64]Session, len(list))
	for _, s := range list {
		sm.sessions[s.ChatID] = s
	}
	return nil
}

func (sm *StateManager) Get(chatID int64) (Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[chatID]
	return s, ok
}

// Set replaces the session of s.ChatID and persists the list.
func (sm *StateManager) Set(ctx context.Context, s Session) error {
	sm.mu.Lock()
	s.UpdatedAt = sm.now().UTC()
	sm.sessions[s.ChatID] = s
	list := sm.snapshot()
	sm.mu.Unlock()
	return sm.save(ctx, list)
}

// Edit applies fn to an existing session. It fails when the chat has none.
func (sm *StateManager) Edit(ctx context.Context, chatID int64, fn func(*Session)) (Session, error) {
	sm.mu.Lock()
	s, ok := sm.sessions[chatID]
	if !ok {
		sm.mu.Unlock()
		return Session{}, fmt.Errorf("session for chat %d not found", chatID)
	}
	fn(&s)
	s.ChatID = chatID
	s.UpdatedAt = sm.now().UTC()
	sm.sessions[chatID] = s
	list := sm.snapshot()
	sm.mu.Unlock()
	return s, sm.save(ctx, list)
}

func (sm *StateManager) Remove(ctx context.Context, chatID int64) error {
	sm.mu.Lock()
	delete(sm.sessions, chatID)
	list := sm.snapshot()
	sm.mu.Unlock()
	return sm.save(ctx, list)
}

// GetAll returns every session, oldest update first.
func (sm *StateManager) GetAll() []Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.snapshot()
}

// GetAllPlaying returns the sessions that follow playback.
func (sm *StateManager) GetAllPlaying() []Session {
	var playing []Session
	for _, s := range sm.GetAll() {
		if s.Playing() {
			playing = append(playing, s)
		}
	}
	return playing
}

func (sm *StateManager) Sync(ctx context.Context) error {
	return sm.save(ctx, sm.GetAll())
}

// snapshot must be called with sm.mu held.
func (sm *StateManager) snapshot() []Session {
	list := make([]Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		list = append(list, s)
	}
	sort.Sort(ByUpdated(list))
	return list
}

func (sm *StateManager) save(ctx context.Context, list []Session) error {
	if err := sm.store.SaveSessions(ctx, list); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}
