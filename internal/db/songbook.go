package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sukalov/cifrabot/internal/cifra"
)

type Song struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Key        string    `json:"key,omitempty"`
	Capo       int       `json:"capo,omitempty"`
	Lyrics     string    `json:"lyrics"`
	Chords     string    `json:"chords"`
	Content    string    `json:"content,omitempty"`
	Genre      string    `json:"genre,omitempty"`
	Difficulty string    `json:"difficulty,omitempty"`
	AudioURL   string    `json:"audio_url,omitempty"`
	SourceURL  string    `json:"source_url,omitempty"`
	Views      int       `json:"views"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SheetSource returns the text pair to hand to cifra.Parse. Content with
// inline chords wins over the separate lyrics and chords fields.
func (s Song) SheetSource() (lyrics, chords string) {
	if s.Content != "" && cifra.IsInline(s.Content) {
		return s.Content, ""
	}
	if s.Lyrics == "" && s.Content != "" {
		return s.Content, s.Chords
	}
	return s.Lyrics, s.Chords
}

// Sheet parses the song.
func (s Song) Sheet() cifra.Sheet {
	return cifra.Parse(s.SheetSource())
}

// Songbook keeps every song in memory and writes changes through to the
// database.
type Songbook struct {
	db    *sql.DB
	songs []Song
	mu    sync.RWMutex
}

func NewSongbook(database *sql.DB) *Songbook {
	return &Songbook{db: database}
}

const songColumns = `id, title, artist, song_key, capo, lyrics, chords, content, genre, difficulty, audio_url, source_url, views, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSong(row scanner) (Song, error) {
	var song Song
	var created, updated int64
	err := row.Scan(&song.ID, &song.Title, &song.Artist, &song.Key, &song.Capo, &song.Lyrics, &song.Chords,
		&song.Content, &song.Genre, &song.Difficulty, &song.AudioURL, &song.SourceURL, &song.Views, &created, &updated)
	if err != nil {
		return Song{}, err
	}
	song.CreatedAt = fromUnix(created)
	song.UpdatedAt = fromUnix(updated)
	return song, nil
}

// Load replaces the in-memory songbook with the contents of the songs table.
func (s *Songbook) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT "+songColumns+" FROM songs ORDER BY id")
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			log.Printf("error scanning row: %v", err)
			continue
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error during rows iteration: %w", err)
	}

	s.mu.Lock()
	s.songs = songs
	s.mu.Unlock()
	return nil
}

func (s *Songbook) All() []Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Song(nil), s.songs...)
}

func (s *Songbook) FindSongByID(id int64) (Song, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, song := range s.songs {
		if song.ID == id {
			return song, true
		}
	}
	return Song{}, false
}

// FindBySource returns the song imported from url, if any.
func (s *Songbook) FindBySource(url string) (Song, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, song := range s.songs {
		if song.SourceURL != "" && song.SourceURL == url {
			return song, true
		}
	}
	return Song{}, false
}

func FormatSongName(song Song) string {
	if song.Artist == "" {
		return strings.TrimSpace(song.Title)
	}
	return strings.TrimSpace(song.Artist + " - " + song.Title)
}

// SearchSongs matches query against titles, artists and lyrics ignoring case
// and accents. Title matches come first, then artist, then lyrics.
func (s *Songbook) SearchSongs(query string) []Song {
	q := fold(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		song Song
		rank int
	}
	var hits []hit
	for _, song := range s.songs {
		switch {
		case strings.Contains(fold(song.Title), q):
			hits = append(hits, hit{song, 0})
		case strings.Contains(fold(song.Artist), q):
			hits = append(hits, hit{song, 1})
		case strings.Contains(fold(song.Lyrics), q), strings.Contains(fold(song.Sheet().Text()), q):
			hits = append(hits, hit{song, 2})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })

	results := make([]Song, len(hits))
	for i, h := range hits {
		results[i] = h.song
	}
	return results
}

// AddSong inserts a song and returns it with its id and timestamps set.
func (s *Songbook) AddSong(ctx context.Context, song Song) (Song, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Second)
	song.CreatedAt, song.UpdatedAt = now, now

	query := `INSERT INTO songs (title, artist, song_key, capo, lyrics, chords, content, genre, difficulty, audio_url, source_url, views, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`
	result, err := s.db.ExecContext(ctx, query, song.Title, song.Artist, song.Key, song.Capo, song.Lyrics, song.Chords,
		song.Content, song.Genre, song.Difficulty, song.AudioURL, song.SourceURL, now.Unix(), now.Unix())
	if err != nil {
		return Song{}, fmt.Errorf("failed to insert song: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Song{}, fmt.Errorf("failed to read song id: %w", err)
	}
	song.ID = id

	s.mu.Lock()
	s.songs = append(s.songs, song)
	s.mu.Unlock()
	return song, nil
}

// UpdateSong overwrites the editable fields of an existing song.
func (s *Songbook) UpdateSong(ctx context.Context, song Song) (Song, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	song.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	query := `UPDATE songs SET title = ?, artist = ?, song_key = ?, capo = ?, lyrics = ?, chords = ?, content = ?,
		genre = ?, difficulty = ?, audio_url = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, song.Title, song.Artist, song.Key, song.Capo, song.Lyrics, song.Chords,
		song.Content, song.Genre, song.Difficulty, song.AudioURL, song.UpdatedAt.Unix(), song.ID)
	if err != nil {
		return Song{}, fmt.Errorf("failed to update song: %w", err)
	}
	if err := expectRow(result, song.ID); err != nil {
		return Song{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.songs {
		if s.songs[i].ID == song.ID {
			song.CreatedAt = s.songs[i].CreatedAt
			song.Views = s.songs[i].Views
			song.SourceURL = s.songs[i].SourceURL
			s.songs[i] = song
		}
	}
	return song, nil
}

func (s *Songbook) DeleteSong(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	if err := expectRow(result, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM playlist_songs WHERE song_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach song from playlists: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.songs[:0]
	for _, song := range s.songs {
		if song.ID != id {
			kept = append(kept, song)
		}
	}
	s.songs = kept
	return nil
}

func (s *Songbook) IncrementViews(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `UPDATE songs SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment song views: %w", err)
	}
	if err := expectRow(result, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.songs {
		if s.songs[i].ID == id {
			s.songs[i].Views++
		}
	}
	return nil
}

func expectRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("song %d: %w", id, ErrNotFound)
	}
	return nil
}

// IsNotFound reports whether err means the addressed row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
