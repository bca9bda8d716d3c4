package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Playlist struct {
	ID          int64     `json:"id"`
	ChatID      int64     `json:"chat_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SongIDs     []int64   `json:"song_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

type Playlists struct {
	db *sql.DB
}

func NewPlaylists(database *sql.DB) *Playlists {
	return &Playlists{db: database}
}

func (p *Playlists) CreatePlaylist(ctx context.Context, chatID int64, name, description string) (Playlist, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Second)
	result, err := p.db.ExecContext(ctx,
		`INSERT INTO playlists (chat_id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		chatID, name, description, now.Unix())
	if err != nil {
		return Playlist{}, fmt.Errorf("failed to create playlist: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Playlist{}, fmt.Errorf("failed to read playlist id: %w", err)
	}
	return Playlist{ID: id, ChatID: chatID, Name: name, Description: description, CreatedAt: now}, nil
}

// ListPlaylists returns the playlists owned by chatID with their song ids.
func (p *Playlists) ListPlaylists(ctx context.Context, chatID int64) ([]Playlist, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := p.db.QueryContext(ctx,
		`SELECT id, chat_id, name, description, created_at FROM playlists WHERE chat_id = ? ORDER BY id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	var lists []Playlist
	for rows.Next() {
		var pl Playlist
		var created int64
		if err := rows.Scan(&pl.ID, &pl.ChatID, &pl.Name, &pl.Description, &created); err != nil {
			return nil, fmt.Errorf("error scanning playlist: %w", err)
		}
		pl.CreatedAt = fromUnix(created)
		lists = append(lists, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	for i := range lists {
		ids, err := p.PlaylistSongs(ctx, lists[i].ID)
		if err != nil {
			return nil, err
		}
		lists[i].SongIDs = ids
	}
	return lists, nil
}

// GetPlaylist returns a playlist if it belongs to chatID.
func (p *Playlists) GetPlaylist(ctx context.Context, chatID, id int64) (Playlist, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var pl Playlist
	var created int64
	err := p.db.QueryRowContext(ctx,
		`SELECT id, chat_id, name, description, created_at FROM playlists WHERE id = ? AND chat_id = ?`, id, chatID).
		Scan(&pl.ID, &pl.ChatID, &pl.Name, &pl.Description, &created)
	if err == sql.ErrNoRows {
		return Playlist{}, fmt.Errorf("playlist %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Playlist{}, fmt.Errorf("failed to fetch playlist: %w", err)
	}
	pl.CreatedAt = fromUnix(created)
	pl.SongIDs, err = p.PlaylistSongs(ctx, id)
	if err != nil {
		return Playlist{}, err
	}
	return pl, nil
}

// PlaylistSongs returns song ids in playlist order.
func (p *Playlists) PlaylistSongs(ctx context.Context, playlistID int64) ([]int64, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT song_id FROM playlist_songs WHERE playlist_id = ? ORDER BY position`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist songs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning playlist song: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddToPlaylist appends a song at the end of the playlist. Adding a song
// that is already there is a no-op.
func (p *Playlists) AddToPlaylist(ctx context.Context, chatID, playlistID, songID int64) error {
	if _, err := p.GetPlaylist(ctx, chatID, playlistID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO playlist_songs (playlist_id, song_id, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_songs WHERE playlist_id = ?))`,
		playlistID, songID, playlistID)
	if err != nil {
		return fmt.Errorf("failed to add song to playlist: %w", err)
	}
	return nil
}

func (p *Playlists) RemoveFromPlaylist(ctx context.Context, chatID, playlistID, songID int64) error {
	if _, err := p.GetPlaylist(ctx, chatID, playlistID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.db.ExecContext(ctx,
		`DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?`, playlistID, songID)
	if err != nil {
		return fmt.Errorf("failed to remove song from playlist: %w", err)
	}
	return nil
}

func (p *Playlists) DeletePlaylist(ctx context.Context, chatID, playlistID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := p.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ? AND chat_id = ?`, playlistID, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("playlist %d: %w", playlistID, ErrNotFound)
	}
	if _, err := p.db.ExecContext(ctx, `DELETE FROM playlist_songs WHERE playlist_id = ?`, playlistID); err != nil {
		return fmt.Errorf("failed to clear playlist songs: %w", err)
	}
	return nil
}
