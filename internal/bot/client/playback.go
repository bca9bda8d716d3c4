package client

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sukalov/cifrabot/internal/bot"
	"github.com/sukalov/cifrabot/internal/playback"
	"github.com/sukalov/cifrabot/internal/render"
	"github.com/sukalov/cifrabot/internal/state"
)

// sheetUpdater moves the highlight by editing the chat's sheet message.
type sheetUpdater struct {
	b *bot.Bot
	h *ClientHandlers
}

func (u *sheetUpdater) Update(ctx context.Context, frame playback.Frame) error {
	session := frame.Session
	song, found := u.h.Songs.FindSongByID(session.SongID)
	if !found {
		return fmt.Errorf("song %d not found", session.SongID)
	}

	current, status := frame.Current, playback.Status(frame.Elapsed, session.Duration)
	if frame.Done {
		current, status = -1, ""
		if _, err := u.h.Sessions.Edit(ctx, session.ChatID, func(s *state.Session) {
			s.PlayingSince = time.Time{}
			s.Duration = 0
		}); err != nil {
			log.Printf("failed to clear playback of chat %d: %v", session.ChatID, err)
		}
	}

	fav, err := u.h.Favorites.IsFavorite(ctx, session.ChatID, session.SongID)
	if err != nil {
		log.Printf("failed to check favorite: %v", err)
	}
	pages := sheetPages(song, frame.Sheet, session.Transpose, render.Options{Current: current}, status)
	keyboard := sheetKeyboard(fav, !frame.Done)
	return u.b.EditHTML(session.ChatID, session.MessageID, pages[0], &keyboard)
}
