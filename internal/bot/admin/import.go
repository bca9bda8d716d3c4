package admin

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/cifrabot/internal/bot"
	"github.com/sukalov/cifrabot/internal/db"
	"github.com/sukalov/cifrabot/internal/logger"
	"github.com/sukalov/cifrabot/internal/lyrics"
)

func (h *AdminHandlers) importHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	urls := strings.Fields(update.Message.CommandArguments())
	if len(urls) == 0 {
		return b.SendMessage(chatID, "usage: /import <url> [url...]")
	}

	b.SendMessage(chatID, fmt.Sprintf("importing %d pages...", len(urls)))

	outcomes := h.Importer.ExtractAll(ctx, urls)
	lines := make([]string, 0, len(outcomes))
	imported := 0
	for _, o := range outcomes {
		if o.Err != nil {
			lines = append(lines, fmt.Sprintf("✗ %s: %v", o.URL, o.Err))
			continue
		}
		song, created, err := h.save(ctx, o.Result)
		if err != nil {
			lines = append(lines, fmt.Sprintf("✗ %s: %v", o.URL, err))
			continue
		}
		imported++
		lines = append(lines, importLine(song, created))
	}

	logger.Success(fmt.Sprintf("import by @%s: %d of %d pages\n%s",
		update.Message.From.UserName, imported, len(urls), strings.Join(lines, "\n")))
	return b.SendMessage(chatID, strings.Join(lines, "\n"))
}

// save adds an imported sheet, or refreshes the song imported earlier from
// the same URL.
func (h *AdminHandlers) save(ctx context.Context, result *lyrics.SheetResult) (db.Song, bool, error) {
	song := result.Song()
	existing, found := h.Songs.FindBySource(result.URL)
	if !found {
		added, err := h.Songs.AddSong(ctx, song)
		return added, true, err
	}

	h.Sheets.Forget(existing)
	song.ID = existing.ID
	song.Capo = existing.Capo
	song.Genre = existing.Genre
	song.Difficulty = existing.Difficulty
	song.AudioURL = existing.AudioURL
	updated, err := h.Songs.UpdateSong(ctx, song)
	return updated, false, err
}

func importLine(song db.Song, created bool) string {
	verb := "added"
	if !created {
		verb = "updated"
	}
	return fmt.Sprintf("✓ %s #%d %s", verb, song.ID, db.FormatSongName(song))
}
