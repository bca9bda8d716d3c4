package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/cifrabot/internal/bot"
	"github.com/sukalov/cifrabot/internal/bot/common"
	"github.com/sukalov/cifrabot/internal/cifra"
	"github.com/sukalov/cifrabot/internal/db"
)

// searchHandler answers "/search <words>" with a keyboard of song cards.
func (h *AdminHandlers) searchHandler(_ context.Context, b *bot.Bot, update tgbotapi.Update) error {
	return h.sendResults(b, update.Message.Chat.ID, update.Message.CommandArguments())
}

// searchMessageHandler treats plain admin messages as search queries.
func (h *AdminHandlers) searchMessageHandler(_ context.Context, b *bot.Bot, update tgbotapi.Update) error {
	if update.Message == nil || update.Message.IsCommand() {
		return nil
	}
	return h.sendResults(b, update.Message.Chat.ID, update.Message.Text)
}

func (h *AdminHandlers) sendResults(b *bot.Bot, chatID int64, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return b.SendMessage(chatID, "type a song title or artist to find it")
	}

	results := h.Songs.SearchSongs(query)
	if len(results) == 0 {
		return b.SendMessage(chatID, "nothing found")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, song := range results {
		if len(rows) >= common.MaxButtons {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(db.FormatSongName(song), fmt.Sprintf("%s:%d", cbEdit, song.ID)),
		))
	}

	return b.SendMessageWithButtons(chatID, common.ResultsTitle("found songs:", len(results)), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *AdminHandlers) editSongCallback(_ context.Context, b *bot.Bot, update tgbotapi.Update) error {
	query := update.CallbackQuery
	b.AnswerCallback(query.ID, "")
	chatID := query.Message.Chat.ID

	id, err := common.ParseID(common.CallbackArg(query.Data))
	if err != nil {
		return err
	}
	song, found := h.Songs.FindSongByID(id)
	if !found {
		return b.SendMessage(chatID, "song not found")
	}

	return b.SendMessageWithButtons(chatID, songCard(song, time.Now()),
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("delete", fmt.Sprintf("%s:%d", cbDelete, song.ID)),
			),
		),
	)
}

// songCard summarizes a song for admins.
func songCard(song db.Song, now time.Time) string {
	sheet := song.Sheet()
	lines := []string{
		fmt.Sprintf("#%d %s", song.ID, db.FormatSongName(song)),
		fmt.Sprintf("key: %s", cifra.KeyName(song.Key, 0)),
		fmt.Sprintf("sections: %d, chords: %d", len(sheet.Sections), sheet.ChordCount()),
		fmt.Sprintf("views: %s", humanize.Comma(int64(song.Views))),
	}
	if song.SourceURL != "" {
		lines = append(lines, "source: "+song.SourceURL)
	}
	if !song.CreatedAt.IsZero() {
		lines = append(lines, "added "+humanize.RelTime(song.CreatedAt, now, "ago", "from now"))
	}
	if !song.UpdatedAt.IsZero() && song.UpdatedAt.After(song.CreatedAt) {
		lines = append(lines, "edited "+humanize.RelTime(song.UpdatedAt, now, "ago", "from now"))
	}
	return strings.Join(lines, "\n")
}
