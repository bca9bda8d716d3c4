package common

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/cifrabot/internal/bot"
	"github.com/sukalov/cifrabot/internal/db"
)

// MaxButtons limits song keyboards so they stay usable on a phone.
const MaxButtons = 10

// SongCallback is the callback data prefix that opens a song.
const SongCallback = "song"

// SongFinder is the part of the songbook the shared handlers read.
type SongFinder interface {
	SearchSongs(query string) []db.Song
	FindSongByID(id int64) (db.Song, bool)
}

type CommonHandlers struct {
	songs    SongFinder
	helpText string
}

func newCommonHandlers(songs SongFinder, helpText string) *CommonHandlers {
	return &CommonHandlers{songs: songs, helpText: helpText}
}

// GetHandlers returns the commands both bots answer: /help and /search.
func GetHandlers(songs SongFinder, helpText string) bot.Handlers {
	h := newCommonHandlers(songs, helpText)
	return bot.Handlers{
		Commands: map[string]bot.Handler{
			"help":   h.helpHandler,
			"search": h.searchHandler,
		},
	}
}

func (h *CommonHandlers) helpHandler(_ context.Context, b *bot.Bot, update tgbotapi.Update) error {
	return b.SendMessage(update.Message.Chat.ID, h.helpText)
}

func (h *CommonHandlers) searchHandler(_ context.Context, b *bot.Bot, update tgbotapi.Update) error {
	return SendSearchResults(b, update.Message.Chat.ID, h.songs, update.Message.CommandArguments())
}

// SendSearchResults answers a search query with a keyboard of matching songs.
func SendSearchResults(b *bot.Bot, chatID int64, songs SongFinder, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return b.SendMessage(chatID, "what are we looking for? try /search asa branca")
	}

	results := songs.SearchSongs(query)
	if len(results) == 0 {
		return b.SendMessage(chatID, "nothing found")
	}

	return b.SendMessageWithButtons(chatID, ResultsTitle("found songs:", len(results)), SongKeyboard(results))
}

// ResultsTitle adds a "first N of M" note when a list is cut.
func ResultsTitle(title string, total int) string {
	if total > MaxButtons {
		return fmt.Sprintf("%s\n(showing first %d of %d)", title, MaxButtons, total)
	}
	return title
}

// SongKeyboard builds one button per song, at most MaxButtons.
func SongKeyboard(songs []db.Song) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, song := range songs {
		if len(rows) >= MaxButtons {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(db.FormatSongName(song), SongData(song.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func SongData(id int64) string {
	return SongCallback + ":" + strconv.FormatInt(id, 10)
}

// CallbackArg returns the part of callback data after the first ':'.
func CallbackArg(data string) string {
	_, arg, _ := strings.Cut(data, ":")
	return arg
}

// ParseID reads a numeric id from a command argument or callback data.
func ParseID(arg string) (int64, error) {
	arg = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(arg), "#"))
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
