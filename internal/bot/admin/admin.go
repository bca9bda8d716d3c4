package admin

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/cifrabot/internal/bot"
	"github.com/sukalov/cifrabot/internal/bot/common"
	"github.com/sukalov/cifrabot/internal/db"
	"github.com/sukalov/cifrabot/internal/logger"
	"github.com/sukalov/cifrabot/internal/lyrics"
	"github.com/sukalov/cifrabot/internal/sheets"
)

const helpText = `songbook admin

/search <words> - find a song and open its card
/import <url> [url...] - import chord sheets from amdm.ru
/reload - reload the songbook from the database
/delete <id> - delete a song`

const (
	cbEdit          = "edit_song"
	cbDelete        = "delete_song"
	cbConfirmDelete = "confirm_delete"
	cbAbortDelete   = "abort_delete"
)

// Deps are the services the admin bot talks to.
type Deps struct {
	Songs    *db.Songbook
	Sheets   *sheets.Service
	Importer *lyrics.Service
}

type AdminHandlers struct {
	Deps
	admins map[string]bool

	mu sync.Mutex
	// songs awaiting delete confirmation, by chat
	pendingDelete map[int64]int64
}

func NewAdminHandlers(deps Deps, adminUsernames []string) *AdminHandlers {
	admins := make(map[string]bool)
	for _, username := range adminUsernames {
		admins[username] = true
	}

	return &AdminHandlers{
		Deps:          deps,
		admins:        admins,
		pendingDelete: make(map[int64]int64),
	}
}

// only lets admins through to next.
func (h *AdminHandlers) only(next bot.Handler) bot.Handler {
	return func(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
		from, chatID := update.SentFrom(), update.FromChat()
		if from == nil || chatID == nil {
			return nil
		}
		if !h.admins[from.UserName] {
			return b.SendMessage(chatID.ID, "you are not an admin")
		}
		return next(ctx, b, update)
	}
}

func (h *AdminHandlers) reloadHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	if err := h.Songs.Load(ctx); err != nil {
		return logger.LogWithErr("failed to reload songbook", err)
	}
	return b.SendMessage(update.Message.Chat.ID, fmt.Sprintf("songbook reloaded: %d songs", len(h.Songs.All())))
}

func (h *AdminHandlers) deleteHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	id, err := common.ParseID(update.Message.CommandArguments())
	if err != nil {
		return b.SendMessage(chatID, "usage: /delete <id>")
	}
	return h.askDelete(b, chatID, id)
}

func (h *AdminHandlers) askDelete(b *bot.Bot, chatID, songID int64) error {
	song, found := h.Songs.FindSongByID(songID)
	if !found {
		return b.SendMessage(chatID, "song not found")
	}

	h.mu.Lock()
	h.pendingDelete[chatID] = songID
	h.mu.Unlock()

	return b.SendMessageWithButtons(chatID,
		fmt.Sprintf("%s will be deleted for good, together with its place in every list. sure?", db.FormatSongName(song)),
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("delete", cbConfirmDelete),
				tgbotapi.NewInlineKeyboardButtonData("cancel", cbAbortDelete),
			),
		),
	)
}

// takePending returns and forgets the song a chat was asked to confirm.
func (h *AdminHandlers) takePending(chatID int64) (int64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.pendingDelete[chatID]
	delete(h.pendingDelete, chatID)
	return id, ok
}

func (h *AdminHandlers) deleteCallback(_ context.Context, b *bot.Bot, update tgbotapi.Update) error {
	query := update.CallbackQuery
	b.AnswerCallback(query.ID, "")
	id, err := common.ParseID(common.CallbackArg(query.Data))
	if err != nil {
		return err
	}
	return h.askDelete(b, query.Message.Chat.ID, id)
}

func (h *AdminHandlers) confirmHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	query := update.CallbackQuery
	chatID := query.Message.Chat.ID
	b.AnswerCallback(query.ID, "")

	id, ok := h.takePending(chatID)
	if !ok {
		return b.SendMessage(chatID, "this button does not work anymore")
	}
	song, _ := h.Songs.FindSongByID(id)
	if err := h.Songs.DeleteSong(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return b.SendMessage(chatID, "song was already deleted")
		}
		return logger.LogWithErr(fmt.Sprintf("failed to delete song %d", id), err)
	}
	h.Sheets.Forget(song)
	logger.Info(fmt.Sprintf("song deleted by @%s: #%d %s", query.From.UserName, id, db.FormatSongName(song)))
	return b.SendMessage(chatID, "song deleted")
}

func (h *AdminHandlers) abortHandler(_ context.Context, b *bot.Bot, update tgbotapi.Update) error {
	query := update.CallbackQuery
	b.AnswerCallback(query.ID, "")
	if _, ok := h.takePending(query.Message.Chat.ID); ok {
		return b.SendMessage(query.Message.Chat.ID, "ok, cancelled")
	}
	return b.SendMessage(query.Message.Chat.ID, "this button does not work anymore")
}

func (h *AdminHandlers) handlers() bot.Handlers {
	own := bot.Handlers{
		Commands: map[string]bot.Handler{
			"import": h.only(h.importHandler),
			"reload": h.only(h.reloadHandler),
			"delete": h.only(h.deleteHandler),
		},
		Callbacks: map[string]bot.Handler{
			cbEdit:          h.only(h.editSongCallback),
			cbDelete:        h.only(h.deleteCallback),
			cbConfirmDelete: h.only(h.confirmHandler),
			cbAbortDelete:   h.only(h.abortHandler),
		},
		Messages: []bot.Handler{h.only(h.searchMessageHandler)},
	}
	shared := common.GetHandlers(h.Songs, helpText)
	shared.Commands["search"] = h.only(h.searchHandler)
	return own.Merge(shared)
}

func SetupHandlers(ctx context.Context, adminBot *bot.Bot, deps Deps, adminUsernames []string) {
	handlers := NewAdminHandlers(deps, adminUsernames)
	go adminBot.Start(ctx, handlers.handlers())
}
