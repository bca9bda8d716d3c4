package client

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/cifrabot/internal/bot"
	"github.com/sukalov/cifrabot/internal/bot/common"
	"github.com/sukalov/cifrabot/internal/db"
	"github.com/sukalov/cifrabot/internal/favorites"
	"github.com/sukalov/cifrabot/internal/playback"
	"github.com/sukalov/cifrabot/internal/render"
	"github.com/sukalov/cifrabot/internal/sheets"
	"github.com/sukalov/cifrabot/internal/state"
	"github.com/sukalov/cifrabot/internal/utils"
)

const helpText = `chord sheets with transposition

/search <words> - find a song
/song <id> - open a song
/up, /down - transpose the open song by a semitone
/key <n> - set the offset, e.g. /key -2 (with no song open it becomes your default)
/fav - add or remove the open song from favorites
/favs - your favorites
/history - recently opened songs
/top - songs you open most
/play <seconds> - follow the chords while the song plays
/stop - stop following
/lists - your lists
/newlist <name> - create a list
/addto <list id> - add the open song to a list
/unlist <list id> - remove the open song from a list
/list <id> - songs of a list
/droplist <id> - delete a list`

// PlayCounter counts how often a chat opened a song.
type PlayCounter interface {
	IncrementSongCount(ctx context.Context, chatID, songID int64) error
	GetSongCounts(ctx context.Context, chatID int64) (map[int64]int, error)
}

// Deps are the services the client bot talks to.
type Deps struct {
	Songs     *db.Songbook
	Users     *db.Users
	Playlists *db.Playlists
	Sheets    *sheets.Service
	Sessions  *state.StateManager
	Favorites *favorites.Service
	History   *favorites.History
	Counter   PlayCounter
	Tick      time.Duration
}

type ClientHandlers struct {
	Deps
	follower *playback.Follower
}

func NewClientHandlers(deps Deps, clientBot *bot.Bot) *ClientHandlers {
	h := &ClientHandlers{Deps: deps}
	h.follower = playback.NewFollower(&sheetUpdater{b: clientBot, h: h}, deps.Tick)
	return h
}

// Close stops every playback follower.
func (h *ClientHandlers) Close() {
	h.follower.StopAll()
}

func (h *ClientHandlers) startHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	message := update.Message
	from := message.From
	if from != nil {
		if err := h.Users.RegisterUser(ctx, message.Chat.ID, from.UserName, from.FirstName, from.LastName); err != nil {
			log.Printf("error registering user: %v", err)
		}
	}

	if arg := message.CommandArguments(); arg != "" {
		id, err := common.ParseID(arg)
		if err != nil {
			return b.SendMessage(message.Chat.ID, "sorry, there is no song with that id")
		}
		return h.showSong(ctx, b, message.Chat.ID, id)
	}

	return b.SendMessage(message.Chat.ID, "hi! send me a song name to search, or /help for everything else")
}

func (h *ClientHandlers) songHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	id, err := common.ParseID(update.Message.CommandArguments())
	if err != nil {
		return b.SendMessage(chatID, "usage: /song <id>")
	}
	return h.showSong(ctx, b, chatID, id)
}

// showSong sends a song as a fresh sheet message and makes it the chat's
// open song. Reopening the same song keeps its offset; a new song starts at
// the user's default offset.
func (h *ClientHandlers) showSong(ctx context.Context, b *bot.Bot, chatID, songID int64) error {
	song, found := h.Songs.FindSongByID(songID)
	if !found {
		return b.SendMessage(chatID, "sorry, there is no song with that id")
	}

	h.follower.Stop(chatID)

	steps := 0
	if prev, ok := h.Sessions.Get(chatID); ok && prev.SongID == songID {
		steps = prev.Transpose
	} else if user, err := h.Users.GetUserByChatID(ctx, chatID); err == nil {
		steps = user.DefaultTranspose
	}

	sheet := h.Sheets.Sheet(ctx, song, steps)
	fav, err := h.Favorites.IsFavorite(ctx, chatID, songID)
	if err != nil {
		log.Printf("failed to check favorite: %v", err)
	}

	messageID, err := sendPages(b, chatID, sheetPages(song, sheet, steps, render.DefaultOptions, ""), sheetKeyboard(fav, false))
	if err != nil {
		return err
	}

	if err := h.Sessions.Set(ctx, state.Session{ChatID: chatID, SongID: songID, Transpose: steps, MessageID: messageID}); err != nil {
		log.Printf("failed to save session: %v", err)
	}
	if err := h.History.Record(ctx, chatID, songID, db.FormatSongName(song), steps); err != nil {
		log.Printf("%v", err)
	}
	if err := h.Counter.IncrementSongCount(ctx, chatID, songID); err != nil {
		log.Printf("%v", err)
	}
	if err := h.Songs.IncrementViews(ctx, songID); err != nil {
		log.Printf("failed to count view of song %d: %v", songID, err)
	}
	return nil
}

// sendPages sends the pages in order with the keyboard under the first one
// and returns the id of that first message.
func sendPages(b *bot.Bot, chatID int64, pages []string, keyboard tgbotapi.InlineKeyboardMarkup) (int, error) {
	firstID := 0
	for i, page := range pages {
		var kb *tgbotapi.InlineKeyboardMarkup
		if i == 0 {
			kb = &keyboard
		}
		id, err := b.SendHTML(chatID, page, kb)
		if err != nil {
			return firstID, fmt.Errorf("failed to send sheet: %w", err)
		}
		if i == 0 {
			firstID = id
		}
	}
	return firstID, nil
}

// refresh redraws the open song in place.
func (h *ClientHandlers) refresh(ctx context.Context, b *bot.Bot, session state.Session, current int, status string) error {
	song, found := h.Songs.FindSongByID(session.SongID)
	if !found {
		if err := h.Sessions.Remove(ctx, session.ChatID); err != nil {
			log.Printf("failed to drop session of chat %d: %v", session.ChatID, err)
		}
		return b.SendMessage(session.ChatID, "this song is gone from the songbook")
	}
	sheet := h.Sheets.Sheet(ctx, song, session.Transpose)
	fav, err := h.Favorites.IsFavorite(ctx, session.ChatID, session.SongID)
	if err != nil {
		log.Printf("failed to check favorite: %v", err)
	}

	pages := sheetPages(song, sheet, session.Transpose, render.Options{Current: current}, status)
	keyboard := sheetKeyboard(fav, session.Playing())
	if session.MessageID == 0 {
		_, err := sendPages(b, session.ChatID, pages, keyboard)
		return err
	}
	return b.EditHTML(session.ChatID, session.MessageID, pages[0], &keyboard)
}

func (h *ClientHandlers) openSession(b *bot.Bot, chatID int64) (state.Session, bool, error) {
	session, ok := h.Sessions.Get(chatID)
	if !ok {
		return session, false, b.SendMessage(chatID, "open a song first: /search or /song <id>")
	}
	return session, true, nil
}

func (h *ClientHandlers) transpose(ctx context.Context, b *bot.Bot, chatID int64, fn func(int) int) error {
	if _, ok, err := h.openSession(b, chatID); !ok {
		return err
	}
	session, err := h.Sessions.Edit(ctx, chatID, func(s *state.Session) {
		s.Transpose = normalizeSteps(fn(s.Transpose))
	})
	if err != nil {
		return err
	}
	if session.Playing() {
		return h.follow(ctx, session)
	}
	return h.refresh(ctx, b, session, -1, "")
}

func (h *ClientHandlers) upHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	return h.transpose(ctx, b, update.Message.Chat.ID, func(n int) int { return n + 1 })
}

func (h *ClientHandlers) downHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	return h.transpose(ctx, b, update.Message.Chat.ID, func(n int) int { return n - 1 })
}

func (h *ClientHandlers) keyHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	steps, err := utils.ParseSteps(update.Message.CommandArguments())
	if err != nil {
		return b.SendMessage(chatID, "usage: /key <semitones>, e.g. /key -2")
	}
	steps = normalizeSteps(steps)

	if _, ok := h.Sessions.Get(chatID); !ok {
		if err := h.Users.SetDefaultTranspose(ctx, chatID, steps); err != nil {
			if db.IsNotFound(err) {
				return b.SendMessage(chatID, "press /start first")
			}
			return err
		}
		return b.SendMessage(chatID, fmt.Sprintf("new songs will open transposed by %+d", steps))
	}
	return h.transpose(ctx, b, chatID, func(int) int { return steps })
}

func (h *ClientHandlers) toggleFavorite(ctx context.Context, b *bot.Bot, chatID int64) (string, error) {
	session, ok, err := h.openSession(b, chatID)
	if !ok {
		return "", err
	}
	on, err := h.Favorites.Toggle(ctx, chatID, session.SongID)
	if err != nil {
		return "", err
	}
	if err := h.refresh(ctx, b, session, -1, ""); err != nil {
		log.Printf("failed to redraw sheet: %v", err)
	}
	total, err := h.Favorites.Count(ctx, chatID)
	if err != nil {
		log.Printf("%v", err)
	}
	return favoriteReply(on, total), nil
}

func (h *ClientHandlers) favHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	text, err := h.toggleFavorite(ctx, b, update.Message.Chat.ID)
	if err != nil || text == "" {
		return err
	}
	return b.SendMessage(update.Message.Chat.ID, text)
}

func (h *ClientHandlers) songsByID(ids []int64) []db.Song {
	var songs []db.Song
	for _, id := range ids {
		if song, ok := h.Songs.FindSongByID(id); ok {
			songs = append(songs, song)
		}
	}
	return songs
}

func (h *ClientHandlers) favsHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	ids, err := h.Favorites.List(ctx, chatID)
	if err != nil {
		return err
	}
	songs := h.songsByID(ids)
	if len(songs) == 0 {
		return b.SendMessage(chatID, "no favorites yet. open a song and press ☆")
	}
	return b.SendMessageWithButtons(chatID, common.ResultsTitle("your favorites:", len(songs)), common.SongKeyboard(songs))
}

func (h *ClientHandlers) historyHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	entries, err := h.History.Recent(ctx, chatID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return b.SendMessage(chatID, "you have not opened any songs yet")
	}

	var sb strings.Builder
	sb.WriteString("recently opened:\n")
	var ids []int64
	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, h.History.Describe(e)))
		ids = append(ids, e.SongID)
	}
	return b.SendMessageWithButtons(chatID, sb.String(), common.SongKeyboard(h.songsByID(ids)))
}

func (h *ClientHandlers) topHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	counts, err := h.Counter.GetSongCounts(ctx, chatID)
	if err != nil {
		return err
	}
	songs := h.songsByID(topSongs(counts, common.MaxButtons))
	if len(songs) == 0 {
		return b.SendMessage(chatID, "you have not opened any songs yet")
	}
	return b.SendMessageWithButtons(chatID, "your most opened songs:", common.SongKeyboard(songs))
}

func (h *ClientHandlers) playHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	duration, err := parsePlayDuration(update.Message.CommandArguments())
	if err != nil {
		return b.SendMessage(chatID, "usage: /play <seconds>, e.g. /play 200 or /play 3m20s")
	}
	if _, ok, err := h.openSession(b, chatID); !ok {
		return err
	}

	session, err := h.Sessions.Edit(ctx, chatID, func(s *state.Session) {
		s.PlayingSince = time.Now()
		s.Duration = duration
	})
	if err != nil {
		return err
	}
	if err := h.follow(ctx, session); err != nil {
		return b.SendMessage(chatID, "can't follow this song: "+err.Error())
	}
	return nil
}

// follow (re)starts the playback follower for a playing session.
func (h *ClientHandlers) follow(ctx context.Context, session state.Session) error {
	song, found := h.Songs.FindSongByID(session.SongID)
	if !found {
		return fmt.Errorf("song %d not found", session.SongID)
	}
	sheet := h.Sheets.Sheet(ctx, song, session.Transpose)
	return h.follower.Start(ctx, session, sheet)
}

func (h *ClientHandlers) stopPlayback(ctx context.Context, b *bot.Bot, chatID int64) error {
	h.follower.Stop(chatID)
	session, err := h.Sessions.Edit(ctx, chatID, func(s *state.Session) {
		s.PlayingSince = time.Time{}
		s.Duration = 0
	})
	if err != nil {
		return b.SendMessage(chatID, "nothing is playing")
	}
	return h.refresh(ctx, b, session, -1, "")
}

func (h *ClientHandlers) stopHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	return h.stopPlayback(ctx, b, update.Message.Chat.ID)
}

func (h *ClientHandlers) listsHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	lists, err := h.Playlists.ListPlaylists(ctx, chatID)
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		return b.SendMessage(chatID, "no lists yet. create one with /newlist <name>")
	}
	return b.SendMessage(chatID, playlistLines(lists))
}

func (h *ClientHandlers) newListHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	name := strings.TrimSpace(update.Message.CommandArguments())
	if name == "" {
		return b.SendMessage(chatID, "usage: /newlist <name>")
	}
	pl, err := h.Playlists.CreatePlaylist(ctx, chatID, name, "")
	if err != nil {
		return err
	}
	return b.SendMessage(chatID, fmt.Sprintf("created list #%d %s. add the open song with /addto %d", pl.ID, pl.Name, pl.ID))
}

// playlistCommand runs fn with the list id argument and the open song.
func (h *ClientHandlers) playlistCommand(ctx context.Context, b *bot.Bot, update tgbotapi.Update, usage string, fn func(listID, songID int64) (string, error)) error {
	chatID := update.Message.Chat.ID
	listID, err := common.ParseID(update.Message.CommandArguments())
	if err != nil {
		return b.SendMessage(chatID, usage)
	}
	session, ok, err := h.openSession(b, chatID)
	if !ok {
		return err
	}
	reply, err := fn(listID, session.SongID)
	if db.IsNotFound(err) {
		return b.SendMessage(chatID, "you have no list with that id")
	}
	if err != nil {
		return err
	}
	return b.SendMessage(chatID, reply)
}

func (h *ClientHandlers) addToHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	return h.playlistCommand(ctx, b, update, "usage: /addto <list id>", func(listID, songID int64) (string, error) {
		return "added to list #" + strconv.FormatInt(listID, 10), h.Playlists.AddToPlaylist(ctx, chatID, listID, songID)
	})
}

func (h *ClientHandlers) unlistHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	return h.playlistCommand(ctx, b, update, "usage: /unlist <list id>", func(listID, songID int64) (string, error) {
		return "removed from list #" + strconv.FormatInt(listID, 10), h.Playlists.RemoveFromPlaylist(ctx, chatID, listID, songID)
	})
}

func (h *ClientHandlers) listHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	listID, err := common.ParseID(update.Message.CommandArguments())
	if err != nil {
		return b.SendMessage(chatID, "usage: /list <id>")
	}
	pl, err := h.Playlists.GetPlaylist(ctx, chatID, listID)
	if db.IsNotFound(err) {
		return b.SendMessage(chatID, "you have no list with that id")
	}
	if err != nil {
		return err
	}
	songs := h.songsByID(pl.SongIDs)
	if len(songs) == 0 {
		return b.SendMessage(chatID, fmt.Sprintf("list %s is empty", pl.Name))
	}
	return b.SendMessageWithButtons(chatID, common.ResultsTitle(pl.Name+":", len(songs)), common.SongKeyboard(songs))
}

func (h *ClientHandlers) dropListHandler(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	listID, err := common.ParseID(update.Message.CommandArguments())
	if err != nil {
		return b.SendMessage(chatID, "usage: /droplist <id>")
	}
	err = h.Playlists.DeletePlaylist(ctx, chatID, listID)
	if db.IsNotFound(err) {
		return b.SendMessage(chatID, "you have no list with that id")
	}
	if err != nil {
		return err
	}
	return b.SendMessage(chatID, "list deleted")
}

func (h *ClientHandlers) songCallback(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	query := update.CallbackQuery
	if err := b.AnswerCallback(query.ID, ""); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
	id, err := common.ParseID(common.CallbackArg(query.Data))
	if err != nil {
		return err
	}
	return h.showSong(ctx, b, query.Message.Chat.ID, id)
}

func (h *ClientHandlers) transposeCallback(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	query := update.CallbackQuery
	delta, err := utils.ParseSteps(common.CallbackArg(query.Data))
	if err != nil {
		return err
	}
	if err := b.AnswerCallback(query.ID, ""); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
	return h.transpose(ctx, b, query.Message.Chat.ID, func(n int) int { return n + delta })
}

func (h *ClientHandlers) favoriteCallback(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	query := update.CallbackQuery
	text, err := h.toggleFavorite(ctx, b, query.Message.Chat.ID)
	if answerErr := b.AnswerCallback(query.ID, text); answerErr != nil {
		log.Printf("failed to answer callback: %v", answerErr)
	}
	return err
}

func (h *ClientHandlers) stopCallback(ctx context.Context, b *bot.Bot, update tgbotapi.Update) error {
	query := update.CallbackQuery
	if err := b.AnswerCallback(query.ID, "stopped"); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
	return h.stopPlayback(ctx, b, query.Message.Chat.ID)
}

// textHandler treats any plain message as a search query.
func (h *ClientHandlers) textHandler(_ context.Context, b *bot.Bot, update tgbotapi.Update) error {
	if update.Message == nil || update.Message.IsCommand() {
		return nil
	}
	return common.SendSearchResults(b, update.Message.Chat.ID, h.Songs, update.Message.Text)
}

func (h *ClientHandlers) handlers() bot.Handlers {
	own := bot.Handlers{
		Commands: map[string]bot.Handler{
			"start":    h.startHandler,
			"song":     h.songHandler,
			"up":       h.upHandler,
			"down":     h.downHandler,
			"key":      h.keyHandler,
			"fav":      h.favHandler,
			"favs":     h.favsHandler,
			"history":  h.historyHandler,
			"top":      h.topHandler,
			"play":     h.playHandler,
			"stop":     h.stopHandler,
			"lists":    h.listsHandler,
			"newlist":  h.newListHandler,
			"addto":    h.addToHandler,
			"unlist":   h.unlistHandler,
			"list":     h.listHandler,
			"droplist": h.dropListHandler,
		},
		Messages: []bot.Handler{h.textHandler},
		Callbacks: map[string]bot.Handler{
			common.SongCallback: h.songCallback,
			cbTranspose:         h.transposeCallback,
			cbFavorite:          h.favoriteCallback,
			cbStop:              h.stopCallback,
		},
	}
	return own.Merge(common.GetHandlers(h.Songs, helpText))
}

// SetupHandlers starts the client bot and returns its handlers so the
// caller can stop playback on shutdown.
func SetupHandlers(ctx context.Context, clientBot *bot.Bot, deps Deps) *ClientHandlers {
	h := NewClientHandlers(deps, clientBot)
	h.resume(ctx)
	go clientBot.Start(ctx, h.handlers())
	return h
}

// resume restarts followers for sessions that were playing before a restart.
func (h *ClientHandlers) resume(ctx context.Context) {
	for _, session := range h.Sessions.GetAllPlaying() {
		if err := h.follow(ctx, session); err != nil {
			log.Printf("failed to resume playback in chat %d: %v", session.ChatID, err)
		}
	}
}
