package bot

import (
	"context"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Handler func(ctx context.Context, b *Bot, update tgbotapi.Update) error

// Handlers groups what a bot reacts to. Callbacks are matched on the part
// of the callback data before the first ':'.
type Handlers struct {
	Commands  map[string]Handler
	Messages  []Handler
	Callbacks map[string]Handler
}

// Merge adds the handlers of other that h does not define yet.
func (h Handlers) Merge(other Handlers) Handlers {
	out := Handlers{
		Commands:  make(map[string]Handler),
		Callbacks: make(map[string]Handler),
	}
	for _, src := range []Handlers{h, other} {
		for k, v := range src.Commands {
			if _, ok := out.Commands[k]; !ok {
				out.Commands[k] = v
			}
		}
		for k, v := range src.Callbacks {
			if _, ok := out.Callbacks[k]; !ok {
				out.Callbacks[k] = v
			}
		}
		out.Messages = append(out.Messages, src.Messages...)
	}
	return out
}

// Bot represents a configurable Telegram bot
type Bot struct {
	Client     *tgbotapi.BotAPI
	updateChan tgbotapi.UpdatesChannel
	name       string
	mu         sync.Mutex
	cancel     context.CancelFunc
}

// New creates a new bot instance
func New(name, token string) (*Bot, error) {
	botClient, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updateChan := botClient.GetUpdatesChan(updateConfig)

	return &Bot{
		Client:     botClient,
		updateChan: updateChan,
		name:       name,
	}, nil
}

// Start processes updates until ctx is done or Stop is called.
func (b *Bot) Start(ctx context.Context, handlers Handlers) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
	defer cancel()

	log.Printf("[%s] authorized on account %s", b.name, b.Client.Self.UserName)

	for {
		select {
		case update := <-b.updateChan:
			go b.processUpdate(ctx, update, handlers)
		case <-ctx.Done():
			b.Client.StopReceivingUpdates()
			return
		}
	}
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update, handlers Handlers) {
	if update.Message != nil && update.Message.IsCommand() {
		if handler, exists := handlers.Commands[update.Message.Command()]; exists {
			if err := handler(ctx, b, update); err != nil {
				log.Printf("[%s] command handler error: %v", b.name, err)
			}
			return
		}
	}

	if update.CallbackQuery != nil {
		prefix, _, _ := strings.Cut(update.CallbackQuery.Data, ":")
		if handler, exists := handlers.Callbacks[prefix]; exists {
			if err := handler(ctx, b, update); err != nil {
				log.Printf("[%s] callback handler error: %v", b.name, err)
			}
			return
		}
	}

	for _, handler := range handlers.Messages {
		if err := handler(ctx, b, update); err != nil {
			log.Printf("[%s] message handler error: %v", b.name, err)
		}
	}
}

// Stop halts the bot
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.Client.Send(msg)
	return err
}

func (b *Bot) SendMessageWithButtons(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := b.Client.Send(msg)
	return err
}

// SendHTML sends an HTML message and returns its id so it can be edited.
func (b *Bot) SendHTML(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	sent, err := b.Client.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (b *Bot) EditHTML(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = keyboard
	_, err := b.Client.Request(edit)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func (b *Bot) AnswerCallback(callbackID, text string) error {
	_, err := b.Client.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}
