package bot

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func record(calls *[]string, name string) Handler {
	return func(context.Context, *Bot, tgbotapi.Update) error {
		*calls = append(*calls, name)
		return nil
	}
}

func commandUpdate(text string, length int) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 1},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}}
}

func TestMerge(t *testing.T) {
	var calls []string
	own := Handlers{
		Commands:  map[string]Handler{"search": record(&calls, "own search")},
		Callbacks: map[string]Handler{"song": record(&calls, "own song")},
		Messages:  []Handler{record(&calls, "own text")},
	}
	shared := Handlers{
		Commands: map[string]Handler{
			"search": record(&calls, "shared search"),
			"help":   record(&calls, "shared help"),
		},
		Messages: []Handler{record(&calls, "shared text")},
	}

	merged := own.Merge(shared)
	if len(merged.Commands) != 2 || len(merged.Callbacks) != 1 || len(merged.Messages) != 2 {
		t.Fatalf("unexpected merge result %+v", merged)
	}
	merged.Commands["search"](context.Background(), nil, tgbotapi.Update{})
	merged.Commands["help"](context.Background(), nil, tgbotapi.Update{})
	if calls[0] != "own search" || calls[1] != "shared help" {
		t.Errorf("unexpected calls %v", calls)
	}
}

func TestProcessUpdate(t *testing.T) {
	var calls []string
	handlers := Handlers{
		Commands:  map[string]Handler{"search": record(&calls, "search")},
		Callbacks: map[string]Handler{"tr": record(&calls, "transpose")},
		Messages:  []Handler{record(&calls, "text")},
	}
	b := &Bot{name: "test"}

	tests := []struct {
		name   string
		update tgbotapi.Update
		want   string
	}{
		{"command", commandUpdate("/search asa branca", 7), "search"},
		{"command with bot name", commandUpdate("/search@cifrabot asa", 16), "search"},
		{"unknown command falls through", commandUpdate("/nope", 5), "text"},
		{"callback prefix", tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{Data: "tr:-1"}}, "transpose"},
		{"plain text", tgbotapi.Update{Message: &tgbotapi.Message{Text: "asa branca"}}, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = nil
			b.processUpdate(context.Background(), tt.update, handlers)
			if len(calls) != 1 || calls[0] != tt.want {
				t.Errorf("expected [%s], got %v", tt.want, calls)
			}
		})
	}
}
