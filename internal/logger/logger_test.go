package logger

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClient struct {
	mu   sync.Mutex
	sent []string
	ids  []int64
	done chan struct{}
}

func (f *fakeClient) SendMessage(chatID int64, text string) error {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.ids = append(f.ids, chatID)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func TestLoggerSendsToChannel(t *testing.T) {
	client := &fakeClient{done: make(chan struct{}, 4)}
	Init(client, 42)

	Success("imported 3 songs")
	select {
	case <-client.done:
	case <-time.After(2 * time.Second):
		t.Fatal("log was not sent")
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.ids[0] != 42 {
		t.Errorf("expected channel 42, got %d", client.ids[0])
	}
	if !strings.Contains(client.sent[0], "SUCCESS") || !strings.Contains(client.sent[0], "imported 3 songs") {
		t.Errorf("unexpected message %q", client.sent[0])
	}
}

func TestLogWithErr(t *testing.T) {
	base := errors.New("boom")
	err := LogWithErr("loading songbook", base)
	if !errors.Is(err, base) {
		t.Errorf("expected wrapped error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "loading songbook") {
		t.Errorf("expected message prefix, got %q", err.Error())
	}
	if err := LogWithErr("all good", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
