package logger

import (
	"fmt"
	"log"
	"sync"
	"time"
)

var (
	ChannelID int64
	once      sync.Once
	mu        sync.RWMutex
	botClient BotClient
)

type BotClient interface {
	SendMessage(chatID int64, text string) error
}

// Init routes log messages to a telegram channel in addition to the
// standard logger. Only the first call has an effect.
func Init(client BotClient, channelID int64) {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		ChannelID = channelID
		botClient = client
	})
}

func Info(message string) {
	sendLog("ℹ️ INFO", message)
}

func Error(message string) {
	sendLog("❌ ERROR", message)
}

func Debug(message string) {
	sendLog("🔍 DEBUG", message)
}

func Success(message string) {
	sendLog("✅ SUCCESS", message)
}

func sendLog(prefix, message string) {
	log.Printf("%s %s", prefix, message)

	mu.RLock()
	client, channel := botClient, ChannelID
	mu.RUnlock()
	if client == nil {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	logMessage := fmt.Sprintf("[%s] %s\n%s", timestamp, prefix, message)

	go func() {
		if err := client.SendMessage(channel, logMessage); err != nil {
			log.Printf("failed to send log to channel: %v", err)
		}
	}()
}

// LogWithErr logs message as info when err is nil, as an error otherwise,
// and returns err wrapped with message.
func LogWithErr(message string, err error) error {
	if err == nil {
		Info(message)
		return nil
	}

	Error(fmt.Sprintf("%s\nError: %v", message, err))
	return fmt.Errorf("%s: %w", message, err)
}
