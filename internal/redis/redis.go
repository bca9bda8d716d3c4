package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/sukalov/cifrabot/internal/cifra"
	"github.com/sukalov/cifrabot/internal/favorites"
	"github.com/sukalov/cifrabot/internal/state"
)

const sessionsKey = "sessions"

type DBManager struct {
	client *redisClient.Client
}

func NewDBManager(url, password string) (*DBManager, error) {
	opt, err := redisClient.ParseURL(fmt.Sprintf("rediss://default:%s@%s", password, url))
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return &DBManager{client: redisClient.NewClient(opt)}, nil
}

func (redis *DBManager) Ping(ctx context.Context) error {
	return redis.client.Ping(ctx).Err()
}

func (redis *DBManager) Close() error {
	return redis.client.Close()
}

func favoritesKey(chatID int64) string {
	return "fav:" + strconv.FormatInt(chatID, 10)
}

func historyKey(chatID int64) string {
	return "history:" + strconv.FormatInt(chatID, 10)
}

func countsKey(chatID int64) string {
	return "plays:" + strconv.FormatInt(chatID, 10)
}

func sheetKey(key string) string {
	return "sheet:" + key
}

func (redis *DBManager) AddFavorite(ctx context.Context, chatID, songID int64) error {
	return redis.client.SAdd(ctx, favoritesKey(chatID), songID).Err()
}

func (redis *DBManager) RemoveFavorite(ctx context.Context, chatID, songID int64) error {
	return redis.client.SRem(ctx, favoritesKey(chatID), songID).Err()
}

func (redis *DBManager) IsFavorite(ctx context.Context, chatID, songID int64) (bool, error) {
	return redis.client.SIsMember(ctx, favoritesKey(chatID), songID).Result()
}

func (redis *DBManager) Favorites(ctx context.Context, chatID int64) ([]int64, error) {
	members, err := redis.client.SMembers(ctx, favoritesKey(chatID)).Result()
	if err != nil {
		if err == redisClient.Nil {
			return nil, nil
		}
		return nil, err
	}
	return parseIDs(members), nil
}

// PushHistory prepends an entry and trims the list to limit entries.
func (redis *DBManager) PushHistory(ctx context.Context, chatID int64, entry favorites.HistoryEntry, limit int) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := historyKey(chatID)
	pipe := redis.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(limit-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (redis *DBManager) History(ctx context.Context, chatID int64) ([]favorites.HistoryEntry, error) {
	raw, err := redis.client.LRange(ctx, historyKey(chatID), 0, -1).Result()
	if err != nil {
		if err == redisClient.Nil {
			return nil, nil
		}
		return nil, err
	}
	entries := make([]favorites.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry favorites.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue // skip entries written by an older format
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (redis *DBManager) IncrementSongCount(ctx context.Context, chatID, songID int64) error {
	err := redis.client.HIncrBy(ctx, countsKey(chatID), strconv.FormatInt(songID, 10), 1).Err()
	if err != nil {
		return fmt.Errorf("failed to increment song count for chat %d and song ID %d: %w", chatID, songID, err)
	}
	return nil
}

// GetSongCounts retrieves how many times a chat opened each song
func (redis *DBManager) GetSongCounts(ctx context.Context, chatID int64) (map[int64]int, error) {
	result := make(map[int64]int)
	raw, err := redis.client.HGetAll(ctx, countsKey(chatID)).Result()
	if err != nil {
		if err == redisClient.Nil {
			return result, nil
		}
		return nil, err
	}
	for songID, count := range raw {
		id, err := strconv.ParseInt(songID, 10, 64)
		if err != nil {
			continue
		}
		countInt, err := strconv.Atoi(count)
		if err != nil {
			continue // skip invalid counts
		}
		result[id] = countInt
	}
	return result, nil
}

// SaveSessions stores the whole session list
func (redis *DBManager) SaveSessions(ctx context.Context, list []state.Session) error {
	listJSON, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return redis.client.Set(ctx, sessionsKey, listJSON, 0).Err()
}

// LoadSessions retrieves the session list, empty when none was saved
func (redis *DBManager) LoadSessions(ctx context.Context) ([]state.Session, error) {
	data, err := redis.client.Get(ctx, sessionsKey).Bytes()
	if err != nil {
		if err == redisClient.Nil {
			return []state.Session{}, nil
		}
		return nil, err
	}
	var list []state.Session
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (redis *DBManager) GetSheet(ctx context.Context, key string) (cifra.Sheet, bool, error) {
	data, err := redis.client.Get(ctx, sheetKey(key)).Bytes()
	if err != nil {
		if err == redisClient.Nil {
			return cifra.Sheet{}, false, nil
		}
		return cifra.Sheet{}, false, err
	}
	var sheet cifra.Sheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return cifra.Sheet{}, false, err
	}
	return sheet, true, nil
}

func (redis *DBManager) SetSheet(ctx context.Context, key string, sheet cifra.Sheet, ttl time.Duration) error {
	data, err := json.Marshal(sheet)
	if err != nil {
		return err
	}
	return redis.client.Set(ctx, sheetKey(key), data, ttl).Err()
}

func parseIDs(members []string) []int64 {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
