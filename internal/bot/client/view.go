package client

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/cifrabot/internal/cifra"
	"github.com/sukalov/cifrabot/internal/db"
	"github.com/sukalov/cifrabot/internal/render"
)

// Telegram allows 4096 characters per message; the header needs some of
// that.
const pageLimit = 3500

const (
	cbTranspose = "tr"
	cbFavorite  = "fav"
	cbStop      = "stop"
)

func header(song db.Song, steps int, status string) string {
	var sb strings.Builder
	sb.WriteString("<b>" + html.EscapeString(db.FormatSongName(song)) + "</b>\n")
	sb.WriteString("key: " + html.EscapeString(cifra.KeyName(song.Key, steps)))
	if song.Capo > 0 {
		sb.WriteString(fmt.Sprintf(" · capo %d", song.Capo))
	}
	if status != "" {
		sb.WriteString("\n▶ " + html.EscapeString(status))
	}
	return sb.String()
}

// sheetPages renders a song as one or more HTML messages. Only the first
// page carries the header.
func sheetPages(song db.Song, sheet cifra.Sheet, steps int, opts render.Options, status string) []string {
	body := render.Text(sheet, opts)
	if strings.TrimSpace(body) == "" {
		body = "no lyrics yet"
	}

	pages := render.PreChunks(body, pageLimit)
	pages[0] = header(song, steps, status) + "\n" + pages[0]
	return pages
}

func sheetKeyboard(favorite, playing bool) tgbotapi.InlineKeyboardMarkup {
	star := "☆"
	if favorite {
		star = "★"
	}
	row := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("−1", cbTranspose+":-1"),
		tgbotapi.NewInlineKeyboardButtonData("+1", cbTranspose+":1"),
		tgbotapi.NewInlineKeyboardButtonData(star, cbFavorite),
	)
	if playing {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("■", cbStop))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// normalizeSteps keeps offsets inside one octave so "/up" twelve times
// reads as the original key again.
func normalizeSteps(steps int) int {
	return steps % 12
}

// parsePlayDuration accepts plain seconds ("200") or a Go duration ("3m20s").
func parsePlayDuration(arg string) (time.Duration, error) {
	arg = strings.TrimSpace(arg)
	if secs, err := strconv.Atoi(arg); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", arg)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}

func favoriteReply(on bool, total int) string {
	if on {
		return fmt.Sprintf("added to favorites (%d in total)", total)
	}
	return "removed from favorites"
}

// topSongs returns up to limit song ids, most opened first. Ties go to the
// lower id.
func topSongs(counts map[int64]int, limit int) []int64 {
	ids := make([]int64, 0, len(counts))
	for id, n := range counts {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

func playlistLines(lists []db.Playlist) string {
	var sb strings.Builder
	sb.WriteString("your lists:\n")
	for _, pl := range lists {
		sb.WriteString(fmt.Sprintf("\n#%d %s (%d songs)", pl.ID, pl.Name, len(pl.SongIDs)))
	}
	return sb.String()
}
