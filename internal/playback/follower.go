// Package playback moves the chord highlight along while a chat plays a song.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hako/durafmt"
	"golang.org/x/time/rate"

	"github.com/sukalov/cifrabot/internal/cifra"
	"github.com/sukalov/cifrabot/internal/state"
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Frame is one highlight position of a playing session.
type Frame struct {
	Session state.Session
	Sheet   cifra.Sheet
	Current int
	Elapsed time.Duration
	Done    bool
}

// Updater shows a frame to the chat, usually by editing the sheet message.
type Updater interface {
	Update(ctx context.Context, frame Frame) error
}

type run struct {
	cancel context.CancelFunc
}

type Follower struct {
	updater Updater
	clock   Clock
	tick    time.Duration
	limiter *rate.Limiter

	mu      sync.Mutex
	running map[int64]*run
	wg      sync.WaitGroup
}

// NewFollower creates a follower that checks every tick whether the
// highlighted chord moved. Updates of all chats share one rate limit.
func NewFollower(updater Updater, tick time.Duration) *Follower {
	return &Follower{
		updater: updater,
		clock:   systemClock{},
		tick:    tick,
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 5),
		running: make(map[int64]*run),
	}
}

// Start follows session until its duration has elapsed, Stop is called or
// ctx is done. A chat that is already followed is restarted.
func (f *Follower) Start(ctx context.Context, session state.Session, sheet cifra.Sheet) error {
	if !session.Playing() {
		return errors.New("session is not playing")
	}
	if sheet.ChordCount() == 0 {
		return errors.New("song has no chords to follow")
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel}

	f.mu.Lock()
	if prev, ok := f.running[session.ChatID]; ok {
		prev.cancel()
	}
	f.running[session.ChatID] = r
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer f.finish(session.ChatID, r)
		f.follow(runCtx, session, sheet)
	}()
	return nil
}

// Stop ends following a chat. It reports whether anything was running.
func (f *Follower) Stop(chatID int64) bool {
	f.mu.Lock()
	r, ok := f.running[chatID]
	delete(f.running, chatID)
	f.mu.Unlock()
	if ok {
		r.cancel()
	}
	return ok
}

// StopAll cancels every chat and waits for the goroutines to exit.
func (f *Follower) StopAll() {
	f.mu.Lock()
	for id, r := range f.running {
		r.cancel()
		delete(f.running, id)
	}
	f.mu.Unlock()
	f.wg.Wait()
}

func (f *Follower) Running(chatID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.running[chatID]
	return ok
}

func (f *Follower) finish(chatID int64, r *run) {
	f.mu.Lock()
	if f.running[chatID] == r {
		delete(f.running, chatID)
	}
	f.mu.Unlock()
	r.cancel()
}

func (f *Follower) follow(ctx context.Context, session state.Session, sheet cifra.Sheet) {
	ticker := time.NewTicker(f.tick)
	defer ticker.Stop()

	last := -1
	for {
		var done bool
		last, done = f.step(ctx, session, sheet, last)
		if done {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// step sends a frame when the highlighted chord differs from last or the
// song has ended. It returns the index now shown and whether to stop.
func (f *Follower) step(ctx context.Context, session state.Session, sheet cifra.Sheet, last int) (int, bool) {
	elapsed := session.Elapsed(f.clock.Now())
	done := elapsed >= session.Duration
	current := cifra.CurrentChordIndex(sheet, cifra.Progress(elapsed, session.Duration))
	if current == last && !done {
		return last, false
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return last, true
	}
	frame := Frame{Session: session, Sheet: sheet, Current: current, Elapsed: elapsed, Done: done}
	if err := f.updater.Update(ctx, frame); err != nil {
		log.Printf("failed to update playback for chat %d: %v", session.ChatID, err)
	}
	return current, done
}

// Status formats playback position as "1 m 5 s / 3 m 20 s".
func Status(elapsed, total time.Duration) string {
	return fmt.Sprintf("%s / %s", formatDuration(elapsed), formatDuration(total))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0 s"
	}
	return durafmt.Parse(d).LimitFirstN(2).Format(shortUnits)
}
