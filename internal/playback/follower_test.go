package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sukalov/cifrabot/internal/cifra"
	"github.com/sukalov/cifrabot/internal/state"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingUpdater struct {
	mu     sync.Mutex
	frames []Frame
	notify chan Frame
}

func (u *recordingUpdater) Update(_ context.Context, frame Frame) error {
	u.mu.Lock()
	u.frames = append(u.frames, frame)
	u.mu.Unlock()
	if u.notify != nil {
		u.notify <- frame
	}
	return nil
}

func fourChords() cifra.Sheet {
	return cifra.Parse("[C]one [G]two [Am]three [F]four", "")
}

func TestStep(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	updater := &recordingUpdater{}
	f := NewFollower(updater, time.Second)
	f.clock = clock

	session := state.Session{ChatID: 1, PlayingSince: start, Duration: 40 * time.Second}
	sheet := fourChords()

	tests := []struct {
		at       time.Duration
		want     int
		wantDone bool
		frames   int
	}{
		{0, 0, false, 1},
		{5 * time.Second, 0, false, 1},
		{10 * time.Second, 1, false, 2},
		{25 * time.Second, 2, false, 3},
		{39 * time.Second, 3, false, 4},
		{time.Minute, 3, true, 5},
	}

	last := -1
	for _, tt := range tests {
		clock.Set(start.Add(tt.at))
		var done bool
		last, done = f.step(ctx, session, sheet, last)
		if last != tt.want || done != tt.wantDone {
			t.Errorf("at %v: expected (%d, %v), got (%d, %v)", tt.at, tt.want, tt.wantDone, last, done)
		}
		if len(updater.frames) != tt.frames {
			t.Errorf("at %v: expected %d frames, got %d", tt.at, tt.frames, len(updater.frames))
		}
	}

	final := updater.frames[len(updater.frames)-1]
	if !final.Done || final.Elapsed != 40*time.Second {
		t.Errorf("unexpected final frame %+v", final)
	}
}

func TestStartRejects(t *testing.T) {
	f := NewFollower(&recordingUpdater{}, time.Second)
	start := time.Now()

	if err := f.Start(context.Background(), state.Session{ChatID: 1}, fourChords()); err == nil {
		t.Error("expected error for a session that is not playing")
	}
	playing := state.Session{ChatID: 1, PlayingSince: start, Duration: time.Minute}
	if err := f.Start(context.Background(), playing, cifra.Parse("no chords", "")); err == nil {
		t.Error("expected error for a sheet without chords")
	}
}

func TestStartStop(t *testing.T) {
	updater := &recordingUpdater{notify: make(chan Frame, 16)}
	f := NewFollower(updater, 10*time.Millisecond)
	session := state.Session{ChatID: 5, PlayingSince: time.Now(), Duration: time.Hour}

	if err := f.Start(context.Background(), session, fourChords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case frame := <-updater.notify:
		if frame.Current != 0 {
			t.Errorf("expected first chord, got %d", frame.Current)
		}
	case <-time.After(time.Second):
		t.Fatal("expected an initial frame")
	}

	if !f.Running(5) {
		t.Error("expected chat 5 to be running")
	}
	if !f.Stop(5) {
		t.Error("expected Stop to report a running chat")
	}
	if f.Running(5) {
		t.Error("expected chat 5 to be stopped")
	}
	if f.Stop(5) {
		t.Error("expected second Stop to be a no-op")
	}
	f.StopAll()
}

func TestFinishedSongStopsItself(t *testing.T) {
	updater := &recordingUpdater{notify: make(chan Frame, 16)}
	f := NewFollower(updater, 10*time.Millisecond)
	session := state.Session{ChatID: 2, PlayingSince: time.Now().Add(-time.Hour), Duration: time.Minute}

	if err := f.Start(context.Background(), session, fourChords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.wg.Wait()

	frame := <-updater.notify
	if !frame.Done || frame.Current != 3 {
		t.Errorf("expected a final frame on the last chord, got %+v", frame)
	}
	if f.Running(2) {
		t.Error("expected finished chat to be removed")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		elapsed, total time.Duration
		want           string
	}{
		{65 * time.Second, 200 * time.Second, "1 m 5 s / 3 m 20 s"},
		{0, time.Minute, "0 s / 1 m"},
		{1500 * time.Millisecond, 2 * time.Second, "2 s / 2 s"},
	}
	for _, tt := range tests {
		if got := Status(tt.elapsed, tt.total); got != tt.want {
			t.Errorf("Status(%v, %v) = %q, want %q", tt.elapsed, tt.total, got, tt.want)
		}
	}
}
