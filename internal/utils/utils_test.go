package utils

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("CIFRA_TEST_PRESENT", "yes")

	env, err := LoadEnv([]string{"CIFRA_TEST_PRESENT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env["CIFRA_TEST_PRESENT"] != "yes" {
		t.Errorf("expected %q, got %q", "yes", env["CIFRA_TEST_PRESENT"])
	}

	if _, err := LoadEnv([]string{"CIFRA_TEST_PRESENT", "CIFRA_TEST_MISSING"}); err == nil {
		t.Error("expected an error for a missing variable")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" ana, bob ,,carla ")
	want := []string{"ana", "bob", "carla"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := SplitList(""); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestParseSteps(t *testing.T) {
	tests := map[string]int{"2": 2, "+2": 2, "-3": -3, " 11 ": 11}
	for in, want := range tests {
		got, err := ParseSteps(in)
		if err != nil {
			t.Errorf("ParseSteps(%q): unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseSteps(%q): expected %d, got %d", in, want, got)
		}
	}
	if _, err := ParseSteps("up"); err == nil {
		t.Error("expected an error for a non-number")
	}
}

func TestFormatClock(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 5, 0, time.UTC)
	if got := FormatClock(ts, nil); got != "12:30:05" {
		t.Errorf("expected %q, got %q", "12:30:05", got)
	}
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	if got := FormatClock(ts, saoPaulo); got != "09:30:05" {
		t.Errorf("expected %q, got %q", "09:30:05", got)
	}
}
