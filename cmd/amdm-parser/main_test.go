package main

import (
	"testing"

	"github.com/sukalov/cifrabot/internal/lyrics"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		result lyrics.SheetResult
		want   string
	}{
		{lyrics.SheetResult{Artist: "Михаил Круг", Title: "Владимирский централ"}, "Михаил_Круг_Владимирский_централ"},
		{lyrics.SheetResult{Artist: "AC/DC", Title: "T.N.T."}, "AC_DC_T.N.T."},
		{lyrics.SheetResult{}, "sheet"},
	}
	for _, tt := range tests {
		if got := fileName(&tt.result); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
