package amdm

import (
	"time"
)

// Result is a chord sheet extracted from an AmDm.ru page. Lyrics and
// Chords have the same number of lines: line i of Chords holds the chords
// of line i of Lyrics.
type Result struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Lyrics    string    `json:"lyrics"`
	Chords    string    `json:"chords"`
	FetchedAt time.Time `json:"fetched_at"`
}

// SectionType is the keyword AmDm puts in section markers like "[Припев]:".
type SectionType string

const (
	SectionVerse  SectionType = "Куплет"
	SectionChorus SectionType = "Припев"
	SectionBridge SectionType = "Переход"
	SectionIntro  SectionType = "Вступление"
	SectionSolo   SectionType = "Проигрыш"
	SectionOutro  SectionType = "Кода"
)

// ProcessingConfig says which sections survive extraction and what label
// they get in the output.
type ProcessingConfig struct {
	AllowedSections  map[SectionType]string
	UnwantedSections []SectionType
}

var DefaultConfig = ProcessingConfig{
	AllowedSections: map[SectionType]string{
		SectionVerse:  "Verse:",
		SectionChorus: "Chorus:",
		SectionBridge: "Bridge:",
	},
	UnwantedSections: []SectionType{SectionIntro, SectionSolo, SectionOutro},
}
