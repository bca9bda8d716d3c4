package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sukalov/cifrabot/internal/cifra"
	"github.com/sukalov/cifrabot/internal/logger"
	"github.com/sukalov/cifrabot/internal/lyrics"
	"github.com/sukalov/cifrabot/internal/render"
)

func main() {
	var (
		outputDir   string
		transpose   int
		printSheet  bool
		concurrency int
	)

	flag.StringVar(&outputDir, "output", ".", "Directory for the extracted files")
	flag.IntVar(&transpose, "transpose", 0, "Semitones to shift the printed sheet by")
	flag.BoolVar(&printSheet, "print", false, "Print the parsed sheet")
	flag.IntVar(&concurrency, "concurrency", 4, "Pages fetched at once")
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <URL> [URL...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "Example: %s -print https://amdm.ru/akkordi/mihail_krug/102195/vladimirskiy_tsentral/\n", os.Args[0])
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("=== AmDm.ru Chord Sheet Extractor ===")
	fmt.Printf("Pages: %d\n", len(urls))
	fmt.Printf("Output directory: %s\n", outputDir)
	fmt.Println()

	failed := 0
	for _, o := range lyrics.NewService(concurrency).ExtractAll(ctx, urls) {
		if o.Err != nil {
			failed++
			logger.Error(fmt.Sprintf("Error extracting chord sheet\nURL: %s\nError: %v", o.URL, o.Err))
			continue
		}

		base := filepath.Join(outputDir, fileName(o.Result))
		if err := save(base, o.Result); err != nil {
			failed++
			logger.Error(fmt.Sprintf("Error saving chord sheet\nURL: %s\nError: %v", o.URL, err))
			continue
		}

		sheet := cifra.Parse(o.Result.Lyrics, o.Result.Chords)
		logger.Success(fmt.Sprintf("%s - %s: %d sections, %d chords, key %s, %s saved to %s.*.txt",
			o.Result.Artist, o.Result.Title, len(sheet.Sections), sheet.ChordCount(),
			cifra.KeyName(o.Result.Key, transpose),
			humanize.Bytes(uint64(len(o.Result.Lyrics)+len(o.Result.Chords))), base))

		if printSheet {
			fmt.Println()
			fmt.Println(render.Text(sheet.Transpose(transpose), render.DefaultOptions))
			fmt.Println()
		}
	}

	if failed > 0 {
		log.Fatalf("%d of %d pages failed", failed, len(urls))
	}
	fmt.Println("=== EXTRACTION COMPLETED SUCCESSFULLY ===")
}

func save(base string, result *lyrics.SheetResult) error {
	if err := os.WriteFile(base+".lyrics.txt", []byte(result.Lyrics), 0644); err != nil {
		return err
	}
	return os.WriteFile(base+".chords.txt", []byte(result.Chords), 0644)
}

// fileName builds a file-system friendly name from the artist and title.
func fileName(result *lyrics.SheetResult) string {
	name := strings.TrimSpace(result.Artist + " " + result.Title)
	if name == "" {
		name = "sheet"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
