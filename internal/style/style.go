// Package style provides the reference text that teaches the model the house
// writing style. Real sample reports in the configured directory win; a
// built-in reference text is the fallback.
package style

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/andreasalomone/bot-perito-sub000/internal/docx"
)

// Loader lazily reads style samples once per process.
type Loader struct {
	dir           string
	maxParagraphs int

	once sync.Once
	text string
}

// NewLoader creates a style loader over a directory of .docx samples.
func NewLoader(dir string, maxParagraphs int) *Loader {
	if maxParagraphs <= 0 {
		maxParagraphs = 8
	}
	return &Loader{dir: dir, maxParagraphs: maxParagraphs}
}

// Text returns the style reference text. Sample reports are read on first
// call; corrupt files are skipped. Falls back to the built-in text when no
// usable sample exists.
func (l *Loader) Text() string {
	l.once.Do(func() {
		l.text = l.load()
	})
	return l.text
}

func (l *Loader) load() string {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return DefaultStyleReference
	}

	var chunks []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".docx") {
			continue
		}
		path := filepath.Join(l.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("style: skipping %s: %v", path, err)
			continue
		}
		paragraphs, err := docx.ParagraphTexts(data)
		if err != nil {
			log.Printf("style: skipping %s: %v", path, err)
			continue
		}
		if len(paragraphs) > l.maxParagraphs {
			paragraphs = paragraphs[:l.maxParagraphs]
		}
		chunk := strings.TrimSpace(strings.Join(paragraphs, "\n"))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	if len(chunks) == 0 {
		return DefaultStyleReference
	}
	return strings.Join(chunks, "\n---\n")
}
