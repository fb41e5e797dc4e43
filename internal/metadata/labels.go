package metadata

import (
	"fmt"
	"os"
	"strings"
)

// LabelItem is one label list destined for its own exported file.
type LabelItem struct {
	Filename string   // File name the labels are exported under.
	Names    []string // Ordered label names, one per class index.
	Locale   string   // Optional locale tag, e.g. "en". Not validated.
}

// Labels collects classification label lists, one entry per locale or
// vocabulary. Entries keep insertion order and are never deduplicated.
//
// The first added list can be used as category names as needed:
//
//	labels := metadata.NewLabels().
//		Add([]string{"/m/011l78", "/m/031d23"}, "", "").
//		Add([]string{"cat", "dog"}, "en", "").
//		Add([]string{"chat", "chien"}, "fr", "")
type Labels struct {
	items []LabelItem
	err   error
}

// NewLabels creates an empty label container.
func NewLabels() *Labels {
	return &Labels{}
}

// Items returns the accumulated label lists in insertion order.
func (l *Labels) Items() []LabelItem {
	return l.items
}

// Err returns the first error recorded by a chained call, if any.
func (l *Labels) Err() error {
	return l.err
}

// Add appends a label list. The exported file name defaults to "labels.txt",
// or "labels_<locale>.txt" when a locale is given. An empty name list is an
// error, recorded on the container and surfaced when the labels are used.
// Returns the container for chaining.
func (l *Labels) Add(names []string, locale, exportedFilename string) *Labels {
	if len(names) == 0 {
		if l.err == nil {
			l.err = ErrEmptyLabels
		}
		return l
	}

	if exportedFilename == "" {
		exportedFilename = "labels"
		if locale != "" {
			exportedFilename += "_" + locale
		}
		exportedFilename += ".txt"
	}

	l.items = append(l.items, LabelItem{
		Filename: exportedFilename,
		Names:    names,
		Locale:   locale,
	})
	return l
}

// AddFromFile reads newline-separated label names from the file at path and
// appends them under the same rules as Add.
func (l *Labels) AddFromFile(path, locale, exportedFilename string) *Labels {
	data, err := os.ReadFile(path)
	if err != nil {
		if l.err == nil {
			l.err = fmt.Errorf("read label file: %w", err)
		}
		return l
	}

	// A trailing newline does not introduce an empty label.
	content := strings.TrimSuffix(string(data), "\n")
	var names []string
	if content != "" {
		names = strings.Split(content, "\n")
	}
	return l.Add(names, locale, exportedFilename)
}
