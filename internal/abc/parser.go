// Package abc parses line-oriented ABC tune notation into structured records.
package abc

import "strings"

// Unknown is the sentinel stored for header fields a tune never declares.
const Unknown = "Unknown"

// Header prefixes recognized by the parser. Other headers (M:, L:, ...) are
// kept verbatim in the tune content but not extracted.
const (
	prefixRef    = "X:"
	prefixTitle  = "T:"
	prefixRhythm = "R:"
	prefixKey    = "K:"
)

// Tune is one record extracted from an ABC source, from its X: line through
// the line before the next X: line (or end of input).
type Tune struct {
	BookID  int
	Ref     string // declared reference number; not necessarily unique
	Title   string
	Rhythm  string
	Key     string
	Content string // all lines of the record, each newline-terminated
}

// Parse extracts all tunes from src in order of appearance. It is a pure
// function: src is the full text of one source file and bookID is stamped
// onto every resulting tune as supplied.
//
// An X: line opens a record and any previously open record is flushed first.
// Blank lines are discarded entirely. Lines before the first X: line are
// dropped. The title keeps its first declaration; rhythm and key keep their
// last. Missing headers default to Unknown.
func Parse(src string, bookID int) []Tune {
	var (
		tunes    []Tune
		current  Tune
		open     bool
		titleSet bool
	)

	for line := range strings.Lines(src) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, prefixRef) {
			if open {
				tunes = append(tunes, finalize(current))
			}

			current = Tune{
				BookID:  bookID,
				Ref:     headerValue(line),
				Content: line + "\n",
			}
			open = true
			titleSet = false

			continue
		}

		if !open {
			continue
		}

		current.Content += line + "\n"

		switch {
		case strings.HasPrefix(line, prefixTitle):
			// First title wins; later T: lines stay content-only.
			if !titleSet {
				current.Title = headerValue(line)
				titleSet = true
			}
		case strings.HasPrefix(line, prefixRhythm):
			current.Rhythm = headerValue(line)
		case strings.HasPrefix(line, prefixKey):
			current.Key = headerValue(line)
		}
	}

	if open {
		tunes = append(tunes, finalize(current))
	}

	return tunes
}

// headerValue returns the trimmed text after the first colon of a header line.
func headerValue(line string) string {
	_, value, _ := strings.Cut(line, ":")

	return strings.TrimSpace(value)
}

func finalize(t Tune) Tune {
	if t.Title == "" {
		t.Title = Unknown
	}

	if t.Rhythm == "" {
		t.Rhythm = Unknown
	}

	if t.Key == "" {
		t.Key = Unknown
	}

	return t
}
