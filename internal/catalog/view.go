// Package catalog implements filtering, search, and statistics over an
// in-memory snapshot of the tune catalog.
//
// A View is an explicit value: the caller loads one from the store, holds it,
// and threads it through every query. Nothing here touches the database, so
// a View never observes inserts made after it was loaded.
package catalog

import (
	"sort"
	"strings"

	"tunedex/internal/db"
)

// View is an ordered snapshot of catalog rows.
type View []db.Tune

// FilterByBook returns the tunes whose book id matches exactly, preserving
// row order.
func FilterByBook(view View, bookID int) View {
	var out View
	for _, t := range view {
		if t.BookID == bookID {
			out = append(out, t)
		}
	}
	return out
}

// FilterByRhythm returns the tunes whose rhythm contains substr,
// case-insensitively. Tunes without a rhythm never match a non-empty substr.
func FilterByRhythm(view View, substr string) View {
	return filterContains(view, substr, func(t db.Tune) string { return t.Rhythm })
}

// SearchTitle returns the tunes whose title contains substr,
// case-insensitively.
func SearchTitle(view View, substr string) View {
	return filterContains(view, substr, func(t db.Tune) string { return t.Title })
}

func filterContains(view View, substr string, field func(db.Tune) string) View {
	needle := strings.ToLower(substr)

	var out View
	for _, t := range view {
		if strings.Contains(strings.ToLower(field(t)), needle) {
			out = append(out, t)
		}
	}
	return out
}

// DistinctBooks returns the number of distinct book ids in the view.
func DistinctBooks(view View) int {
	seen := make(map[int]struct{}, len(view))
	for _, t := range view {
		seen[t.BookID] = struct{}{}
	}
	return len(seen)
}

// KeyCount pairs a key signature with how many tunes declare it.
type KeyCount struct {
	Key   string
	Count int
}

// KeyCounts tallies key signatures across the view, most common first; ties
// break alphabetically so the ordering is stable.
func KeyCounts(view View) []KeyCount {
	tally := make(map[string]int)
	for _, t := range view {
		tally[t.Key]++
	}

	counts := make([]KeyCount, 0, len(tally))
	for key, n := range tally {
		counts = append(counts, KeyCount{Key: key, Count: n})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Key < counts[j].Key
	})

	return counts
}

// TopKeys returns at most n entries from KeyCounts.
func TopKeys(view View, n int) []KeyCount {
	counts := KeyCounts(view)
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
