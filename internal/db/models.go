// Package db provides SQLite-backed persistence for the tune catalog.
package db

// Tune is one persisted catalog row.
type Tune struct {
	ID      int64 // assigned by the store on insert
	BookID  int
	Ref     string
	Title   string
	Rhythm  string
	Key     string
	Content string
}
