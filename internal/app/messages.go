package app

import (
	"tunedex/internal/catalog"
	"tunedex/internal/ingest"
)

// ViewLoadedMsg carries a fresh catalog snapshot loaded from SQLite.
type ViewLoadedMsg struct {
	View catalog.View
	Err  error
}

// ImportDoneMsg carries the outcome of a drop-and-recreate import run.
type ImportDoneMsg struct {
	Result ingest.Result
	Err    error
}
