// Command tunedex is a terminal catalog for ABC tune books: import numbered
// book folders into SQLite and browse, search, and filter the result.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"tunedex/internal/app"
	"tunedex/internal/config"
	"tunedex/internal/db"
	"tunedex/internal/ingest"
)

func main() {
	var (
		booksDir   = flag.String("books", "", "books directory (overrides config)")
		dbPath     = flag.String("db", "", "catalog database file (overrides config)")
		configPath = flag.String("config", config.Path(), "config file")
		runImport  = flag.Bool("import", false, "re-scan the books directory and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *booksDir != "" {
		cfg.BooksDir = *booksDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	if *runImport {
		if err := headlessImport(cfg); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	p := tea.NewProgram(app.New(cfg.BooksDir, cfg.DBPath), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// headlessImport runs one drop-and-recreate import without the TUI. Useful
// for cron jobs and scripting.
func headlessImport(cfg config.Config) error {
	store, err := db.Recreate(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := ingest.Run(os.DirFS(cfg.BooksDir), store)
	if err != nil {
		return err
	}

	for _, diag := range res.Diagnostics {
		fmt.Fprintln(os.Stderr, "skipped:", diag)
	}
	fmt.Printf("imported %d tunes into %s\n", res.Total, cfg.DBPath)

	return nil
}
