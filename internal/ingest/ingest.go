// Package ingest walks a books directory, parses ABC files, and fills the
// catalog store.
//
// The expected layout is one numbered folder per book:
//
//	abc_books/
//	  0/session.abc
//	  1/reels.abc
//	  1/jigs.abc
//
// The folder name is the book id. Files under a folder whose name is not an
// integer are skipped with a diagnostic; so are files that cannot be read.
// Neither aborts the run. Store failures do: a half-written catalog is not
// worth keeping.
package ingest

import (
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"tunedex/internal/abc"
	"tunedex/internal/db"
)

// Result summarizes one import run.
type Result struct {
	Total       int         // tunes inserted
	Books       map[int]int // tunes inserted per book id
	Diagnostics []string    // per-source skip reasons, in walk order
}

// Run parses every *.abc file under fsys and inserts the resulting tunes into
// store. The store must already have its schema in place; the caller decides
// whether it is fresh (drop-and-recreate import) or not.
func Run(fsys fs.FS, store *db.Store) (Result, error) {
	res := Result{Books: make(map[int]int)}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("%s: %v", p, err))
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".abc") {
			return nil
		}

		bookID, err := strconv.Atoi(path.Base(path.Dir(p)))
		if err != nil {
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("%s: parent folder %q is not a book number", p, path.Base(path.Dir(p))))
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("%s: %v", p, err))
			return nil
		}

		for _, tune := range abc.Parse(string(data), bookID) {
			if _, err := store.Insert(db.Tune{
				BookID:  tune.BookID,
				Ref:     tune.Ref,
				Title:   tune.Title,
				Rhythm:  tune.Rhythm,
				Key:     tune.Key,
				Content: tune.Content,
			}); err != nil {
				return fmt.Errorf("book %d %s: %w", bookID, p, err)
			}
			res.Books[bookID]++
			res.Total++
		}

		return nil
	})
	if err != nil {
		return res, err
	}

	return res, nil
}
