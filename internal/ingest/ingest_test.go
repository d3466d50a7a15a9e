package ingest

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunedex/internal/db"
)

func createTestStore(t *testing.T) *db.Store {
	t.Helper()

	store, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.EnsureSchema())

	return store
}

func tuneFile(ref, title, rhythm, key string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(
		"X:" + ref + "\nT:" + title + "\nR:" + rhythm + "\nK:" + key + "\nABCD|\n",
	)}
}

func TestRunImportsNumberedBooks(t *testing.T) {
	fsys := fstest.MapFS{
		"0/sample0.abc": tuneFile("001", "The Test Reel 0", "Reel", "D"),
		"1/sample1.abc": tuneFile("101", "The Quick Jig 1", "Jig", "G"),
		"2/sample2.abc": {Data: []byte(
			"X:201\nT:One\nK:D\nabc|\nX:202\nT:Two\nK:G\ndef|\n",
		)},
	}
	store := createTestStore(t)

	res, err := Run(fsys, store)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 2}, res.Books)
	assert.Empty(t, res.Diagnostics)

	tunes, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, tunes, 4)
	assert.Equal(t, "The Test Reel 0", tunes[0].Title)
	assert.Equal(t, 2, tunes[3].BookID)
}

func TestRunSkipsNonNumericFolder(t *testing.T) {
	fsys := fstest.MapFS{
		"abc/odd.abc":  tuneFile("1", "Should Not Import", "Reel", "D"),
		"3/fine.abc":   tuneFile("2", "Should Import", "Jig", "G"),
		"notes/x.abc":  tuneFile("3", "Also Skipped", "Reel", "A"),
	}
	store := createTestStore(t)

	res, err := Run(fsys, store)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Total)
	assert.Equal(t, map[int]int{3: 1}, res.Books)

	require.Len(t, res.Diagnostics, 2)
	assert.Contains(t, res.Diagnostics[0], "abc/odd.abc")
	assert.Contains(t, res.Diagnostics[0], "not a book number")

	tunes, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, tunes, 1)
	assert.Equal(t, "Should Import", tunes[0].Title)
}

func TestRunIgnoresNonABCFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"1/readme.txt": {Data: []byte("not a tune")},
		"1/tune.abc":   tuneFile("1", "Real", "Reel", "D"),
	}
	store := createTestStore(t)

	res, err := Run(fsys, store)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Empty(t, res.Diagnostics)
}

func TestRunEmptyTree(t *testing.T) {
	store := createTestStore(t)

	res, err := Run(fstest.MapFS{}, store)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Books)
}

func TestRunStoreErrorAborts(t *testing.T) {
	fsys := fstest.MapFS{
		"1/tune.abc": tuneFile("1", "Doomed", "Reel", "D"),
	}

	store, err := db.OpenMemory()
	require.NoError(t, err)
	// No schema: the first insert fails and the run must stop, not skip.
	_, err = Run(fsys, store)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "1/tune.abc"))
	store.Close()
}

func TestRunFileInSubfolderOfBook(t *testing.T) {
	// Book id comes from the immediate parent folder, matching the corpus
	// layout; a nested non-numeric parent is a skip.
	fsys := fstest.MapFS{
		"2/extra/tune.abc": tuneFile("1", "Nested", "Reel", "D"),
	}
	store := createTestStore(t)

	res, err := Run(fsys, store)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], `"extra"`)
}
