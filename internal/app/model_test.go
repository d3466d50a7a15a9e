package app

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tunedex/internal/catalog"
	"tunedex/internal/ingest"
)

func testTunes() catalog.View {
	return catalog.View{
		{ID: 1, BookID: 0, Ref: "101", Title: "The Test Reel", Rhythm: "Reel", Key: "D", Content: "X:101\nK:D\nABCD|\n"},
		{ID: 2, BookID: 0, Ref: "102", Title: "The Quick Jig", Rhythm: "Jig", Key: "G", Content: "X:102\nK:G\nGBdB|\n"},
		{ID: 3, BookID: 1, Ref: "201", Title: "The Silver Spear", Rhythm: "Reel", Key: "D", Content: "X:201\nK:D\nFAdA|\n"},
	}
}

func loadedModel() Model {
	m := New("abc_books", "tunes.db")
	m.width = 80
	m.height = 24

	updated, _ := m.Update(ViewLoadedMsg{View: testTunes()})
	return updated.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	if s == "esc" {
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	m := New("books", "db")
	if m.screen != ScreenBrowse {
		t.Error("new model should start on browse")
	}
	if m.inputMode != InputNone {
		t.Error("new model should not be prompting")
	}
	if m.importing {
		t.Error("new model should not be importing")
	}
}

func TestViewLoaded(t *testing.T) {
	m := loadedModel()

	if len(m.view) != 3 {
		t.Fatalf("view has %d rows, want 3", len(m.view))
	}
	if len(m.rows) != 3 {
		t.Errorf("rows has %d entries, want all 3", len(m.rows))
	}
	if !strings.Contains(m.statusText, "3 tunes") {
		t.Errorf("statusText = %q, want tune count", m.statusText)
	}
	if !strings.Contains(m.statusText, "2 books") {
		t.Errorf("statusText = %q, want book count", m.statusText)
	}
}

func TestViewLoadedEmpty(t *testing.T) {
	m := New("abc_books", "tunes.db")

	updated, _ := m.Update(ViewLoadedMsg{})
	model := updated.(Model)

	if len(model.view) != 0 {
		t.Error("view should be empty")
	}
	if !strings.Contains(model.statusText, "r to import") {
		t.Errorf("statusText = %q, want import hint", model.statusText)
	}
}

func TestViewLoadError(t *testing.T) {
	m := New("abc_books", "tunes.db")

	updated, _ := m.Update(ViewLoadedMsg{Err: errors.New("disk gone")})
	model := updated.(Model)

	if model.errorMessage != "disk gone" {
		t.Errorf("errorMessage = %q", model.errorMessage)
	}
}

func TestSearchTitleFlow(t *testing.T) {
	m := loadedModel()

	updated, _ := m.Update(keyMsg("/"))
	model := updated.(Model)
	if model.inputMode != InputSearch {
		t.Fatal("pressing / should open the search prompt")
	}

	for _, r := range "quick" {
		updated, _ = model.Update(keyMsg(string(r)))
		model = updated.(Model)
	}
	updated, _ = model.Update(keyMsg("enter"))
	model = updated.(Model)

	if model.inputMode != InputNone {
		t.Error("enter should close the prompt")
	}
	if len(model.rows) != 1 || model.rows[0].Title != "The Quick Jig" {
		t.Errorf("rows = %v, want just The Quick Jig", model.rows)
	}
	if model.filterDesc == "" {
		t.Error("filterDesc should describe the active filter")
	}
}

func TestRhythmFilterCaseInsensitive(t *testing.T) {
	m := loadedModel()

	updated, _ := m.Update(keyMsg("f"))
	model := updated.(Model)

	for _, r := range "REEL" {
		updated, _ = model.Update(keyMsg(string(r)))
		model = updated.(Model)
	}
	updated, _ = model.Update(keyMsg("enter"))
	model = updated.(Model)

	if len(model.rows) != 2 {
		t.Fatalf("rows = %d, want 2 reels", len(model.rows))
	}
}

func TestBookFilterRejectsNonNumeric(t *testing.T) {
	m := loadedModel()

	updated, _ := m.Update(keyMsg("b"))
	model := updated.(Model)

	for _, r := range "abc" {
		updated, _ = model.Update(keyMsg(string(r)))
		model = updated.(Model)
	}
	updated, _ = model.Update(keyMsg("enter"))
	model = updated.(Model)

	if model.errorMessage == "" {
		t.Error("non-numeric book input should set an error")
	}
	if len(model.rows) != 3 {
		t.Error("a rejected filter should leave the rows alone")
	}
}

func TestBookFilter(t *testing.T) {
	m := loadedModel()

	updated, _ := m.Update(keyMsg("b"))
	model := updated.(Model)
	updated, _ = model.Update(keyMsg("1"))
	model = updated.(Model)
	updated, _ = model.Update(keyMsg("enter"))
	model = updated.(Model)

	if len(model.rows) != 1 || model.rows[0].BookID != 1 {
		t.Errorf("rows = %v, want only book 1", model.rows)
	}
}

func TestEscClearsFilter(t *testing.T) {
	m := loadedModel()
	m.applyFilter(InputRhythm, "jig")
	if len(m.rows) != 1 {
		t.Fatalf("precondition: filtered rows = %d", len(m.rows))
	}

	updated, _ := m.Update(keyMsg("esc"))
	model := updated.(Model)

	if len(model.rows) != 3 {
		t.Errorf("rows = %d after esc, want full view", len(model.rows))
	}
	if model.filterDesc != "" {
		t.Error("filterDesc should be cleared")
	}
}

func TestEscCancelsPromptWithoutFiltering(t *testing.T) {
	m := loadedModel()

	updated, _ := m.Update(keyMsg("/"))
	model := updated.(Model)
	updated, _ = model.Update(keyMsg("x"))
	model = updated.(Model)
	updated, _ = model.Update(keyMsg("esc"))
	model = updated.(Model)

	if model.inputMode != InputNone {
		t.Error("esc should close the prompt")
	}
	if len(model.rows) != 3 {
		t.Error("cancelled prompt must not filter")
	}
}

func TestNavigationClamps(t *testing.T) {
	m := loadedModel()

	updated, _ := m.Update(keyMsg("k"))
	model := updated.(Model)
	if model.selected != 0 {
		t.Error("selection should not go above the first row")
	}

	for i := 0; i < 10; i++ {
		updated, _ = model.Update(keyMsg("j"))
		model = updated.(Model)
	}
	if model.selected != 2 {
		t.Errorf("selected = %d, want last row 2", model.selected)
	}
}

func TestEnterOpensDetail(t *testing.T) {
	m := loadedModel()

	updated, _ := m.Update(keyMsg("enter"))
	model := updated.(Model)

	if model.screen != ScreenDetail {
		t.Error("enter should open the detail screen")
	}

	updated, _ = model.Update(keyMsg("esc"))
	model = updated.(Model)
	if model.screen != ScreenBrowse {
		t.Error("esc should return to browse")
	}
}

func TestImportKeyStartsImport(t *testing.T) {
	m := loadedModel()

	updated, cmd := m.Update(keyMsg("r"))
	model := updated.(Model)

	if !model.importing {
		t.Error("r should mark the model as importing")
	}
	if cmd == nil {
		t.Error("r should return the import command")
	}

	// A second press while running is a no-op.
	_, cmd = model.Update(keyMsg("r"))
	if cmd != nil {
		t.Error("import should not start twice")
	}
}

func TestImportDoneReloadsView(t *testing.T) {
	m := loadedModel()
	m.importing = true

	res := ingest.Result{Total: 6, Books: map[int]int{0: 2, 1: 4}}
	updated, cmd := m.Update(ImportDoneMsg{Result: res})
	model := updated.(Model)

	if model.importing {
		t.Error("import flag should clear")
	}
	if model.screen != ScreenImport {
		t.Error("should show the import summary")
	}
	if cmd == nil {
		t.Error("finished import should trigger a view reload")
	}
	if model.lastImport == nil || model.lastImport.Total != 6 {
		t.Errorf("lastImport = %+v", model.lastImport)
	}
}

func TestImportError(t *testing.T) {
	m := loadedModel()
	m.importing = true

	updated, _ := m.Update(ImportDoneMsg{Err: errors.New("insert tune: disk full")})
	model := updated.(Model)

	if model.importing {
		t.Error("import flag should clear on error")
	}
	if !strings.Contains(model.errorMessage, "disk full") {
		t.Errorf("errorMessage = %q", model.errorMessage)
	}
}

func TestStatsScreenRenders(t *testing.T) {
	m := loadedModel()

	updated, _ := m.Update(keyMsg("s"))
	model := updated.(Model)

	if model.screen != ScreenStats {
		t.Fatal("s should open stats")
	}

	out := model.View()
	if !strings.Contains(out, "STATISTICS") {
		t.Error("stats view should have a title")
	}
	if !strings.Contains(out, "KEY DISTRIBUTION") {
		t.Error("stats view should include the key chart")
	}
}

func TestBrowseRenderShowsRows(t *testing.T) {
	m := loadedModel()

	out := m.View()
	if !strings.Contains(out, "The Test Reel") {
		t.Error("browse view should list tunes")
	}
	if !strings.Contains(out, "TITLE") {
		t.Error("browse view should have a column header")
	}
}

func TestDetailRenderShowsContent(t *testing.T) {
	m := loadedModel()
	m.screen = ScreenDetail

	out := m.View()
	if !strings.Contains(out, "X:101") {
		t.Error("detail view should show the raw ABC content")
	}
}

func TestSortedBooks(t *testing.T) {
	got := sortedBooks(map[int]int{4: 1, 0: 2, 2: 3})
	want := []int{0, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}
