package trans

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testPOHeader = `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"
"Language: de\n"

`

const testPODE = testPOHeader + `msgid "Hello"
msgstr "Hallo"

#, fuzzy
msgid "World"
msgstr "Welt"

msgid "Goodbye"
msgstr ""
`

const testPOT = testPOHeader + `msgid "Hello"
msgstr ""

msgid "World"
msgstr ""
`

// writeCheckout builds a fake checkout with a po/ directory.
func writeCheckout(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return dir
}

func TestNewPOTHandler_InvalidFilter(t *testing.T) {
	if _, err := NewPOTHandler(t.TempDir(), `po/(`, "en"); err == nil {
		t.Error("expected error for invalid filter regexp")
	}
}

func TestFiles(t *testing.T) {
	dir := writeCheckout(t, map[string]string{
		"po/de.po":       testPODE,
		"po/pt_BR.po":    testPODE,
		"po/project.pot": testPOT,
		"README":         "not a catalog",
		"doc/notes.po":   testPODE,
	})

	h, err := NewPOTHandler(dir, `po/.*\.pot?$`, "en")
	if err != nil {
		t.Fatalf("NewPOTHandler: %v", err)
	}

	files, err := h.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("len(files) = %d, want 3: %v", len(files), files)
	}
	for _, f := range files {
		if f == "README" || f == "doc/notes.po" {
			t.Errorf("file %q should not match the filter", f)
		}
	}
}

func TestFiles_NoMatch(t *testing.T) {
	dir := writeCheckout(t, map[string]string{"README": "hi"})

	h, err := NewPOTHandler(dir, `po/.*\.po$`, "en")
	if err != nil {
		t.Fatalf("NewPOTHandler: %v", err)
	}

	if _, err := h.Files(); !errors.Is(err, ErrFileFilter) {
		t.Errorf("Files() error = %v, want ErrFileFilter", err)
	}
}

func TestFileStats(t *testing.T) {
	dir := writeCheckout(t, map[string]string{"po/de.po": testPODE})

	h, err := NewPOTHandler(dir, `po/.*\.po$`, "en")
	if err != nil {
		t.Fatalf("NewPOTHandler: %v", err)
	}

	stats, err := h.FileStats("po/de.po")
	if err != nil {
		t.Fatalf("FileStats: %v", err)
	}

	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.Translated != 1 {
		t.Errorf("Translated = %d, want 1", stats.Translated)
	}
	if stats.Fuzzy != 1 {
		t.Errorf("Fuzzy = %d, want 1", stats.Fuzzy)
	}
	if stats.Untranslated != 1 {
		t.Errorf("Untranslated = %d, want 1", stats.Untranslated)
	}
}

func TestFileStats_Template(t *testing.T) {
	dir := writeCheckout(t, map[string]string{"po/project.pot": testPOT})

	h, err := NewPOTHandler(dir, `po/.*\.pot$`, "en")
	if err != nil {
		t.Fatalf("NewPOTHandler: %v", err)
	}

	stats, err := h.FileStats("po/project.pot")
	if err != nil {
		t.Fatalf("FileStats: %v", err)
	}

	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
	if stats.Translated != 0 {
		t.Errorf("Translated = %d, want 0", stats.Translated)
	}
	if stats.Untranslated != 2 {
		t.Errorf("Untranslated = %d, want 2", stats.Untranslated)
	}
}

func TestFileContent(t *testing.T) {
	dir := writeCheckout(t, map[string]string{"po/de.po": testPODE})

	h, err := NewPOTHandler(dir, `po/.*\.po$`, "en")
	if err != nil {
		t.Fatalf("NewPOTHandler: %v", err)
	}

	data, err := h.FileContent("po/de.po")
	if err != nil {
		t.Fatalf("FileContent: %v", err)
	}
	if string(data) != testPODE {
		t.Error("content mismatch")
	}
}

func TestFileContent_Traversal(t *testing.T) {
	dir := writeCheckout(t, map[string]string{"po/de.po": testPODE})

	h, err := NewPOTHandler(dir, `po/.*\.po$`, "en")
	if err != nil {
		t.Fatalf("NewPOTHandler: %v", err)
	}

	if _, err := h.FileContent("../../etc/passwd"); err == nil {
		t.Error("expected error for path escaping the checkout")
	}
}

func TestGuessLanguage(t *testing.T) {
	h, err := NewPOTHandler(t.TempDir(), `.*`, "en")
	if err != nil {
		t.Fatalf("NewPOTHandler: %v", err)
	}

	tests := []struct {
		filename string
		want     string
	}{
		{"po/de.po", "de"},
		{"po/pt_BR.po", "pt_BR"},
		{"translations/sr@latin.po", "sr@latin"},
		{"po/project.pot", ""},
		{"README", ""},
	}
	for _, tt := range tests {
		if got := h.GuessLanguage(tt.filename); got != tt.want {
			t.Errorf("GuessLanguage(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestCountFuzzy(t *testing.T) {
	// Fuzzy header must not count; obsolete entries must not count.
	data := `#, fuzzy
msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"

#, fuzzy, c-format
msgid "One"
msgstr "Eins"

msgid "Two"
msgstr "Zwei"

#, fuzzy
#~ msgid "Old"
#~ msgstr "Alt"
`
	if got := countFuzzy([]byte(data)); got != 1 {
		t.Errorf("countFuzzy = %d, want 1", got)
	}
}
