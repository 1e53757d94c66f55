package welcomecard

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func testOptions(outDir string) *Options {
	ro := DefaultRenderOptions()
	ro.FontCache = NewIsolatedFontCache()
	return &Options{OutputDir: outDir, Render: ro}
}

func TestProcess_OneImagePerSlide(t *testing.T) {
	dir := t.TempDir()
	src := saveDeck(t, dir, newCardDeck(t, "Nombre"))
	before, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out")
	res, err := Process(Job{Path: src, Find: "Nombre", Replace: "Ada Lovelace"}, testOptions(out))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if res.Slides != 2 || len(res.Files) != 2 {
		t.Fatalf("slides=%d files=%d, want 2 and 2", res.Slides, len(res.Files))
	}
	if res.Replaced != 1 {
		t.Errorf("replaced = %d, want 1", res.Replaced)
	}

	name := regexp.MustCompile(`^slide_(\d)_\d{14}_[0-9a-f]{8}\.jpg$`)
	for i, f := range res.Files {
		if filepath.Dir(f) != out {
			t.Errorf("file %s not in %s", f, out)
		}
		m := name.FindStringSubmatch(filepath.Base(f))
		if m == nil || m[1] != string(rune('0'+i)) {
			t.Errorf("unexpected file name %q for slide %d", filepath.Base(f), i)
		}
		if info, err := os.Stat(f); err != nil || info.Size() == 0 {
			t.Errorf("image %s missing or empty: %v", f, err)
		}
	}

	after, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("template file was modified")
	}

	status := Status(res, nil)
	if !strings.HasPrefix(status, "Process completed") || !strings.Contains(status, out) {
		t.Errorf("status = %q", status)
	}
}

func TestProcess_RerunDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := saveDeck(t, dir, newCardDeck(t, "Nombre"))
	out := filepath.Join(dir, "out")

	opts := testOptions(out)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	opts.Now = func() time.Time { return fixed }

	for i := 0; i < 2; i++ {
		if _, err := Process(Job{Path: src, Find: "Nombre", Replace: "Ada"}, opts); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if files := listDir(t, out); len(files) != 4 {
		t.Errorf("got %d files after two runs in the same second, want 4: %v", len(files), files)
	}
}

func TestProcess_MissingInput(t *testing.T) {
	dir := t.TempDir()
	src := saveDeck(t, dir, newCardDeck(t, "Nombre"))
	out := filepath.Join(dir, "out")

	jobs := []Job{
		{Path: "", Find: "Nombre", Replace: "Ada"},
		{Path: src, Find: "", Replace: "Ada"},
		{Path: src, Find: "Nombre", Replace: ""},
		{},
	}
	for _, job := range jobs {
		res, err := Process(job, testOptions(out))
		if !errors.Is(err, ErrMissingInput) {
			t.Errorf("%+v: expected ErrMissingInput, got %v", job, err)
		}
		if got := Status(res, err); got != MissingInputMessage {
			t.Errorf("status = %q", got)
		}
		if res == nil || len(res.Files) != 0 {
			t.Errorf("%+v: result = %+v", job, res)
		}
	}
	if files := listDir(t, out); len(files) != 0 {
		t.Errorf("files written for missing input: %v", files)
	}

	if got := Run("", "Nombre", "Ada"); got != MissingInputMessage {
		t.Errorf("Run = %q", got)
	}
}

func TestProcess_BadPath(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	res, err := Process(Job{Path: filepath.Join(dir, "nope.pptx"), Find: "a", Replace: "b"}, testOptions(out))
	if err == nil {
		t.Fatal("expected error")
	}
	if stage, _ := StageOf(err); stage != StageOpen {
		t.Errorf("stage = %q, want %q", stage, StageOpen)
	}
	if len(res.Files) != 0 {
		t.Errorf("files = %v", res.Files)
	}
	if files := listDir(t, out); len(files) != 0 {
		t.Errorf("files written: %v", files)
	}

	status := Status(res, err)
	if !strings.HasPrefix(status, "Error reading the PowerPoint file") || !strings.Contains(status, "nope.pptx") {
		t.Errorf("status = %q", status)
	}
}

func TestProcess_NotAPresentation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.pptx")
	if err := os.WriteFile(src, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Process(Job{Path: src, Find: "a", Replace: "b"}, testOptions(dir))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat in chain, got %v", err)
	}
}

func TestProcess_DecodeFailureAborts(t *testing.T) {
	dir := t.TempDir()
	p := New()
	p.CreateSlide().CreateTextShape().TextFrame().CreateParagraph().CreateTextRun("Nombre")
	bad := p.CreateSlide().CreatePictureShape([]byte("garbage"), "image/png")
	bad.SetSize(Inch(1), Inch(1))
	p.CreateSlide()
	src := saveDeck(t, dir, p)
	out := filepath.Join(dir, "out")

	res, err := Process(Job{Path: src, Find: "Nombre", Replace: "Ada"}, testOptions(out))
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageDecode || se.Slide != 1 {
		t.Fatalf("err = %v, want decode failure on slide 1", err)
	}
	if len(res.Files) != 1 {
		t.Errorf("files = %v, want only slide 0", res.Files)
	}
	if files := listDir(t, out); len(files) != 1 {
		t.Errorf("files on disk = %v", files)
	}
}

func TestProcess_ExportDeck(t *testing.T) {
	dir := t.TempDir()
	src := saveDeck(t, dir, newCardDeck(t, "Nombre"))

	opts := testOptions(filepath.Join(dir, "out"))
	opts.DeckOut = filepath.Join(dir, "filled.pptx")
	res, err := Process(Job{Path: src, Find: "Nombre", Replace: "Ada"}, opts)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Deck != opts.DeckOut {
		t.Errorf("deck = %q", res.Deck)
	}

	p, err := Open(opts.DeckOut)
	if err != nil {
		t.Fatalf("Open exported deck: %v", err)
	}
	if !strings.Contains(p.ExtractText(), "Welcome Ada") {
		t.Errorf("exported text = %q", p.ExtractText())
	}
}

func TestProcess_ExportRefusesTemplate(t *testing.T) {
	dir := t.TempDir()
	src := saveDeck(t, dir, newCardDeck(t, "Nombre"))
	before, _ := os.ReadFile(src)

	opts := testOptions(filepath.Join(dir, "out"))
	opts.DeckOut = src
	_, err := Process(Job{Path: src, Find: "Nombre", Replace: "Ada"}, opts)
	if stage, _ := StageOf(err); stage != StageExport {
		t.Fatalf("err = %v, want export failure", err)
	}
	after, _ := os.ReadFile(src)
	if !bytes.Equal(before, after) {
		t.Error("template was overwritten")
	}
}

func TestStatus(t *testing.T) {
	err := newSlideError(StageSave, 2, errors.New("disk full"))
	if got := Status(&Result{}, err); got != "Error: save failed on slide 2: disk full" {
		t.Errorf("Status = %q", got)
	}
	if got := Status(&Result{Files: []string{"a", "b"}, OutputDir: "/tmp/x"}, nil); got != "Process completed, 2 images saved in /tmp/x" {
		t.Errorf("Status = %q", got)
	}
}
