package storagenode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestStore(t *testing.T) *LocalChunkStore {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "storagenode-test-"+t.Name())
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("cleanup temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := NewLocalChunkStore(dir, logrus.NewEntry(logrus.New()))
	if err != nil {
		t.Fatalf("NewLocalChunkStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// Storage round-trip: a valid-UTF-8 payload comes back byte-identical and
// marked as text.
func TestPutGetRoundTripText(t *testing.T) {
	s := newTestStore(t)
	payload := []byte("hello, chunked world")

	if _, err := s.Put("note.txt_chunk_0", payload, "note.txt"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, isBinary, category, err := s.Get("note.txt_chunk_0")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
	if isBinary {
		t.Error("expected is_binary=false for valid UTF-8 text")
	}
	if category != CategoryText {
		t.Errorf("category = %s, want text", category)
	}
}

// Storage round-trip: a non-UTF-8 payload comes back byte-identical and
// marked as binary, filed under its extension's category.
func TestPutGetRoundTripBinary(t *testing.T) {
	s := newTestStore(t)
	payload := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0xFF, 0xFE, 0x01}

	if _, err := s.Put("logo.png_chunk_0", payload, "logo.png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, isBinary, category, err := s.Get("logo.png_chunk_0")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("got %x, want %x", got, payload)
	}
	if !isBinary {
		t.Error("expected is_binary=true for non-UTF-8 payload")
	}
	if category != CategoryImages {
		t.Errorf("category = %s, want images", category)
	}
	if _, err := os.Stat(filepath.Join(s.dataDir, "images", "logo.png_chunk_0")); err != nil {
		t.Errorf("expected chunk file under images/: %v", err)
	}
}

// Categorization by extension, including the "other" fallback for unknown
// or missing extensions.
func TestCategorization(t *testing.T) {
	cases := map[string]Category{
		"a.txt":       CategoryText,
		"a.log":       CategoryText,
		"a.md":        CategoryText,
		"a.json":      CategoryText,
		"a.xml":       CategoryText,
		"a.csv":       CategoryText,
		"a.jpg":       CategoryImages,
		"a.jpeg":      CategoryImages,
		"a.png":       CategoryImages,
		"a.gif":       CategoryImages,
		"a.bmp":       CategoryImages,
		"a.svg":       CategoryImages,
		"a.webp":      CategoryImages,
		"a.pdf":       CategoryDocuments,
		"a.docx":      CategoryDocuments,
		"a.xlsx":      CategoryDocuments,
		"a.pptx":      CategoryDocuments,
		"a.bin":       CategoryOther,
		"noextension": CategoryOther,
	}
	s := newTestStore(t)
	for filename, want := range cases {
		chunkID := filename + "_chunk_0"
		got, err := s.Put(chunkID, []byte("x"), filename)
		if err != nil {
			t.Fatalf("Put(%s): %v", filename, err)
		}
		if got != want {
			t.Errorf("Categorize(%s) = %s, want %s", filename, got, want)
		}
	}
}

func TestGetUnknownChunkNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, _, _, err := s.Get("does_not_exist_chunk_0"); err == nil {
		t.Fatal("expected NOT_FOUND error for unknown chunk")
	}
}

func TestPutMissingChunkIDBadRequest(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Put("", []byte("x"), "a.txt"); err == nil {
		t.Fatal("expected BAD_REQUEST error for missing chunk_id")
	}
}

func TestHealthCounts(t *testing.T) {
	s := newTestStore(t)
	s.Put("a.txt_chunk_0", []byte("x"), "a.txt")
	s.Put("b.jpg_chunk_0", []byte{0xff, 0x00}, "b.jpg")

	total, byCategory := s.Health()
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if byCategory[CategoryText] != 1 || byCategory[CategoryImages] != 1 {
		t.Errorf("byCategory = %v", byCategory)
	}
}

func TestStorageInfoListsUpTo20Files(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 25; i++ {
		name := filepath.Join("f" + string(rune('a'+i%26)) + ".txt")
		s.Put(name+"_chunk_0", []byte("x"), name)
	}
	info := s.StorageInfo()
	listing := info[CategoryText]
	if listing.Count != 25 {
		t.Errorf("count = %d, want 25", listing.Count)
	}
	if len(listing.Files) != storageInfoFileLimit {
		t.Errorf("listed files = %d, want %d", len(listing.Files), storageInfoFileLimit)
	}
}
