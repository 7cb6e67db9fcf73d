package fingerprint

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

type fakeStore struct {
	files map[string]string
}

func (f *fakeStore) List() ([]string, error) {
	var out []string
	for p := range f.files {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) ReadPrefix(virtual string, n int) ([]byte, error) {
	content, ok := f.files[virtual]
	if !ok {
		return nil, errors.New("no such document")
	}
	if len(content) > n {
		content = content[:n]
	}
	return []byte(content), nil
}

func newTestIndex(t *testing.T, files map[string]string) (*Index, *fakeStore) {
	t.Helper()
	store := &fakeStore{files: files}
	ix := New(store, 8192, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := ix.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return ix, store
}

func TestFindCandidates_Ranking(t *testing.T) {
	ix, _ := newTestIndex(t, map[string]string{
		"/api/auth.md":    "# Auth\n\nToken auth and session auth flows.\n",
		"/api/billing.md": "# Billing\n\nInvoices and payment token records.\n",
		"/notes.md":       "# Notes\n\nNothing relevant here.\n",
	})

	got := ix.FindCandidates("auth token")
	want := []string{"/api/auth.md", "/api/billing.md"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindCandidates = %v, want %v", got, want)
	}
}

func TestFindCandidates_CaseInsensitive(t *testing.T) {
	ix, _ := newTestIndex(t, map[string]string{
		"/deploy.md": "# Deploy\n\nKubernetes rollout steps.\n",
	})
	if got := ix.FindCandidates("KUBERNETES"); len(got) != 1 || got[0] != "/deploy.md" {
		t.Errorf("FindCandidates(upper) = %v", got)
	}
}

// A query of nothing but stop words must not silently filter everything out:
// the index fails open and hands back every document for the full search to
// judge.
func TestFindCandidates_FailsOpen(t *testing.T) {
	ix, _ := newTestIndex(t, map[string]string{
		"/b.md": "# B\n\nBravo content.\n",
		"/a.md": "# A\n\nAlpha content.\n",
	})

	for _, query := range []string{"", "the and of", "a an"} {
		got := ix.FindCandidates(query)
		want := []string{"/a.md", "/b.md"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("FindCandidates(%q) = %v, want all documents %v", query, got, want)
		}
	}
}

func TestUpdate_RepairsPostings(t *testing.T) {
	files := map[string]string{"/a.md": "# A\n\nOriginal keyword: zebra.\n"}
	ix, store := newTestIndex(t, files)

	if got := ix.FindCandidates("zebra"); len(got) != 1 {
		t.Fatalf("FindCandidates(zebra) = %v", got)
	}

	store.files["/a.md"] = "# A\n\nRewritten keyword: giraffe.\n"
	if err := ix.Update("/a.md"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got := ix.FindCandidates("zebra"); len(got) != 0 {
		t.Errorf("stale posting survived update: %v", got)
	}
	if got := ix.FindCandidates("giraffe"); len(got) != 1 {
		t.Errorf("new posting missing: %v", got)
	}
}

func TestUpdate_UnreadableDocumentExcluded(t *testing.T) {
	ix, store := newTestIndex(t, map[string]string{"/a.md": "# A\n\nZebra.\n"})

	delete(store.files, "/a.md")
	if err := ix.Update("/a.md"); err == nil {
		t.Fatal("expected error for unreadable document")
	}
	if got := ix.FindCandidates("zebra"); len(got) != 0 {
		t.Errorf("unreadable document still indexed: %v", got)
	}
	if st := ix.Stats(); st.Documents != 0 {
		t.Errorf("documents = %d, want 0", st.Documents)
	}
}

func TestRemove_DropsEmptyBuckets(t *testing.T) {
	ix, _ := newTestIndex(t, map[string]string{"/a.md": "# A\n\nZebra herd.\n"})
	ix.Remove("/a.md")
	if st := ix.Stats(); st.Documents != 0 || st.Keywords != 0 {
		t.Errorf("stats after remove = %+v, want empty index", st)
	}
	// Removing again is harmless.
	ix.Remove("/a.md")
}

func TestExtractKeywords(t *testing.T) {
	text := "deploy deploy deploy rollout rollout canary the and of it"
	got := ExtractKeywords(text, 2)
	want := []string{"deploy", "rollout"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractKeywords = %v, want %v", got, want)
	}
}

func TestExtractKeywords_Cap(t *testing.T) {
	text := "alpha bravo charlie delta echo foxtrot golf hotel india juliet " +
		"kilo lima mike november oscar papa quebec romeo sierra tango " +
		"uniform victor whiskey xray yankee zulu"
	if got := ExtractKeywords(text, MaxKeywords); len(got) != MaxKeywords {
		t.Errorf("len = %d, want %d", len(got), MaxKeywords)
	}
}
