package refs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeSource struct {
	docs map[string]Target
}

func (f *fakeSource) GetForReference(_ context.Context, path string) (Target, error) {
	tgt, ok := f.docs[path]
	if !ok {
		return Target{}, errors.New("document not found")
	}
	return tgt, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLoader(docs map[string]Target) *Loader {
	return NewLoader(&fakeSource{docs: docs}, 3, 1000, time.Minute, discard())
}

func TestLoad_Chain(t *testing.T) {
	l := newTestLoader(map[string]Target{
		"/b.md": {Content: "B body, see @/c.md"},
		"/c.md": {Content: "C body, see @/d.md"},
		"/d.md": {Content: "D body, see @/e.md"},
		"/e.md": {Content: "E body"},
	})

	roots, err := l.Load(context.Background(), "start at @/b.md", "/a.md", 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(roots))
	}

	b := roots[0]
	if b.Path != "/b.md" || b.State != StateResolved || b.Depth != 1 {
		t.Fatalf("root = %+v", b)
	}
	c := b.Children[0]
	if c.Path != "/c.md" || c.State != StateResolved || c.Depth != 2 {
		t.Fatalf("level 2 = %+v", c)
	}
	d := c.Children[0]
	if d.Path != "/d.md" || d.State != StateResolved || d.Depth != 3 {
		t.Fatalf("level 3 = %+v", d)
	}
	// Depth exhausted: /d.md still resolves, but its own references are not
	// expanded.
	if d.Children != nil {
		t.Errorf("children past requested depth: %+v", d.Children)
	}
}

func TestLoad_DepthOne(t *testing.T) {
	l := newTestLoader(map[string]Target{
		"/b.md": {Content: "see @/c.md"},
		"/c.md": {Content: "leaf"},
	})

	roots, err := l.Load(context.Background(), "@/b.md", "/a.md", 1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if roots[0].State != StateResolved {
		t.Fatalf("root state = %s", roots[0].State)
	}
	if roots[0].Children != nil {
		t.Errorf("depth 1 must not attach children: %+v", roots[0].Children)
	}
}

func TestLoad_OutOfRangeDepthFallsBack(t *testing.T) {
	l := newTestLoader(map[string]Target{
		"/b.md": {Content: "see @/c.md"},
		"/c.md": {Content: "leaf"},
	})

	for _, depth := range []int{0, -2, 6, 99} {
		roots, err := l.Load(context.Background(), "@/b.md", "/a.md", depth)
		if err != nil {
			t.Fatalf("Load(depth=%d): %v", depth, err)
		}
		// Default depth is 3, so the level-2 child is present.
		if len(roots[0].Children) != 1 || roots[0].Children[0].Path != "/c.md" {
			t.Errorf("Load(depth=%d) did not use the default depth: %+v", depth, roots[0])
		}
	}
}

func TestLoad_CycleDetection(t *testing.T) {
	l := newTestLoader(map[string]Target{
		"/b.md": {Content: "back to @/a.md and on to @/c.md"},
		"/c.md": {Content: "leaf"},
	})

	roots, err := l.Load(context.Background(), "@/b.md", "/a.md", 5)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	b := roots[0]
	if len(b.Children) != 2 {
		t.Fatalf("children = %+v", b.Children)
	}
	back, on := b.Children[0], b.Children[1]
	if back.Path != "/a.md" || back.State != StateCycle {
		t.Errorf("ancestor reference = %+v, want cycle_detected", back)
	}
	if back.Children != nil || back.Content != "" {
		t.Errorf("cyclic node must not be expanded: %+v", back)
	}
	if on.Path != "/c.md" || on.State != StateResolved {
		t.Errorf("non-cyclic sibling = %+v", on)
	}
}

// The same document reached through unrelated branches is not a cycle; only
// repetition along the root-to-node path is.
func TestLoad_SharedDocumentAcrossBranches(t *testing.T) {
	l := newTestLoader(map[string]Target{
		"/b.md":      {Content: "see @/shared.md"},
		"/c.md":      {Content: "see @/shared.md"},
		"/shared.md": {Content: "common"},
	})

	roots, err := l.Load(context.Background(), "@/b.md and @/c.md", "/a.md", 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, root := range roots {
		if len(root.Children) != 1 || root.Children[0].State != StateResolved {
			t.Errorf("branch %s = %+v, want shared.md resolved", root.Path, root.Children)
		}
	}
}

func TestLoad_SectionRef(t *testing.T) {
	l := newTestLoader(map[string]Target{
		"/b.md": {
			Content:  "# B\n\nfull\n\n## Setup\n\nsetup body\n",
			Sections: map[string]string{"b": "\nfull\n", "setup": "\nsetup body\n"},
		},
	})

	roots, err := l.Load(context.Background(), "@/b.md#setup and @/b.md#missing", "/a.md", 2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	hit, miss := roots[0], roots[1]
	if hit.State != StateResolved || hit.Content != "\nsetup body\n" {
		t.Errorf("section ref = %+v", hit)
	}
	if miss.State != StateSectionNotFound {
		t.Errorf("missing section state = %s, want section_not_found", miss.State)
	}
}

func TestLoad_ErrorStates(t *testing.T) {
	l := newTestLoader(map[string]Target{})

	roots, err := l.Load(context.Background(), "@/gone.md and @/x/../../up.md", "/a.md", 2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if roots[0].State != StateDocNotFound {
		t.Errorf("state = %s, want document_not_found", roots[0].State)
	}
	if roots[1].State != StateInvalid {
		t.Errorf("state = %s, want invalid_reference", roots[1].State)
	}
}

func TestLoad_NodeBudget(t *testing.T) {
	l := NewLoader(&fakeSource{docs: map[string]Target{
		"/b.md": {Content: "leaf"},
		"/c.md": {Content: "leaf"},
	}}, 3, 1, time.Minute, discard())

	roots, err := l.Load(context.Background(), "@/b.md then @/c.md", "/a.md", 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if roots[0].State != StateResolved {
		t.Errorf("first node = %s, want resolved", roots[0].State)
	}
	if roots[1].State != StateTruncated {
		t.Errorf("over-budget node = %s, want truncated", roots[1].State)
	}
	if roots[1].Path != "/c.md" {
		t.Errorf("truncated node keeps its target path, got %q", roots[1].Path)
	}
}

func TestLoad_TimeBudget(t *testing.T) {
	l := NewLoader(&fakeSource{docs: map[string]Target{
		"/b.md": {Content: "leaf"},
	}}, 3, 1000, time.Nanosecond, discard())

	roots, err := l.Load(context.Background(), "@/b.md", "/a.md", 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if roots[0].State != StateTruncated {
		t.Errorf("state = %s, want truncated past the deadline", roots[0].State)
	}
}

func TestLoad_InvalidBasePath(t *testing.T) {
	l := newTestLoader(nil)
	if _, err := l.Load(context.Background(), "@/b.md", "relative.md", 3); err == nil {
		t.Error("expected error for non-absolute base path")
	}
}
