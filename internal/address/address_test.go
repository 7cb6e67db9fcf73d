package address

import (
	"errors"
	"testing"
)

func TestParseDocument_Normalization(t *testing.T) {
	tests := []struct {
		input    string
		wantPath string
		wantNS   string
		wantSlug string
	}{
		{"/api/specs/auth.md", "/api/specs/auth.md", "api/specs", "auth"},
		{"/API/Specs/Auth.MD", "/api/specs/auth.md", "api/specs", "auth"},
		{"/guide", "/guide.md", "root", "guide"},
		{"/guide/", "/guide.md", "root", "guide"},
		{"/a//b/./c.md", "/a/b/c.md", "a/b", "c"},
		{"  /notes.md  ", "/notes.md", "root", "notes"},
	}
	for _, tt := range tests {
		addr, err := ParseDocument(tt.input)
		if err != nil {
			t.Fatalf("ParseDocument(%q): unexpected error: %v", tt.input, err)
		}
		if addr.Path != tt.wantPath {
			t.Errorf("ParseDocument(%q): path = %q, want %q", tt.input, addr.Path, tt.wantPath)
		}
		if addr.Namespace != tt.wantNS {
			t.Errorf("ParseDocument(%q): namespace = %q, want %q", tt.input, addr.Namespace, tt.wantNS)
		}
		if addr.Slug != tt.wantSlug {
			t.Errorf("ParseDocument(%q): slug = %q, want %q", tt.input, addr.Slug, tt.wantSlug)
		}
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	for _, input := range []string{"", "relative.md", "/a/../b.md", "/../etc/passwd", "/"} {
		_, err := ParseDocument(input)
		if err == nil {
			t.Errorf("ParseDocument(%q): expected error, got none", input)
			continue
		}
		var invalid *InvalidAddressError
		if !errors.As(err, &invalid) {
			t.Errorf("ParseDocument(%q): error type %T, want *InvalidAddressError", input, err)
		}
	}
}

func TestParseSection_Forms(t *testing.T) {
	tests := []struct {
		input    string
		context  string
		wantDoc  string
		wantSlug string
	}{
		{"/api/auth.md#setup", "", "/api/auth.md", "setup"},
		{"#setup", "/api/auth.md", "/api/auth.md", "setup"},
		{"setup", "/api/auth.md", "/api/auth.md", "setup"},
		{"/api/auth#Setup", "", "/api/auth.md", "setup"},
	}
	for _, tt := range tests {
		addr, err := ParseSection(tt.input, tt.context)
		if err != nil {
			t.Fatalf("ParseSection(%q, %q): unexpected error: %v", tt.input, tt.context, err)
		}
		if addr.Document.Path != tt.wantDoc {
			t.Errorf("ParseSection(%q): doc = %q, want %q", tt.input, addr.Document.Path, tt.wantDoc)
		}
		if addr.Slug != tt.wantSlug {
			t.Errorf("ParseSection(%q): slug = %q, want %q", tt.input, addr.Slug, tt.wantSlug)
		}
		if addr.FullPath != tt.wantDoc+"#"+tt.wantSlug {
			t.Errorf("ParseSection(%q): full path = %q", tt.input, addr.FullPath)
		}
	}
}

func TestParseSection_NeedsContext(t *testing.T) {
	if _, err := ParseSection("setup", ""); err == nil {
		t.Error("bare slug without context should fail")
	}
	if _, err := ParseSection("#setup", ""); err == nil {
		t.Error("#slug without context should fail")
	}
	if _, err := ParseSection("/a.md#", ""); err == nil {
		t.Error("empty slug should fail")
	}
}

func TestParser_Memoization(t *testing.T) {
	p, err := NewParser(4)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	a1, err := p.Document("/api/auth.md")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	a2, err := p.Document("/api/auth.md")
	if err != nil {
		t.Fatalf("Document (cached): %v", err)
	}
	if a1 != a2 {
		t.Errorf("cached parse differs: %+v vs %+v", a1, a2)
	}

	// Same raw slug against different contexts must not collide.
	s1, err := p.Section("setup", "/a.md")
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	s2, err := p.Section("setup", "/b.md")
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if s1.Document.Path == s2.Document.Path {
		t.Error("sections with different contexts resolved to the same document")
	}

	// Errors are not cached but still surface.
	if _, err := p.Document("/a/../b.md"); err == nil {
		t.Error("expected traversal error through memoizing parser")
	}
}
