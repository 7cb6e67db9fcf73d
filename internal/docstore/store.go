// Package docstore is the filesystem collaborator: it maps virtual document
// paths onto a physical root directory and provides reads, stats, atomic
// writes, recursive listing, and change watching.
package docstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// ErrNotFound is returned when a virtual path names no file on disk.
var ErrNotFound = errors.New("document not found")

// FileInfo is the subset of stat data the cache needs for staleness checks.
type FileInfo struct {
	Size    int64
	ModTime time.Time
}

// Store serves documents from a root directory. Virtual paths are absolute
// ("/api/specs/auth.md") and are confined to the root.
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("docstore root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("docstore root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docstore root %q is not a directory", abs)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute physical root directory.
func (s *Store) Root() string {
	return s.root
}

// physical converts a normalized virtual path into a physical one, rejecting
// anything that would escape the root. Virtual paths are lowercase while
// on-disk names need not be, so a miss on the exact name falls back to
// resolving each segment against the actual directory entries.
func (s *Store) physical(virtual string) (string, error) {
	if !strings.HasPrefix(virtual, "/") {
		return "", fmt.Errorf("virtual path %q is not absolute", virtual)
	}
	p := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(virtual, "/")))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("virtual path %q escapes the document root", virtual)
	}
	if _, err := os.Lstat(p); err != nil {
		p = s.resolveActual(virtual)
	}
	return p, nil
}

// resolveActual maps a lowercase virtual path onto the on-disk spelling, one
// segment at a time. Segments with no case-insensitive match keep their
// literal form, so writes to new files still land under existing mixed-case
// directories instead of creating lowercase twins.
func (s *Store) resolveActual(virtual string) string {
	cur := s.root
	for _, seg := range strings.Split(strings.TrimPrefix(virtual, "/"), "/") {
		if seg == "" {
			continue
		}
		name := seg
		if entries, err := os.ReadDir(cur); err == nil {
			for _, e := range entries {
				if strings.EqualFold(e.Name(), seg) {
					name = e.Name()
					break
				}
			}
		}
		cur = filepath.Join(cur, name)
	}
	return cur
}

// Virtual converts a physical path under the root back to a virtual path.
// Paths outside the root yield "".
func (s *Store) Virtual(physical string) string {
	rel, err := filepath.Rel(s.root, physical)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return "/" + strings.ToLower(filepath.ToSlash(rel))
}

// Read returns the full content and stat info of a document.
func (s *Store) Read(virtual string) ([]byte, FileInfo, error) {
	p, err := s.physical(virtual)
	if err != nil {
		return nil, FileInfo{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, FileInfo{}, fmt.Errorf("%s: %w", virtual, ErrNotFound)
		}
		return nil, FileInfo{}, fmt.Errorf("read %s: %w", virtual, err)
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, FileInfo{}, fmt.Errorf("stat %s: %w", virtual, err)
	}
	return data, FileInfo{Size: info.Size(), ModTime: info.ModTime()}, nil
}

// ReadPrefix returns at most n bytes from the start of a document. Used by
// the fingerprint index so indexing never pays for full loads.
func (s *Store) ReadPrefix(virtual string, n int) ([]byte, error) {
	p, err := s.physical(virtual)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", virtual, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", virtual, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, int64(n)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", virtual, err)
	}
	return data, nil
}

// Stat returns stat info without reading content.
func (s *Store) Stat(virtual string) (FileInfo, error) {
	p, err := s.physical(virtual)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileInfo{}, fmt.Errorf("%s: %w", virtual, ErrNotFound)
		}
		return FileInfo{}, fmt.Errorf("stat %s: %w", virtual, err)
	}
	return FileInfo{Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Write atomically replaces a document's content, creating parent
// directories as needed. Readers never observe a partial write.
func (s *Store) Write(virtual string, content []byte) error {
	p, err := s.physical(virtual)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", virtual, err)
	}
	if err := atomic.WriteFile(p, strings.NewReader(string(content))); err != nil {
		return fmt.Errorf("write %s: %w", virtual, err)
	}
	return nil
}

// List walks the root and returns the virtual paths of every markdown
// document, sorted.
func (s *Store) List() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".md" && ext != ".markdown" {
			return nil
		}
		if v := s.Virtual(p); v != "" {
			paths = append(paths, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
