package docstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *eventSink) notify(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *eventSink) wait(t *testing.T, match func(Event) bool) Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		for _, ev := range c.events {
			if match(ev) {
				c.mu.Unlock()
				return ev
			}
		}
		c.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no matching event before deadline")
	return Event{}
}

func TestWatcher_DeliversChangeAndRemove(t *testing.T) {
	s, root := newTestStore(t)
	sink := &eventSink{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWatcher(s, 50*time.Millisecond, log, sink.notify)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Give the watcher a moment to establish watches.
	time.Sleep(200 * time.Millisecond)

	p := filepath.Join(root, "doc.md")
	if err := os.WriteFile(p, []byte("# Doc\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sink.wait(t, func(ev Event) bool {
		return ev.Path == "/doc.md" && !ev.Remove
	})

	if err := os.Remove(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	sink.wait(t, func(ev Event) bool {
		return ev.Path == "/doc.md" && ev.Remove
	})
}

func TestWatcher_IgnoresNonMarkdown(t *testing.T) {
	s, root := newTestStore(t)
	sink := &eventSink{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWatcher(s, 50*time.Millisecond, log, sink.notify)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "skip.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "keep.md"), []byte("# K\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	sink.wait(t, func(ev Event) bool { return ev.Path == "/keep.md" })
	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, ev := range sink.events {
		if ev.Path == "/skip.txt" {
			t.Errorf("non-markdown event delivered: %+v", ev)
		}
	}
}

func TestIsMarkdown(t *testing.T) {
	cases := map[string]bool{
		"a.md":       true,
		"A.MD":       true,
		"b.markdown": true,
		"c.txt":      false,
		"noext":      false,
	}
	for p, want := range cases {
		if got := isMarkdown(p); got != want {
			t.Errorf("isMarkdown(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestPollDetectsChanges(t *testing.T) {
	s, root := newTestStore(t)
	sink := &eventSink{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWatcher(s, 20*time.Millisecond, log, sink.notify)

	if err := os.WriteFile(filepath.Join(root, "a.md"), []byte("# A\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.poll(ctx)

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "a.md"), []byte("# A changed, longer\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	sink.wait(t, func(ev Event) bool { return ev.Path == "/a.md" && !ev.Remove })

	if err := os.Remove(filepath.Join(root, "a.md")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	sink.wait(t, func(ev Event) bool { return ev.Path == "/a.md" && ev.Remove })
}
