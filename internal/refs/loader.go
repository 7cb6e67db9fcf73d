package refs

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/address"
)

// State is the resolution outcome of one reference node. Cycle and truncated
// states annotate partial results; they are not failures.
type State string

const (
	StateResolved        State = "resolved"
	StateDocNotFound     State = "document_not_found"
	StateSectionNotFound State = "section_not_found"
	StateCycle           State = "cycle_detected"
	StateTruncated       State = "truncated"
	StateInvalid         State = "invalid_reference"
)

// Node is one reference in a loaded forest. Children come from references
// found inside the resolved content; the structure is always a tree rooted
// at the document under inspection, never a shared graph.
type Node struct {
	Raw      string  `json:"raw"`
	Path     string  `json:"path,omitempty"`
	Section  string  `json:"section,omitempty"`
	State    State   `json:"state"`
	Depth    int     `json:"depth"`
	Content  string  `json:"content,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Target is the resolved view of one referenced document.
type Target struct {
	Content  string
	Sections map[string]string
}

// Source loads referenced documents. The production implementation is the
// document cache tagged with reference-expansion access.
type Source interface {
	GetForReference(ctx context.Context, path string) (Target, error)
}

// Depth bounds for a single Load call. Out-of-range requests silently fall
// back to the loader's configured default.
const (
	MinDepth = 1
	MaxDepth = 5
)

// Loader expands reference trees breadth-first under three independent
// limits: per-call depth, a global node budget, and a wall-clock budget.
// Hitting the node or time budget truncates remaining branches rather than
// failing the call.
type Loader struct {
	source       Source
	defaultDepth int
	maxNodes     int
	timeBudget   time.Duration
	log          *slog.Logger
}

func NewLoader(source Source, defaultDepth, maxNodes int, timeBudget time.Duration, log *slog.Logger) *Loader {
	if defaultDepth < MinDepth || defaultDepth > MaxDepth {
		defaultDepth = 3
	}
	if maxNodes <= 0 {
		maxNodes = 1000
	}
	if timeBudget <= 0 {
		timeBudget = 30 * time.Second
	}
	return &Loader{
		source:       source,
		defaultDepth: defaultDepth,
		maxNodes:     maxNodes,
		timeBudget:   timeBudget,
		log:          log,
	}
}

// traversal carries the shared counters of one Load call, so the budgets are
// enforced globally regardless of branch order.
type traversal struct {
	queue    []item
	count    int
	maxDepth int
	deadline time.Time
}

type item struct {
	node      *Node
	ancestors []string // root-to-node document paths, base included
}

// Load expands the references embedded in content into a forest. Each level
// re-extracts references from the resolved content and recurses until depth
// is exhausted. A document already present on the current root-to-node path
// is marked cyclic and not re-expanded; the same document may still appear
// in unrelated branches.
func (l *Loader) Load(ctx context.Context, content, basePath string, depth int) ([]*Node, error) {
	if depth < MinDepth || depth > MaxDepth {
		depth = l.defaultDepth
	}
	base, err := address.Normalize(basePath)
	if err != nil {
		return nil, err
	}

	t := &traversal{
		maxDepth: depth,
		deadline: time.Now().Add(l.timeBudget),
	}
	ctx, cancel := context.WithDeadline(ctx, t.deadline)
	defer cancel()

	roots := l.expand(content, base, 1, []string{base}, t)

	for len(t.queue) > 0 {
		it := t.queue[0]
		t.queue = t.queue[1:]
		l.resolve(ctx, it, t)
	}
	return roots, nil
}

// expand creates child nodes for every reference in content and enqueues the
// ones that still need loading.
func (l *Loader) expand(content, fromPath string, childDepth int, ancestors []string, t *traversal) []*Node {
	var nodes []*Node
	for _, raw := range Extract(content) {
		n := &Node{Raw: raw.Raw, Depth: childDepth}
		nodes = append(nodes, n)

		ref, err := NormalizeRef(raw, fromPath)
		if err != nil {
			n.State = StateInvalid
			continue
		}
		n.Path = ref.Path
		n.Section = ref.Section

		if t.count >= l.maxNodes {
			n.State = StateTruncated
			continue
		}
		t.count++

		if slices.Contains(ancestors, ref.Path) {
			n.State = StateCycle
			continue
		}
		chain := append(slices.Clone(ancestors), ref.Path)
		t.queue = append(t.queue, item{node: n, ancestors: chain})
	}
	return nodes
}

func (l *Loader) resolve(ctx context.Context, it item, t *traversal) {
	n := it.node
	if time.Now().After(t.deadline) {
		n.State = StateTruncated
		return
	}

	tgt, err := l.source.GetForReference(ctx, n.Path)
	if err != nil {
		n.State = StateDocNotFound
		return
	}
	content := tgt.Content
	if n.Section != "" {
		body, ok := tgt.Sections[n.Section]
		if !ok {
			n.State = StateSectionNotFound
			return
		}
		content = body
	}

	n.State = StateResolved
	n.Content = content
	if n.Depth < t.maxDepth {
		n.Children = l.expand(content, n.Path, n.Depth+1, it.ancestors, t)
	}
}
