package engine

import (
	"fmt"
	"strings"
)

// DocumentNotFoundError reports a missing document along with documents that
// do exist in the same namespace.
type DocumentNotFoundError struct {
	Path         string
	Alternatives []string
}

func (e *DocumentNotFoundError) Error() string {
	if len(e.Alternatives) == 0 {
		return fmt.Sprintf("document %s not found", e.Path)
	}
	return fmt.Sprintf("document %s not found (nearby: %s)", e.Path, strings.Join(e.Alternatives, ", "))
}

// SectionNotFoundError reports a missing section along with the slugs the
// document does contain.
type SectionNotFoundError struct {
	Path      string
	Slug      string
	Available []string
}

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("section %s#%s not found (have: %s)", e.Path, e.Slug, strings.Join(e.Available, ", "))
}

// NotATaskError reports that a section resolved fine but is not structurally
// a task.
type NotATaskError struct {
	Address string
}

func (e *NotATaskError) Error() string {
	return fmt.Sprintf("%s is not a task section", e.Address)
}

// PreconditionFailedError reports a write attempted against content that
// changed underneath the caller. The caller should re-read and retry.
type PreconditionFailedError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *PreconditionFailedError) Error() string {
	return fmt.Sprintf("document %s changed since it was read (hash %.12s, expected %.12s)", e.Path, e.Actual, e.Expected)
}
