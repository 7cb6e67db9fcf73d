package sections

// tasksContainer is the slug of a heading recognized as a tasks container.
const tasksContainer = "tasks"

// IsTask reports whether the heading addressed by slug is a task: a heading
// whose ancestor chain includes a tasks container. The check is structural
// and recomputed from the heading list on every call, so it stays correct
// after edits that move sections around.
func IsTask(headings []Heading, slug string) bool {
	idx := -1
	for _, h := range headings {
		if h.Slug == slug {
			idx = h.Index
			break
		}
	}
	if idx < 0 {
		return false
	}
	for p := headings[idx].ParentIndex; p >= 0; p = headings[p].ParentIndex {
		if headings[p].Slug == tasksContainer {
			return true
		}
	}
	return false
}
