package fingerprint

// stopWords are common English words excluded from keyword sets and queries.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "any": true, "can": true,
	"had": true, "her": true, "was": true, "one": true, "our": true,
	"out": true, "has": true, "have": true, "him": true, "his": true,
	"how": true, "its": true, "may": true, "new": true, "now": true,
	"old": true, "see": true, "two": true, "way": true, "who": true,
	"did": true, "get": true, "use": true, "this": true, "that": true,
	"with": true, "from": true, "they": true, "will": true, "would": true,
	"there": true, "their": true, "what": true, "about": true, "which": true,
	"when": true, "were": true, "been": true, "more": true, "also": true,
	"into": true, "than": true, "them": true, "then": true, "these": true,
	"some": true, "such": true, "only": true, "other": true, "your": true,
	"each": true, "does": true, "should": true, "could": true, "must": true,
}
