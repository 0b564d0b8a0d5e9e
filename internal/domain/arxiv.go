package domain

import (
	"regexp"
	"strings"
)

const (
	// DOIPrefix is the DataCite prefix arXiv registers DOIs under.
	DOIPrefix = "10.48550/arXiv."

	arxivAbsBaseURL = "https://arxiv.org/abs/"
)

var (
	// New-style identifiers: YYMM.NNNNN.
	newStyleArxivID = regexp.MustCompile(`^\d{4}\.\d{5}$`)

	// Legacy identifiers: archive(.subject)?/YYMMNNN, e.g. cs.AI/0301012.
	legacyArxivID = regexp.MustCompile(`^[a-z-]+(\.[A-Z]{2})?/\d{7}$`)
)

// NormalizeArXivID trims the identifier and strips an optional
// "arXiv:" or "arxiv:" prefix.
func NormalizeArXivID(id string) string {
	id = strings.TrimSpace(id)
	for _, prefix := range []string{"arXiv:", "arxiv:"} {
		if strings.HasPrefix(id, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(id, prefix))
		}
	}
	return id
}

// ValidArXivID reports whether id is a well-formed arXiv identifier
// after normalization. Both new-style and legacy forms are accepted.
func ValidArXivID(id string) bool {
	id = NormalizeArXivID(id)
	return newStyleArxivID.MatchString(id) || legacyArxivID.MatchString(id)
}

// SynthesizeDOI derives the DataCite DOI arXiv assigns to every paper
// from its arXiv identifier.
func SynthesizeDOI(arxivID string) string {
	return DOIPrefix + NormalizeArXivID(arxivID)
}

// AbstractURL returns the arXiv abstract page URL for an identifier.
func AbstractURL(arxivID string) string {
	return arxivAbsBaseURL + NormalizeArXivID(arxivID)
}

// ParseAuthorName splits a display name into first and last name. The
// last whitespace-separated token is taken as the surname; everything
// before it becomes the first name. A single-token name yields an empty
// first name.
func ParseAuthorName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	last = parts[len(parts)-1]
	first = strings.Join(parts[:len(parts)-1], " ")
	return first, last
}
