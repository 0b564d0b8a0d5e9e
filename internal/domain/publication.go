package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Publication represents a research publication in the central repository.
// String identifier fields use the empty string to mean "unknown".
type Publication struct {
	ID                uuid.UUID
	Title             string
	Abstract          string
	DOI               string
	ArxivID           string
	URL               string
	Venue             string
	PublicationDate   *time.Time
	Type              PublicationType
	Status            PublicationStatus
	CitationCount     int
	AuthorCount       int
	Source            string
	SemanticScholarID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasIdentifier returns true if the publication carries at least one
// external identifier usable for enrichment lookups.
func (p *Publication) HasIdentifier() bool {
	return strings.TrimSpace(p.DOI) != "" || strings.TrimSpace(p.ArxivID) != ""
}

// NormalizedTitle returns the title lower-cased and trimmed, the form
// used for title similarity comparison.
func (p *Publication) NormalizedTitle() string {
	return strings.ToLower(strings.TrimSpace(p.Title))
}
