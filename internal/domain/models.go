// Package domain provides domain models and business logic for the publication service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PublicationType classifies how a publication was published.
// These values must match the database enum publication_type.
type PublicationType string

const (
	PublicationTypeArticle         PublicationType = "article"
	PublicationTypePreprint        PublicationType = "preprint"
	PublicationTypeConferencePaper PublicationType = "conference_paper"
	PublicationTypeBookChapter     PublicationType = "book_chapter"
	PublicationTypeThesis          PublicationType = "thesis"
)

// PublicationStatus represents the enrichment lifecycle of a publication.
// These values must match the database enum publication_status.
type PublicationStatus string

const (
	PublicationStatusPending           PublicationStatus = "pending"
	PublicationStatusPublished         PublicationStatus = "published"
	PublicationStatusPendingEnrichment PublicationStatus = "pending_enrichment"
	PublicationStatusEnriched          PublicationStatus = "enriched"
	PublicationStatusEnrichmentFailed  PublicationStatus = "enrichment_failed"
)

// IsTerminal returns true if the status represents a final enrichment state.
func (s PublicationStatus) IsTerminal() bool {
	switch s {
	case PublicationStatusEnriched, PublicationStatusEnrichmentFailed:
		return true
	default:
		return false
	}
}

// Author represents a researcher referenced by one or more publications.
type Author struct {
	ID                uuid.UUID
	LastName          string
	FirstName         string
	Email             string
	ORCID             string
	SemanticScholarID string
	HIndex            *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FullName returns "FirstName LastName", or just the last name when no
// first name is known.
func (a *Author) FullName() string {
	if a.FirstName == "" {
		return a.LastName
	}
	return a.FirstName + " " + a.LastName
}

// Theme is a research topic. Themes form a hierarchy; ETL-derived themes
// are created at hierarchy level 0 with no parent.
type Theme struct {
	ID             uuid.UUID
	Label          string
	Description    string
	HierarchyLevel int
	ParentID       *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Organisation is a research institution referenced by the API layer.
type Organisation struct {
	ID        uuid.UUID
	Name      string
	Country   string
	OrgType   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicationAuthor links a publication to an author with the author's
// 1-based position in the authorship list. Position is unique per publication.
type PublicationAuthor struct {
	PublicationID uuid.UUID
	AuthorID      uuid.UUID
	Position      int
}

// PublicationTheme links a publication to a theme. The association is
// unordered and unique per (publication, theme) pair.
type PublicationTheme struct {
	PublicationID uuid.UUID
	ThemeID       uuid.UUID
}
