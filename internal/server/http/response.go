package httpserver

import (
	"time"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// Response types for JSON serialization.

type publicationResponse struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Abstract          string     `json:"abstract,omitempty"`
	DOI               string     `json:"doi,omitempty"`
	ArxivID           string     `json:"arxiv_id,omitempty"`
	URL               string     `json:"url,omitempty"`
	Venue             string     `json:"venue,omitempty"`
	PublicationDate   *time.Time `json:"publication_date,omitempty"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	CitationCount     int        `json:"citation_count"`
	AuthorCount       int        `json:"author_count"`
	Source            string     `json:"source,omitempty"`
	SemanticScholarID string     `json:"semantic_scholar_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type listPublicationsResponse struct {
	Publications []publicationResponse `json:"publications"`
	TotalCount   int                   `json:"total_count"`
	Skip         int                   `json:"skip"`
	Limit        int                   `json:"limit"`
}

type authorResponse struct {
	ID                string    `json:"id"`
	LastName          string    `json:"last_name"`
	FirstName         string    `json:"first_name,omitempty"`
	Email             string    `json:"email,omitempty"`
	ORCID             string    `json:"orcid,omitempty"`
	SemanticScholarID string    `json:"semantic_scholar_id,omitempty"`
	HIndex            *int      `json:"h_index,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type listAuthorsResponse struct {
	Authors    []authorResponse `json:"authors"`
	TotalCount int              `json:"total_count"`
	Skip       int              `json:"skip"`
	Limit      int              `json:"limit"`
}

type themeResponse struct {
	ID             string    `json:"id"`
	Label          string    `json:"label"`
	Description    string    `json:"description,omitempty"`
	HierarchyLevel int       `json:"hierarchy_level"`
	ParentID       string    `json:"parent_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type listThemesResponse struct {
	Themes     []themeResponse `json:"themes"`
	TotalCount int             `json:"total_count"`
	Skip       int             `json:"skip"`
	Limit      int             `json:"limit"`
}

type organisationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country,omitempty"`
	OrgType   string    `json:"org_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listOrganisationsResponse struct {
	Organisations []organisationResponse `json:"organisations"`
	TotalCount    int                    `json:"total_count"`
	Skip          int                    `json:"skip"`
	Limit         int                    `json:"limit"`
}

type runAcceptedResponse struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Converter functions

func domainPublicationToResponse(p *domain.Publication) publicationResponse {
	return publicationResponse{
		ID:                p.ID.String(),
		Title:             p.Title,
		Abstract:          p.Abstract,
		DOI:               p.DOI,
		ArxivID:           p.ArxivID,
		URL:               p.URL,
		Venue:             p.Venue,
		PublicationDate:   p.PublicationDate,
		Type:              string(p.Type),
		Status:            string(p.Status),
		CitationCount:     p.CitationCount,
		AuthorCount:       p.AuthorCount,
		Source:            p.Source,
		SemanticScholarID: p.SemanticScholarID,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func domainAuthorToResponse(a *domain.Author) authorResponse {
	return authorResponse{
		ID:                a.ID.String(),
		LastName:          a.LastName,
		FirstName:         a.FirstName,
		Email:             a.Email,
		ORCID:             a.ORCID,
		SemanticScholarID: a.SemanticScholarID,
		HIndex:            a.HIndex,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func domainThemeToResponse(t *domain.Theme) themeResponse {
	resp := themeResponse{
		ID:             t.ID.String(),
		Label:          t.Label,
		Description:    t.Description,
		HierarchyLevel: t.HierarchyLevel,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.ParentID != nil {
		resp.ParentID = t.ParentID.String()
	}
	return resp
}

func domainOrganisationToResponse(o *domain.Organisation) organisationResponse {
	return organisationResponse{
		ID:        o.ID.String(),
		Name:      o.Name,
		Country:   o.Country,
		OrgType:   o.OrgType,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
