package semanticscholar

// Paper is the Semantic Scholar Graph API paper payload, restricted to
// the fields the enrichment service requests.
type Paper struct {
	PaperID       string      `json:"paperId"`
	Title         string      `json:"title"`
	Abstract      string      `json:"abstract"`
	Venue         string      `json:"venue"`
	Year          int         `json:"year"`
	CitationCount int         `json:"citationCount"`
	ExternalIDs   ExternalIDs `json:"externalIds"`
	Authors       []Author    `json:"authors"`
}

// ExternalIDs holds the external identifiers Semantic Scholar knows for
// a paper.
type ExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

// Author is an author entry in a Semantic Scholar paper payload.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
	HIndex   *int   `json:"hIndex,omitempty"`
}

// Enrichment is the distilled enrichment data extracted from a paper
// payload, ready to be applied to a stored publication.
type Enrichment struct {
	SemanticScholarID string
	CitationCount     int
	Venue             string
	Abstract          string
	DOI               string
	ArxivID           string
	Authors           []Author
}
