package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/deeo-ai/publication-service/internal/domain"
	"github.com/deeo-ai/publication-service/internal/repository"
)

// publicationRequest is the JSON body for creating or replacing a
// publication.
type publicationRequest struct {
	Title           string     `json:"title" validate:"required,min=1,max=2000"`
	Abstract        string     `json:"abstract" validate:"max=20000"`
	DOI             string     `json:"doi" validate:"max=255"`
	ArxivID         string     `json:"arxiv_id" validate:"max=64"`
	URL             string     `json:"url" validate:"omitempty,url"`
	Venue           string     `json:"venue" validate:"max=500"`
	PublicationDate *time.Time `json:"publication_date"`
	Type            string     `json:"type" validate:"omitempty,oneof=article preprint conference_paper book_chapter thesis"`
	Status          string     `json:"status" validate:"omitempty,oneof=pending published pending_enrichment enriched enrichment_failed"`
	CitationCount   int        `json:"citation_count" validate:"gte=0"`
	Source          string     `json:"source" validate:"max=100"`
}

func (req *publicationRequest) toDomain() *domain.Publication {
	pubType := domain.PublicationType(req.Type)
	if req.Type == "" {
		pubType = domain.PublicationTypeArticle
	}
	status := domain.PublicationStatus(req.Status)
	if req.Status == "" {
		status = domain.PublicationStatusPending
	}

	return &domain.Publication{
		Title:           req.Title,
		Abstract:        req.Abstract,
		DOI:             req.DOI,
		ArxivID:         req.ArxivID,
		URL:             req.URL,
		Venue:           req.Venue,
		PublicationDate: req.PublicationDate,
		Type:            pubType,
		Status:          status,
		CitationCount:   req.CitationCount,
		Source:          req.Source,
	}
}

// listPublications handles GET /api/v1/publications.
func (s *Server) listPublications(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)

	filter := repository.PublicationFilter{
		Limit:  limit,
		Offset: skip,
	}

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status := domain.PublicationStatus(statusParam)
		filter.Status = &status
	}
	if sourceParam := r.URL.Query().Get("source"); sourceParam != "" {
		filter.Source = &sourceParam
	}
	if themeParam := r.URL.Query().Get("theme"); themeParam != "" {
		themeID, ok := parseUUID(w, themeParam, "theme")
		if !ok {
			return
		}
		filter.Theme = &themeID
	}

	pubs, totalCount, err := s.pubRepo.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]publicationResponse, len(pubs))
	for i, p := range pubs {
		responses[i] = domainPublicationToResponse(p)
	}

	writeJSON(w, http.StatusOK, listPublicationsResponse{
		Publications: responses,
		TotalCount:   int(totalCount),
		Skip:         skip,
		Limit:        limit,
	})
}

// getPublication handles GET /api/v1/publications/{publicationID}.
func (s *Server) getPublication(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "publicationID"), "publication_id")
	if !ok {
		return
	}

	pub, err := s.pubRepo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainPublicationToResponse(pub))
}

// createPublication handles POST /api/v1/publications.
func (s *Server) createPublication(w http.ResponseWriter, r *http.Request) {
	var req publicationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	created, err := s.pubRepo.Create(r.Context(), req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainPublicationToResponse(created))
}

// updatePublication handles PUT /api/v1/publications/{publicationID}.
// The request body fully replaces the mutable fields.
func (s *Server) updatePublication(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "publicationID"), "publication_id")
	if !ok {
		return
	}

	var req publicationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	pub := req.toDomain()
	pub.ID = id

	updated, err := s.pubRepo.Update(r.Context(), pub)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainPublicationToResponse(updated))
}

// deletePublication handles DELETE /api/v1/publications/{publicationID}.
func (s *Server) deletePublication(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "publicationID"), "publication_id")
	if !ok {
		return
	}

	if err := s.pubRepo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listPublicationAuthors handles GET /api/v1/publications/{publicationID}/authors.
// Authors are returned in authorship order.
func (s *Server) listPublicationAuthors(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "publicationID"), "publication_id")
	if !ok {
		return
	}

	// Verify the publication exists so a missing id is a 404, not an
	// empty list.
	if _, err := s.pubRepo.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	authors, err := s.pubRepo.ListAuthors(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]authorResponse, len(authors))
	for i, a := range authors {
		responses[i] = domainAuthorToResponse(a)
	}

	writeJSON(w, http.StatusOK, listAuthorsResponse{
		Authors:    responses,
		TotalCount: len(authors),
		Limit:      len(authors),
	})
}
