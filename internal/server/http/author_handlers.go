package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// authorRequest is the JSON body for creating or replacing an author.
type authorRequest struct {
	LastName          string `json:"last_name" validate:"required,min=1,max=255"`
	FirstName         string `json:"first_name" validate:"max=255"`
	Email             string `json:"email" validate:"omitempty,email"`
	ORCID             string `json:"orcid" validate:"max=64"`
	SemanticScholarID string `json:"semantic_scholar_id" validate:"max=64"`
	HIndex            *int   `json:"h_index" validate:"omitempty,gte=0"`
}

func (req *authorRequest) toDomain() *domain.Author {
	return &domain.Author{
		LastName:          req.LastName,
		FirstName:         req.FirstName,
		Email:             req.Email,
		ORCID:             req.ORCID,
		SemanticScholarID: req.SemanticScholarID,
		HIndex:            req.HIndex,
	}
}

// listAuthors handles GET /api/v1/authors.
func (s *Server) listAuthors(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)

	authors, totalCount, err := s.authorRepo.List(r.Context(), limit, skip)
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
		TotalCount: int(totalCount),
		Skip:       skip,
		Limit:      limit,
	})
}

// getAuthor handles GET /api/v1/authors/{authorID}.
func (s *Server) getAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "authorID"), "author_id")
	if !ok {
		return
	}

	author, err := s.authorRepo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainAuthorToResponse(author))
}

// createAuthor handles POST /api/v1/authors.
func (s *Server) createAuthor(w http.ResponseWriter, r *http.Request) {
	var req authorRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	created, err := s.authorRepo.Create(r.Context(), req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainAuthorToResponse(created))
}

// updateAuthor handles PUT /api/v1/authors/{authorID}.
func (s *Server) updateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "authorID"), "author_id")
	if !ok {
		return
	}

	var req authorRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	author := req.toDomain()
	author.ID = id

	updated, err := s.authorRepo.Update(r.Context(), author)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainAuthorToResponse(updated))
}

// deleteAuthor handles DELETE /api/v1/authors/{authorID}.
func (s *Server) deleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "authorID"), "author_id")
	if !ok {
		return
	}

	if err := s.authorRepo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
