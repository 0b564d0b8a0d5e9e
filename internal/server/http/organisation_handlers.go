package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// organisationRequest is the JSON body for creating or replacing an
// organisation.
type organisationRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=500"`
	Country string `json:"country" validate:"max=100"`
	OrgType string `json:"org_type" validate:"omitempty,oneof=university company research_institute government nonprofit"`
}

func (req *organisationRequest) toDomain() *domain.Organisation {
	return &domain.Organisation{
		Name:    req.Name,
		Country: req.Country,
		OrgType: req.OrgType,
	}
}

// listOrganisations handles GET /api/v1/organisations.
func (s *Server) listOrganisations(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)

	orgs, totalCount, err := s.orgRepo.List(r.Context(), limit, skip)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]organisationResponse, len(orgs))
	for i, o := range orgs {
		responses[i] = domainOrganisationToResponse(o)
	}

	writeJSON(w, http.StatusOK, listOrganisationsResponse{
		Organisations: responses,
		TotalCount:    int(totalCount),
		Skip:          skip,
		Limit:         limit,
	})
}

// getOrganisation handles GET /api/v1/organisations/{orgID}.
func (s *Server) getOrganisation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "orgID"), "org_id")
	if !ok {
		return
	}

	org, err := s.orgRepo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainOrganisationToResponse(org))
}

// createOrganisation handles POST /api/v1/organisations.
func (s *Server) createOrganisation(w http.ResponseWriter, r *http.Request) {
	var req organisationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	created, err := s.orgRepo.Create(r.Context(), req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainOrganisationToResponse(created))
}

// updateOrganisation handles PUT /api/v1/organisations/{orgID}.
func (s *Server) updateOrganisation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "orgID"), "org_id")
	if !ok {
		return
	}

	var req organisationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	org := req.toDomain()
	org.ID = id

	updated, err := s.orgRepo.Update(r.Context(), org)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainOrganisationToResponse(updated))
}

// deleteOrganisation handles DELETE /api/v1/organisations/{orgID}.
func (s *Server) deleteOrganisation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "orgID"), "org_id")
	if !ok {
		return
	}

	if err := s.orgRepo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
