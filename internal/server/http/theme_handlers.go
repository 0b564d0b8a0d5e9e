package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// themeRequest is the JSON body for creating a theme.
type themeRequest struct {
	Label          string `json:"label" validate:"required,min=1,max=255"`
	Description    string `json:"description" validate:"max=2000"`
	HierarchyLevel int    `json:"hierarchy_level" validate:"gte=0,lte=10"`
	ParentID       string `json:"parent_id" validate:"omitempty,uuid"`
}

// listThemes handles GET /api/v1/themes.
func (s *Server) listThemes(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)

	themes, totalCount, err := s.themeRepo.List(r.Context(), limit, skip)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]themeResponse, len(themes))
	for i, t := range themes {
		responses[i] = domainThemeToResponse(t)
	}

	writeJSON(w, http.StatusOK, listThemesResponse{
		Themes:     responses,
		TotalCount: int(totalCount),
		Skip:       skip,
		Limit:      limit,
	})
}

// getTheme handles GET /api/v1/themes/{themeID}.
func (s *Server) getTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "themeID"), "theme_id")
	if !ok {
		return
	}

	theme, err := s.themeRepo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainThemeToResponse(theme))
}

// createTheme handles POST /api/v1/themes.
func (s *Server) createTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	theme := &domain.Theme{
		Label:          req.Label,
		Description:    req.Description,
		HierarchyLevel: req.HierarchyLevel,
	}
	if req.ParentID != "" {
		parentID, err := uuid.Parse(req.ParentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "parent_id must be a valid UUID")
			return
		}
		theme.ParentID = &parentID
	}

	created, err := s.themeRepo.Create(r.Context(), theme)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainThemeToResponse(created))
}

// deleteTheme handles DELETE /api/v1/themes/{themeID}.
func (s *Server) deleteTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "themeID"), "theme_id")
	if !ok {
		return
	}

	if err := s.themeRepo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
