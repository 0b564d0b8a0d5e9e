package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// Pagination and validation constants.
const (
	defaultLimit       = 100
	maxLimit           = 1000
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// writeDomainError maps domain errors to HTTP status codes and writes a
// JSON error response. Internal error details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	case errors.Is(err, domain.ErrCancelled):
		writeError(w, http.StatusConflict, "operation cancelled")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseUUID parses a UUID from a string, writing a 400 error response if
// invalid. The raw value is not echoed back.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination extracts skip and limit from query parameters, applying
// default and maximum bounds.
func parsePagination(r *http.Request) (limit, skip int) {
	limit = defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if skipStr := r.URL.Query().Get("skip"); skipStr != "" {
		if parsed, err := strconv.Atoi(skipStr); err == nil && parsed > 0 {
			skip = parsed
		}
	}

	return limit, skip
}

// decodeAndValidate reads a bounded JSON request body into dst and runs
// struct validation. Writes a 400 response and returns false on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("validation failed on field %s (%s)", verrs[0].Field(), verrs[0].Tag()))
		} else {
			writeError(w, http.StatusBadRequest, "validation failed")
		}
		return false
	}

	return true
}

// decodeOptional reads an optional JSON body into dst. An empty body leaves
// dst untouched. Returns false only when a body was present but invalid.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body == nil {
		return true
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if len(body) == 0 {
		return true
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("validation failed on field %s (%s)", verrs[0].Field(), verrs[0].Tag()))
		} else {
			writeError(w, http.StatusBadRequest, "validation failed")
		}
		return false
	}

	return true
}
