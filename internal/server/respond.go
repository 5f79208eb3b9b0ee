package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"aidlink/pkg/types"

	"github.com/go-playground/validator/v10"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

// respondError maps the service error taxonomy onto HTTP statuses:
// validation → 400, missing references → 404, invariant conflicts
// (stock, capacity, duplicates) → 409, anything else → 500.
func (s *Service) respondError(w http.ResponseWriter, err error) {
	var ve *types.ValidationError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &ve), errors.As(err, &fieldErrs), errors.Is(err, types.ErrInvalidFormStatus):
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, types.ErrProgramNotFound),
		errors.Is(err, types.ErrMaterialNotFound),
		errors.Is(err, types.ErrFormNotFound),
		errors.Is(err, types.ErrUserNotFound):
		s.respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, types.ErrInsufficientStock),
		errors.Is(err, types.ErrCapacityExceeded),
		errors.Is(err, types.ErrAlreadyRegistered),
		errors.Is(err, types.ErrDuplicateSubmission),
		errors.Is(err, types.ErrNotRegistered):
		s.respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.logger.WithError(err).Error("request failed")
		s.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func (s *Service) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondError(w, err)
		return false
	}
	return true
}
