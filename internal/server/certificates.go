package server

import (
	"net/http"
)

type certificateRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Name        string `json:"name" validate:"required"`
	ProgramName string `json:"programName" validate:"required"`
}

// handleIssueCertificate sends a certificate directly, outside the
// approval flow. Used by coordinators to re-send a failed delivery.
func (s *Service) handleIssueCertificate(w http.ResponseWriter, r *http.Request) {
	var req certificateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.certificates.IssueCertificate(r.Context(), req.Email, req.Name, req.ProgramName); err != nil {
		s.logger.WithError(err).Error("certificate delivery failed")
		s.respondJSON(w, http.StatusBadGateway, errorResponse{Error: "certificate delivery failed"})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]bool{"delivered": true})
}
