package server

import (
	"errors"
	"net/http"
	"time"

	"aidlink/pkg/types"

	"github.com/alexedwards/flow"
)

type formRequest struct {
	ProgramID     string    `json:"programId" validate:"required"`
	DateCompleted time.Time `json:"dateCompleted" validate:"required"`
	Feedback      string    `json:"feedback" validate:"required"`
	Images        []string  `json:"images"`
}

type formStatusRequest struct {
	Status types.FormStatus `json:"status" validate:"required"`
}

type formDecisionResponse struct {
	*types.Form
	CertificateError string `json:"certificateError,omitempty"`
}

// handleCreateForm files a submission for the authenticated
// volunteer. The volunteer id always comes from the verified identity,
// never from the payload.
func (s *Service) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	var req formRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	form, err := s.submissions.Submit(r.Context(), &types.Form{
		VolunteerID:   identity.UserID,
		ProgramID:     req.ProgramID,
		DateCompleted: req.DateCompleted,
		Feedback:      req.Feedback,
		Images:        req.Images,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, form)
}

func (s *Service) handleFormsByProgram(w http.ResponseWriter, r *http.Request) {
	forms, err := s.submissions.FormsByProgram(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, forms)
}

func (s *Service) handleFormStatus(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	volunteerID := flow.Param(ctx, "id")
	programID := flow.Param(ctx, "programID")

	status, submitted, err := s.submissions.Status(ctx, volunteerID, programID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if !submitted {
		s.respondJSON(w, http.StatusOK, map[string]any{"status": nil})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"status": status})
}

// handleUpdateFormStatus records a coordinator decision. When the
// decision is APPROVED and certificate delivery fails afterwards, the
// committed decision is still returned, alongside the delivery error.
func (s *Service) handleUpdateFormStatus(w http.ResponseWriter, r *http.Request) {
	var req formStatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	form, err := s.submissions.Decide(r.Context(), flow.Param(r.Context(), "id"), req.Status)

	var deliveryErr *types.CertificateDeliveryError
	if errors.As(err, &deliveryErr) {
		s.respondJSON(w, http.StatusOK, formDecisionResponse{
			Form:             form,
			CertificateError: deliveryErr.Error(),
		})
		return
	}
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, formDecisionResponse{Form: form})
}
