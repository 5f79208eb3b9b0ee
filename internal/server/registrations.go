package server

import (
	"net/http"

	"aidlink/pkg/types"

	"github.com/alexedwards/flow"
)

// handleRegisterVolunteer registers the authenticated volunteer for
// the program. Capacity is enforced atomically by the ledger.
func (s *Service) handleRegisterVolunteer(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	programID := flow.Param(r.Context(), "id")
	if err := s.registrations.Register(r.Context(), programID, identity.UserID); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]bool{"registered": true})
}

// handleUnregisterVolunteer removes a registration edge. Volunteers
// may only remove their own; coordinators and admins may remove any.
func (s *Service) handleUnregisterVolunteer(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	programID := flow.Param(r.Context(), "id")
	userID := flow.Param(r.Context(), "userID")

	if identity.Role == types.RoleVolunteer && identity.UserID != userID {
		s.respondJSON(w, http.StatusForbidden, errorResponse{Error: "cannot unregister another volunteer"})
		return
	}

	if err := s.registrations.Unregister(r.Context(), programID, userID); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]bool{"registered": false})
}

func (s *Service) handleVolunteerPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.registrations.ProgramsByVolunteer(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, programs)
}

func (s *Service) handleCountVolunteers(w http.ResponseWriter, r *http.Request) {
	count, err := s.registrations.CountVolunteers(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"count": count})
}
