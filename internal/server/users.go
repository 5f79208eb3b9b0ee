package server

import (
	"net/http"

	"aidlink/pkg/types"

	"github.com/alexedwards/flow"
)

type userRequest struct {
	Name          string     `json:"name" validate:"required"`
	Email         string     `json:"email" validate:"required,email"`
	Role          types.Role `json:"role" validate:"required"`
	ContactNumber string     `json:"contactNumber"`
}

func (s *Service) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.Users(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, users)
}

func (s *Service) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.User(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Service) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	user, err := s.users.UpdateUser(r.Context(), flow.Param(r.Context(), "id"), &types.User{
		Name:          req.Name,
		Email:         req.Email,
		Role:          req.Role,
		ContactNumber: req.ContactNumber,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, user)
}
