package server

import (
	"net/http"

	"aidlink/pkg/types"

	"github.com/alexedwards/flow"
)

type materialRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
	Image       string `json:"image"`
}

func (req *materialRequest) toMaterial() *types.AidMaterial {
	return &types.AidMaterial{
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		Image:       req.Image,
	}
}

func (s *Service) handleGetMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.materials.Materials(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, materials)
}

func (s *Service) handleGetMaterial(w http.ResponseWriter, r *http.Request) {
	material, err := s.materials.Material(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, material)
}

func (s *Service) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	material, err := s.materials.CreateMaterial(r.Context(), req.toMaterial())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, material)
}

func (s *Service) handleUpdateMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	material, err := s.materials.UpdateMaterial(r.Context(), flow.Param(r.Context(), "id"), req.toMaterial())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, material)
}

func (s *Service) handleDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	if err := s.materials.DeleteMaterial(r.Context(), flow.Param(r.Context(), "id")); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
