package server

import (
	"net/http"
	"time"

	"aidlink/pkg/types"

	"github.com/alexedwards/flow"
)

type programRequest struct {
	Name          string                  `json:"name" validate:"required"`
	Description   string                  `json:"description"`
	StartDate     time.Time               `json:"startDate" validate:"required"`
	StartTime     string                  `json:"startTime" validate:"required"`
	EndTime       string                  `json:"endTime" validate:"required"`
	Location      string                  `json:"location" validate:"required"`
	MaxVolunteer  int                     `json:"maxVolunteer" validate:"gt=0"`
	CoordinatorID string                  `json:"coordinatorId" validate:"required"`
	Image         string                  `json:"image"`
	Materials     []types.MaterialRequest `json:"materials" validate:"dive"`
}

func (req *programRequest) toProgram() *types.Program {
	return &types.Program{
		Name:          req.Name,
		Description:   req.Description,
		StartDate:     req.StartDate,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Location:      req.Location,
		MaxVolunteer:  req.MaxVolunteer,
		CoordinatorID: req.CoordinatorID,
		Image:         req.Image,
	}
}

type programResponse struct {
	*types.Program
	Materials      []*types.ProgramAidMaterial `json:"materials,omitempty"`
	VolunteerCount *int                        `json:"volunteerCount,omitempty"`
}

func (s *Service) handleGetPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.programs.Programs(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, programs)
}

func (s *Service) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	programID := flow.Param(ctx, "id")

	program, err := s.programs.Program(ctx, programID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	reservations, err := s.programs.Reservations(ctx, programID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	count, err := s.registrations.CountVolunteers(ctx, programID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, programResponse{
		Program:        program,
		Materials:      reservations,
		VolunteerCount: &count,
	})
}

func (s *Service) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var req programRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	program, err := s.programs.CreateProgram(r.Context(), req.toProgram(), req.Materials)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, program)
}

func (s *Service) handleUpdateProgram(w http.ResponseWriter, r *http.Request) {
	var req programRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	program := req.toProgram()
	program.ID = flow.Param(r.Context(), "id")

	updated, err := s.programs.UpdateProgram(r.Context(), program, req.Materials)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Service) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	programID := flow.Param(r.Context(), "id")

	if err := s.programs.DeleteProgram(r.Context(), programID); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
