package service

import (
	"context"

	"aidlink/pkg/types"

	"github.com/sirupsen/logrus"
)

// ProgramStore is the persistence contract for programs and their
// material reservations. The mutating operations are atomic: either
// the program and all of its reservation edges commit, or nothing
// does.
type ProgramStore interface {
	Program(ctx context.Context, programID string) (*types.Program, error)
	Programs(ctx context.Context) ([]*types.Program, error)
	Reservations(ctx context.Context, programID string) ([]*types.ProgramAidMaterial, error)
	CreateProgram(ctx context.Context, program *types.Program, requests []types.MaterialRequest) error
	UpdateProgram(ctx context.Context, program *types.Program, requests []types.MaterialRequest) error
	DeleteProgram(ctx context.Context, programID string) error
}

type ProgramService struct {
	programs ProgramStore
	logger   *logrus.Logger
}

func NewProgramService(programs ProgramStore, logger *logrus.Logger) *ProgramService {
	return &ProgramService{programs: programs, logger: logger}
}

func (s *ProgramService) Program(ctx context.Context, programID string) (*types.Program, error) {
	return s.programs.Program(ctx, programID)
}

func (s *ProgramService) Programs(ctx context.Context) ([]*types.Program, error) {
	return s.programs.Programs(ctx)
}

func (s *ProgramService) Reservations(ctx context.Context, programID string) ([]*types.ProgramAidMaterial, error) {
	if _, err := s.programs.Program(ctx, programID); err != nil {
		return nil, err
	}
	return s.programs.Reservations(ctx, programID)
}

func (s *ProgramService) CreateProgram(ctx context.Context, program *types.Program, requests []types.MaterialRequest) (*types.Program, error) {
	if err := validateProgram(program); err != nil {
		return nil, err
	}
	if err := validateRequests(requests); err != nil {
		return nil, err
	}

	if err := s.programs.CreateProgram(ctx, program, requests); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"program_id": program.ID,
		"materials":  len(requests),
	}).Info("program created")

	return program, nil
}

func (s *ProgramService) UpdateProgram(ctx context.Context, program *types.Program, requests []types.MaterialRequest) (*types.Program, error) {
	if program.ID == "" {
		return nil, types.NewValidationError("program id is required")
	}
	if err := validateProgram(program); err != nil {
		return nil, err
	}
	if err := validateRequests(requests); err != nil {
		return nil, err
	}

	if err := s.programs.UpdateProgram(ctx, program, requests); err != nil {
		return nil, err
	}

	s.logger.WithField("program_id", program.ID).Info("program updated")

	return program, nil
}

func (s *ProgramService) DeleteProgram(ctx context.Context, programID string) error {
	if err := s.programs.DeleteProgram(ctx, programID); err != nil {
		return err
	}

	s.logger.WithField("program_id", programID).Info("program deleted")

	return nil
}

func validateProgram(program *types.Program) error {
	switch {
	case program.Name == "":
		return types.NewValidationError("program name is required")
	case program.StartDate.IsZero():
		return types.NewValidationError("program start date is required")
	case program.StartTime == "":
		return types.NewValidationError("program start time is required")
	case program.EndTime == "":
		return types.NewValidationError("program end time is required")
	case program.Location == "":
		return types.NewValidationError("program location is required")
	case program.MaxVolunteer <= 0:
		return types.NewValidationError("program max volunteer must be positive")
	case program.CoordinatorID == "":
		return types.NewValidationError("program coordinator is required")
	}
	return nil
}

func validateRequests(requests []types.MaterialRequest) error {
	seen := make(map[string]struct{}, len(requests))
	for _, req := range requests {
		if req.AidMaterialID == "" {
			return types.NewValidationError("material id is required")
		}
		if req.Quantity < 0 {
			return types.NewValidationError("material quantity must not be negative")
		}
		if _, ok := seen[req.AidMaterialID]; ok {
			return types.NewValidationError("material %s requested more than once", req.AidMaterialID)
		}
		seen[req.AidMaterialID] = struct{}{}
	}
	return nil
}
