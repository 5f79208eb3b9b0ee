package service

import (
	"context"

	"aidlink/pkg/types"

	"github.com/sirupsen/logrus"
)

// RegistrationStore is the persistence contract for the volunteer ↔
// program registration ledger. Register enforces the program's
// maxVolunteer limit atomically with the insert.
type RegistrationStore interface {
	Register(ctx context.Context, programID, userID string) error
	Unregister(ctx context.Context, programID, userID string) error
	ProgramsByVolunteer(ctx context.Context, userID string) ([]*types.Program, error)
	CountVolunteers(ctx context.Context, programID string) (int, error)
	IsRegistered(ctx context.Context, programID, userID string) (bool, error)
}

type RegistrationService struct {
	registrations RegistrationStore
	logger        *logrus.Logger
}

func NewRegistrationService(registrations RegistrationStore, logger *logrus.Logger) *RegistrationService {
	return &RegistrationService{registrations: registrations, logger: logger}
}

func (s *RegistrationService) Register(ctx context.Context, programID, userID string) error {
	if programID == "" || userID == "" {
		return types.NewValidationError("program id and user id are required")
	}

	if err := s.registrations.Register(ctx, programID, userID); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"program_id": programID,
		"user_id":    userID,
	}).Info("volunteer registered")

	return nil
}

func (s *RegistrationService) Unregister(ctx context.Context, programID, userID string) error {
	if programID == "" || userID == "" {
		return types.NewValidationError("program id and user id are required")
	}

	return s.registrations.Unregister(ctx, programID, userID)
}

func (s *RegistrationService) ProgramsByVolunteer(ctx context.Context, userID string) ([]*types.Program, error) {
	return s.registrations.ProgramsByVolunteer(ctx, userID)
}

func (s *RegistrationService) CountVolunteers(ctx context.Context, programID string) (int, error) {
	return s.registrations.CountVolunteers(ctx, programID)
}
