package service

import (
	"context"
	"errors"

	"aidlink/pkg/types"

	"github.com/sirupsen/logrus"
)

// FormStore is the persistence contract for volunteer submissions.
// CreateForm guarantees at most one form per (volunteer, program)
// pair.
type FormStore interface {
	Form(ctx context.Context, formID string) (*types.Form, error)
	CreateForm(ctx context.Context, form *types.Form) error
	FormsByProgram(ctx context.Context, programID string) ([]*types.Form, error)
	FormByVolunteerAndProgram(ctx context.Context, volunteerID, programID string) (*types.Form, error)
	UpdateFormStatus(ctx context.Context, formID string, status types.FormStatus) error
}

type UserStore interface {
	User(ctx context.Context, userID string) (*types.User, error)
	Users(ctx context.Context) ([]*types.User, error)
	UpdateUser(ctx context.Context, userID string, user *types.User) error
}

// CertificateIssuer renders and delivers a completion certificate. It
// runs after the approval has committed; a delivery failure never
// rolls the approval back.
type CertificateIssuer interface {
	IssueCertificate(ctx context.Context, email, name, programName string) error
}

type SubmissionService struct {
	forms         FormStore
	registrations RegistrationStore
	programs      ProgramStore
	users         UserStore
	certificates  CertificateIssuer
	logger        *logrus.Logger
}

func NewSubmissionService(
	forms FormStore,
	registrations RegistrationStore,
	programs ProgramStore,
	users UserStore,
	certificates CertificateIssuer,
	logger *logrus.Logger,
) *SubmissionService {
	return &SubmissionService{
		forms:         forms,
		registrations: registrations,
		programs:      programs,
		users:         users,
		certificates:  certificates,
		logger:        logger,
	}
}

// Submit files the volunteer's form for a program in state SUBMITTED.
// The volunteer must hold a registration edge for the program, and may
// submit at most once per program.
func (s *SubmissionService) Submit(ctx context.Context, form *types.Form) (*types.Form, error) {
	switch {
	case form.VolunteerID == "":
		return nil, types.NewValidationError("volunteer id is required")
	case form.ProgramID == "":
		return nil, types.NewValidationError("program id is required")
	case form.DateCompleted.IsZero():
		return nil, types.NewValidationError("completion date is required")
	case form.Feedback == "":
		return nil, types.NewValidationError("feedback is required")
	}

	if _, err := s.programs.Program(ctx, form.ProgramID); err != nil {
		return nil, err
	}

	registered, err := s.registrations.IsRegistered(ctx, form.ProgramID, form.VolunteerID)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, types.ErrNotRegistered
	}

	if err := s.forms.CreateForm(ctx, form); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"form_id":    form.ID,
		"program_id": form.ProgramID,
	}).Info("submission filed")

	return form, nil
}

// Status returns the volunteer's submission status for a program. The
// second return value is false when nothing has been submitted yet.
func (s *SubmissionService) Status(ctx context.Context, volunteerID, programID string) (types.FormStatus, bool, error) {
	form, err := s.forms.FormByVolunteerAndProgram(ctx, volunteerID, programID)
	if err != nil {
		if errors.Is(err, types.ErrFormNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return form.Status, true, nil
}

func (s *SubmissionService) FormsByProgram(ctx context.Context, programID string) ([]*types.Form, error) {
	if _, err := s.programs.Program(ctx, programID); err != nil {
		return nil, err
	}
	return s.forms.FormsByProgram(ctx, programID)
}

// Decide records a coordinator decision on a form. A decision may be
// revised later; every transition into APPROVED issues a certificate.
// Issuance runs after the status write and reports failure through a
// CertificateDeliveryError without undoing the committed decision.
func (s *SubmissionService) Decide(ctx context.Context, formID string, status types.FormStatus) (*types.Form, error) {
	if !status.Decided() {
		return nil, types.ErrInvalidFormStatus
	}

	form, err := s.forms.Form(ctx, formID)
	if err != nil {
		return nil, err
	}

	if err := s.forms.UpdateFormStatus(ctx, formID, status); err != nil {
		return nil, err
	}
	form.Status = status

	s.logger.WithFields(logrus.Fields{
		"form_id": formID,
		"status":  status,
	}).Info("submission decided")

	if status != types.FormStatusApproved {
		return form, nil
	}

	volunteer, err := s.users.User(ctx, form.VolunteerID)
	if err != nil {
		return form, &types.CertificateDeliveryError{Err: err}
	}
	program, err := s.programs.Program(ctx, form.ProgramID)
	if err != nil {
		return form, &types.CertificateDeliveryError{Email: volunteer.Email, Err: err}
	}

	if err := s.certificates.IssueCertificate(ctx, volunteer.Email, volunteer.Name, program.Name); err != nil {
		s.logger.WithError(err).WithField("form_id", formID).Error("certificate delivery failed")
		return form, &types.CertificateDeliveryError{Email: volunteer.Email, Err: err}
	}

	return form, nil
}
