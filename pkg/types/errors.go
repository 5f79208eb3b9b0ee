package types

import (
	"errors"
	"fmt"
)

var (
	ErrProgramNotFound  = errors.New("program not found")
	ErrMaterialNotFound = errors.New("aid material not found")
	ErrFormNotFound     = errors.New("form not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrInsufficientStock means a requested reservation exceeds the
	// quantity currently available for a material. Checked inside the
	// reservation transaction; nothing is written when it fires.
	ErrInsufficientStock = errors.New("insufficient aid material stock")

	// ErrCapacityExceeded means a registration would push a program
	// past its maxVolunteer limit.
	ErrCapacityExceeded = errors.New("program volunteer capacity exceeded")

	// ErrAlreadyRegistered means the volunteer already holds a
	// registration edge for the program.
	ErrAlreadyRegistered = errors.New("volunteer already registered for program")

	// ErrDuplicateSubmission means a form already exists for the
	// (volunteer, program) pair.
	ErrDuplicateSubmission = errors.New("form already submitted for program")

	// ErrNotRegistered means the volunteer is not associated with the
	// program and therefore cannot submit a form for it.
	ErrNotRegistered = errors.New("volunteer not registered for program")

	ErrInvalidFormStatus = errors.New("invalid form status")
)

// CertificateDeliveryError reports that certificate issuance failed
// after the approval was already committed. The status change stands;
// callers decide whether to retry issuance.
type CertificateDeliveryError struct {
	Email string
	Err   error
}

func (e *CertificateDeliveryError) Error() string {
	return fmt.Sprintf("certificate delivery to %s failed: %v", e.Email, e.Err)
}

func (e *CertificateDeliveryError) Unwrap() error {
	return e.Err
}
