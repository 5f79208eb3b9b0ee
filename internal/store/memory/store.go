// Package memory provides a map-backed implementation of the service
// store contracts, used by the test suites and by `serve --in-memory`
// for ephemeral environments. It enforces the same invariants and
// returns the same sentinel errors as the Postgres repositories.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"aidlink/internal/service"
	"aidlink/internal/utils"
	"aidlink/pkg/types"
)

var (
	_ service.ProgramStore      = (*Store)(nil)
	_ service.MaterialStore     = (*Store)(nil)
	_ service.RegistrationStore = (*Store)(nil)
	_ service.FormStore         = (*Store)(nil)
	_ service.UserStore         = (*Store)(nil)
)

type Store struct {
	mu sync.Mutex

	materials     map[string]types.AidMaterial
	programs      map[string]types.Program
	reservations  []types.ProgramAidMaterial
	registrations []types.VolunteerProgram
	forms         map[string]types.Form
	users         map[string]types.User
}

func NewStore() *Store {
	return &Store{
		materials: make(map[string]types.AidMaterial),
		programs:  make(map[string]types.Program),
		forms:     make(map[string]types.Form),
		users:     make(map[string]types.User),
	}
}

// --- materials ---

func (s *Store) Material(ctx context.Context, materialID string) (*types.AidMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.material(materialID)
}

func (s *Store) material(materialID string) (*types.AidMaterial, error) {
	material, ok := s.materials[materialID]
	if !ok {
		return nil, types.ErrMaterialNotFound
	}
	return &material, nil
}

func (s *Store) Materials(ctx context.Context) ([]*types.AidMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.AidMaterial, 0, len(s.materials))
	for _, material := range s.materials {
		m := material
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateMaterial(ctx context.Context, material *types.AidMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	material.ID = utils.NanoID()
	material.CreatedAt = now
	material.UpdatedAt = now
	s.materials[material.ID] = *material
	return nil
}

func (s *Store) UpdateMaterial(ctx context.Context, materialID string, material *types.AidMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.materials[materialID]
	if !ok {
		return types.ErrMaterialNotFound
	}

	current.Name = material.Name
	current.Description = material.Description
	current.Quantity = material.Quantity
	current.Image = material.Image
	current.UpdatedAt = time.Now()
	s.materials[materialID] = current
	return nil
}

func (s *Store) DeleteMaterial(ctx context.Context, materialID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.materials[materialID]; !ok {
		return types.ErrMaterialNotFound
	}

	kept := s.reservations[:0]
	for _, res := range s.reservations {
		if res.AidMaterialID != materialID {
			kept = append(kept, res)
		}
	}
	s.reservations = kept
	delete(s.materials, materialID)
	return nil
}

// --- programs & reservations ---

func (s *Store) Program(ctx context.Context, programID string) (*types.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	program, ok := s.programs[programID]
	if !ok {
		return nil, types.ErrProgramNotFound
	}
	return &program, nil
}

func (s *Store) Programs(ctx context.Context) ([]*types.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Program, 0, len(s.programs))
	for _, program := range s.programs {
		p := program
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *Store) Reservations(ctx context.Context, programID string) ([]*types.ProgramAidMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.ProgramAidMaterial, 0)
	for _, res := range s.reservations {
		if res.ProgramID == programID {
			r := res
			out = append(out, &r)
		}
	}
	return out, nil
}

func (s *Store) CreateProgram(ctx context.Context, program *types.Program, requests []types.MaterialRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// All-or-nothing: validate every request before touching stock.
	if err := s.checkStock(requests); err != nil {
		return err
	}

	now := time.Now()
	program.ID = utils.NanoID()
	program.CreatedAt = now
	program.UpdatedAt = now
	s.programs[program.ID] = *program

	s.applyRequests(program.ID, requests)
	return nil
}

func (s *Store) UpdateProgram(ctx context.Context, program *types.Program, requests []types.MaterialRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.programs[program.ID]
	if !ok {
		return types.ErrProgramNotFound
	}

	// Availability is judged against stock as it stands, before the
	// program's previous holdings are restored.
	if err := s.checkStock(requests); err != nil {
		return err
	}

	s.releaseHoldings(program.ID)
	s.applyRequests(program.ID, requests)

	program.CreatedAt = current.CreatedAt
	program.UpdatedAt = time.Now()
	s.programs[program.ID] = *program
	return nil
}

func (s *Store) DeleteProgram(ctx context.Context, programID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.programs[programID]; !ok {
		return types.ErrProgramNotFound
	}

	s.releaseHoldings(programID)

	keptRegs := s.registrations[:0]
	for _, reg := range s.registrations {
		if reg.ProgramID != programID {
			keptRegs = append(keptRegs, reg)
		}
	}
	s.registrations = keptRegs

	for id, form := range s.forms {
		if form.ProgramID == programID {
			delete(s.forms, id)
		}
	}

	delete(s.programs, programID)
	return nil
}

func (s *Store) checkStock(requests []types.MaterialRequest) error {
	for _, req := range requests {
		material, ok := s.materials[req.AidMaterialID]
		if !ok {
			return types.ErrMaterialNotFound
		}
		if material.Quantity < req.Quantity {
			return types.ErrInsufficientStock
		}
	}
	return nil
}

func (s *Store) applyRequests(programID string, requests []types.MaterialRequest) {
	now := time.Now()
	for _, req := range requests {
		material := s.materials[req.AidMaterialID]
		material.Quantity -= req.Quantity
		material.UpdatedAt = now
		s.materials[req.AidMaterialID] = material

		s.reservations = append(s.reservations, types.ProgramAidMaterial{
			ProgramID:     programID,
			AidMaterialID: req.AidMaterialID,
			QuantityUsed:  req.Quantity,
		})
	}
}

func (s *Store) releaseHoldings(programID string) {
	kept := s.reservations[:0]
	for _, res := range s.reservations {
		if res.ProgramID != programID {
			kept = append(kept, res)
			continue
		}
		if material, ok := s.materials[res.AidMaterialID]; ok {
			material.Quantity += res.QuantityUsed
			s.materials[res.AidMaterialID] = material
		}
	}
	s.reservations = kept
}

// --- registrations ---

func (s *Store) Register(ctx context.Context, programID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	program, ok := s.programs[programID]
	if !ok {
		return types.ErrProgramNotFound
	}

	count := 0
	for _, reg := range s.registrations {
		if reg.ProgramID != programID {
			continue
		}
		if reg.UserID == userID {
			return types.ErrAlreadyRegistered
		}
		count++
	}
	if count >= program.MaxVolunteer {
		return types.ErrCapacityExceeded
	}

	s.registrations = append(s.registrations, types.VolunteerProgram{
		UserID:    userID,
		ProgramID: programID,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *Store) Unregister(ctx context.Context, programID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.registrations[:0]
	for _, reg := range s.registrations {
		if reg.ProgramID == programID && reg.UserID == userID {
			continue
		}
		kept = append(kept, reg)
	}
	s.registrations = kept
	return nil
}

func (s *Store) ProgramsByVolunteer(ctx context.Context, userID string) ([]*types.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Program, 0)
	for _, reg := range s.registrations {
		if reg.UserID != userID {
			continue
		}
		if program, ok := s.programs[reg.ProgramID]; ok {
			p := program
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *Store) CountVolunteers(ctx context.Context, programID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, reg := range s.registrations {
		if reg.ProgramID == programID {
			count++
		}
	}
	return count, nil
}

func (s *Store) IsRegistered(ctx context.Context, programID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, reg := range s.registrations {
		if reg.ProgramID == programID && reg.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// --- forms ---

func (s *Store) Form(ctx context.Context, formID string) (*types.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form, ok := s.forms[formID]
	if !ok {
		return nil, types.ErrFormNotFound
	}
	return &form, nil
}

func (s *Store) CreateForm(ctx context.Context, form *types.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.forms {
		if existing.VolunteerID == form.VolunteerID && existing.ProgramID == form.ProgramID {
			return types.ErrDuplicateSubmission
		}
	}

	now := time.Now()
	form.ID = utils.NanoID()
	form.Status = types.FormStatusSubmitted
	form.CreatedAt = now
	form.UpdatedAt = now
	s.forms[form.ID] = *form
	return nil
}

func (s *Store) FormsByProgram(ctx context.Context, programID string) ([]*types.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Form, 0)
	for _, form := range s.forms {
		if form.ProgramID == programID {
			f := form
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FormByVolunteerAndProgram(ctx context.Context, volunteerID, programID string) (*types.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, form := range s.forms {
		if form.VolunteerID == volunteerID && form.ProgramID == programID {
			f := form
			return &f, nil
		}
	}
	return nil, types.ErrFormNotFound
}

func (s *Store) UpdateFormStatus(ctx context.Context, formID string, status types.FormStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	form, ok := s.forms[formID]
	if !ok {
		return types.ErrFormNotFound
	}
	form.Status = status
	form.UpdatedAt = time.Now()
	s.forms[formID] = form
	return nil
}

// --- users ---

func (s *Store) User(ctx context.Context, userID string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return &user, nil
}

func (s *Store) Users(ctx context.Context) ([]*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.User, 0, len(s.users))
	for _, user := range s.users {
		u := user
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if user.ID == "" {
		user.ID = utils.NanoID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, userID string, user *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[userID]
	if !ok {
		return types.ErrUserNotFound
	}

	current.Name = user.Name
	current.Email = user.Email
	current.Role = user.Role
	current.ContactNumber = user.ContactNumber
	current.UpdatedAt = time.Now()
	s.users[userID] = current
	return nil
}
