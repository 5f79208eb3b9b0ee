package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"aidlink/internal/store/memory"
	"aidlink/pkg/types"
)

func seedMaterial(t *testing.T, s *memory.Store, name string, quantity int) *types.AidMaterial {
	t.Helper()
	material := &types.AidMaterial{Name: name, Quantity: quantity}
	if err := s.CreateMaterial(context.Background(), material); err != nil {
		t.Fatalf("CreateMaterial(%s) failed: %v", name, err)
	}
	return material
}

func seedProgram(t *testing.T, s *memory.Store, maxVolunteer int, requests ...types.MaterialRequest) *types.Program {
	t.Helper()
	program := &types.Program{
		Name:          "Flood Relief Drive",
		Description:   "Distribute supplies to flood victims",
		StartDate:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		StartTime:     "09:00",
		EndTime:       "17:00",
		Location:      "Kota Bharu",
		MaxVolunteer:  maxVolunteer,
		CoordinatorID: "coordinator-1",
	}
	if err := s.CreateProgram(context.Background(), program, requests); err != nil {
		t.Fatalf("CreateProgram failed: %v", err)
	}
	return program
}

func materialQuantity(t *testing.T, s *memory.Store, materialID string) int {
	t.Helper()
	material, err := s.Material(context.Background(), materialID)
	if err != nil {
		t.Fatalf("Material(%s) failed: %v", materialID, err)
	}
	return material.Quantity
}

func TestCreateProgramReservesStock(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	tents := seedMaterial(t, s, "Tents", 10)

	program := seedProgram(t, s, 5, types.MaterialRequest{AidMaterialID: tents.ID, Quantity: 4})

	if got := materialQuantity(t, s, tents.ID); got != 6 {
		t.Errorf("Tents quantity = %d, want 6", got)
	}

	reservations, err := s.Reservations(ctx, program.ID)
	if err != nil {
		t.Fatalf("Reservations failed: %v", err)
	}
	if len(reservations) != 1 {
		t.Fatalf("got %d reservations, want 1", len(reservations))
	}
	if reservations[0].QuantityUsed != 4 {
		t.Errorf("QuantityUsed = %d, want 4", reservations[0].QuantityUsed)
	}
}

func TestCreateProgramInsufficientStock(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	tents := seedMaterial(t, s, "Tents", 10)

	program := &types.Program{Name: "Oversized", MaxVolunteer: 1, CoordinatorID: "c1", StartDate: time.Now()}
	err := s.CreateProgram(ctx, program, []types.MaterialRequest{{AidMaterialID: tents.ID, Quantity: 11}})
	if !errors.Is(err, types.ErrInsufficientStock) {
		t.Fatalf("CreateProgram error = %v, want ErrInsufficientStock", err)
	}

	if got := materialQuantity(t, s, tents.ID); got != 10 {
		t.Errorf("Tents quantity = %d, want 10 (no mutation on failure)", got)
	}
	programs, err := s.Programs(ctx)
	if err != nil {
		t.Fatalf("Programs failed: %v", err)
	}
	if len(programs) != 0 {
		t.Errorf("got %d programs, want 0 (no partial commit)", len(programs))
	}
}

func TestCreateProgramAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	tents := seedMaterial(t, s, "Tents", 10)
	blankets := seedMaterial(t, s, "Blankets", 2)

	program := &types.Program{Name: "Mixed", MaxVolunteer: 1, CoordinatorID: "c1", StartDate: time.Now()}
	err := s.CreateProgram(ctx, program, []types.MaterialRequest{
		{AidMaterialID: tents.ID, Quantity: 4},
		{AidMaterialID: blankets.ID, Quantity: 3},
	})
	if !errors.Is(err, types.ErrInsufficientStock) {
		t.Fatalf("CreateProgram error = %v, want ErrInsufficientStock", err)
	}

	if got := materialQuantity(t, s, tents.ID); got != 10 {
		t.Errorf("Tents quantity = %d, want 10 (first decrement rolled back)", got)
	}
}

func TestUpdateProgramRestoreThenReapply(t *testing.T) {
	// Tents quantity=10, reserve 4 -> 6, then update to 6:
	// restore +4 (-> 10), decrement -6 -> 4.
	ctx := context.Background()
	s := memory.NewStore()
	tents := seedMaterial(t, s, "Tents", 10)

	program := seedProgram(t, s, 5, types.MaterialRequest{AidMaterialID: tents.ID, Quantity: 4})
	if got := materialQuantity(t, s, tents.ID); got != 6 {
		t.Fatalf("Tents quantity after create = %d, want 6", got)
	}

	if err := s.UpdateProgram(ctx, program, []types.MaterialRequest{{AidMaterialID: tents.ID, Quantity: 6}}); err != nil {
		t.Fatalf("UpdateProgram failed: %v", err)
	}
	if got := materialQuantity(t, s, tents.ID); got != 4 {
		t.Errorf("Tents quantity after update = %d, want 4", got)
	}
}

func TestUpdateProgramIdenticalRequestsIsNoop(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	tents := seedMaterial(t, s, "Tents", 10)
	requests := []types.MaterialRequest{{AidMaterialID: tents.ID, Quantity: 4}}

	program := seedProgram(t, s, 5, requests...)

	for range 2 {
		if err := s.UpdateProgram(ctx, program, requests); err != nil {
			t.Fatalf("UpdateProgram failed: %v", err)
		}
	}

	if got := materialQuantity(t, s, tents.ID); got != 6 {
		t.Errorf("Tents quantity = %d, want 6 (restore-then-reapply cancels out)", got)
	}
}

func TestUpdateProgramInsufficientStockNoMutation(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	tents := seedMaterial(t, s, "Tents", 10)

	program := seedProgram(t, s, 5, types.MaterialRequest{AidMaterialID: tents.ID, Quantity: 4})

	// Only 6 remain on hand; asking for 7 must fail with nothing
	// written, including the scalar fields.
	updated := *program
	updated.Location = "Moved"
	err := s.UpdateProgram(ctx, &updated, []types.MaterialRequest{{AidMaterialID: tents.ID, Quantity: 7}})
	if !errors.Is(err, types.ErrInsufficientStock) {
		t.Fatalf("UpdateProgram error = %v, want ErrInsufficientStock", err)
	}

	if got := materialQuantity(t, s, tents.ID); got != 6 {
		t.Errorf("Tents quantity = %d, want 6", got)
	}
	current, err := s.Program(ctx, program.ID)
	if err != nil {
		t.Fatalf("Program failed: %v", err)
	}
	if current.Location != "Kota Bharu" {
		t.Errorf("Location = %q, want unchanged", current.Location)
	}
}

func TestDeleteProgramCascadesAndRestoresStock(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	tents := seedMaterial(t, s, "Tents", 10)

	program := seedProgram(t, s, 5, types.MaterialRequest{AidMaterialID: tents.ID, Quantity: 4})

	if err := s.Register(ctx, program.ID, "vol-1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	form := &types.Form{VolunteerID: "vol-1", ProgramID: program.ID, DateCompleted: time.Now(), Feedback: "great"}
	if err := s.CreateForm(ctx, form); err != nil {
		t.Fatalf("CreateForm failed: %v", err)
	}

	if err := s.DeleteProgram(ctx, program.ID); err != nil {
		t.Fatalf("DeleteProgram failed: %v", err)
	}

	if _, err := s.Program(ctx, program.ID); !errors.Is(err, types.ErrProgramNotFound) {
		t.Errorf("Program error = %v, want ErrProgramNotFound", err)
	}
	reservations, err := s.Reservations(ctx, program.ID)
	if err != nil {
		t.Fatalf("Reservations failed: %v", err)
	}
	if len(reservations) != 0 {
		t.Errorf("got %d reservations, want 0 after delete", len(reservations))
	}
	count, err := s.CountVolunteers(ctx, program.ID)
	if err != nil {
		t.Fatalf("CountVolunteers failed: %v", err)
	}
	if count != 0 {
		t.Errorf("volunteer count = %d, want 0 after delete", count)
	}
	if _, err := s.Form(ctx, form.ID); !errors.Is(err, types.ErrFormNotFound) {
		t.Errorf("Form error = %v, want ErrFormNotFound", err)
	}
	if got := materialQuantity(t, s, tents.ID); got != 10 {
		t.Errorf("Tents quantity = %d, want 10 (stock restored on delete)", got)
	}
}

func TestRegisterEnforcesCapacity(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	program := seedProgram(t, s, 2)

	for _, userID := range []string{"vol-1", "vol-2"} {
		if err := s.Register(ctx, program.ID, userID); err != nil {
			t.Fatalf("Register(%s) failed: %v", userID, err)
		}
	}

	err := s.Register(ctx, program.ID, "vol-3")
	if !errors.Is(err, types.ErrCapacityExceeded) {
		t.Fatalf("Register error = %v, want ErrCapacityExceeded", err)
	}

	count, err := s.CountVolunteers(ctx, program.ID)
	if err != nil {
		t.Fatalf("CountVolunteers failed: %v", err)
	}
	if count != 2 {
		t.Errorf("volunteer count = %d, want 2", count)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	program := seedProgram(t, s, 5)

	if err := s.Register(ctx, program.ID, "vol-1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := s.Register(ctx, program.ID, "vol-1"); !errors.Is(err, types.ErrAlreadyRegistered) {
		t.Fatalf("Register error = %v, want ErrAlreadyRegistered", err)
	}
}

func TestUnregisterAbsentEdgeIsNoop(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	program := seedProgram(t, s, 5)

	if err := s.Unregister(ctx, program.ID, "vol-1"); err != nil {
		t.Fatalf("Unregister of absent edge failed: %v", err)
	}
}

func TestCreateFormRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	program := seedProgram(t, s, 5)

	form := &types.Form{VolunteerID: "vol-1", ProgramID: program.ID, DateCompleted: time.Now(), Feedback: "ok"}
	if err := s.CreateForm(ctx, form); err != nil {
		t.Fatalf("CreateForm failed: %v", err)
	}
	if form.Status != types.FormStatusSubmitted {
		t.Errorf("Status = %s, want SUBMITTED", form.Status)
	}

	dup := &types.Form{VolunteerID: "vol-1", ProgramID: program.ID, DateCompleted: time.Now(), Feedback: "again"}
	if err := s.CreateForm(ctx, dup); !errors.Is(err, types.ErrDuplicateSubmission) {
		t.Fatalf("CreateForm error = %v, want ErrDuplicateSubmission", err)
	}
}

func TestDeleteMaterialDropsItsReservations(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	tents := seedMaterial(t, s, "Tents", 10)
	program := seedProgram(t, s, 5, types.MaterialRequest{AidMaterialID: tents.ID, Quantity: 4})

	if err := s.DeleteMaterial(ctx, tents.ID); err != nil {
		t.Fatalf("DeleteMaterial failed: %v", err)
	}

	reservations, err := s.Reservations(ctx, program.ID)
	if err != nil {
		t.Fatalf("Reservations failed: %v", err)
	}
	if len(reservations) != 0 {
		t.Errorf("got %d reservations, want 0 after material delete", len(reservations))
	}
}
