package service_test

import (
	"context"
	"testing"
	"time"

	"aidlink/internal/service"
	"aidlink/internal/store/memory"
	"aidlink/pkg/types"
)

func validProgram() *types.Program {
	return &types.Program{
		Name:          "Flood Relief Drive",
		StartDate:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		StartTime:     "09:00",
		EndTime:       "17:00",
		Location:      "Kelantan",
		MaxVolunteer:  20,
		CoordinatorID: "coordinator-1",
	}
}

func TestCreateProgramValidation(t *testing.T) {
	mem := memory.NewStore()
	programs := service.NewProgramService(mem, testLogger())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*types.Program)
	}{
		{"missing name", func(p *types.Program) { p.Name = "" }},
		{"missing start date", func(p *types.Program) { p.StartDate = time.Time{} }},
		{"missing start time", func(p *types.Program) { p.StartTime = "" }},
		{"missing end time", func(p *types.Program) { p.EndTime = "" }},
		{"missing location", func(p *types.Program) { p.Location = "" }},
		{"zero capacity", func(p *types.Program) { p.MaxVolunteer = 0 }},
		{"missing coordinator", func(p *types.Program) { p.CoordinatorID = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			program := validProgram()
			tc.mutate(program)
			if _, err := programs.CreateProgram(ctx, program, nil); !types.IsValidation(err) {
				t.Fatalf("CreateProgram error = %v, want validation error", err)
			}
		})
	}

	stored, err := mem.Programs(ctx)
	if err != nil {
		t.Fatalf("Programs failed: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("rejected programs were persisted, found %d", len(stored))
	}
}

func TestCreateProgramRequestValidation(t *testing.T) {
	mem := memory.NewStore()
	programs := service.NewProgramService(mem, testLogger())
	ctx := context.Background()

	material := &types.AidMaterial{Name: "Rice", Quantity: 100}
	if err := mem.CreateMaterial(ctx, material); err != nil {
		t.Fatalf("CreateMaterial failed: %v", err)
	}

	cases := []struct {
		name     string
		requests []types.MaterialRequest
	}{
		{"missing material id", []types.MaterialRequest{{Quantity: 5}}},
		{"negative quantity", []types.MaterialRequest{{AidMaterialID: material.ID, Quantity: -1}}},
		{"duplicate material", []types.MaterialRequest{
			{AidMaterialID: material.ID, Quantity: 5},
			{AidMaterialID: material.ID, Quantity: 3},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := programs.CreateProgram(ctx, validProgram(), tc.requests); !types.IsValidation(err) {
				t.Fatalf("CreateProgram error = %v, want validation error", err)
			}
		})
	}

	// Fail-fast validation never reaches the store.
	got, err := mem.Material(ctx, material.ID)
	if err != nil {
		t.Fatalf("Material failed: %v", err)
	}
	if got.Quantity != 100 {
		t.Fatalf("stock = %d after rejected requests, want 100", got.Quantity)
	}
}

func TestCreateProgramHappyPath(t *testing.T) {
	mem := memory.NewStore()
	programs := service.NewProgramService(mem, testLogger())
	ctx := context.Background()

	material := &types.AidMaterial{Name: "Blankets", Quantity: 40}
	if err := mem.CreateMaterial(ctx, material); err != nil {
		t.Fatalf("CreateMaterial failed: %v", err)
	}

	created, err := programs.CreateProgram(ctx, validProgram(), []types.MaterialRequest{
		{AidMaterialID: material.ID, Quantity: 15},
	})
	if err != nil {
		t.Fatalf("CreateProgram failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created program has no id")
	}

	reservations, err := programs.Reservations(ctx, created.ID)
	if err != nil {
		t.Fatalf("Reservations failed: %v", err)
	}
	if len(reservations) != 1 || reservations[0].QuantityUsed != 15 {
		t.Fatalf("reservations = %+v, want one edge holding 15", reservations)
	}
}

func TestUpdateProgramRequiresID(t *testing.T) {
	programs := service.NewProgramService(memory.NewStore(), testLogger())

	if _, err := programs.UpdateProgram(context.Background(), validProgram(), nil); !types.IsValidation(err) {
		t.Fatalf("UpdateProgram error = %v, want validation error", err)
	}
}

func TestReservationsUnknownProgram(t *testing.T) {
	programs := service.NewProgramService(memory.NewStore(), testLogger())

	if _, err := programs.Reservations(context.Background(), "missing"); err != types.ErrProgramNotFound {
		t.Fatalf("Reservations error = %v, want ErrProgramNotFound", err)
	}
}
