package seed

import (
	"context"
	"fmt"

	"aidlink/internal/store"
	"aidlink/pkg/types"
)

// SeedUsers inserts the demo accounts below. IDs are fixed so the
// other seed data and local tokens can reference them.
//
// To generate new IDs: `go run ./cmd/aidlink nanoid`
func SeedUsers(ctx context.Context, repo *store.UserRepository) error {
	users := []types.User{
		{
			ID:            "c0ordinatorSeedxxxxxxxxxxxxxxxx1",
			Name:          "Maya Chen",
			Email:         "maya.chen+seed@example.com",
			Role:          types.RoleCoordinator,
			ContactNumber: "+60123456701",
		},
		{
			ID:            "adminSeedxxxxxxxxxxxxxxxxxxxxxx1",
			Name:          "Arif Rahman",
			Email:         "arif.rahman+seed@example.com",
			Role:          types.RoleAdmin,
			ContactNumber: "+60123456702",
		},
		{
			ID:            "v0lunteerSeedxxxxxxxxxxxxxxxxxx1",
			Name:          "Sofia Lim",
			Email:         "sofia.lim+seed@example.com",
			Role:          types.RoleVolunteer,
			ContactNumber: "+60123456703",
		},
		{
			ID:            "v0lunteerSeedxxxxxxxxxxxxxxxxxx2",
			Name:          "Daniel Tan",
			Email:         "daniel.tan+seed@example.com",
			Role:          types.RoleVolunteer,
			ContactNumber: "+60123456704",
		},
	}

	for i := range users {
		user := users[i]
		if err := repo.CreateUser(ctx, &user); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", user.Email, err)
		}
	}

	return nil
}
