package seed

import (
	"context"
	"fmt"

	"aidlink/internal/store"
	"aidlink/pkg/types"
)

// SeedMaterials inserts a starter inventory of aid materials for local
// development.
func SeedMaterials(ctx context.Context, repo *store.MaterialRepository) error {
	materials := []types.AidMaterial{
		{Name: "Tents", Description: "4-person family tents", Quantity: 10},
		{Name: "Blankets", Description: "Thermal fleece blankets", Quantity: 200},
		{Name: "Water Containers", Description: "10L collapsible jerry cans", Quantity: 150},
		{Name: "First Aid Kits", Description: "Standard field first aid kits", Quantity: 40},
		{Name: "Rice Sacks", Description: "5kg sacks of rice", Quantity: 300},
	}

	for i := range materials {
		material := materials[i]
		if err := repo.CreateMaterial(ctx, &material); err != nil {
			return fmt.Errorf("failed to seed material %s: %w", material.Name, err)
		}
	}

	return nil
}
