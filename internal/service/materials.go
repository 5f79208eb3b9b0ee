package service

import (
	"context"

	"aidlink/pkg/types"

	"github.com/sirupsen/logrus"
)

// MaterialStore is the persistence contract for aid-material stock.
// Quantity is mutated through reservation operations on ProgramStore
// or through direct administrative edits here; it never goes negative.
type MaterialStore interface {
	Material(ctx context.Context, materialID string) (*types.AidMaterial, error)
	Materials(ctx context.Context) ([]*types.AidMaterial, error)
	CreateMaterial(ctx context.Context, material *types.AidMaterial) error
	UpdateMaterial(ctx context.Context, materialID string, material *types.AidMaterial) error
	DeleteMaterial(ctx context.Context, materialID string) error
}

type MaterialService struct {
	materials MaterialStore
	logger    *logrus.Logger
}

func NewMaterialService(materials MaterialStore, logger *logrus.Logger) *MaterialService {
	return &MaterialService{materials: materials, logger: logger}
}

func (s *MaterialService) Material(ctx context.Context, materialID string) (*types.AidMaterial, error) {
	return s.materials.Material(ctx, materialID)
}

func (s *MaterialService) Materials(ctx context.Context) ([]*types.AidMaterial, error) {
	return s.materials.Materials(ctx)
}

func (s *MaterialService) CreateMaterial(ctx context.Context, material *types.AidMaterial) (*types.AidMaterial, error) {
	if err := validateMaterial(material); err != nil {
		return nil, err
	}

	if err := s.materials.CreateMaterial(ctx, material); err != nil {
		return nil, err
	}

	s.logger.WithField("material_id", material.ID).Info("aid material created")

	return material, nil
}

func (s *MaterialService) UpdateMaterial(ctx context.Context, materialID string, material *types.AidMaterial) (*types.AidMaterial, error) {
	if err := validateMaterial(material); err != nil {
		return nil, err
	}

	if err := s.materials.UpdateMaterial(ctx, materialID, material); err != nil {
		return nil, err
	}

	return s.materials.Material(ctx, materialID)
}

func (s *MaterialService) DeleteMaterial(ctx context.Context, materialID string) error {
	if err := s.materials.DeleteMaterial(ctx, materialID); err != nil {
		return err
	}

	s.logger.WithField("material_id", materialID).Info("aid material deleted")

	return nil
}

func validateMaterial(material *types.AidMaterial) error {
	switch {
	case material.Name == "":
		return types.NewValidationError("material name is required")
	case material.Quantity < 0:
		return types.NewValidationError("material quantity must not be negative")
	}
	return nil
}
