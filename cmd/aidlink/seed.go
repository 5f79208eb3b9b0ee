package main

import (
	"context"
	"fmt"

	"aidlink/internal/db"
	"aidlink/internal/seed"
	"aidlink/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo users and aid materials",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		userRepo := store.NewUserRepository(pool)
		materialRepo := store.NewMaterialRepository(pool)

		logrus.Info("Seeding users...")
		if err := seed.SeedUsers(ctx, userRepo); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}

		logrus.Info("Seeding aid materials...")
		if err := seed.SeedMaterials(ctx, materialRepo); err != nil {
			return fmt.Errorf("failed to seed materials: %w", err)
		}

		logrus.Info("Seed data applied")

		return nil
	},
}
