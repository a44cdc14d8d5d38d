// server/internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"disaster-relief-api-server/config"
	"disaster-relief-api-server/internal/auth"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"
)

// SeedAdmin creates the bootstrap admin account if it does not exist yet.
// Without a configured password nothing is seeded.
func SeedAdmin(ctx context.Context, users store.UserRepository, cfg config.SeedConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		log.Println("[seed] no admin credentials configured. Seeding skipped.")
		return nil
	}

	_, err := users.GetByEmail(ctx, email)
	if err == nil {
		log.Println("[seed] admin already exists. Seeding skipped.")
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	log.Println("[seed] admin not found. Seeding...")
	hashedPassword, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := &models.User{
		Name:      "Administrator",
		Email:     email,
		Password:  hashedPassword,
		Role:      models.RoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := users.Insert(ctx, admin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("insert admin: %w", err)
	}

	log.Printf("[seed] admin %s seeded", email)
	return nil
}
