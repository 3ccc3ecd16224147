package main

import (
	"context"
	"log"
	"os"

	"go-pos-checkout/internal/repository"
	"go-pos-checkout/pkg/config"
	"go-pos-checkout/pkg/database"
)

// Usage: reset-password [name] [new-password]
func main() {
	// 1. Load Env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database, cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	userRepo := repository.NewUserRepo(db)
	ctx := context.Background()

	name, newPassword := "admin", "admin123"
	if len(os.Args) > 1 {
		name = os.Args[1]
	}
	if len(os.Args) > 2 {
		newPassword = os.Args[2]
	}

	// 3. Find user
	user, err := userRepo.FindByName(ctx, name)
	if err != nil {
		log.Fatalf("❌ User %s not found in database: %v", name, err)
	}

	// 4. Hash new password
	if err := user.SetPassword(newPassword); err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	// 5. Update and sign out any open session
	if err := userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		log.Fatalf("❌ Failed to update password in DB: %v", err)
	}
	if err := userRepo.UpdateTokenVersion(ctx, user.ID, ""); err != nil {
		log.Fatalf("❌ Failed to end active session: %v", err)
	}

	log.Printf("✅ Success! Password for %s (%s) has been reset", user.Name, user.Role)
}
