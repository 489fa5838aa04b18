// seed inserts development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: skips inserts if the dev user (dev@tella.app) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"tella/app/internal/config"
	"tella/app/internal/db"
	identitydomain "tella/app/internal/identity/domain"
	identityrepo "tella/app/internal/identity/repository"
	profiledomain "tella/app/internal/profile/domain"
	profilerepo "tella/app/internal/profile/repository"
	"tella/app/internal/security"
	userdomain "tella/app/internal/user/domain"
	userrepo "tella/app/internal/user/repository"
)

// Fixed UUIDs so re-running against a wiped database yields the same rows.
const (
	devUserEmail   = "dev@tella.app"
	devPassword    = "password123"
	devUserID      = "11111111-1111-4111-8111-111111111111"
	devIdentityID  = "11111111-1111-4111-8111-222222222222"
	devUsername    = "dev.user"
	freshUserEmail = "fresh@tella.app"
	freshUserID    = "22222222-2222-4222-8222-111111111111"
	freshIdentity  = "22222222-2222-4222-8222-222222222222"
	freshUsername  = "fresh.user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	identities := identityrepo.NewPostgresRepository(conn)
	profiles := profilerepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@tella.app exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	// Fully onboarded user: has likes and a plan, lands on the app home.
	if err := users.Create(ctx, &userdomain.User{
		ID:        devUserID,
		Email:     devUserEmail,
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create dev user: %v", err)
	}
	if err := identities.Create(ctx, &identitydomain.Identity{
		ID:           devIdentityID,
		UserID:       devUserID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   devUserEmail,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}); err != nil {
		log.Fatalf("create dev identity: %v", err)
	}
	if err := profiles.Insert(ctx, &profiledomain.Profile{
		ID:        devUserID,
		Username:  devUsername,
		Birthdate: "1995-06-15",
		Likes:     []string{"anime", "music", "scifi"},
		Plan:      profiledomain.PlanFree,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create dev profile: %v", err)
	}

	// Fresh user: registered but not onboarded, lands on the likes step.
	if err := users.Create(ctx, &userdomain.User{
		ID:        freshUserID,
		Email:     freshUserEmail,
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create fresh user: %v", err)
	}
	if err := identities.Create(ctx, &identitydomain.Identity{
		ID:           freshIdentity,
		UserID:       freshUserID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   freshUserEmail,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}); err != nil {
		log.Fatalf("create fresh identity: %v", err)
	}
	if err := profiles.Insert(ctx, &profiledomain.Profile{
		ID:        freshUserID,
		Username:  freshUsername,
		Birthdate: "2000-01-20",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create fresh profile: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Onboarded login: %s / %s\n", devUserEmail, devPassword)
	fmt.Printf("Fresh login: %s / %s\n", freshUserEmail, devPassword)
}
