package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/orbita-academy/orbita-backend/internal/config"
	"github.com/orbita-academy/orbita-backend/internal/database"
	"github.com/orbita-academy/orbita-backend/internal/logger"
	"github.com/orbita-academy/orbita-backend/internal/model"
	"github.com/orbita-academy/orbita-backend/internal/repository"
)

// seedAccount mirrors the fixed accounts the server materializes on first
// login. Seeding them ahead of time keeps first-login latency flat and lets
// ops rotate the default passwords before anyone signs in.
type seedAccount struct {
	Username string
	Password string
	Name     string
	Email    string
	Role     model.Role
}

var accounts = []seedAccount{
	{Username: "admin", Password: "admin123", Name: "Administrator", Email: "admin@orbita.uz", Role: model.RoleAdmin},
	{Username: "hr", Password: "hr123", Name: "HR Manager", Email: "hr@orbita.uz", Role: model.RoleHRManager},
	{Username: "english", Password: "english123", Name: "English Teacher", Email: "english@orbita.uz", Role: model.RoleEnglishTeacher},
	{Username: "it", Password: "it123", Name: "IT Teacher", Email: "it@orbita.uz", Role: model.RoleITTeacher},
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	fmt.Println("=== Seeding Default Accounts ===")

	created := 0
	for _, account := range accounts {
		taken, err := userRepo.UsernameExists(ctx, account.Username)
		if err != nil {
			log.Fatal().Err(err).Str("username", account.Username).Msg("Failed to check username")
		}
		if taken {
			fmt.Printf("Skipping %q: already registered\n", account.Username)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), cfg.BcryptCost)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}

		user := &model.User{
			Username:     account.Username,
			Name:         account.Name,
			Email:        account.Email,
			Role:         account.Role,
			PasswordHash: string(hash),
			Permissions:  model.DefaultPermissionsFor(account.Role),
			Active:       true,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatal().Err(err).Str("username", account.Username).Msg("Failed to create user")
		}

		fmt.Printf("Created %q (%s) with ID: %d\n", user.Username, user.Role, user.ID)
		created++
	}

	fmt.Printf("\nDone. %d account(s) created.\n", created)
}
