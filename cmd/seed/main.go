package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"github.com/frtweb/blog-backend/config"
	"github.com/frtweb/blog-backend/internal/domain/entity"
	pginfra "github.com/frtweb/blog-backend/internal/infrastructure/postgres"
	"github.com/frtweb/blog-backend/pkg/helpers"
)

// seed creates the first editor account so the admin UI can log in.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	email := flag.String("email", "admin@example.com", "login email")
	password := flag.String("password", "password123", "plain password")
	username := flag.String("username", "admin", "username")
	fullname := flag.String("fullname", "Admin", "display name")
	roles := flag.String("roles", "Coach", "comma-separated role labels")
	flag.Parse()

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	if u, err := users.GetByEmail(ctx, *email); err == nil && u != nil {
		fmt.Printf("user already exists: id=%d email=%s\n", u.ID, u.Email)
		return
	}

	hash, err := helpers.HashPassword(*password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	u := &entity.User{
		Username: *username,
		Email:    *email,
		Password: hash,
		Fullname: *fullname,
		Roles:    splitRoles(*roles),
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%d email=%s roles=%v\n", u.ID, u.Email, u.Roles)
}

func splitRoles(s string) []string {
	out := []string{}
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
