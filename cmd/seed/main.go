// Package main provides a tool to seed the database with test links.
//
// This reads existing users from the database and saves a batch of realistic
// links with tags to exercise listing, search, and usage features.
//
// Usage:
//
//	DB_PATH=~/linkstash/db go run ./cmd/seed
//	DB_PATH=~/linkstash/db go run ./cmd/seed --create-users  # Also create test users
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/linkstashapp/linkstash-server/internal/auth"
	"github.com/linkstashapp/linkstash-server/internal/domain"
	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
	"github.com/linkstashapp/linkstash-server/internal/id"
	"github.com/linkstashapp/linkstash-server/internal/service"
	"github.com/linkstashapp/linkstash-server/internal/store"
)

var createUsers = flag.Bool("create-users", false, "Create test users before seeding")

type seedLink struct {
	url   string
	title string
	tags  []string
}

var seedLinks = []seedLink{
	{"https://go.dev/blog/error-handling-and-go", "Error handling and Go", []string{"golang", "errors"}},
	{"https://go.dev/blog/context", "Go Concurrency Patterns: Context", []string{"golang", "concurrency"}},
	{"https://github.com/dgraph-io/badger", "BadgerDB", []string{"golang", "database"}},
	{"https://blevesearch.com/docs/Home/", "Bleve documentation", []string{"search"}},
	{"https://developer.mozilla.org/en-US/docs/Web/HTTP/Caching", "HTTP caching", []string{"web", "http"}},
	{"https://www.sqlite.org/wal.html", "Write-Ahead Logging", []string{"database", "sqlite"}},
	{"https://12factor.net/config", "The Twelve-Factor App: Config", []string{"architecture"}},
	{"https://en.wikipedia.org/wiki/Inverted_index", "Inverted index", []string{"search", "reference"}},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/linkstash/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := store.New(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	tagService := service.NewTagService(s, logger)
	linkService := service.NewLinkService(s, tagService, logger)

	if *createUsers {
		createTestUsers(ctx, s)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to get users: %v", err)
	}
	if len(users) == 0 {
		log.Fatal("No users found in database. Create a user first.")
	}

	fmt.Printf("Found %d users\n", len(users))

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, user := range users {
		fmt.Printf("\nSeeding links for user: %s (%s)\n", user.DisplayName, user.ID)

		// Pick 4-8 links per user, shuffled for variety.
		shuffled := make([]seedLink, len(seedLinks))
		copy(shuffled, seedLinks)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		count := min(4+rng.Intn(5), len(shuffled))

		created := 0
		for _, sl := range shuffled[:count] {
			link, err := linkService.CreateLink(ctx, user, service.CreateLinkRequest{
				URL:      sl.url,
				Title:    sl.title,
				TagNames: sl.tags,
			})
			if err != nil {
				var derr *domainerrors.Error
				if errors.As(err, &derr) && derr.Code == domainerrors.CodeConflict {
					fmt.Printf("  Already saved: %s\n", sl.url)
					continue
				}
				log.Printf("Failed to save %s: %v", sl.url, err)
				continue
			}
			created++

			// Mark a third of the seeded links read, archive a few.
			if rng.Intn(3) == 0 {
				read := true
				archived := rng.Intn(4) == 0
				if _, err := linkService.UpdateLink(ctx, user.ID, link.ID, service.UpdateLinkRequest{
					IsRead:     &read,
					IsArchived: &archived,
				}); err != nil {
					log.Printf("Failed to update %s: %v", link.ID, err)
				}
			}
		}

		fmt.Printf("  Created %d links\n", created)
	}

	fmt.Println("\nDone!")
}

// createTestUsers writes a few accounts with a known password for local
// testing. Existing emails are left untouched.
func createTestUsers(ctx context.Context, s *store.Store) {
	fmt.Println("Creating test users...")

	testUsers := []struct {
		email string
		name  string
		plan  domain.Plan
	}{
		{"alice@example.com", "Alice", domain.PlanPlus},
		{"bob@example.com", "Bob", domain.PlanFree},
		{"carol@example.com", "Carol", domain.PlanFree},
	}

	for _, tu := range testUsers {
		hash, err := auth.HashPassword("password123")
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}

		now := time.Now()
		user := &domain.User{
			ID:           id.MustGenerate("user"),
			Email:        tu.email,
			PasswordHash: hash,
			DisplayName:  tu.name,
			Plan:         tu.plan,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := s.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrUserExists) {
				fmt.Printf("  User exists: %s\n", tu.email)
				continue
			}
			log.Fatalf("Failed to create user %s: %v", tu.email, err)
		}
		fmt.Printf("  Created %s (%s, password: password123)\n", tu.name, tu.email)
	}
}
