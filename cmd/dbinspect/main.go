package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/linkstashapp/linkstash-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/linkstash/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	users := map[string]*domain.User{}
	linksPerUser := map[string]int{}
	archivedPerUser := map[string]int{}
	tagsPerUser := map[string]int{}
	sessionCount := 0
	subscriptionCount := 0

	err = db.View(func(txn *badger.Txn) error {
		if err := forPrefix(txn, "user:", func(val []byte) error {
			var u domain.User
			if err := json.Unmarshal(val, &u); err != nil {
				return err
			}
			users[u.ID] = &u
			return nil
		}); err != nil {
			return err
		}

		if err := forPrefix(txn, "link:", func(val []byte) error {
			var l domain.Link
			if err := json.Unmarshal(val, &l); err != nil {
				return err
			}
			linksPerUser[l.UserID]++
			if l.IsArchived {
				archivedPerUser[l.UserID]++
			}
			return nil
		}); err != nil {
			return err
		}

		if err := forPrefix(txn, "tag:", func(val []byte) error {
			var t domain.Tag
			if err := json.Unmarshal(val, &t); err != nil {
				return err
			}
			tagsPerUser[t.UserID]++
			return nil
		}); err != nil {
			return err
		}

		if err := forPrefix(txn, "session:", func([]byte) error {
			sessionCount++
			return nil
		}); err != nil {
			return err
		}

		return forPrefix(txn, "sub:", func([]byte) error {
			subscriptionCount++
			return nil
		})
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	totalLinks := 0
	totalTags := 0
	for _, user := range users {
		fmt.Printf("User: %s\n", user.DisplayName)
		fmt.Printf("  ID: %s\n", user.ID)
		fmt.Printf("  Email: %s\n", user.Email)
		fmt.Printf("  Plan: %s\n", user.Plan)
		fmt.Printf("  Links: %d (%d archived)\n", linksPerUser[user.ID], archivedPerUser[user.ID])
		fmt.Printf("  Tags: %d\n", tagsPerUser[user.ID])
		fmt.Println()

		totalLinks += linksPerUser[user.ID]
		totalTags += tagsPerUser[user.ID]
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total users: %d\n", len(users))
	fmt.Printf("Total links: %d\n", totalLinks)
	fmt.Printf("Total tags: %d\n", totalTags)
	fmt.Printf("Active sessions: %d\n", sessionCount)
	fmt.Printf("Subscriptions: %d\n", subscriptionCount)
	if len(users) > 0 {
		fmt.Printf("Average links per user: %.1f\n", float64(totalLinks)/float64(len(users)))
	}
}

// forPrefix runs fn over every value stored under the given key prefix.
// Index keys all live under "idx:" so entity prefixes never collide.
func forPrefix(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		item := it.Item()
		if err := item.Value(fn); err != nil {
			log.Printf("Error reading %s: %v", string(item.Key()), err)
		}
	}
	return nil
}
