// Package main provides a tool to seed the record store with demo reading data.
//
// This creates a demo user with saved articles, tags, and highlights so the
// reading list and search features can be exercised without real imports.
//
// Usage:
//
//	DB_PATH=~/Keepstack/data/store go run ./cmd/seed
//	DB_PATH=~/Keepstack/data/store go run ./cmd/seed --email demo@example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/keepstackapp/keepstack-server/internal/auth"
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/id"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

var email = flag.String("email", "demo@example.com", "Email for the demo user")

// seedArticles are realistic saves covering every status and type the
// reading list supports.
var seedArticles = []struct {
	url      string
	title    string
	author   string
	siteName string
	status   domain.ArticleStatus
	tags     []string
	read     bool
}{
	{
		url:      "https://blog.golang.org/pipelines",
		title:    "Go Concurrency Patterns: Pipelines and cancellation",
		author:   "Sameer Ajmani",
		siteName: "The Go Blog",
		status:   domain.StatusArchived,
		tags:     []string{"golang", "concurrency"},
		read:     true,
	},
	{
		url:      "https://danluu.com/file-consistency/",
		title:    "Files are hard",
		author:   "Dan Luu",
		siteName: "danluu.com",
		status:   domain.StatusInbox,
		tags:     []string{"systems"},
	},
	{
		url:      "https://jvns.ca/blog/2022/02/22/how-to-use-undocumented-apis/",
		title:    "Reverse engineering a mystery API",
		author:   "Julia Evans",
		siteName: "jvns.ca",
		status:   domain.StatusLater,
		tags:     []string{"reverse-engineering"},
	},
	{
		url:      "https://www.paulgraham.com/greatwork.html",
		title:    "How to Do Great Work",
		author:   "Paul Graham",
		siteName: "paulgraham.com",
		status:   domain.StatusLater,
		tags:     []string{"essays"},
	},
	{
		url:      "https://research.swtch.com/vgo-principles",
		title:    "The Principles of Versioning in Go",
		author:   "Russ Cox",
		siteName: "research!rsc",
		status:   domain.StatusInbox,
		tags:     []string{"golang"},
	},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Keepstack/data/store")
	}

	fmt.Printf("Opening store at: %s\n", dbPath)

	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	user, err := ensureDemoUser(ctx, s, *email)
	if err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}
	fmt.Printf("Demo user: %s (%s)\n", user.Email, user.ID)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()
	created := 0

	for _, seed := range seedArticles {
		if existing, err := s.FindArticleByURL(ctx, user.ID, seed.url); err == nil && existing != nil {
			fmt.Printf("  Already saved, skipping: %s\n", seed.title)
			continue
		}

		// Spread saves over the past two weeks.
		savedAt := now.AddDate(0, 0, -rng.Intn(14))

		article := &domain.Article{
			ID:                id.MustGenerate(id.PrefixArticle),
			UserID:            user.ID,
			Type:              domain.TypeArticle,
			Status:            seed.status,
			URL:               seed.url,
			Title:             seed.title,
			Author:            seed.author,
			SiteName:          seed.siteName,
			Excerpt:           fmt.Sprintf("Saved from %s.", seed.siteName),
			Content:           fmt.Sprintf("<article><h1>%s</h1><p>Demo content for %s.</p></article>", seed.title, seed.title),
			Tags:              seed.tags,
			IsRead:            seed.read,
			SavedAt:           savedAt,
			EstimatedReadTime: 3 + rng.Intn(20),
		}
		if seed.read {
			readAt := savedAt.Add(time.Duration(1+rng.Intn(48)) * time.Hour)
			article.ReadAt = &readAt
			article.ReadingProgress = 1
		}

		if err := s.CreateArticle(ctx, article); err != nil {
			log.Printf("  Failed to create article %q: %v", seed.title, err)
			continue
		}
		created++
		fmt.Printf("  Saved: %s [%s]\n", seed.title, seed.status)

		if err := seedTags(ctx, s, user.ID, seed.tags); err != nil {
			log.Printf("  Failed to seed tags for %q: %v", seed.title, err)
		}

		// Highlight the first archived article to exercise the highlight list.
		if seed.read {
			highlight := &domain.Highlight{
				ID:        id.MustGenerate(id.PrefixHighlight),
				ArticleID: article.ID,
				UserID:    user.ID,
				Text:      "Demo content for " + seed.title,
				Position:  domain.HighlightPosition{Start: 40, End: 60},
				Note:      "Seeded highlight",
				CreatedAt: savedAt.Add(time.Hour),
			}
			if err := s.Highlights.Create(ctx, highlight.ID, highlight); err != nil {
				log.Printf("  Failed to create highlight: %v", err)
			}
		}
	}

	fmt.Printf("\nSeeding complete: %d articles created\n", created)
}

// ensureDemoUser returns the existing demo user or creates one with the
// password "demopass123".
func ensureDemoUser(ctx context.Context, s *store.Store, email string) (*domain.User, error) {
	if existing, err := s.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return existing, nil
	}

	passwordHash, err := auth.HashPassword("demopass123")
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		DisplayName:  "Demo Reader",
		PasswordHash: passwordHash,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// seedTags creates the tag vocabulary entries, ignoring duplicates.
func seedTags(ctx context.Context, s *store.Store, userID string, names []string) error {
	for _, name := range names {
		tag := &domain.Tag{
			ID:        id.MustGenerate(id.PrefixTag),
			UserID:    userID,
			Name:      name,
			CreatedAt: time.Now(),
		}
		if err := s.CreateTag(ctx, tag); err != nil {
			// Duplicate slugs are expected across articles.
			continue
		}
	}
	return nil
}
