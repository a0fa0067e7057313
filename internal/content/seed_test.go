package content

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/makao-homes/makao/internal/models"
)

func TestParseBundledSeed(t *testing.T) {
	seed, err := Parse(seedFile)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(seed.BlogPosts) == 0 {
		t.Fatal("bundled seed has no blog posts")
	}
	if len(seed.TravelGuides) == 0 {
		t.Fatal("bundled seed has no travel guides")
	}

	slugs := make(map[string]bool)
	for _, p := range seed.BlogPosts {
		if p.Title == "" || p.Slug == "" || p.Body == "" {
			t.Errorf("blog post %q missing required fields", p.Slug)
		}
		if slugs[p.Slug] {
			t.Errorf("duplicate blog post slug %q", p.Slug)
		}
		slugs[p.Slug] = true
	}

	for _, g := range seed.TravelGuides {
		if g.Title == "" || g.Slug == "" || g.Region == "" {
			t.Errorf("travel guide %q missing required fields", g.Slug)
		}
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("blog_posts: {not: [a, list")); err == nil {
		t.Fatal("Parse() expected error for malformed input")
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	if err := Seed(db, zerolog.Nop()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	var posts, guides int64
	db.Model(&models.BlogPost{}).Count(&posts)
	db.Model(&models.TravelGuide{}).Count(&guides)
	if posts == 0 || guides == 0 {
		t.Fatalf("seed inserted nothing: %d posts, %d guides", posts, guides)
	}

	// A second run against populated tables must not duplicate rows
	if err := Seed(db, zerolog.Nop()); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}

	var postsAgain, guidesAgain int64
	db.Model(&models.BlogPost{}).Count(&postsAgain)
	db.Model(&models.TravelGuide{}).Count(&guidesAgain)
	if postsAgain != posts || guidesAgain != guides {
		t.Errorf("second seed changed counts: posts %d -> %d, guides %d -> %d",
			posts, postsAgain, guides, guidesAgain)
	}
}
