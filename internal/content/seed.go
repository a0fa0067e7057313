// Package content loads the bundled starter content (blog posts and
// travel guides) into an empty database on first boot.
package content

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/models"
)

//go:embed seed.yaml
var seedFile []byte

// SeedPost is one blog post in the seed file
type SeedPost struct {
	Title   string `yaml:"title"`
	Slug    string `yaml:"slug"`
	Excerpt string `yaml:"excerpt"`
	Author  string `yaml:"author"`
	Body    string `yaml:"body"`
}

// SeedGuide is one travel guide in the seed file
type SeedGuide struct {
	Title   string `yaml:"title"`
	Slug    string `yaml:"slug"`
	Region  string `yaml:"region"`
	Summary string `yaml:"summary"`
	Body    string `yaml:"body"`
}

// SeedData is the parsed seed file
type SeedData struct {
	BlogPosts    []SeedPost  `yaml:"blog_posts"`
	TravelGuides []SeedGuide `yaml:"travel_guides"`
}

// Parse decodes seed YAML
func Parse(data []byte) (*SeedData, error) {
	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed content: %w", err)
	}
	return &seed, nil
}

// Seed inserts the bundled content when the corresponding tables are
// empty. It is idempotent: a populated table is left untouched.
func Seed(db *gorm.DB, logger zerolog.Logger) error {
	seed, err := Parse(seedFile)
	if err != nil {
		return err
	}

	var postCount int64
	if err := db.Model(&models.BlogPost{}).Count(&postCount).Error; err != nil {
		return fmt.Errorf("failed to count blog posts: %w", err)
	}
	if postCount == 0 {
		now := time.Now()
		for _, p := range seed.BlogPosts {
			post := models.BlogPost{
				Title:       p.Title,
				Slug:        p.Slug,
				Excerpt:     p.Excerpt,
				Author:      p.Author,
				Body:        p.Body,
				Published:   true,
				PublishedAt: &now,
			}
			if err := db.Create(&post).Error; err != nil {
				return fmt.Errorf("failed to seed blog post %q: %w", p.Slug, err)
			}
		}
		logger.Info().Int("count", len(seed.BlogPosts)).Msg("Seeded blog posts")
	}

	var guideCount int64
	if err := db.Model(&models.TravelGuide{}).Count(&guideCount).Error; err != nil {
		return fmt.Errorf("failed to count travel guides: %w", err)
	}
	if guideCount == 0 {
		for _, g := range seed.TravelGuides {
			guide := models.TravelGuide{
				Title:     g.Title,
				Slug:      g.Slug,
				Region:    g.Region,
				Summary:   g.Summary,
				Body:      g.Body,
				Published: true,
			}
			if err := db.Create(&guide).Error; err != nil {
				return fmt.Errorf("failed to seed travel guide %q: %w", g.Slug, err)
			}
		}
		logger.Info().Int("count", len(seed.TravelGuides)).Msg("Seeded travel guides")
	}

	return nil
}
