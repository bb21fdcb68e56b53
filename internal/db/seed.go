package db

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/geo"
	"github.com/oggyb/campus-match/internal/interest"
	"github.com/oggyb/campus-match/internal/logger"
)

var (
	seedRegions = []string{"north", "south", "east", "west"}
	// campus centre the seeded locations are scattered around
	seedOrigin = geo.Point{Lat: 51.5246, Lng: -0.1340}
)

// SeedTestData resets the database and populates it with demo data.
//
// Behavior:
//  1. Clears every table.
//  2. Creates 20 users with 1-3 interests drawn from the taxonomy and a region.
//  3. Creates 3 locations per category within ~5 km of the campus centre.
//  4. Generates ~100 likes; every 3rd pair is made mutual and gets its match.
//  5. When webhookURL is set, registers it for users 1-3.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, tax *interest.Taxonomy, webhookURL string) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	tables := []string{
		"notifications", "suggestion_states", "matches", "likes", "dislikes",
		"blocks", "webhook_configs", "locations", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	for _, table := range []string{"users", "locations", "matches", "notifications"} {
		switch db.Dialector.Name() {
		case "mysql":
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		case "sqlite":
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table)
		}
	}
	logger.Info("cleared existing data")

	categories := tax.Categories()

	// --- Seed Users ---
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		users = append(users, User{
			Username:  fmt.Sprintf("student%d", i),
			Email:     fmt.Sprintf("student%d@campus.example", i),
			Interests: interest.JoinList(randomInterests(r, tax, categories)),
			Region:    seedRegions[r.Intn(len(seedRegions))],
			Active:    true,
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	// --- Seed Locations ---
	var locations []Location
	for _, cat := range categories {
		subs := tax.Subcategories(cat)
		for j := 1; j <= 3; j++ {
			picked := pick(r, subs, 1+r.Intn(2))
			locations = append(locations, Location{
				Name:          fmt.Sprintf("%s spot %d", cat, j),
				Coordinates:   geo.FormatCoordinates(jitter(r, seedOrigin, 0.045)),
				Category:      cat,
				Subcategories: interest.JoinList(picked),
				Rating:        float64(20+r.Intn(31)) / 10,
				Region:        seedRegions[r.Intn(len(seedRegions))],
			})
		}
	}
	if err := db.Create(&locations).Error; err != nil {
		return fmt.Errorf("failed to seed locations: %w", err)
	}
	logger.Info("seeded users and locations", "users", len(users), "locations", len(locations))

	// --- Seed Likes and Matches ---
	counter := 0
	for _, liker := range users {
		for j := 0; j < 5; j++ {
			target := users[r.Intn(len(users))]
			if target.ID == liker.ID {
				continue
			}
			if err := insertIgnore(db, &Like{LikerID: liker.ID, TargetID: target.ID}); err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}

			// guarantee mutual likes every 3rd pair
			if counter%3 == 0 {
				if err := insertIgnore(db, &Like{LikerID: target.ID, TargetID: liker.ID}); err != nil {
					return fmt.Errorf("failed to seed like: %w", err)
				}
				a, b := liker.ID, target.ID
				if a > b {
					a, b = b, a
				}
				if err := insertIgnore(db, &Match{UserAID: a, UserBID: b}); err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
			}
			counter++
		}
	}

	// --- Webhooks ---
	if webhookURL != "" {
		for _, u := range users[:3] {
			hook := WebhookConfig{UserID: u.ID, URL: webhookURL, Secret: fmt.Sprintf("seed-secret-%d", u.ID), Enabled: true}
			if err := db.Create(&hook).Error; err != nil {
				return fmt.Errorf("failed to seed webhook: %w", err)
			}
		}
	}

	logger.Info("seeding finished", "likes_attempted", counter)
	return nil
}

func insertIgnore(db *gorm.DB, row any) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

// randomInterests mixes bare categories with qualified subcategories.
func randomInterests(r *rand.Rand, tax *interest.Taxonomy, categories []string) []string {
	out := make([]string, 0, 3)
	for _, cat := range pick(r, categories, 1+r.Intn(3)) {
		subs := tax.Subcategories(cat)
		if len(subs) > 0 && r.Intn(2) == 0 {
			out = append(out, cat+interest.Separator+subs[r.Intn(len(subs))])
			continue
		}
		out = append(out, cat)
	}
	return out
}

func pick(r *rand.Rand, from []string, n int) []string {
	if n > len(from) {
		n = len(from)
	}
	out := make([]string, 0, n)
	for _, i := range r.Perm(len(from))[:n] {
		out = append(out, from[i])
	}
	return out
}

func jitter(r *rand.Rand, p geo.Point, spread float64) geo.Point {
	return geo.Point{
		Lat: p.Lat + (r.Float64()*2-1)*spread,
		Lng: p.Lng + (r.Float64()*2-1)*spread,
	}
}
