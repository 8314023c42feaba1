// Command seed loads the reference catalog and optionally a fake community.
package main

import (
	"context"
	"flag"
	"log"

	"famefeed/internal/bootstrap"
	"famefeed/internal/config"
	"famefeed/internal/middleware"
	"famefeed/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	catalogOnly := flag.Bool("catalog-only", false, "Only upsert fame levels, truth ratings and expertise areas")
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to submit")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Follow attempts per user")
	joinRate := flag.Float64("join-rate", defaults.JoinRate, "Probability of joining each community")
	falseRate := flag.Float64("false-rate", defaults.FalseClaimRate, "Probability of a post carrying a false claim")
	seedValue := flag.Int64("seed", 0, "Random seed (0 picks one)")
	shouldClean := flag.Bool("clean", false, "Delete users and their content before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.InitLogger(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedCatalog: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close()
	log.Printf("Catalog seeded: %d fame levels, %d truth ratings, %d expertise areas",
		len(rt.Catalog.FameLevels), len(rt.Catalog.TruthRatings), len(rt.Catalog.ExpertiseAreas))

	if *catalogOnly {
		return
	}

	s := seed.NewSeeder(rt.DB, rt.Services, rt.Catalog, seed.Options{
		NumUsers:       *numUsers,
		NumPosts:       *numPosts,
		FollowsPerUser: *follows,
		JoinRate:       *joinRate,
		FalseClaimRate: *falseRate,
		Seed:           *seedValue,
	})
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Created %d users, %d follows, %d memberships, %d posts (%d published, %d authors banned)",
		sum.Users, sum.Follows, sum.Memberships, sum.Posts, sum.Published, sum.Banned)
}
