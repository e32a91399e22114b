// Command seed fills the configured store with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"docfeed/internal/bootstrap"
	"docfeed/internal/config"
	"docfeed/internal/seed"
)

func main() {
	numUsers := flag.Int("users", seed.DefaultOptions.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", seed.DefaultOptions.NumPosts, "Number of posts to create")
	maxLikes := flag.Int("max-likes", seed.DefaultOptions.MaxLikesPerPost, "Maximum likes per post")
	maxComments := flag.Int("max-comments", seed.DefaultOptions.MaxCommentsPerPost, "Maximum comments per post")
	days := flag.Int("days", seed.DefaultOptions.MaxDays, "Spread post dates over this many days")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	fixture := flag.String("fixture", "", "Load a YAML fixture instead of generating data ('demo' for the built-in set)")
	force := flag.Bool("force", false, "Seed even if the store already has posts")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Fatalf("STORE_DRIVER=memory does not persist; seed a sqlite or postgres store")
	}
	// Seeding is explicit here; never double up with the startup demo seed.
	cfg.SeedDemo = false

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close()

	if !*force {
		empty, err := seed.IsEmpty(ctx, rt.Store)
		if err != nil {
			log.Fatalf("Failed to inspect store: %v", err)
		}
		if !empty {
			log.Println("Store already has posts; use -force to seed anyway")
			return
		}
	}

	var summary *seed.Summary
	switch *fixture {
	case "":
		summary, err = seed.Seed(ctx, rt.Store, seed.Options{
			NumUsers:           *numUsers,
			NumPosts:           *numPosts,
			MaxLikesPerPost:    *maxLikes,
			MaxCommentsPerPost: *maxComments,
			MaxDays:            *days,
			Seed:               *randSeed,
		})
	default:
		var fx *seed.Fixture
		if *fixture == "demo" {
			fx, err = seed.DemoFixture()
		} else {
			fx, err = seed.LoadFixtureFile(*fixture)
		}
		if err == nil {
			summary, err = seed.ApplyFixture(ctx, rt.Store, fx)
		}
	}
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d likes, %d comments", summary.Users, summary.Posts, summary.Likes, summary.Comments)
}
