// Command seed populates the database with demo data.
package main

import (
	"flag"
	"log"

	"ideanest/internal/config"
	"ideanest/internal/database"
	"ideanest/internal/seed"
)

func main() {
	numUsers := flag.Int("users", seed.DefaultOptions.NumUsers, "Number of users to create")
	numIdeas := flag.Int("ideas", seed.DefaultOptions.NumIdeas, "Number of ideas to create")
	anonShare := flag.Float64("anon", seed.DefaultOptions.AnonymousShare, "Fraction of anonymous ideas and likes")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:       *numUsers,
		NumIdeas:       *numIdeas,
		AnonymousShare: *anonShare,
		MaxDays:        seed.DefaultOptions.MaxDays,
		Clean:          *clean,
	})
	if err := s.Run(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
