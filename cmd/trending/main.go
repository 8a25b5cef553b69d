// Command trending runs the periodic maintenance jobs: trending score
// recomputation and anonymous like cleanup.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ideanest/internal/cache"
	"ideanest/internal/config"
	"ideanest/internal/database"
	"ideanest/internal/middleware"
	"ideanest/internal/repository"
	"ideanest/internal/service"
	"ideanest/internal/trending"
)

func main() {
	scoreEvery := flag.Duration("score-interval", 5*time.Minute, "How often to recompute trending scores")
	cleanupEvery := flag.Duration("cleanup-interval", 24*time.Hour, "How often to reclaim expired anonymous likes")
	once := flag.Bool("once", false, "Run both jobs once and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	c := cache.New(cfg.RedisURL, middleware.Logger)
	defer c.Close()

	scorer := trending.NewScorer(db, trending.DefaultOptions, middleware.Logger)
	likes := service.NewLikeService(repository.NewLikeRepository(db, c), c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	score := func() {
		if _, err := scorer.UpdateScores(ctx, time.Now()); err != nil {
			log.Printf("trending update failed: %v", err)
			return
		}
		// The feed is served from cache; drop it so the new scores show up.
		c.Delete(ctx, cache.TrendingKey())
	}
	cleanup := func() {
		if _, err := likes.CleanupAnonymous(ctx); err != nil {
			log.Printf("anonymous like cleanup failed: %v", err)
		}
	}

	score()
	cleanup()
	if *once {
		return
	}

	scoreTicker := time.NewTicker(*scoreEvery)
	defer scoreTicker.Stop()
	cleanupTicker := time.NewTicker(*cleanupEvery)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("jobs runner stopping")
			return
		case <-scoreTicker.C:
			score()
		case <-cleanupTicker.C:
			cleanup()
		}
	}
}
