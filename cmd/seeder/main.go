// Command seeder fills a score store with demo players so the leaderboard
// has something to page through.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/headdrop/leaderboard-web/internal/store"
)

func main() {
	storeURL := flag.String("store", envOr("STORE_URL", "memory://"), "score store URL")
	players := flag.Int("players", 25, "number of demo players")
	maxHeads := flag.Int("max-heads", 50, "upper bound of heads per player")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	if err := validateFlags(*players, *maxHeads); err != nil {
		log.Fatalw("Invalid flags", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, *storeURL, logger)
	if err != nil {
		log.Fatalw("Failed to open store", "url", *storeURL, "error", err)
	}
	defer st.Close()

	runID := uuid.NewString()[:8]
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	names := make([]string, 0, *players+2)
	for i := 0; i < *players; i++ {
		names = append(names, "Hunter_"+runID+"_"+uuid.NewString()[:4])
	}
	// Names that exercise escaping on the page.
	names = append(names, `<b>Bold</b>`, `O'Reilly & "Sons"`)

	for _, name := range names {
		heads := int64(rng.Intn(*maxHeads) + 1)
		if err := st.Increment(ctx, name, heads); err != nil {
			log.Fatalw("Failed to seed player", "player", name, "error", err)
		}
	}

	snap, err := st.Snapshot(ctx)
	if err != nil {
		log.Fatalw("Failed to read back store", "error", err)
	}
	log.Infow("Seeded score store", "run", runID, "players", len(names), "total_players", len(snap))
}

func validateFlags(players, maxHeads int) error {
	if players < 0 {
		return fmt.Errorf("-players must not be negative, got %d", players)
	}
	if maxHeads < 1 {
		return fmt.Errorf("-max-heads must be at least 1, got %d", maxHeads)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
