// Command generate-data seeds the database with synthetic links and
// click traffic for load testing the redirect and analytics paths.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linklite/linklite/internal/config"
	"github.com/linklite/linklite/internal/repository/postgres"
)

const (
	HOT_LINKS  = 100
	WARM_LINKS = 10000

	CLICKS_PER_HOT_LINK  = 1000
	CLICKS_PER_WARM_LINK = 5

	BATCH_SIZE  = 5000
	NUM_WORKERS = 4
)

var (
	referrers = []string{"Direct", "Direct", "Direct", "https://twitter.com", "https://facebook.com", "https://linkedin.com"}
	devices   = []string{"Desktop", "Desktop", "Mobile", "Mobile", "Mobile", "Tablet"}
	browsers  = []string{"Chrome", "Chrome", "Chrome", "Safari", "Firefox", "Edge"}
	systems   = []string{"Windows", "Windows", "MacOS", "Linux", "Android", "iOS"}
	countries = []string{"United States", "Germany", "Brazil", "India", "Japan", "Unknown"}
	cities    = []string{"New York", "Berlin", "Sao Paulo", "Mumbai", "Tokyo", "Unknown"}
)

type DataGenerator struct {
	pool *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	if err := postgres.Migrate(cfg.Database.URL); err != nil {
		log.Fatalf("Failed to run migrations: %v\n", err)
	}

	gen := &DataGenerator{pool: pool}

	if err := gen.clearData(ctx); err != nil {
		log.Fatalf("Failed to clear data: %v\n", err)
	}

	if err := gen.insertLinks(ctx, "hot", HOT_LINKS); err != nil {
		log.Fatalf("Failed to insert hot links: %v\n", err)
	}

	if err := gen.insertLinks(ctx, "warm", WARM_LINKS); err != nil {
		log.Fatalf("Failed to insert warm links: %v\n", err)
	}

	if err := gen.insertClicksParallel(ctx); err != nil {
		log.Fatalf("Failed to insert clicks: %v\n", err)
	}

	if err := gen.syncCounters(ctx); err != nil {
		log.Fatalf("Failed to sync click counters: %v\n", err)
	}

	if err := gen.verifyData(ctx); err != nil {
		log.Printf("Warning: Data verification failed: %v\n", err)
	}
}

func (g *DataGenerator) clearData(ctx context.Context) error {
	_, err := g.pool.Exec(ctx, "TRUNCATE link_clicks, links RESTART IDENTITY")
	return err
}

func (g *DataGenerator) insertLinks(ctx context.Context, prefix string, count int) error {
	for start := 1; start <= count; start += BATCH_SIZE {
		end := start + BATCH_SIZE - 1
		if end > count {
			end = count
		}

		batch := &pgx.Batch{}
		for i := start; i <= end; i++ {
			code := fmt.Sprintf("%s%06d", prefix, i)
			target := fmt.Sprintf("https://example.com/%s/%06d", prefix, i)
			createdAt := time.Now().Add(-time.Duration(i) * time.Minute)
			batch.Queue(
				`INSERT INTO links (code, target_url, is_active, created_at, expires_at)
				 VALUES ($1, $2, TRUE, $3, $4)`,
				code, target, createdAt, createdAt.Add(365*24*time.Hour),
			)
		}

		if err := g.sendBatch(ctx, batch); err != nil {
			return err
		}
	}

	return nil
}

// insertClicksParallel spreads hot-link traffic across workers. Clicks
// land inside the trailing week so the timeframe and realtime queries
// have something to chew on.
func (g *DataGenerator) insertClicksParallel(ctx context.Context) error {
	var wg sync.WaitGroup
	errChan := make(chan error, NUM_WORKERS)

	linksPerWorker := HOT_LINKS / NUM_WORKERS

	for workerID := 0; workerID < NUM_WORKERS; workerID++ {
		wg.Add(1)

		start := workerID*linksPerWorker + 1
		end := start + linksPerWorker - 1
		if workerID == NUM_WORKERS-1 {
			end = HOT_LINKS
		}

		go func(id, start, end int) {
			defer wg.Done()

			if err := g.insertClickRange(ctx, "hot", start, end, CLICKS_PER_HOT_LINK); err != nil {
				errChan <- fmt.Errorf("worker %d failed: %w", id, err)
			}
		}(workerID, start, end)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return err
	}

	return g.insertClickRange(ctx, "warm", 1, WARM_LINKS, CLICKS_PER_WARM_LINK)
}

func (g *DataGenerator) insertClickRange(ctx context.Context, prefix string, start, end, clicksPerLink int) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(start)))
	batch := &pgx.Batch{}

	for i := start; i <= end; i++ {
		code := fmt.Sprintf("%s%06d", prefix, i)
		for c := 0; c < clicksPerLink; c++ {
			pick := rng.Intn(len(referrers))
			clickedAt := time.Now().Add(-time.Duration(rng.Intn(7*24*60)) * time.Minute)
			batch.Queue(
				`INSERT INTO link_clicks (link_code, clicked_at, referrer, device_type, browser, os, country, city)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				code, clickedAt, referrers[pick], devices[pick], browsers[pick], systems[pick], countries[pick], cities[pick],
			)

			if batch.Len() >= BATCH_SIZE {
				if err := g.sendBatch(ctx, batch); err != nil {
					return err
				}
				batch = &pgx.Batch{}
			}
		}
	}

	if batch.Len() > 0 {
		return g.sendBatch(ctx, batch)
	}

	return nil
}

// syncCounters backfills click_count from the raw click rows, restoring
// the counter/history invariant for bulk-inserted data.
func (g *DataGenerator) syncCounters(ctx context.Context) error {
	_, err := g.pool.Exec(ctx, `
		UPDATE links SET click_count = counted.n
		FROM (SELECT link_code, COUNT(*) AS n FROM link_clicks GROUP BY link_code) AS counted
		WHERE links.code = counted.link_code`)
	return err
}

func (g *DataGenerator) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := g.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec failed: %w", err)
		}
	}

	return nil
}

func (g *DataGenerator) verifyData(ctx context.Context) error {
	var linkCount, clickCount int64
	if err := g.pool.QueryRow(ctx, "SELECT COUNT(*) FROM links").Scan(&linkCount); err != nil {
		return err
	}
	if err := g.pool.QueryRow(ctx, "SELECT COUNT(*) FROM link_clicks").Scan(&clickCount); err != nil {
		return err
	}

	log.Printf("Seeded %d links with %d clicks\n", linkCount, clickCount)
	return nil
}
