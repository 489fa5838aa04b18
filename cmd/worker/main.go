// Worker purges expired and revoked sessions on an interval.
// Set SESSION_SWEEP_INTERVAL to tune the cadence (default 1h).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tella/app/internal/config"
	"tella/app/internal/db"
	sessionrepo "tella/app/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("worker: DATABASE_URL is required")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	sessions := sessionrepo.NewPostgresRepository(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	interval := cfg.SweepInterval()
	log.Printf("worker: sweeping expired sessions every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep(ctx, sessions)
	for {
		select {
		case <-ctx.Done():
			log.Println("worker: stopped")
			return
		case <-ticker.C:
			sweep(ctx, sessions)
		}
	}
}

func sweep(ctx context.Context, sessions sessionrepo.Repository) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n, err := sessions.DeleteExpired(sweepCtx, time.Now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("worker: sweep failed: %v", err)
		}
		return
	}
	if n > 0 {
		log.Printf("worker: removed %d expired sessions", n)
	}
}
