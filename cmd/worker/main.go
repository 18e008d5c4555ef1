package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance/internal/config"
	"attendance/internal/course"
	"attendance/internal/queue"
	"attendance/internal/store"
)

// Worker consumes scan notifications to maintain advisory live head-counts
// in Redis, and periodically clears expired session pointers off courses.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:scans")
	}

	courseRepo := course.NewRepository(db.Client)

	// Stale session pointers are display-only; sweeping them just stops the
	// UI from showing a dead QR code.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().Add(-cfg.SessionTTL)
				n, err := courseRepo.ClearExpiredSessions(ctx, cutoff)
				if err != nil {
					log.Printf("session sweep failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("cleared %d expired session pointer(s)", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != queue.TypeScan {
			continue
		}

		sessionID := string(msg.Body)
		if sessionID == "" {
			continue
		}
		if err := redisClient.IncrLiveCount(ctx, sessionID, cfg.LiveCountTTL); err != nil {
			log.Printf("live count update failed for %s: %v", sessionID, err)
		}
	}

	log.Println("worker stopped")
}
