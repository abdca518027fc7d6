package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rahul/whisper/internal/escrow"
	"github.com/rahul/whisper/internal/gateway"
	"github.com/rahul/whisper/internal/observability"
	"github.com/rahul/whisper/internal/relay"
	"github.com/rahul/whisper/internal/session"
	"github.com/rahul/whisper/internal/store"
	"github.com/rahul/whisper/internal/workflow"
	"github.com/rahul/whisper/pkg/config"
)

func main() {
	interactive := observability.IsTerminal()
	if interactive {
		observability.PrintBanner()
		observability.InitializeTerminal()

		// Route all log output through the terminal mutex so it never
		// interrupts the status line's cursor save/restore sequence.
		log.SetOutput(observability.NewTermWriter())
	}

	configPath := os.Getenv("WHISPER_CONFIG")
	if configPath == "" {
		configPath = "config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	tgCfg, _ := cfg.GetTelegramConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Escrow and sessions share the Redis server but not the client, so each
	// store can close its own.
	var escrowStore escrow.Store = escrow.NewMemoryStore()
	sessionOpts := []session.StoreOption{session.WithRedisTTL(cfg.Session.TTL.Std())}
	if cfg.Redis.URL != "" {
		escrowClient := newRedisClient(ctx, cfg.Redis.URL)
		escrowStore = escrow.NewRedisStore(escrowClient)
		sessionOpts = append(sessionOpts, session.WithRedisClient(newRedisClient(ctx, cfg.Redis.URL)))
	}
	defer escrowStore.Close()

	sessions, err := session.NewStore(session.StoreType(cfg.Session.Driver), sessionOpts...)
	if err != nil {
		log.Fatalf("Failed to create %s session store: %v", cfg.Session.Driver, err)
	}
	defer sessions.Close()

	groups, err := store.NewGroupStore(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer groups.Close()
	directory := store.NewDirectory(groups, escrowStore)

	logger := observability.NewLogger()
	status := observability.NewStatus()

	tg, err := gateway.NewTelegramGateway(tgCfg.Token, logger, status)
	if err != nil {
		log.Fatal(err)
	}
	tg.PollTimeout = tgCfg.PollTimeout

	rl := relay.NewRelay(tg, escrowStore, logger, status)
	rl.Retention = cfg.Relay.Retention.Std()
	rl.Delay = cfg.Relay.Delay.Std()

	engine := workflow.NewEngine(sessions, directory, tg, rl, logger)
	tg.Handler = engine
	tg.Groups = directory

	if interactive {
		go func() {
			ticker := time.NewTicker(1 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					observability.PrintLiveStatus(status)
				}
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				status.Heartbeat()
				logger.LogHeartbeat()
			}
		}
	}()

	// Start Gateway in a goroutine so we can wait for context in the main loop
	go func() {
		if err := tg.Start(ctx); err != nil {
			log.Printf("\033[91m[ FAIL ] GATEWAY CRITICAL ERROR: %v\033[0m", err)
			stop()
		}
	}()

	<-ctx.Done()

	if interactive {
		observability.CleanupTerminal()
	}

	if err := tg.Stop(); err != nil {
		log.Printf("Gateway stop: %v", err)
	}
	log.Println("\033[95m[ EXIT ] WHISPER STOPPED. GOODBYE.\033[0m")
}

func newRedisClient(ctx context.Context, url string) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("Invalid redis url: %v", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("Failed to reach redis: %v", err)
	}
	return client
}
