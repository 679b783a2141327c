package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"comanda/backend/internal/cache"
	"comanda/backend/internal/config"
	"comanda/backend/internal/httpapi"
	"comanda/backend/internal/kitchen"
	"comanda/backend/internal/service"
	"comanda/backend/internal/store"
	"comanda/backend/internal/store/memory"
	pgstore "comanda/backend/internal/store/postgres"
	redisstore "comanda/backend/internal/store/redis"
)

func main() {
	cfg := config.Load()
	venue, err := config.LoadVenue(cfg.VenueConfigPath)
	if err != nil {
		log.Fatalf("invalid venue configuration: %v", err)
	}
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	for _, role := range weakPINRoles(venue) {
		log.Printf("[config] WARN %s unlocks with a well-known PIN; set one in the venue file", role)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var kv store.KV
	persistent := true
	closers := make([]func() error, 0, 4)

	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		kv = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	case cfg.RedisAddr != "":
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err := rs.Ping(ctx); err != nil {
			log.Fatalf("redis unavailable (%v) and REDIS_ADDR is set; refusing to start with in-memory fallback", err)
		}
		kv = rs
		closers = append(closers, rs.Close)
		log.Println("repository: redis")
	default:
		kv = memory.NewSeeded()
		persistent = false
		log.Println("repository: in-memory")
	}

	repo := store.NewRepository(kv)
	if persistent {
		if err := repo.Seed(ctx, store.SeedState()); err != nil {
			log.Fatalf("seed catalog: %v", err)
		}
	}

	summaries := cache.SummaryCache(cache.NewMemorySummaryCache())
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSummaryCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), caching shift summaries in memory", err)
		} else {
			summaries = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: memory")
	}

	notifier := kitchen.Notifier(kitchen.NoopNotifier{})
	if cfg.AMQPURL != "" {
		publisher, err := kitchen.NewRabbitPublisher(cfg.AMQPURL, cfg.KitchenExchange)
		if err != nil {
			log.Printf("rabbitmq unavailable (%v), kitchen tickets disabled", err)
		} else {
			notifier = publisher
			closers = append(closers, publisher.Close)
			log.Println("kitchen: rabbitmq")
		}
	}

	gate, err := service.NewPINGate(venue.Roles(), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("pin gate: %v", err)
	}
	svc := service.New(repo, gate, notifier, summaries, service.Options{
		TaxRate:    &venue.TaxRate,
		Layout:     venue.Layout,
		SummaryTTL: time.Duration(cfg.ReportCacheTTLSeconds) * time.Second,
	})
	terminal, err := svc.Terminal(ctx)
	if err != nil {
		log.Fatalf("restore session: %v", err)
	}
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute)
	api := httpapi.New(svc, terminal, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("%s POS listening on %s", venue.Name, cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}

// weakPINRoles lists roles whose PIN is a factory default or trivially
// guessable. Four-digit PINs are the terminal's contract, so these only warn.
func weakPINRoles(venue config.Venue) []string {
	known := map[string]bool{
		"0001": true, "9999": true, "0000": true, "1234": true,
		"4321": true, "1111": true, "1212": true,
	}
	var roles []string
	for pin, role := range venue.PINs {
		if known[pin] || isRepeatedDigit(pin) {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles
}

func isRepeatedDigit(pin string) bool {
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			return false
		}
	}
	return pin != ""
}
