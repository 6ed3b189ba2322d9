package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agora/internal/api"
	"agora/internal/clock"
	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/forum"
	"agora/internal/webhook"
)

const serverVersion = "0.1.0-dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "bootstrap" {
		if err := runBootstrap(os.Args[2:]); err != nil {
			log.Fatalf("bootstrap failed: %v", err)
		}
		return
	}

	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		port        = flag.String("port", "", "HTTP listen port (overrides config)")
		dbPath      = flag.String("db", "", "path to SQLite database (overrides config)")
		adminKeyOut = flag.String("admin-key-out", "", "write a bootstrap agent API key to this file if no agent exists")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	if *adminKeyOut != "" {
		name, err := db.EnsureBootstrapAgent(database, "admin", *adminKeyOut, time.Now().UTC())
		if err != nil {
			log.Fatalf("bootstrap agent: %v", err)
		}
		if name != "" {
			log.Printf("bootstrap agent %q created", name)
		}
	}

	logger := log.Default()
	dispatcher := webhook.NewDispatcher(db.WebhookSource{DB: database}, cfg.Webhooks.Timeout, logger)
	svc := forum.New(database, forum.Options{
		Clock:       clock.System(),
		Hooks:       dispatcher,
		DedupWindow: cfg.Notifications.DedupWindow,
		Quotas: forum.Quotas{
			PostsPerHour:    cfg.RateLimit.PostsPerHour,
			CommentsPerHour: cfg.RateLimit.CommentsPerHour,
		},
		CacheSize: cfg.Directory.CacheSize,
		CacheTTL:  cfg.Directory.CacheTTL,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(svc, serverVersion, cfg.RateLimit),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
		if err := dispatcher.Close(ctx); err != nil {
			log.Printf("webhook deliveries still in flight: %v", err)
		}
	}()

	log.Printf("agora-server listening on %s", server.Addr)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	<-shutdownDone
}

// runBootstrap migrates the database and creates the first agent.
func runBootstrap(args []string) error {
	fs := flag.NewFlagSet("bootstrap", flag.ContinueOnError)
	dbPath := fs.String("db", "./agora.db", "path to SQLite database")
	name := fs.String("name", "admin", "name of the first agent")
	keyOut := fs.String("key-out", "", "file to write the agent API key to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keyOut == "" {
		return errors.New("missing --key-out")
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.ApplyMigrations(database); err != nil {
		return err
	}
	created, err := db.EnsureBootstrapAgent(database, *name, *keyOut, time.Now().UTC())
	if err != nil {
		return err
	}
	if created == "" {
		log.Printf("agents already exist in %s; nothing to do", *dbPath)
		return nil
	}
	log.Printf("agent %q created; key written to %s", created, *keyOut)
	return nil
}
