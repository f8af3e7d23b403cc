package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/reachwell/reachwell/internal/api"
	"github.com/reachwell/reachwell/internal/coach"
	"github.com/reachwell/reachwell/internal/config"
	"github.com/reachwell/reachwell/internal/db"
	"github.com/reachwell/reachwell/internal/feedback"
	"github.com/reachwell/reachwell/internal/source"
	"github.com/reachwell/reachwell/internal/version"
)

var (
	listen        = flag.String("listen", "127.0.0.1:8080", "Listen address")
	dbPath        = flag.String("db", "reachwell.db", "Path to the SQLite database")
	configPath    = flag.String("config", "", "Path to a coach config JSON file (defaults baked in when empty)")
	migrationsDir = flag.String("migrations", "migrations", "Path to the schema migrations directory")
	brokerURL     = flag.String("broker", "", "MQTT broker URL for landmark ingest (disabled when empty)")
	devMode       = flag.Bool("dev", false, "Run in dev mode")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	log.Printf("reachwell %s", version.String())

	var cfg *config.CoachConfig
	if *configPath != "" {
		loaded, err := config.LoadCoachConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.MustLoadDefaultConfig()
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	store := db.NewCalibrationStore(database)
	runner := coach.NewRunner(coach.RunnerConfig{
		Ladder: cfg.LadderConfig(),
		Feedback: func(level int) feedback.Config {
			return cfg.FeedbackConfig(level)
		},
		TickInterval: cfg.GetTickInterval(),
	}, store, nil)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// periodic tick keeps sessions moving when frames arrive over MQTT
	// or the websocket rather than per-request POSTs
	wg.Add(1)
	go func() {
		defer wg.Done()
		runner.Run(ctx)
		log.Print("runner routine terminated")
	}()

	if *brokerURL != "" {
		src, err := source.NewMQTTSource(source.MQTTConfig{BrokerURL: *brokerURL}, runner)
		if err != nil {
			log.Fatalf("failed to connect landmark source: %v", err)
		}
		defer src.Close()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		database.AttachAdminRoutes(mux)

		apiMux := api.NewServer(runner, store, nil).ServeMux()
		mux.Handle("/api/", apiMux)
		mux.Handle("/ws", apiMux)

		h := api.LoggingMiddleware(mux)

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		runner.Stop()
		log.Printf("HTTP server routine stopped")
	}()

	if *devMode {
		log.Printf("dev mode: admin routes enabled without auth")
	}

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
