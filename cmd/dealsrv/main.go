// ABOUTME: Reference deal REST server backed by SQLite
// ABOUTME: Serves /deals and /products so dealflow runs end to end on one machine

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harperreed/dealflow/api"
	"github.com/harperreed/dealflow/config"
	"github.com/harperreed/dealflow/db"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	port := flag.Int("port", cfg.ServerPort, "Port to listen on")
	dbPath := flag.String("db", cfg.ServerDB, "Path to SQLite database")
	seedPath := flag.String("seed", "", "YAML seed file to load on startup")
	env := flag.String("env", os.Getenv("APP_ENV"), "Environment (production enables gin release mode)")
	flag.Parse()

	if err := run(*port, *dbPath, *seedPath, *env); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(port int, dbPath, seedPath, env string) error {
	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	if seedPath != "" {
		seed, err := db.LoadSeedFile(seedPath)
		if err != nil {
			return err
		}
		res, err := db.ApplySeed(database, seed)
		if err != nil {
			return err
		}
		log.Printf("✓ Seeded %d deals (%d clients, %d products)", res.Deals, res.Clients, res.Products)
	}

	api.SetGinMode(env)
	router := api.NewRouter(api.RouterDeps{DB: database, ServiceName: "dealsrv", Version: version})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("dealsrv listening on http://localhost:%d (db=%s)", port, dbPath)
		errCh <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-sig:
		log.Println("Shutting down...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
