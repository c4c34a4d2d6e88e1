package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/neuroseg/neuroseg/internal/api"
	"github.com/neuroseg/neuroseg/internal/config"
	"github.com/neuroseg/neuroseg/internal/segmentation"
	"github.com/neuroseg/neuroseg/internal/state"
	"github.com/neuroseg/neuroseg/internal/task"
)

func main() {
	cfg := config.Load()

	store := state.SelectBackend(cfg.RedisURL)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("error closing store: %v", err)
		}
	}()

	segmenter := initSegmenter(cfg)
	pool := task.NewPool(cfg.Workers, cfg.QueueSize)
	runner := task.NewRunner(store, segmenter, pool, cfg.StudiesDir, cfg.OutputDir)
	manager := task.NewManager(store, runner)
	server := api.NewServer(manager, cfg.StudiesDir)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server.RegisterRoutes(e)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	e.Logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}

	log.Println("draining worker pool...")
	pool.StopWait()

	e.Logger.Info("server stopped")
}

// initSegmenter builds the segmentation backend: the configured external
// command when set, otherwise simulated runs.
func initSegmenter(cfg config.Config) segmentation.Segmenter {
	if len(cfg.SegmentCmd) > 0 {
		seg, err := segmentation.NewExecSegmenter(cfg.SegmentCmd)
		if err != nil {
			log.Fatalf("invalid SEGMENT_CMD: %v", err)
		}
		log.Printf("using external segmentation command: %v", cfg.SegmentCmd)
		return seg
	}

	log.Println("SEGMENT_CMD not set, segmentation runs will be simulated")
	return &segmentation.SimulatedSegmenter{Delay: 2 * time.Second}
}
