package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/df07/go-recursive-raytracer/internal/config"
	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/web/server"
)

func main() {
	logger := core.NewDefaultLogger("web", false)

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	staticDir := flag.String("static", "static", "Directory of static files served at /")
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()

	logger = core.NewLevelLogger("web", cfg.LogLevel)

	webServer, err := server.NewServer(server.Config{
		Addr:        cfg.WebAddr,
		ScenesDir:   cfg.ScenesDir,
		StaticDir:   *staticDir,
		Environment: cfg.Environment,
		Workers:     cfg.Workers,
		Logger:      logger,
	})
	if err != nil {
		logger.Errorf("Error creating server: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Infof("Recursive Raytracer Web Server")
	logger.Infof("Visit http://localhost%s to start rendering", cfg.WebAddr)

	if err := webServer.Start(ctx); err != nil {
		logger.Errorf("Error starting server: %v", err)
		os.Exit(1)
	}
}
