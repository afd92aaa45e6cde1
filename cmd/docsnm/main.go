package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/BManav00/Docs/internal/logger"
	nmserver "github.com/BManav00/Docs/internal/nm/server"
	"github.com/BManav00/Docs/internal/nm/state"
	"github.com/BManav00/Docs/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "Control port (overrides config)")
	statePath := flag.String("state-path", "", "State file path (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.NM.Port = *port
	}
	if *statePath != "" {
		cfg.NM.StatePath = *statePath
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger.SetLevel(cfg.Logging.Level)
	if err := configureLogOutput(cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to open log output: %v", err)
	}

	fmt.Println("docsnm - naming manager")
	logger.Info("log level: %s", cfg.Logging.Level)
	logger.Info("state path: %s", cfg.NM.StatePath)
	logger.Info("replica target: %d", cfg.NM.ReplicaTarget)

	st := state.New(cfg.NM.StatePath)
	if err := st.Load(); err != nil {
		log.Fatalf("Failed to load state: %v", err)
	}

	srv := nmserver.New(nmserver.Config{
		Port:            cfg.NM.Port,
		StatePath:       cfg.NM.StatePath,
		ReplicaTarget:   cfg.NM.ReplicaTarget,
		StaleAfter:      cfg.NM.StaleAfter,
		MonitorInterval: cfg.NM.MonitorInterval,
		DataRoot:        cfg.NM.DataRoot,
	}, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("naming manager running on port %d. Press Ctrl+C to stop.", cfg.NM.Port)
	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
		cancel()
		<-serverDone
	case err := <-serverDone:
		if err != nil {
			logger.Error("server error: %v", err)
			os.Exit(1)
		}
	}

	if err := st.Save(); err != nil {
		logger.Error("final state save failed: %v", err)
	}
	logger.Info("naming manager stopped")
}

func configureLogOutput(output string) error {
	switch output {
	case "", "stdout":
		return nil
	case "stderr":
		logger.SetOutput(os.Stderr)
		return nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logger.SetOutput(f)
		return nil
	}
}
