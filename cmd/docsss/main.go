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
	ssserver "github.com/BManav00/Docs/internal/ss/server"
	"github.com/BManav00/Docs/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	id := flag.Int("id", 0, "Storage server id (overrides config)")
	nmAddr := flag.String("nm-addr", "", "Naming manager host:port (overrides config)")
	ctrlPort := flag.Int("ctrl-port", 0, "Control port to advertise (overrides config)")
	dataPort := flag.Int("data-port", 0, "Data port (overrides config)")
	root := flag.String("root", "", "Store root (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *id != 0 {
		cfg.SS.ID = *id
	}
	if *nmAddr != "" {
		cfg.SS.NMAddr = *nmAddr
	}
	if *ctrlPort != 0 {
		cfg.SS.CtrlPort = *ctrlPort
	}
	if *dataPort != 0 {
		cfg.SS.DataPort = *dataPort
	}
	if *root != "" {
		cfg.SS.Root = *root
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.SetLevel(cfg.Logging.Level)

	fmt.Printf("docsss - storage server %d\n", cfg.SS.ID)
	logger.Info("store root: %s", cfg.SS.StoreRoot())
	logger.Info("naming manager: %s", cfg.SS.NMAddr)

	srv, err := ssserver.New(ssserver.Config{
		ID:                cfg.SS.ID,
		NMAddr:            cfg.SS.NMAddr,
		CtrlPort:          cfg.SS.CtrlPort,
		DataPort:          cfg.SS.DataPort,
		Root:              cfg.SS.StoreRoot(),
		HeartbeatInterval: cfg.SS.HeartbeatInterval,
		StreamDelay:       cfg.SS.StreamDelay,
	})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	// Bind the data port before registering so the naming manager never
	// learns an endpoint nothing is listening on.
	if err := srv.Listen(); err != nil {
		log.Fatalf("Failed to bind data port: %v (is another server using port %d?)", err, cfg.SS.DataPort)
	}
	if err := srv.Register(); err != nil {
		log.Fatalf("Failed to register with naming manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("storage server running. Press Ctrl+C to stop.")
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
	logger.Info("storage server stopped")
}
