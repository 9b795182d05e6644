// Package main is the entry point for the kuroryuud daemon.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ahostbr/kuroryuu/internal/config"
	"github.com/ahostbr/kuroryuu/internal/daemon/server"
	"github.com/ahostbr/kuroryuu/internal/logging"
	"github.com/ahostbr/kuroryuu/internal/models"
)

func main() {
	controlURL := flag.String("control-url", "", "Override the control API base URL")
	feedURL := flag.String("feed-url", "", "Override the telemetry feed URL")
	flag.Parse()

	log := logging.NewLogger("kuroryuud")

	if err := config.EnsureGlobalDir(); err != nil {
		log.WithError(err).Fatal("Failed to create global directory")
	}

	// Single instance: refuse to start while another daemon holds the info file.
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		log.WithError(err).Fatal("Failed to check daemon status")
	}
	if running {
		log.Fatalf("Daemon already running (PID %d)", info.PID)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.WithError(err).Fatal("Failed to load settings")
	}
	if *controlURL != "" {
		settings.Control.BaseURL = *controlURL
	}
	if *feedURL != "" {
		settings.Feed.URL = *feedURL
	}

	archiveDir, err := config.GlobalArchiveDir()
	if err != nil {
		log.WithError(err).Fatal("Failed to resolve archive directory")
	}

	srv, err := server.New(settings, archiveDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to create server")
	}

	if err := srv.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}

	daemonInfo := models.NewDaemonInfo("localhost", os.Getpid())
	if err := config.SaveDaemonInfo(daemonInfo); err != nil {
		srv.Stop()
		log.WithError(err).Fatal("Failed to write daemon info")
	}

	log.WithField("pid", os.Getpid()).Info("Daemon started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.WithField("signal", sig.String()).Info("Shutting down")

	srv.Stop()

	if err := config.RemoveDaemonInfo(); err != nil {
		log.WithError(err).Warn("Failed to remove daemon info")
	}

	fmt.Println("Daemon stopped")
}
