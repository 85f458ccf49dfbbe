/*
Package main is the entry point for the Holochat collaboration server.

It loads configuration, initializes the global logging system, wires the
shared registries, chunk reassembler, hub and inactivity monitor, starts the
HTTP/WebSocket server and the raw TCP listener, and gracefully handles
operating system interrupt signals (SIGINT, SIGTERM) for a smooth shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"holochat/internal/app/chat"
	"holochat/internal/app/monitor"
	"holochat/internal/app/registry"
	"holochat/internal/app/storage"
	"holochat/internal/app/transfer"
	"holochat/internal/configs"
	"holochat/internal/handler"
	"holochat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Int("tcp_port", cfg.TCPPort).
		Strs("admin_users", cfg.AdminUsers).
		Dur("inactivity_threshold", cfg.InactivityThreshold).
		Bool("archive_enabled", cfg.ArchiveEnabled).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared state, injected into every session worker.
	store := registry.NewStore(cfg.AdminUsers)
	reassembler := transfer.NewReassembler(cfg.TransferTTL)
	hub := chat.NewHub()

	var archive storage.ArchiveService
	if cfg.ArchiveEnabled {
		archive, err = storage.NewArchiveService(storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize payload archive")
		}
	}

	// Start the inactivity sweep. Start is guarded internally, a second call
	// would be a no-op.
	inactivityMonitor := monitor.NewMonitor(store, cfg.SweepInterval, cfg.InactivityThreshold)
	inactivityMonitor.Start()

	deps := &handler.AppDeps{
		Store:       store,
		Hub:         hub,
		Reassembler: reassembler,
		Archive:     archive,
		Config:      cfg,
	}

	connectLimiter := handler.NewConnectLimiter()

	// Setup HTTP server and routes
	router := handler.Router(deps, connectLimiter)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Holochat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	tcpListener, err := handler.StartTCPListener(fmt.Sprintf(":%d", cfg.TCPPort), connectLimiter, deps)
	if err != nil {
		logx.Fatal(err, "TCP listener failed to start")
	}

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := tcpListener.Close(); err != nil {
		logx.Error(err, "TCP listener close error")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	hub.Shutdown()
	inactivityMonitor.Stop()

	logx.Info("Server gracefully stopped.")
}
