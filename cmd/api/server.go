package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"finch/internal/interfaces/scheduler"
	"finch/internal/shared/config"
)

// StartServer creates and starts the HTTP server in the background.
// Serves HTTPS when TLS is configured.
func StartServer(addr string, handler http.Handler, tls config.TLSConfig) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if tls.Enabled {
			log.Printf("HTTPS server starting on %s", addr)
			if err := srv.ListenAndServeTLS(tls.CertPath, tls.KeyPath); err != nil && err != http.ErrServerClosed {
				log.Fatalf("HTTPS server error: %v", err)
			}
			return
		}
		log.Printf("HTTP server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	return srv
}

// GracefulShutdown stops the server and scheduler, waiting up to timeout.
func GracefulShutdown(srv *http.Server, sched *scheduler.Scheduler, timeout time.Duration) {
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if sched != nil {
		sched.Shutdown(timeout)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	log.Println("Server stopped")
}
