// server/cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"disaster-relief-api-server/config"
	"disaster-relief-api-server/internal/alert"
	"disaster-relief-api-server/internal/api/routes"
	"disaster-relief-api-server/internal/auth"
	"disaster-relief-api-server/internal/contact"
	"disaster-relief-api-server/internal/database"
	"disaster-relief-api-server/internal/geocode"
	"disaster-relief-api-server/internal/inventory"
	"disaster-relief-api-server/internal/lifecycle"
	"disaster-relief-api-server/internal/mailer"
	"disaster-relief-api-server/internal/replenishment"
	"disaster-relief-api-server/internal/reporting"
	"disaster-relief-api-server/internal/s3"
	"disaster-relief-api-server/internal/socket"
	"disaster-relief-api-server/internal/users"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	st, closeStore, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := closeStore(shutdownCtx); err != nil {
			log.Printf("Failed to close store: %v", err)
		}
	}()
	if err := database.SeedAdmin(ctx, st.Users(), cfg.Seed); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	tokens, err := auth.NewTokens(cfg.JWT.Secret, cfg.TokenTTL())
	if err != nil {
		log.Fatalf("Invalid JWT configuration: %v", err)
	}

	// 3. Outbound integrations; each one degrades to a no-op when unconfigured.
	hub := socket.NewHub()
	mail := mailer.NewSender(cfg.SMTP)
	opts := []lifecycle.Option{
		lifecycle.WithMailer(mail),
		lifecycle.WithAlerter(alert.NewTelegram(cfg.Telegram)),
		lifecycle.WithGeocoder(geocode.NewNominatim(cfg.Geocoder)),
		lifecycle.WithTimeout(cfg.Notify.Timeout),
	}
	uploader, err := s3.NewUploader(ctx, cfg.S3)
	if err != nil {
		log.Fatalf("Failed to create S3 uploader: %v", err)
	}
	if uploader != nil {
		opts = append(opts, lifecycle.WithUploader(uploader))
	} else {
		log.Println("[s3] no bucket configured, photo uploads disabled")
	}

	// 4. Services
	inventorySvc := inventory.NewService(st, hub)
	if err := inventorySvc.SyncWarehouseSequence(ctx); err != nil {
		log.Fatalf("Failed to sync warehouse ids: %v", err)
	}
	manager := lifecycle.NewManager(st, hub, opts...)
	userSvc := users.NewService(st.Users(), tokens, mail, cfg.Notify.Timeout)
	contactSvc := contact.NewService(st.Contacts(), mail, cfg.SMTP.SupportAddress, cfg.Notify.Timeout)

	router := routes.SetupRouter(routes.Deps{
		Cfg:           cfg,
		Store:         st,
		Tokens:        tokens,
		Hub:           hub,
		Lifecycle:     manager,
		Inventory:     inventorySvc,
		Replenishment: replenishment.NewService(st, hub),
		Reports:       reporting.NewService(st),
		Users:         userSvc,
		Contact:       contactSvc,
	})

	// 5. Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Starting API server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	manager.Wait()
	userSvc.Wait()
	contactSvc.Wait()
}
