package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vols-bot/internal/config"
	"vols-bot/internal/directory"
	"vols-bot/internal/email"
	"vols-bot/internal/fetch"
	"vols-bot/internal/helpfiles"
	"vols-bot/internal/notify"
	"vols-bot/internal/roster"
	"vols-bot/internal/server"
	"vols-bot/internal/tgbot"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	client := fetch.New()

	var rosterSource roster.Source
	if cfg.ZonesCSVURL != "" {
		rosterSource = roster.CSVSource(client, cfg.ZonesCSVURL)
	} else {
		rosterSource, err = roster.DriveSource(cfg.GoogleCredentialsFile, cfg.ZonesDriveFileID)
		if err != nil {
			log.Fatalf("drive roster: %v", err)
		}
	}
	rosterSvc := roster.New(rosterSource, cfg.RosterTTL)

	dirSvc := directory.New(cfg, client, cfg.DocTTL)
	store := notify.NewCSVStore(cfg.NotifyLogFileUG, cfg.NotifyLogFileRK)
	mailer := email.New(cfg.SMTP)
	help := helpfiles.New()

	botApp, err := tgbot.New(cfg, rosterSvc, dirSvc, store, mailer, help)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}

	httpSrv := server.New(cfg, botApp)

	// Start HTTP server
	go func() {
		log.Printf("HTTP listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan struct{})

	server.StartKeepAlive(cfg.PingURL, stop)

	// Start Telegram: webhook when the public URL is known, polling otherwise
	if cfg.SelfURL != "" {
		if err := botApp.SetWebhook(cfg.SelfURL + "/webhook"); err != nil {
			log.Fatalf("webhook: %v", err)
		}
		log.Printf("webhook mode: %s/webhook", cfg.SelfURL)
	} else {
		go func() {
			if err := botApp.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("bot stopped: %v", err)
				cancel()
			}
		}()
	}

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	cancel()
	close(stop)
	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = httpSrv.Shutdown(ctxTimeout)

	log.Println("bye")
}
