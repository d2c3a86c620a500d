package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"quote-funnel-go/api"
	"quote-funnel-go/api/websocket"
	"quote-funnel-go/config"
	"quote-funnel-go/db"
	"quote-funnel-go/email"
	"quote-funnel-go/ghl"
	"quote-funnel-go/notify"
	"quote-funnel-go/runner"
	"quote-funnel-go/sms"
	"quote-funnel-go/tlsclient"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting quote funnel service...")

	cfg := config.MustLoad()
	log.Printf("Config loaded -- funnel: %s", cfg.FunnelBaseURL)

	database, err := db.New(cfg)
	if err != nil {
		log.Fatalf("Database init failed: %v", err)
	}
	defer database.Close()

	tlsClient := tlsclient.New()
	log.Println("TLS client ready")

	// WebSocket hub for real-time run progress
	hub := websocket.NewHub()

	mailer := email.NewClient(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	if mailer != nil {
		log.Println("Resend email client configured")
	}

	texter := sms.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	if texter != nil {
		log.Println("Twilio SMS client configured")
	}

	ops, err := notify.New(cfg.DiscordToken, cfg.DiscordRunLogChannelID)
	if err != nil {
		log.Fatalf("Discord notifier init failed: %v", err)
	}
	if ops != nil {
		log.Println("Discord ops notifier configured")
	}

	crm := ghl.NewClient(ghl.Config{
		APIKey:       cfg.GHLAPIKey,
		LocationID:   cfg.GHLLocationID,
		PipelineID:   cfg.GHLPipelineID,
		NewLeadStage: cfg.GHLStageNewLead,
		CFQuoteCount: cfg.GHLCFQuoteCount,
		CFBestPrice:  cfg.GHLCFBestPrice,
		CFState:      cfg.GHLCFState,
	})
	if crm != nil {
		log.Println("GHL client configured")
	}

	runs := runner.New(cfg, tlsClient, hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	server := api.NewServer(cfg, database, runs, hub, mailer, texter, ops, crm)
	server.Start(ctx)

	log.Println("Shutdown complete")
}
