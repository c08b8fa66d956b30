package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"labelmaster/internal/config"
	"labelmaster/internal/directory"
	"labelmaster/internal/listener"
	"labelmaster/internal/logger"
	"labelmaster/internal/pipeline"
	"labelmaster/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log, err := logger.New(cfg.LogLevel)
	must(err)
	defer log.Sync()

	db, err := storage.Open(cfg.DBPath, config.IssuerDirectoryKey)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	issuers, err := directory.Open(ctx, db)
	must(err)

	svc := listener.NewService(db, cfg, pipeline.NewSession(issuers, log), log)
	log.Infow("mail listener started", "provider", cfg.MailListenerProvider, "intervalSec", cfg.MailListenerIntervalSec, "autoPrint", cfg.MailListenerAutoPrint)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
