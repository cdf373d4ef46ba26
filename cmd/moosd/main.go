package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibihez/moos/internal/config"
	"github.com/bibihez/moos/internal/db"
	"github.com/bibihez/moos/internal/event"
	"github.com/bibihez/moos/internal/feed"
	"github.com/bibihez/moos/internal/gateway"
	httpx "github.com/bibihez/moos/internal/http"
	"github.com/bibihez/moos/internal/jobs"
	"github.com/bibihez/moos/internal/store"
	"github.com/bibihez/moos/internal/token"
)

func main() {
	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	st := &store.Gorm{DB: gdb}
	tokens := &token.Resolver{
		Cache:  &token.GormCache{DB: gdb},
		Lookup: st.EventToken,
	}

	svc := &event.Service{
		Store: st,
		Gen:   gateway.NewClient(cfg.GatewayURL),
	}
	hub := feed.NewHub(svc.Participants)
	svc.Feed = hub

	jobsRepo := &jobs.Repo{DB: gdb}
	svc.Jobs = jobsRepo

	r := httpx.NewRouter(cfg, svc, tokens, hub)

	// worker
	worker := &jobs.Worker{ID: "worker-1", Repo: jobsRepo, Events: svc, Mailer: jobs.LogMailer{}}

	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
