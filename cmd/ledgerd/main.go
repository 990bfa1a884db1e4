// ledgerd runs the Gravity token ledger as a daemon: it restores the ledger
// from its snapshot database, serves the HTTP/websocket API and persists
// state periodically and on shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/novaforge-labs/gravity-ledger/api"
	"github.com/novaforge-labs/gravity-ledger/config"
	"github.com/novaforge-labs/gravity-ledger/eventlog"
	"github.com/novaforge-labs/gravity-ledger/persistence"
	"github.com/novaforge-labs/gravity-ledger/token"
)

const snapshotInterval = 30 * time.Second

func main() {
	cfg := config.Load()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	color.Cyan("Gravity Ledger")
	color.Cyan("==============")

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		log.WithError(err).Fatal("create data directory")
	}

	store, err := persistence.Open(cfg.DatabasePath, log)
	if err != nil {
		log.WithError(err).Fatal("open snapshot store")
	}
	defer store.Close()

	events, err := eventlog.NewWriter(cfg.EventLogDir, log)
	if err != nil {
		log.WithError(err).Fatal("open event log")
	}
	defer events.Close()

	feed := api.NewFeed(log)
	sink := token.CombineSinks(events, feed)

	ledger, restored, err := restoreOrCreate(cfg, store, sink, log)
	if err != nil {
		log.WithError(err).Fatal("initialize ledger")
	}
	if restored {
		color.Green("restored ledger %s (%s), supply %s",
			ledger.Name, ledger.Symbol, ledger.TotalSupply().Dec())
	} else {
		color.Green("created ledger %s (%s), admin %s, treasury %s",
			ledger.Name, ledger.Symbol, cfg.AdminAddress, cfg.TreasuryAddress)
	}

	srv := api.NewServer(ledger, feed, log)
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Handler()}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("api server")
		}
	}()
	color.Green("api listening on %s", cfg.ListenAddr)

	snapshots := time.NewTicker(snapshotInterval)
	defer snapshots.Stop()
	go func() {
		for range snapshots.C {
			if err := store.Save(ledger.Snapshot()); err != nil {
				log.WithError(err).Error("periodic snapshot")
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	color.Yellow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("api shutdown")
	}
	if err := store.Save(ledger.Snapshot()); err != nil {
		log.WithError(err).Error("final snapshot")
	}
	events.Flush()
	color.Yellow("state saved, goodbye")
}

// restoreOrCreate loads the persisted ledger if the store holds one, and
// bootstraps a fresh ledger otherwise.
func restoreOrCreate(cfg *config.Config, store *persistence.Store, sink token.EventSink, log *logrus.Logger) (*token.Ledger, bool, error) {
	snap, err := store.Load()
	if err != nil {
		return nil, false, err
	}

	opts := []token.Option{token.WithLogger(log), token.WithEventSink(sink)}
	if snap != nil {
		ledger, err := token.FromSnapshot(snap, opts...)
		return ledger, true, err
	}

	ledger, err := token.NewLedger(cfg.TokenName, cfg.TokenSymbol,
		cfg.AdminAddress, cfg.TreasuryAddress, opts...)
	return ledger, false, err
}
