package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simonvc/ledgersync/internal/book"
	"github.com/simonvc/ledgersync/internal/config"
	"github.com/simonvc/ledgersync/internal/inventory"
	"github.com/simonvc/ledgersync/internal/kv"
	"github.com/simonvc/ledgersync/internal/sequence"
	"github.com/simonvc/ledgersync/internal/server"
	"github.com/simonvc/ledgersync/internal/store"
	"github.com/simonvc/ledgersync/internal/syncer"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		counters, keys, closeKV, err := openBackend(cfg, st)
		if err != nil {
			return err
		}
		defer closeKV()

		opts := []book.Option{
			book.WithLogger(logger.Named("book")),
			book.WithBaseCurrency(cfg.Ledger.BaseCurrency),
			book.WithNumbering(cfg.Sequence.EntryPrefix, cfg.Sequence.DisplayScope),
		}
		engine, closeInv, err := buildEngine(cfg, keys)
		if err != nil {
			return err
		}
		defer closeInv()
		if engine != nil {
			opts = append(opts, book.WithEngine(engine))
		}

		svc, err := book.New(ctx, st, counters, opts...)
		if err != nil {
			return err
		}
		defer svc.Close()

		srv := server.New(svc, st, cfg.Server.Addr, server.WithLogger(logger.Named("http")))
		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe() }()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// openBackend returns the counter and sync-key stores for the configured
// backend. The SQLite store doubles as both when no Badger path is used.
func openBackend(c *config.Config, st *store.Store) (sequence.Store, syncer.KeyStore, func(), error) {
	if c.Store.Backend != "badger" {
		return st, st, func() {}, nil
	}
	kcfg := kv.DefaultConfig(c.Store.BadgerPath)
	kcfg.Logger = logger.Named("badger")
	db, err := kv.Open(kcfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open badger: %w", err)
	}
	return db, db, func() {
		if err := db.Close(); err != nil {
			logger.Warn("close badger", zap.Error(err))
		}
	}, nil
}

// buildEngine wires the configured inventory transport into a sync engine.
// Documents are always resolved over REST; kafka only carries movement
// commands.
func buildEngine(c *config.Config, keys syncer.KeyStore) (*syncer.Engine, func(), error) {
	if !c.Sync.Enabled || c.Inventory.Transport == "none" {
		return nil, func() {}, nil
	}

	rest := inventory.NewHTTPClient(c.Inventory.URL, c.Inventory.Timeout)
	var (
		movements syncer.MovementService = rest
		closer    io.Closer
	)
	switch c.Inventory.Transport {
	case "http":
	case "kafka":
		pub := inventory.NewKafkaPublisher(c.Inventory.Brokers, c.Inventory.Topic)
		movements, closer = pub, pub
	default:
		return nil, nil, errors.New("unknown inventory transport " + c.Inventory.Transport)
	}

	opts := []syncer.Option{
		syncer.WithLogger(logger.Named("sync")),
		syncer.WithInventoryAccounts(c.Sync.InventoryAccounts...),
	}
	if c.Sync.AutoPost {
		opts = append(opts, syncer.WithAutoPost(c.Sync.PostedBy))
	}
	if c.Sync.DefaultWarehouse != "" {
		opts = append(opts, syncer.WithDefaultWarehouse(c.Sync.DefaultWarehouse))
	}

	closeFn := func() {
		if closer == nil {
			return
		}
		if err := closer.Close(); err != nil {
			logger.Warn("close inventory transport", zap.Error(err))
		}
	}
	return syncer.New(movements, rest, keys, opts...), closeFn, nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8888", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
