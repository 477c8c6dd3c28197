package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dailyyoga/jsonify/cache"
	"github.com/dailyyoga/jsonify/ch"
	"github.com/dailyyoga/jsonify/config"
	"github.com/dailyyoga/jsonify/db"
	"github.com/dailyyoga/jsonify/logger"
	"github.com/dailyyoga/jsonify/syncer"
	"github.com/dailyyoga/jsonify/wordpress"
	"go.uber.org/zap"
)

// app owns the connections opened by one command and closes them in
// reverse order
type app struct {
	cfg     *config.Config
	logger  logger.Logger
	stdout  io.Writer
	closers []func() error
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("shutdown step failed", zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

// engine wires the WordPress gateway, the cache store and, when
// ClickHouse is configured, the sync journal
func (a *app) engine(ctx context.Context) (*syncer.Engine, error) {
	database, err := db.NewMySQL(a.logger, &a.cfg.DB)
	if err != nil {
		return nil, err
	}
	a.onClose(database.Close)

	gw, err := wordpress.New(a.logger, database, &a.cfg.WordPress)
	if err != nil {
		return nil, err
	}

	cacheCfg := a.cfg.Cache
	if cacheCfg.Slug == "" {
		meta, err := gw.SiteMetadata(ctx)
		if err != nil {
			return nil, err
		}
		cacheCfg.Slug = meta.Slug
	}
	store, err := cache.New(a.logger, &cacheCfg)
	if err != nil {
		return nil, err
	}

	opts := []syncer.Option{syncer.WithFeedConfig(&a.cfg.Feed)}
	if a.cfg.ClickHouse.Enabled() {
		site := a.cfg.Syncer.Site
		if site == "" {
			site = cacheCfg.Slug
		}
		journal, err := a.journal(ctx, site)
		if err != nil {
			return nil, err
		}
		opts = append(opts, syncer.WithJournal(journal))
	}

	return syncer.New(a.logger, store, gw, &a.cfg.Syncer, opts...)
}

func (a *app) clickhouse(ctx context.Context) (ch.Client, error) {
	client, err := ch.NewClient(ctx, a.logger, &a.cfg.ClickHouse)
	if err != nil {
		return nil, err
	}
	a.onClose(client.Close)
	return client, nil
}

func (a *app) journal(ctx context.Context, site string) (syncer.Journal, error) {
	client, err := a.clickhouse(ctx)
	if err != nil {
		return nil, err
	}
	if err := ch.CreateSyncLogTable(ctx, client); err != nil {
		return nil, err
	}
	w, err := client.Writer()
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return syncer.NewClickHouseJournal(a.logger, w, site), nil
}
