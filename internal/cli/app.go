package cli

import (
	"errors"
	"fmt"

	"github.com/soyeahso/scambot/internal/config"
	"github.com/soyeahso/scambot/internal/hooks"
	"github.com/soyeahso/scambot/internal/line"
	"github.com/soyeahso/scambot/internal/logging"
	"github.com/soyeahso/scambot/internal/media"
	"github.com/soyeahso/scambot/internal/pipeline"
	"github.com/soyeahso/scambot/internal/risk"
	"github.com/soyeahso/scambot/internal/store"
	"github.com/soyeahso/scambot/internal/warning"
	"github.com/soyeahso/scambot/internal/webhook"
)

// app holds the wired collaborators shared by the commands.
type app struct {
	client   *line.Client
	history  store.ConversationStore
	pipeline *pipeline.Pipeline
	closers  []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func newLineClient(cfg config.Config, logger *logging.Logger) *line.Client {
	return line.New(line.Options{
		AccessToken:         cfg.LINE.AccessToken,
		APIBase:             cfg.LINE.APIBase,
		DataBase:            cfg.LINE.DataBase,
		Timeout:             cfg.Outbound.Timeout(),
		RetryMax:            cfg.Outbound.RetryMax,
		BreakerEnabled:      cfg.Outbound.Breaker.Enabled,
		BreakerFailures:     cfg.Outbound.Breaker.ConsecutiveFailures,
		BreakerOpenDuration: cfg.Outbound.Breaker.OpenDuration(),
		Logger:              logger,
	})
}

// newTextClassifier returns the keyword classifier, fronted by the remote
// analysis API when an endpoint is configured.
func newTextClassifier(cfg config.Config, profiles risk.ProfileSource, logger *logging.Logger) risk.TextClassifier {
	keyword := risk.NewKeywordClassifier()
	if cfg.Analysis.Endpoint == "" {
		return keyword
	}
	remote := risk.NewRemoteClassifier(cfg.Analysis.Endpoint, profiles, cfg.Analysis.Timeout(), cfg.Outbound.RetryMax, logger)
	return risk.WithFallback(remote, keyword, logger)
}

func newHistoryStore(cfg config.Config, logger *logging.Logger) (store.ConversationStore, func() error, error) {
	switch cfg.History.Store {
	case "sqlite":
		if err := paths.EnsureDirs(); err != nil {
			return nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
		db, err := store.Open(paths.HistoryDB(), logger)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLiteHistory(db, cfg.History.MaxPerUser), db.Close, nil
	default:
		return store.NewMemoryStore(cfg.History.Shards, cfg.History.MaxPerUser), func() error { return nil }, nil
	}
}

// buildApp wires the webhook pipeline from cfg.
func buildApp(cfg config.Config, hm *hooks.Manager, logger *logging.Logger) (*app, error) {
	client := newLineClient(cfg, logger)

	history, closeHistory, err := newHistoryStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(pipeline.Deps{
		Verifier:        webhook.NewVerifier(cfg.LINE.SigningKey, logger.Sub("webhook")),
		Store:           history,
		TextClassifier:  newTextClassifier(cfg, client, logger),
		Images:          media.NewRetriever(client, cfg.Media.Dir, logger),
		ImageClassifier: risk.NewHeuristicImageClassifier(cfg.Media.SmallBytes),
		Composer:        warning.Composer{},
		Replier:         client,
		Hooks:           hm,
		Logger:          logger,
	})

	return &app{
		client:   client,
		history:  history,
		pipeline: p,
		closers:  []func() error{closeHistory},
	}, nil
}
