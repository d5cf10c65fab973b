package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/steve-ongera/phoneplace-kenya/internal/api"
	"github.com/steve-ongera/phoneplace-kenya/internal/catalog"
	"github.com/steve-ongera/phoneplace-kenya/internal/config"
	"github.com/steve-ongera/phoneplace-kenya/internal/logger"
	"github.com/steve-ongera/phoneplace-kenya/internal/metrics"
	"github.com/steve-ongera/phoneplace-kenya/internal/session"
	"github.com/steve-ongera/phoneplace-kenya/internal/tokens"
)

var errNotLoggedIn = errors.New("not logged in, run `storefront login` first")

type appOptions struct {
	configFile string
	ephemeral  bool
	logLevel   string
}

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	out     io.Writer
	tokens  tokens.Store
	redis   *redis.Client
	client  *api.Client
	loc     *api.Location
	store   *session.Store
	session *session.Service
	loader  *catalog.Loader
	toasts  *toastPrinter
	unsub   func()
}

func newApp(ctx context.Context, opts appOptions, out io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.ephemeral {
		cfg.Tokens.Backend = "memory"
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	a := &app{
		cfg:    cfg,
		logger: logger.Init(cfg.Log.Level, cfg.Log.Color),
		out:    out,
		loc:    api.NewLocation("/"),
	}

	if cfg.Tokens.Backend == "redis" || cfg.Cache.Backend == "redis" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	switch cfg.Tokens.Backend {
	case "sqlite":
		a.tokens, err = tokens.NewSQLiteStore(cfg.Tokens.Path, cfg.Tokens.Profile)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open token store: %w", err)
		}
	case "redis":
		a.tokens = tokens.NewRedisStore(a.redis, cfg.Tokens.Profile)
	default:
		a.tokens = tokens.NewMemoryStore()
	}

	a.client, err = api.New(cfg.API.URL, a.tokens,
		api.WithTimeout(cfg.API.Timeout),
		api.WithNavigator(api.NavigatorFunc(func(path string) {
			a.loc.Navigate(path)
			if path == api.LoginPath {
				a.logger.Warn("session expired, please log in again")
			}
		})),
		api.WithLogger(a.logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	var cache catalog.Cache
	switch cfg.Cache.Backend {
	case "memory":
		cache = catalog.NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL)
	case "redis":
		cache = catalog.NewRedisCache(a.redis, cfg.Cache.TTL)
	}
	a.loader = catalog.NewLoader(a.client, cache, a.logger)

	a.store = session.NewStore()
	a.session = session.NewService(a.client, a.store, a.tokens, a.logger)
	a.toasts = newToastPrinter(out)
	a.unsub = a.store.Subscribe(a.toasts.Print)

	if cfg.Metrics.Addr != "" {
		metrics.StartServer(ctx, cfg.Metrics.Addr, cfg.Metrics.Path)
	}
	return a, nil
}

func (a *app) Close() {
	if a.unsub != nil {
		a.unsub()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.tokens != nil {
		// the redis token store closes the shared client
		if err := a.tokens.Close(); err != nil {
			a.logger.Warn("closing token store", "err", err)
		}
		if _, shared := a.tokens.(*tokens.RedisStore); shared {
			return
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// requireLogin fails commands that only make sense for a signed-in customer.
func (a *app) requireLogin() error {
	if !a.store.State().LoggedIn() {
		return errNotLoggedIn
	}
	return nil
}
