package core

import (
	"context"
	"fmt"

	"httpredirect/config"
	"httpredirect/internal/cache"
	"httpredirect/internal/metrics"
	"httpredirect/internal/populate"
	"httpredirect/internal/response"
	"httpredirect/internal/server"
	"httpredirect/internal/transport"
	"httpredirect/util"
)

// Options override collaborators Build would otherwise create itself.
type Options struct {
	Binder  transport.Binder   // defaults to *transport.TCPBinder
	Metrics *metrics.Collector // defaults to metrics.New()
}

// Build validates cfg, binds the listening socket and assembles the
// serving loop around it.  The socket is bound before Build returns, so
// the caller may drop privileges before calling Run.
func Build(ctx context.Context, cfg *config.Config, logger *util.Logger, opts Options) (Mode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	templates, err := response.Build(cfg.Destination)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	c, err := cache.New(cfg.CacheCapacity, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	binder := opts.Binder
	if binder == nil {
		binder = &transport.TCPBinder{}
	}
	logger.Debug("binding %s", cfg.ListenAddr())
	ln, err := binder.Bind(ctx, cfg.BindAddr, cfg.Port)
	if err != nil {
		c.Close()
		return nil, err
	}

	sched := populate.New(c, cfg.PopulateDelay, logger, m)

	srv, err := server.New(ln, server.Deps{
		Templates: templates,
		Cache:     c,
		Scheduler: sched,
		Logger:    logger,
		Metrics:   m,
	}, server.Options{
		MaxConns:       cfg.MaxConns,
		ReadBufferSize: cfg.ReadBufferSize,
		PollInterval:   cfg.PollInterval,
		WriteTimeout:   cfg.WriteTimeout,
		ProbeDomain:    config.DefaultProbeDomain,
	})
	if err != nil {
		ln.Close()
		c.Close()
		return nil, err
	}

	logger.Debug("configuration:\n%s", cfg)

	return &ServeMode{
		Listener:  ln,
		Server:    srv,
		Cache:     c,
		Scheduler: sched,
		Metrics:   m,
		Logger:    logger,
	}, nil
}
