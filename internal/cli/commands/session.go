package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/lineage/internal/cli/config"
	"github.com/conduit-lang/lineage/internal/cli/ui"
	"github.com/conduit-lang/lineage/internal/host"
	"github.com/conduit-lang/lineage/internal/logging"
	"github.com/conduit-lang/lineage/pkg/cache"
	"github.com/conduit-lang/lineage/runtime/hierarchy"
)

// session is a built registry over the configured project
type session struct {
	opts     *globalOptions
	cfg      *config.Config
	project  *host.Project
	registry *hierarchy.Registry
	logger   *zap.Logger
	closers  []func() error
}

// openSession loads configuration and the manifest, then builds the registry.
// A registry whose build failed is still returned so diagnostics can be read.
func openSession(ctx context.Context, opts *globalOptions) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, &renderedError{text: ui.ConfigError(err.Error(), opts.noColor), err: err}
	}
	if opts.manifest != "" {
		cfg.Manifest = opts.manifest
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
		Verbose:    opts.verbose,
	})
	if err != nil {
		return nil, err
	}

	s := &session{opts: opts, cfg: cfg, logger: logger}
	s.closers = append(s.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	project, err := host.Load(cfg.Manifest)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.project = project

	verdicts, err := s.openCache(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.registry = hierarchy.New(project, hierarchy.Options{
		AnchorName:        cfg.Anchor.Name,
		AnchorBase:        cfg.Anchor.Base,
		ExclusionProperty: cfg.Anchor.ExclusionProperty,
		Cache:             verdicts,
		Logger:            logger,
	})
	if err := s.registry.Build(); err != nil {
		logger.Debug("registry build failed", zap.Error(err))
	}
	return s, nil
}

func (s *session) openCache(ctx context.Context) (hierarchy.Cache, error) {
	if s.cfg.Cache.Backend != config.BackendRedis {
		return hierarchy.NewMemoryCache(), nil
	}

	redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     s.cfg.Cache.Redis.Addr,
		Password: s.cfg.Cache.Redis.Password,
		DB:       s.cfg.Cache.Redis.DB,
		Prefix:   s.cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, redisCache.Close)
	s.logger.Debug("using redis verdict cache", zap.String("addr", s.cfg.Cache.Redis.Addr))
	return redisCache, nil
}

// Close releases the cache connection and flushes the logger
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// withSession opens a session for the duration of a command
func withSession(opts *globalOptions, fn func(cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if _, err := newFormatter(opts.format, cmd.OutOrStdout()); err != nil {
			return err
		}

		s, err := openSession(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(cmd, s, args)
	}
}

// formatter returns the output formatter selected by --format
func (s *session) formatter(cmd *cobra.Command) Formatter {
	f, _ := newFormatter(s.opts.format, cmd.OutOrStdout())
	return f
}

// explain turns registry errors into terminal-ready messages
func (s *session) explain(err error) error {
	var notFound *hierarchy.NotFoundError
	switch {
	case errors.As(err, &notFound):
		excluded := s.registry.Excluded(notFound.Name)
		suggestions := ui.FindSimilar(notFound.Name, s.classNames(), nil)
		return &renderedError{text: ui.ClassNotFoundError(notFound.Name, excluded, suggestions, s.opts.noColor), err: err}
	case hierarchy.IsNotInitialized(err):
		return &renderedError{text: ui.RegistryError(err.Error(), s.opts.noColor), err: err}
	}
	return err
}

func (s *session) classNames() []string {
	classes, err := s.registry.Classes(hierarchy.OriginNone)
	if err != nil {
		return nil
	}
	seen := make(map[string]bool, len(classes))
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names
}

// parseOriginFlag validates an --origin value
func parseOriginFlag(value string) (hierarchy.Origin, error) {
	origin, ok := hierarchy.ParseOrigin(value)
	if !ok {
		return hierarchy.OriginNone, fmt.Errorf("unknown origin %q (supported: native, gdscript, csharp)", value)
	}
	return origin, nil
}
