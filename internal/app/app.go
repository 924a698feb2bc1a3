package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/studynotes-backend/internal/data/repos/lessons"
	apphttp "github.com/yungbote/studynotes-backend/internal/http"
	httpH "github.com/yungbote/studynotes-backend/internal/http/handlers"
	"github.com/yungbote/studynotes-backend/internal/observability"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
	"github.com/yungbote/studynotes-backend/internal/platform/openai"
	"github.com/yungbote/studynotes-backend/internal/realtime"
	"github.com/yungbote/studynotes-backend/internal/realtime/bus"
	"github.com/yungbote/studynotes-backend/internal/services"
	"github.com/yungbote/studynotes-backend/internal/viewstate"
)

type Options struct {
	ConfigPath string
	// RequireAI fails startup when no API key is configured. Commands that never
	// generate leave it false.
	RequireAI bool
	// NoSplash boots the view immediately regardless of SPLASH_DELAY_MS.
	NoSplash bool
	// Quiet replaces the configured logger with a no-op one (CLI output modes).
	Quiet bool
	// Serve enables the redis fan-out. One-shot commands publish locally only.
	Serve bool
}

type App struct {
	Log        *logger.Logger
	Cfg        Config
	Metrics    *observability.Metrics
	Lessons    lessons.LessonRepo
	Generation services.GenerationService
	Hub        *realtime.SSEHub
	Publisher  *realtime.Publisher
	Controller *viewstate.Controller
	Server     *apphttp.Server

	store        storeHandle
	otelShutdown func(context.Context) error
}

func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := LoadConfig(opts.ConfigPath, nil)
	if err != nil {
		return nil, err
	}
	var log *logger.Logger
	if opts.Quiet {
		log = logger.Nop()
	} else if log, err = logger.New(cfg.LogMode); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics := observability.Init(log, cfg.Metrics.Enabled)
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Enabled:     cfg.Otel.Enabled,
		Endpoint:    cfg.Otel.Endpoint,
	})

	store, err := openStore(cfg, log, opts.Quiet)
	if err != nil {
		log.Error("Lesson store bootstrap failed", "error_code", storeBootstrapErrorCode(err), "error", err)
		log.Sync()
		return nil, err
	}
	repo := lessons.NewLessonRepo(ctx, store.Store, log, lessons.Options{})
	metrics.SetLessonCount(len(repo.List(ctx)))

	ai, err := wireAI(cfg, log, opts.RequireAI)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}
	gen := services.NewGenerationService(log, ai)

	hub := realtime.NewSSEHub(log)
	var fanout realtime.Fanout
	if cfg.Redis.Addr != "" && opts.Serve {
		fanout, err = bus.NewRedisBus(bus.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		}, log)
		if err != nil {
			_ = store.Close()
			log.Sync()
			return nil, fmt.Errorf("init redis SSE bus: %w", err)
		}
	}
	publisher := realtime.NewPublisher(hub, fanout, realtime.DefaultChannel, log)

	splash := time.Duration(cfg.SplashDelayMS) * time.Millisecond
	if opts.NoSplash {
		splash = 0
	}
	ctrl := viewstate.NewController(repo, gen, countingPublisher(publisher, repo, metrics), log, viewstate.Options{SplashDelay: splash})

	server := apphttp.NewServer(cfg.Address(), apphttp.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		ServiceName:     cfg.ServiceName,
		CORSOrigins:     cfg.CORSOrigins,
		HealthHandler:   httpH.NewHealthHandler(repo),
		ViewHandler:     httpH.NewViewHandler(log, ctrl),
		LessonHandler:   httpH.NewLessonHandler(log, ctrl),
		RealtimeHandler: httpH.NewRealtimeHandler(log, hub, ctrl, realtime.DefaultChannel),
	})

	return &App{
		Log:          log,
		Cfg:          cfg,
		Metrics:      metrics,
		Lessons:      repo,
		Generation:   gen,
		Hub:          hub,
		Publisher:    publisher,
		Controller:   ctrl,
		Server:       server,
		store:        store,
		otelShutdown: otelShutdown,
	}, nil
}

func wireAI(cfg Config, log *logger.Logger, required bool) (openai.Client, error) {
	client, err := openai.NewClientFromConfig(openai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		Timeout:     time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
		MaxRetries:  cfg.OpenAI.MaxRetries,
		Temperature: openai.ParseTemperature(cfg.OpenAI.Temperature, log),
	}, log)
	if err == nil {
		return client, nil
	}
	if required {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	log.Warn("AI generation unavailable", "error", err)
	return openai.Unavailable(err), nil
}

// countingPublisher keeps the lesson gauge in step with create and delete events.
func countingPublisher(next viewstate.Publisher, repo lessons.LessonRepo, m *observability.Metrics) viewstate.Publisher {
	return viewstate.PublisherFunc(func(ev viewstate.Event) {
		switch ev.Type {
		case viewstate.EventLessonCreated, viewstate.EventLessonDeleted:
			m.SetLessonCount(len(repo.List(context.Background())))
		}
		next.Publish(ev)
	})
}

// Run serves HTTP until ctx ends or SIGINT/SIGTERM arrives, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.Address())
		return a.Server.Run()
	})
	g.Go(func() error {
		return a.Publisher.Run(gctx)
	})
	g.Go(func() error {
		if err := a.Controller.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Publisher != nil {
		_ = a.Publisher.Close()
	}
	if err := a.store.Close(); err != nil && a.Log != nil {
		a.Log.Warn("Store close failed", "error", err)
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
