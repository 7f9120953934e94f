package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"sales-leaderboard/internal/alerting"
	"sales-leaderboard/internal/audio"
	"sales-leaderboard/internal/clock"
	"sales-leaderboard/internal/config"
	"sales-leaderboard/internal/leaderboard"
	"sales-leaderboard/internal/realtime"
	"sales-leaderboard/internal/sales"
	"sales-leaderboard/internal/scheduler"
	"sales-leaderboard/internal/server"
	"sales-leaderboard/internal/service"
	"sales-leaderboard/internal/storage"
	"sales-leaderboard/internal/websocket"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Telegram.Enabled {
		return nil
	}
	cfg := a.Config.Alerting.Telegram
	return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Config.Location(), a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) boardOptions() leaderboard.Options {
	return leaderboard.Options{
		KnownTeams: a.Config.Leaderboard.KnownTeams,
		Aliases:    a.Config.Leaderboard.TeamAliases,
		TopMembers: a.Config.Leaderboard.TopMembers,
	}
}

func (a *App) newPlanResolver() (*audio.Resolver, error) {
	rules, err := audio.RulesFromConfig(a.Config.Audio.Rules)
	if err != nil {
		return nil, fmt.Errorf("audio.rules: %w", err)
	}
	resolver, err := audio.NewResolver(rules)
	if err != nil {
		return nil, fmt.Errorf("audio.rules: %w", err)
	}
	return resolver, nil
}

// build wires every runtime component. store may be nil, in which case the leaderboard stays
// empty and sales only arrive through the simulate endpoint.
func (a *App) build(store *storage.Store) (*service.Service, error) {
	cfg := a.Config
	clk := clock.Real{}

	plans, err := a.newPlanResolver()
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub(cfg.Server.AllowedOrigins, a.Logger)

	orchestrator := audio.NewOrchestrator(audio.Options{
		BellPath:          cfg.Audio.BellPath,
		MetadataTimeout:   cfg.Audio.MetadataTimeout,
		BellFallbackDelay: cfg.Audio.BellFallbackDelay,
		BellLead:          cfg.Audio.BellLead,
		BellLoop:          cfg.Audio.BellLoop,
	}, websocket.NewCuePlayer(hub, cfg.Audio.PublicPrefix), audio.NewMP3Prober(cfg.Audio.AssetsDir), clk, a.Logger)

	var (
		profiles storage.ProfileStore
		ranking  storage.RankingStore
		fetcher  alerting.ProfileFetcher
	)
	if store != nil {
		profiles, ranking, fetcher = store, store, store
	}

	directory := alerting.NewDirectory()
	sellers := alerting.NewSellerResolver(alerting.SellerOptions{
		LookupTimeout:            cfg.Alerting.LookupTimeout,
		SyntheticPrefix:          cfg.Alerting.SyntheticPrefix,
		PlaceholderName:          cfg.Alerting.PlaceholderName,
		SyntheticPlaceholderName: cfg.Alerting.SyntheticPlaceholderName,
	}, directory, fetcher, a.Logger)

	sequencer := alerting.NewSequencer(alerting.Options{
		DisplayDuration: cfg.Alerting.DisplayDuration,
		ViewCompletion:  cfg.Alerting.ViewCompletion,
		SideEffectLimit: cfg.Alerting.Telegram.Timeout,
	}, alerting.NewQueue(cfg.Alerting.QueueWarnDepth, a.Logger), sellers, plans, orchestrator,
		websocket.NewAlertPresenter(hub), clk, a.Logger)
	if notifier := a.newNotifier(); notifier != nil {
		sequencer.SetNotifier(notifier)
	}
	if store != nil {
		sequencer.SetRecorder(store)
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     cfg.Refresh.Interval,
		AlignToStart: cfg.Refresh.AlignToInterval,
		Debounce:     cfg.Refresh.Debounce,
		RunAtStart:   true,
	}, a.Logger)

	pipeline := service.NewPipeline(sales.NewDeduplicator(), sequencer, sched, a.Logger)

	refresher := service.NewRefresher(service.RefreshOptions{
		Board:        a.boardOptions(),
		Location:     cfg.Location(),
		QueryTimeout: cfg.Database.QueryTimeout,
	}, profiles, ranking, directory, websocket.NewLeaderboardPublisher(hub), a.Logger)

	var listener *realtime.Listener
	if store != nil {
		listener = realtime.NewListener(store.Pool(), realtime.Options{
			Channel:      cfg.Realtime.Channel,
			ReconnectMin: cfg.Realtime.ReconnectMin,
			ReconnectMax: cfg.Realtime.ReconnectMax,
			OnConnected: func(context.Context) {
				// events may have been missed while disconnected
				sched.Trigger("realtime_connected")
			},
		}, a.Logger)
	}

	srv := server.New(server.Options{
		Addr:              cfg.Server.Addr,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		AssetsDir:         cfg.Audio.AssetsDir,
		PublicPrefix:      cfg.Audio.PublicPrefix,
		SyntheticPrefix:   cfg.Alerting.SyntheticPrefix,
	}, server.Deps{
		Screens: hub,
		Alerts:  sequencer,
		Board:   refresher,
		Sales:   pipeline,
	}, a.Logger)

	return service.New(service.Components{
		Hub:       hub,
		Sequencer: sequencer,
		Pipeline:  pipeline,
		Refresher: refresher,
		Scheduler: sched,
		Listener:  listener,
		Server:    srv,
	}, a.Logger), nil
}

// Run executes the long-running leaderboard service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; realtime feed and ranking disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	svc, err := a.build(store)
	if err != nil {
		return err
	}

	a.Logger.Info().Str("addr", a.Config.Server.Addr).Msg("starting leaderboard service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("leaderboard service stopped")
	return nil
}

// ExportOptions hold parameters for exporting the weekly ranking.
type ExportOptions struct {
	Date    *time.Time
	PNGPath string
	CSVPath string
	Top     int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// SimulateOptions describe a synthetic sale.
type SimulateOptions struct {
	Value       string
	SellerName  string
	ProcessType string
	// ServerURL posts to a running server instead of the NOTIFY channel.
	ServerURL string
}
