package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "github.com/park285/arcadescore-live/internal/config"
	"github.com/park285/arcadescore-live/internal/apiclient"
	"github.com/park285/arcadescore-live/internal/display"
	"github.com/park285/arcadescore-live/internal/dragorder"
	"github.com/park285/arcadescore-live/internal/games"
	"github.com/park285/arcadescore-live/internal/localstore"
	"github.com/park285/arcadescore-live/internal/msgcat"
	"github.com/park285/arcadescore-live/internal/obslog"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/internal/players"
	"github.com/park285/arcadescore-live/internal/progress"
	"github.com/park285/arcadescore-live/internal/pushws"
	"github.com/park285/arcadescore-live/internal/router"
	"github.com/park285/arcadescore-live/internal/settings"
	"github.com/park285/arcadescore-live/internal/styles"
	"github.com/park285/arcadescore-live/internal/transfer"
	"github.com/park285/arcadescore-live/internal/ui"
	"github.com/park285/arcadescore-live/internal/wizard"
	"go.uber.org/zap"
)

// localState is what the agent keeps between restarts.
type localState interface {
	settings.Cache
	transfer.Sessions
	LoadSettings(ctx context.Context, roomID string) (settings.Settings, bool, error)
	Close() error
}

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	msgs, err := msgcat.New(os.Getenv("MESSAGES_DIR"))
	if err != nil {
		logger.Fatal("message catalog init error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	local := openLocalState(ctx, cfg, logger)
	defer func() { _ = local.Close() }()

	api := apiclient.New(cfg.APIBaseURL,
		apiclient.WithUser(cfg.UserID),
		apiclient.WithHeaderProvider(cfg.Headers),
	)

	pc := page.Context{RoomID: cfg.RoomID, UserID: cfg.UserID}
	pg := page.New(pc, obslog.Named("page"))
	doc := pg.Doc()
	surface := ui.Surface{B: pg, Log: obslog.Named("ui")}

	initial := settings.Defaults()
	initial.DateFormat = cfg.DateFormat
	if cached, ok, err := local.LoadSettings(ctx, cfg.RoomID); err != nil {
		logger.Warn("settings_cache_read_failed", zap.Error(err))
	} else if ok {
		initial = cached
	}
	store := settings.NewStore(cfg.RoomID, initial, api, cfg.SettingsDebounce,
		settings.WithCache(local),
		settings.WithLogger(obslog.Named("settings")),
		settings.WithOnSaved(settings.SaveAlerts(surface, msgs)),
	)

	drag := dragorder.New(doc, page.GameListID, api, obslog.Named("dragorder"))
	rec := games.New(doc,
		games.WithBinder(drag),
		games.WithTextFitter(surface),
		games.WithDates(store),
		games.WithLogger(obslog.Named("games")),
	)
	styleHandler := styles.NewHandler(pc, doc, rec, obslog.Named("styles"))
	playerList := players.NewList(doc, obslog.Named("players"))
	modal := progress.NewModal(doc, msgs, obslog.Named("progress"))
	exports := progress.NewExports(cfg.ExportDir, api, local, modal, pg, obslog.Named("exports"))

	reloader := &display.Reloader{
		Src:     api,
		Poster:  pg,
		Games:   rec,
		Styles:  styleHandler,
		Players: playerList,
		Listing: wizard.NewListing(doc, obslog.Named("listing")),
		Log:     obslog.Named("reload"),
	}
	xfer := transfer.New(api, local, modal, pg, cfg.ExportDir,
		transfer.WithRefresher(reloader),
		transfer.WithMessages(msgs),
		transfer.WithLogger(obslog.Named("transfer")),
	)

	rt := router.New(pc, pg, router.Targets{
		Games:    rec,
		Styles:   styleHandler,
		Players:  playerList,
		Progress: modal,
		Exports:  exports,
	}, obslog.Named("router"))

	push := pushws.New(cfg.PushWSURL,
		pushws.WithReconnect(cfg.PushMaxReconnect, cfg.PushReconnectDelay),
		pushws.WithHeaderProvider(cfg.Headers),
		pushws.WithLogger(obslog.Named("push")),
	)
	push.OnStateChange(func(state pushws.State) {
		logger.Info("push_state", zap.Stringer("state", state))
	})
	push.OnMessage(rt.Dispatch)

	actions := display.NewActions(pg, doc,
		display.WithDrag(drag),
		display.WithVisibility(rec, api, api),
		display.WithSettings(store),
		display.WithStyleActions(styles.NewActions(api, reloader, surface, msgs, obslog.Named("styles"))),
		display.WithTransfer(xfer),
		display.WithReloader(reloader),
		display.WithPlayers(players.NewService(api, surface, msgs, obslog.Named("players"))),
		display.WithAdmin(settings.NewAdmin(cfg.RoomID, api, surface, msgs, obslog.Named("settings"))),
		display.WithPreview(ui.NewHTTPProber(cfg.APIBaseURL)),
		display.WithWizard(func() *wizard.Wizard {
			return wizard.New(api, cfg.PageHTTPS, surface, msgs, obslog.Named("wizard"))
		}, pg),
		display.WithNotifier(surface, msgs),
		display.WithLogger(obslog.Named("display")),
	)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           display.New(pg, actions, obslog.Named("display")).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = pg.Run(ctx)
	}()

	if err := reloader.ReloadAll(ctx); err != nil {
		logger.Warn("initial_load_incomplete", zap.Error(err))
	}
	if err := push.Connect(ctx); err != nil {
		logger.Warn("push_connect_failed", zap.Error(err))
	}

	go func() {
		logger.Info("display_listening", zap.String("addr", cfg.ListenAddr), zap.String("room_id", cfg.RoomID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("display_server_failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = push.Close(shutdownCtx)
	if err := store.Close(shutdownCtx); err != nil {
		logger.Warn("settings_flush_failed", zap.Error(err))
	}
	<-loopDone
}

func openLocalState(ctx context.Context, cfg *appcfg.AppConfig, logger *zap.Logger) localState {
	if cfg.RedisURL == "" {
		return localstore.NewMemory()
	}
	s, err := localstore.Open(ctx, cfg.RedisURL, cfg.UserID)
	if err != nil {
		logger.Warn("redis_unavailable_using_memory", zap.Error(err))
		return localstore.NewMemory()
	}
	return s
}
