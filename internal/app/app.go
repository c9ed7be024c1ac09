package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vschac/CSDaily/internal/config"
	"github.com/vschac/CSDaily/internal/domain"
	"github.com/vschac/CSDaily/internal/facts"
	"github.com/vschac/CSDaily/internal/httpapi"
	"github.com/vschac/CSDaily/internal/identity"
	"github.com/vschac/CSDaily/internal/scheduler"
	"github.com/vschac/CSDaily/internal/session"
	"github.com/vschac/CSDaily/internal/sms"
	"github.com/vschac/CSDaily/internal/store"
)

// App owns the wired components and their lifecycle. External clients are
// constructed once here and passed down; nothing reaches for globals.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	repo    store.Repo
	httpSrv *http.Server
	sched   *scheduler.Scheduler
}

// New wires the application: store, fact corpus, external clients, session
// manager, HTTP API, and delivery scheduler.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if _, err := domain.ValidateTZ(cfg.DefaultTZ); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TZ %q: %w", cfg.DefaultTZ, err)
	}

	repo, err := store.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	log.Info("sqlite ready", zap.String("path", cfg.DBPath))

	corpus, err := facts.Load()
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	if err := repo.SeedFacts(ctx, corpus); err != nil {
		_ = repo.Close()
		return nil, err
	}
	log.Info("fact corpus seeded", zap.Int("facts", len(corpus)))

	ids := identity.NewHTTPProvider(cfg.IdentityBaseURL, cfg.IdentityAPIKey)
	sender := sms.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)

	sessions := session.NewManager(log, repo, ids, sender, cfg.DefaultRegion, cfg.DebounceWindow())
	api := httpapi.New(log, sessions, ids, sender)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	sched := scheduler.New(repo, log, sender, cfg.DefaultTZ, cfg.PollInterval)

	return &App{cfg: cfg, log: log, repo: repo, httpSrv: srv, sched: sched}, nil
}

// Run serves HTTP and the delivery scheduler until a shutdown signal.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting csdaily",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("tz", a.cfg.DefaultTZ),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		a.sched.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.httpSrv.Shutdown(shCtx); err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
		return nil
	})

	err := g.Wait()
	if cerr := a.repo.Close(); cerr != nil {
		a.log.Warn("store close error", zap.Error(cerr))
	}
	return err
}
