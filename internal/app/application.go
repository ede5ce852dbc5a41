package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Rorical/rorigreet/internal/backend"
	"github.com/Rorical/rorigreet/internal/backend/greetd"
	"github.com/Rorical/rorigreet/internal/backend/pam"
	"github.com/Rorical/rorigreet/internal/backend/script"
	"github.com/Rorical/rorigreet/internal/classifier"
	"github.com/Rorical/rorigreet/internal/config"
	"github.com/Rorical/rorigreet/internal/core"
	"github.com/Rorical/rorigreet/internal/dispatcher"
	"github.com/Rorical/rorigreet/internal/eventbus"
	"github.com/Rorical/rorigreet/internal/launcher"
	"github.com/Rorical/rorigreet/internal/locale"
	"github.com/Rorical/rorigreet/internal/sessions"
	"github.com/Rorical/rorigreet/internal/users"
)

// ErrNotLaunched is returned by Start when the user quit without starting
// a session.
var ErrNotLaunched = errors.New("greeter closed without starting a session")

// Options configures NewApplication.
type Options struct {
	Settings *config.Settings
	Logger   *zap.Logger
	// Identity starts an attempt for this user (or "*guest"/"*other") at
	// once.
	Identity string
}

// Application manages the complete greeter lifecycle
type Application struct {
	settings   *config.Settings
	log        *zap.Logger
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	backend    backend.Backend
	catalog    *sessions.Catalog
	store      *config.Store
	service    *core.Service
	identity   string
}

func NewApplication(opts Options) (*Application, error) {
	cfg := opts.Settings
	if cfg == nil {
		return nil, errors.New("no settings")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	lang := cfg.Locale
	if lang == "" {
		lang = os.Getenv("LANG")
	}
	tr, err := locale.New(lang, cfg.Translations)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	catalog, err := sessions.Load(cfg.SessionsDirs, lang, log.Named("sessions"))
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	store, err := config.OpenStore(cfg.StatePath())
	if err != nil {
		return nil, err
	}

	dir, err := newUserDirectory(cfg)
	if err != nil {
		return nil, err
	}

	be, starter, err := newBackend(cfg, log)
	if err != nil {
		return nil, err
	}

	launch, err := newLauncher(cfg, starter, catalog, log.Named("launcher"))
	if err != nil {
		be.Close()
		return nil, err
	}

	eb := eventbus.NewEventBus()
	eb.SetErrorCallback(func(e eventbus.EventBusError) {
		log.Debug("event bus", zap.String("op", e.Operation), zap.Error(e.Err))
	})

	svc := core.NewService(eb, core.ServiceOptions{
		Options: core.Options{
			Backend:         be,
			Classifier:      classifier.New(tr),
			Translator:      tr,
			Users:           dir,
			Store:           store,
			Launcher:        launch,
			Logger:          log.Named("core"),
			UsernameEntry:   cfg.ShowUsernameEntry,
			NumericIDPrefix: cfg.NumericIDPrefix,
			LoginTimeout:    cfg.LoginTimeout,
		},
		Sessions: catalog,
		Identity: opts.Identity,
	})

	return &Application{
		settings:   cfg,
		log:        log,
		eventBus:   eb,
		dispatcher: dispatcher.NewEventDispatcher(eb),
		backend:    be,
		catalog:    catalog,
		store:      store,
		service:    svc,
		identity:   opts.Identity,
	}, nil
}

func newBackend(cfg *config.Settings, log *zap.Logger) (backend.Backend, launcher.SessionStarter, error) {
	hints := backend.Hints{
		DefaultSession:   cfg.Hints.DefaultSession,
		LockHint:         cfg.Hints.LockHint,
		AutologinGuest:   cfg.Hints.AutologinGuest,
		AutologinUser:    cfg.Hints.AutologinUser,
		AutologinTimeout: cfg.Hints.AutologinTimeout,
	}
	switch cfg.Backend {
	case "pam":
		return pam.New(pam.Config{
			Service:          cfg.PAM.Service,
			AutologinService: cfg.PAM.AutologinService,
			Tty:              cfg.PAM.Tty,
			Hints:            hints,
		}, log.Named("backend.pam")), nil, nil
	case "greetd":
		b := greetd.New(greetd.Config{
			Socket:         cfg.Greetd.Socket,
			UsernamePrompt: cfg.Greetd.UsernamePrompt,
			Hints:          hints,
		}, log.Named("backend.greetd"))
		return b, b, nil
	case "script":
		// The script carries its own hints.
		s, err := script.Load(cfg.Script)
		if err != nil {
			return nil, nil, err
		}
		return script.New(s, log.Named("backend.script")), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func newUserDirectory(cfg *config.Settings) (core.UserDirectory, error) {
	if cfg.Users.Source == "static" {
		return users.NewStatic(cfg.Users.Static), nil
	}
	return users.NewAccounts()
}

// newLauncher returns a nil Launcher for "none"; the core then reports every
// launch as failed.
func newLauncher(cfg *config.Settings, starter launcher.SessionStarter, catalog launcher.Catalog, log *zap.Logger) (core.Launcher, error) {
	switch cfg.LauncherKind() {
	case "greetd":
		if starter == nil {
			return nil, errors.New("launcher greetd needs the greetd backend")
		}
		return launcher.NewGreetd(starter, catalog, log), nil
	case "command":
		return launcher.NewCommand(cfg.Launcher.Command, catalog, log)
	}
	log.Warn("no session launcher configured")
	return nil, nil
}

// Frontend drives the greeter until the user is done.
type Frontend func(ctx context.Context, d *dispatcher.EventDispatcher) error

// RunWith runs the core, the session watcher and front together. It
// returns when front does.
func (app *Application) RunWith(ctx context.Context, front Frontend) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.service.Run(gctx)
	})
	g.Go(func() error {
		return app.catalog.Watch(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return front(gctx, app.dispatcher)
	})
	return g.Wait()
}

// Start runs the Bubble Tea greeter.
func (app *Application) Start(ctx context.Context) error {
	model := NewAppModel(app.dispatcher, app.identity, app.settings.Languages)
	err := app.RunWith(ctx, func(ctx context.Context, _ *dispatcher.EventDispatcher) error {
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if !model.Launched() {
		return ErrNotLaunched
	}
	return nil
}

// Store is the persisted greeter state.
func (app *Application) Store() *config.Store {
	return app.store
}

func (app *Application) Stop() {
	app.service.Stop()
	if err := app.backend.Close(); err != nil {
		app.log.Warn("close backend", zap.Error(err))
	}
	app.eventBus.Close()
	_ = app.log.Sync()
}
