package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmcdole/shelf/internal/api"
	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/config"
	"github.com/mmcdole/shelf/internal/session"
	"github.com/mmcdole/shelf/internal/store"
)

// App wires the client stack together for one backend
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *store.Store
	Session *session.Session
	Client  *api.Client
	Catalog *catalog.Service
	Images  api.ImageResolver

	closers []io.Closer
}

// NewApp builds the stack described by cfg. The session is restored from
// the store before NewApp returns.
func NewApp(cfg *config.Config, logger *slog.Logger, version string) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.Open(cfg.Data.Dir, cfg.Server.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	sess := session.New(st, nil, logger)
	client, err := api.NewClient(api.Options{
		BaseURL:           cfg.Server.URL,
		BasePath:          cfg.Server.BasePath,
		Timeout:           cfg.API.Timeout,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		MaxRetries:        cfg.API.MaxRetries,
		RetryDelay:        cfg.API.RetryDelay,
		UserAgent:         "shelf/" + version,
	}, sess, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}
	sess.SetAuth(client)
	sess.Init()

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		Session: sess,
		Client:  client,
		Catalog: catalog.NewService(client, sess, st, logger),
		Images:  client.Images(cfg.Server.UploadsPath, cfg.UI.PlaceholderCover),
		closers: []io.Closer{st},
	}, nil
}

// Logout ends the session and drops catalog state
func (a *App) Logout() error {
	err := a.Session.Logout()
	a.Catalog.Reset()
	return err
}

// Close releases the store and any other held resources
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
