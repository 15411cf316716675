package server

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/docvault-io/docvault/internal/api"
	"github.com/docvault-io/docvault/internal/config"
	intserver "github.com/docvault-io/docvault/internal/server"
	"github.com/docvault-io/docvault/pkg/database"
	"github.com/docvault-io/docvault/pkg/models"
)

type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Run the DocVault server"
}

func (c *Command) Help() string {
	return `Usage: docvault server [-config=config.hcl]

  Run the DocVault HTTP API server.

  Without -config, the server runs in zero-config mode: SQLite database in
  the working directory, dev-mode auth, listening on 127.0.0.1:8000.
`
}

func (c *Command) Run(args []string) int {
	f := flag.NewFlagSet("server", flag.ContinueOnError)
	f.StringVar(&c.flagConfig, "config", "", "Path to HCL configuration file")
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	var (
		cfg *config.Config
		err error
	)
	if c.flagConfig != "" {
		cfg, err = config.Load(c.flagConfig)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error loading config: %v", err))
			return 1
		}
	} else {
		c.UI.Info("No config file specified, running in zero-config mode")
		cfg = config.Default()
	}

	log := c.Log
	if log == nil {
		log = hclog.Default()
	}
	log = log.Named("server")
	log.SetLevel(hclog.LevelFromString(cfg.LogLevel))

	db, err := database.Connect(database.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		Path:     cfg.Database.Path,
	}, log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error connecting to database: %v", err))
		return 1
	}

	// Postgres deployments are expected to be pre-migrated with
	// docvault-migrate. SQLite is the zero-config path, so migrate in-place.
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(models.ModelsToAutoMigrate()...); err != nil {
			c.UI.Error(fmt.Sprintf("error migrating database: %v", err))
			return 1
		}
	}

	srv := intserver.Server{
		Config: cfg,
		DB:     db,
		Logger: log,
	}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.NewRouter(srv),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout() + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		c.UI.Error(fmt.Sprintf("server error: %v", err))
		return 1
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		c.UI.Error(fmt.Sprintf("error during shutdown: %v", err))
		return 1
	}

	return 0
}
