package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gostatsplot/adapters/excel"
	"gostatsplot/adapters/postgres"
	"gostatsplot/app"
	"gostatsplot/internal"
	"gostatsplot/internal/config"
	"gostatsplot/internal/errors"
	"gostatsplot/internal/testkit"
	"gostatsplot/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure; nil without a database URL
	DB *sqlx.DB

	Runs   ports.RunStore
	Tables ports.TableLoader // nil without a database
	Reader *excel.DataReader
	Plots  *app.StatsPlotService
}

// New creates a container. With a database URL runs are stored in
// PostgreSQL after pending migrations are applied; otherwise they live in
// memory for the life of the process.
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Database.URL == "" {
		c := newContainer(cfg, logger)
		c.Runs = testkit.NewInMemoryRunStore()
		c.init()
		c.Logger.Info("[Container] no database configured, runs are kept in memory")
		return c, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()
	db, err := postgres.Open(connectCtx, cfg.Database.URL)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	return NewWithDB(ctx, cfg, db, logger)
}

// NewWithDB creates a container over an open database, applying pending
// migrations first
func NewWithDB(ctx context.Context, cfg *config.Config, db *sqlx.DB, logger *internal.Logger) (*Container, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}
	c := newContainer(cfg, logger)
	applied, err := postgres.NewMigrator(db).Up(ctx)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	for _, name := range applied {
		c.Logger.Info("[Container] applied migration %s", name)
	}
	c.DB = db
	c.Runs = postgres.NewRunRepository(db)
	c.Tables = postgres.NewTableLoader(db)
	c.init()
	return c, nil
}

func newContainer(cfg *config.Config, logger *internal.Logger) *Container {
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	}
	return &Container{Config: cfg, Logger: logger}
}

func (c *Container) init() {
	c.Reader = excel.NewDataReader(excel.DefaultReaderConfig(), c.Logger)
	c.Plots = app.NewStatsPlotService(c.Logger, c.Runs)
}

// Close releases the database pool
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
