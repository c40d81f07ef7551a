// Package app wires configuration, storage and services together for the
// server and the operator CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"familytree/internal/config"
	"familytree/internal/database"
	"familytree/internal/genealogy"
	"familytree/internal/graph"
	"familytree/internal/logging"
	"familytree/internal/repository"
	"familytree/internal/service"
)

// RelationshipStore is a genealogy store that can also purge every edge of
// a person
type RelationshipStore interface {
	genealogy.Store
	service.EdgePurger
}

// App holds the long-lived dependencies of the process
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *database.DB
	// Graph is nil unless the neo4j backend is selected
	Graph graph.Client
	Store RelationshipStore

	FamilyRepo   *repository.FamilyRepository
	PersonRepo   *repository.PersonRepository
	ActivityRepo *repository.ActivityRepository
	Mutator      *genealogy.Mutator

	Families      *service.FamilyService
	Persons       *service.PersonService
	Relationships *service.RelationshipService
	Trees         *service.TreeService
	Activity      *service.ActivityService
	Exports       *service.ExportService
}

// OpenDatabase connects to the configured SQL database
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.InitializeWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("database connection established", slog.String("type", cfg.DatabaseType))

	return &App{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		FamilyRepo:   repository.NewFamilyRepository(db),
		PersonRepo:   repository.NewPersonRepository(db),
		ActivityRepo: repository.NewActivityRepository(db),
	}, nil
}

// Migrate applies pending schema migrations
func (a *App) Migrate(ctx context.Context) error {
	if err := a.DB.RunMigrations(ctx, a.Logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// ConnectStore selects where relationship edges live
func (a *App) ConnectStore(ctx context.Context) error {
	switch strings.ToLower(a.Config.GraphBackend) {
	case "neo4j":
		client, err := buildGraphClient(ctx, a.Config)
		if err != nil {
			return fmt.Errorf("failed to create graph client: %w", err)
		}
		store := graph.NewStore(client, a.PersonRepo)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return err
		}
		a.Graph = client
		a.Store = store
		a.Logger.Info("relationship store ready", slog.String("backend", "neo4j"))
	default:
		a.Store = repository.NewGraphStore(a.DB)
		a.Logger.Info("relationship store ready", slog.String("backend", "sql"))
	}
	return nil
}

// BuildServices creates the application services on top of the store
func (a *App) BuildServices() {
	a.Mutator = genealogy.NewMutator(a.Store, a.ActivityRepo, a.Logger)
	a.Families = service.NewFamilyService(a.FamilyRepo, a.ActivityRepo, a.Logger)
	a.Persons = service.NewPersonService(a.Families, a.PersonRepo, a.Store, a.ActivityRepo, a.Logger)
	a.Relationships = service.NewRelationshipService(a.Families, a.Store, a.Mutator, a.Logger)
	a.Trees = service.NewTreeService(a.Families, genealogy.NewQuery(a.Store), a.Config.Tree)
	a.Activity = service.NewActivityService(a.Families, a.ActivityRepo)
	a.Exports = service.NewExportService(a.Families, a.FamilyRepo, a.PersonRepo, a.Store, a.Mutator, a.Logger)
}

// Start opens the database, runs migrations, connects the store and builds
// the services
func Start(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a, err := OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Migrate(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if err := a.ConnectStore(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.BuildServices()
	return a, nil
}

// Close releases the graph client and the database
func (a *App) Close(ctx context.Context) {
	if a.Graph != nil {
		if err := a.Graph.Close(ctx); err != nil {
			a.Logger.Warn("closing graph client failed", logging.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("closing database failed", logging.Error(err))
		}
	}
}

func buildGraphClient(ctx context.Context, cfg *config.Config) (graph.Client, error) {
	if cfg.Neo4j.URI == "" {
		return nil, graph.ErrMissingURI
	}

	opts := graph.Options{
		URI:            cfg.Neo4j.URI,
		Database:       cfg.Neo4j.Database,
		Username:       cfg.Neo4j.Username,
		Password:       cfg.Neo4j.Password,
		MaxConnections: cfg.Neo4j.MaxConnections,
	}
	return graph.NewNeo4jClient(ctx, opts)
}
