package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ersonp/canon-core/internal/application/handlers"
	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
	"github.com/ersonp/canon-core/internal/domain/services"
	"github.com/ersonp/canon-core/internal/infrastructure/config"
	embedder "github.com/ersonp/canon-core/internal/infrastructure/embedder/openai"
	llm "github.com/ersonp/canon-core/internal/infrastructure/llm/openai"
	"github.com/ersonp/canon-core/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/canon-core/internal/infrastructure/vectordb/qdrant"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config       *config.Config
	Worlds       *config.WorldsConfig
	WorldID      string
	Records      *handlers.RecordHandler
	Drifts       *handlers.DriftHandler
	Events       *handlers.EventHandler
	Continuities *handlers.ContinuityHandler
	Query        *handlers.QueryHandler
	Suggest      *handlers.SuggestHandler
	Import       *handlers.ImportHandler
}

// internalDeps holds all dependencies including low-level components.
// Used internally by helper functions.
type internalDeps struct {
	Deps
	repo         *qdrant.Repository
	relationalDB *sqlite.Repository
	embedder     *embedder.Embedder
	detector     *services.DriftDetector
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
// Used by commands that need direct repository or service access.
func withInternalDeps(fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	worlds, err := config.LoadWorlds(cwd)
	if err != nil {
		return fmt.Errorf("loading worlds: %w", err)
	}

	if globalWorld == "" {
		return errors.New("world is required (use --world flag)")
	}

	collection, err := worlds.GetCollection(globalWorld)
	if err != nil {
		return err
	}

	qdrantCfg := cfg.Qdrant
	qdrantCfg.Collection = collection

	repo, err := qdrant.NewRepository(qdrantCfg)
	if err != nil {
		return fmt.Errorf("creating qdrant repository: %w", err)
	}
	defer repo.Close()

	// Initialize RelationalDB (SQLite)
	sqlitePath := config.SQLitePathForWorld(cwd, globalWorld)
	relationalDB, err := sqlite.NewRepository(config.SQLiteConfig{Path: sqlitePath})
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer relationalDB.Close()

	// Ensure schema exists
	ctx := context.Background()
	if err := relationalDB.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	worldID := config.SanitizeWorldName(globalWorld)

	// Auto-migrate: seed the default continuity if the world has none
	if err := seedDefaultContinuity(ctx, relationalDB, worldID); err != nil {
		return fmt.Errorf("seeding default continuity: %w", err)
	}

	emb, err := embedder.NewEmbedder(cfg.Embedder)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	detector := services.NewDriftDetector(relationalDB, relationalDB)
	recordService := services.NewRecordService(relationalDB, relationalDB, detector)
	continuityService := services.NewContinuityService(relationalDB)
	eventService := services.NewEventService(relationalDB, repo, emb)
	queryService := services.NewQueryService(emb, repo)
	suggestionService := services.NewSuggestionService(llmClient)

	deps := &internalDeps{
		Deps: Deps{
			Config:       cfg,
			Worlds:       worlds,
			WorldID:      worldID,
			Records:      handlers.NewRecordHandler(recordService, relationalDB),
			Drifts:       handlers.NewDriftHandler(relationalDB, relationalDB),
			Events:       handlers.NewEventHandler(eventService),
			Continuities: handlers.NewContinuityHandler(continuityService),
			Query:        handlers.NewQueryHandler(queryService),
			Suggest:      handlers.NewSuggestHandler(suggestionService),
			Import:       handlers.NewImportHandler(eventService, relationalDB),
		},
		repo:         repo,
		relationalDB: relationalDB,
		embedder:     emb,
		detector:     detector,
	}

	return fn(deps)
}

// withRelationalDB provides direct relational database access without
// building the vector or LLM clients. Used by commands that only read
// sqlite state.
func withRelationalDB(fn func(ports.RelationalDB) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if globalWorld == "" {
		return errors.New("world is required (use --world flag)")
	}

	worlds, err := config.LoadWorlds(cwd)
	if err != nil {
		return fmt.Errorf("loading worlds: %w", err)
	}
	if !worlds.Exists(globalWorld) {
		return fmt.Errorf("world %q not found", globalWorld)
	}

	sqlitePath := config.SQLitePathForWorld(cwd, globalWorld)
	relationalDB, err := sqlite.NewRepository(config.SQLiteConfig{Path: sqlitePath})
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer relationalDB.Close()

	if err := relationalDB.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	return fn(relationalDB)
}

// seedDefaultContinuity creates the default timeline if the world has no
// continuities yet. This provides transparent migration for worlds created
// before continuities existed.
func seedDefaultContinuity(ctx context.Context, db ports.RelationalDB, worldID string) error {
	existing, err := db.ListContinuities(ctx, worldID)
	if err != nil {
		return fmt.Errorf("listing continuities: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	_, err = services.NewContinuityService(db).CreateDefault(ctx, worldID)
	return err
}

// findContinuity resolves a continuity reference by name or ID.
func findContinuity(ctx context.Context, d *Deps, ref string) (*entities.Continuity, error) {
	continuities, err := d.Continuities.HandleList(ctx, d.WorldID)
	if err != nil {
		return nil, fmt.Errorf("listing continuities: %w", err)
	}

	for i := range continuities {
		if continuities[i].ID == ref || strings.EqualFold(continuities[i].Name, ref) {
			return &continuities[i], nil
		}
	}

	return nil, fmt.Errorf("continuity %q not found", ref)
}
