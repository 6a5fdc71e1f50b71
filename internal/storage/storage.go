// Package storage selects the persistence driver named by STORE_DRIVER and
// exposes every store behind the interfaces in internal/database.
package storage

import (
	"context"
	"fmt"

	"github.com/benvon/napoleon/internal/config"
	"github.com/benvon/napoleon/internal/database"
	"github.com/benvon/napoleon/internal/storage/firestore"
	"github.com/benvon/napoleon/internal/storage/memory"
	"go.uber.org/zap"
)

// Stores bundles the stores of one driver
type Stores struct {
	Driver        string
	Tasks         database.TaskStore
	Metrics       database.MetricsStore
	Conversations database.ConversationStore
	Profiles      database.ProfileStore
	Ratelimit     database.RatelimitConfigStore
	Cors          database.CorsConfigStore

	ping  func(ctx context.Context) error
	close func() error
}

// Ping checks the backing store is reachable
func (s *Stores) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backing connection
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the configured driver. Postgres migrations are applied when migrate is true.
func Open(ctx context.Context, cfg *config.Config, migrate bool, log *zap.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if migrate {
			if err := db.Migrate(ctx); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			log.Info("database_migrated")
		}
		return NewPostgres(db), nil

	case config.StoreDriverFirestore:
		fs, err := firestore.NewStore(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to open firestore: %w", err)
		}
		log.Info("firestore_connected", zap.String("project", cfg.FirestoreProjectID))
		return &Stores{
			Driver:        config.StoreDriverFirestore,
			Tasks:         fs,
			Metrics:       fs,
			Conversations: fs,
			Profiles:      fs,
			Ratelimit:     fs,
			Cors:          fs,
			ping:          fs.Ping,
			close:         fs.Close,
		}, nil

	case config.StoreDriverMemory:
		log.Warn("using_memory_store", zap.String("note", "data is lost on restart"))
		return NewMemory(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewPostgres wraps an open database in the repository implementations
func NewPostgres(db *database.DB) *Stores {
	return &Stores{
		Driver:        config.StoreDriverPostgres,
		Tasks:         database.NewTaskRepository(db),
		Metrics:       database.NewMetricsRepository(db),
		Conversations: database.NewConversationRepository(db),
		Profiles:      database.NewProfileRepository(db),
		Ratelimit:     database.NewRatelimitConfigRepository(db),
		Cors:          database.NewCorsConfigRepository(db),
		ping:          db.Ping,
		close:         db.Close,
	}
}

// NewMemory returns fresh in-process stores
func NewMemory() *Stores {
	cfgStore := memory.NewConfigStore()
	return &Stores{
		Driver:        config.StoreDriverMemory,
		Tasks:         memory.NewTaskStore(),
		Metrics:       memory.NewMetricsStore(),
		Conversations: memory.NewConversationStore(),
		Profiles:      memory.NewProfileStore(),
		Ratelimit:     cfgStore,
		Cors:          cfgStore,
	}
}
