package store

import (
	"context"

	"github.com/nexuscore/nexus/internal/config"
	"github.com/nexuscore/nexus/internal/registry"
)

// ManagerAdapter wraps a Store in the registry.Manager capability interface,
// selecting the concrete backend from config.DatabaseSchema.Type. It is the
// "database" step in the application core's wiring order, ahead of
// security, which depends on it for persistence.
type ManagerAdapter struct {
	store Store
}

// NewManager builds the database manager. database.type of "postgres" or
// "postgresql" opens a PostgresStore (migrating on construction); anything
// else — including the empty string — keeps everything in process memory.
func NewManager(cfg config.DatabaseSchema) (*ManagerAdapter, error) {
	switch cfg.Type {
	case "postgres", "postgresql":
		s, err := NewPostgresStore(PostgresConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Name:     cfg.Name,
			User:     cfg.User,
			Password: cfg.Password,
			PoolSize: cfg.PoolSize,
		})
		if err != nil {
			return nil, err
		}
		return &ManagerAdapter{store: s}, nil
	default:
		return &ManagerAdapter{store: NewMemoryStore()}, nil
	}
}

func (m *ManagerAdapter) Name() string { return "database" }

func (m *ManagerAdapter) Initialize(ctx context.Context) error { return nil }

func (m *ManagerAdapter) Shutdown(ctx context.Context) error { return m.store.Close() }

func (m *ManagerAdapter) Status() registry.Status {
	return registry.Status{Initialized: true, Healthy: true}
}

// Store exposes the underlying Store for other managers (security,
// the API layer) to use.
func (m *ManagerAdapter) Store() Store { return m.store }

// Security returns the Store narrowed to security.Persistence.
func (m *ManagerAdapter) Security() SecurityAdapter { return SecurityAdapter{Store: m.store} }
