package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/sitelink-report/internal/config"
	"github.com/jonesrussell/sitelink-report/internal/database"
)

// SetupDatabase connects to the run history database and applies the schema.
func SetupDatabase(ctx context.Context, cfg *config.Config) (*database.Connection, error) {
	dbCfg := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxConnections:  cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	}

	db, connErr := database.NewConnection(ctx, dbCfg)
	if connErr != nil {
		return nil, fmt.Errorf("database connection: %w", connErr)
	}

	if migrateErr := db.Migrate(); migrateErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", migrateErr)
	}

	return db, nil
}
