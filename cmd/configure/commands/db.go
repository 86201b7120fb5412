package commands

import (
	"fmt"

	"github.com/quietgrove/intently/internal/config"
	"github.com/quietgrove/intently/internal/database"
)

// withDB loads config, opens the database and runs fn, closing the
// connection afterwards.
func withDB(fn func(db *database.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}
