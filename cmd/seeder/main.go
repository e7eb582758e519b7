//cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/unclebandit/customer-directory/internal/config"
	"github.com/unclebandit/customer-directory/internal/db"
	"github.com/unclebandit/customer-directory/internal/logger"
)

func main() {
	dir := flag.String("dir", "seed", "directory holding the seed SQL files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.Mode)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	defer conn.Close()

	if err := db.Migrate(conn, log); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	// types first: customers reference them
	seedFiles := []string{
		"customer_types.sql",
		"customers.sql",
	}
	for _, name := range seedFiles {
		file := filepath.Join(*dir, name)
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatal("failed to read seed file", zap.String("file", file), zap.Error(err))
		}
		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			log.Fatal("failed to execute seed file", zap.String("file", file), zap.Error(err))
		}
		log.Info("seeded", zap.String("file", file))
	}
	log.Info("database seeding completed")
}
