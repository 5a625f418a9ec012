package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ferrovax/playdex/internal/repositories"
	"github.com/ferrovax/playdex/internal/shared"
	"github.com/urfave/cli/v3"
)

// withMembershipRepo opens the membership database, runs fn against the
// repository, and closes the handle again.
func (r *Runner) withMembershipRepo(fn func(*repositories.MembershipRepository) error) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ttl := time.Duration(r.config.Database.MembershipTTL) * time.Minute
	return fn(repositories.NewMembershipRepository(db, ttl))
}

// CachePurge deletes expired membership facts from the durable cache.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	return r.withMembershipRepo(func(repo *repositories.MembershipRepository) error {
		purged, err := repo.PurgeExpired()
		if err != nil {
			return fmt.Errorf("failed to purge cache: %w", err)
		}

		r.logger.Info("cache purged", "removed", purged)
		r.writePlain("✓ Purged %d expired membership facts\n", purged)
		return nil
	})
}

// CacheStats shows how many membership facts the durable cache holds.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	return r.withMembershipRepo(func(repo *repositories.MembershipRepository) error {
		count, err := repo.Count()
		if err != nil {
			return fmt.Errorf("failed to count cache entries: %w", err)
		}

		r.writePlain("Membership facts cached: %d\n", count)
		r.writePlain("Database: %s\n", r.config.Database.Path)
		return nil
	})
}
