package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ferrovax/playdex/internal/formatter"
	"github.com/ferrovax/playdex/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SnapshotShow prints the persisted session snapshot.
func (r *Runner) SnapshotShow(ctx context.Context, cmd *cli.Command) error {
	store := tasks.NewSnapshotStore(r.config.Snapshot.Path, r.logger)
	doc, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	if len(doc.Videos) == 0 && len(doc.Playlists) == 0 {
		r.writePlain("Snapshot is empty.\n")
		return nil
	}

	if cmd.Bool("json") {
		data, err := formatter.SnapshotToJSON(doc)
		if err != nil {
			return err
		}
		r.writePlain("%s\n", data)
		return nil
	}

	// Display numbers are carried by the persisted video assignments.
	numbers := make(map[string]int)
	for _, v := range doc.Videos {
		if v.PlaylistID != "" && v.PlaylistIndex > 0 {
			numbers[v.PlaylistID] = v.PlaylistIndex
		}
	}

	if base := cmd.String("export-csv"); base != "" {
		result, err := formatter.WriteCSVExport(doc, base)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s and %s\n", result.VideosFile, result.PlaylistsFile)
		return nil
	}

	r.writePlainHeader("Session Snapshot")
	if doc.LastSearch != nil && doc.LastSearch.Query != "" {
		r.writePlain("Last search: %q\n\n", doc.LastSearch.Query)
	}
	return r.writePlain("%s", formatter.SnapshotToText(doc, numbers))
}

// SnapshotClear deletes the snapshot file, resetting display numbering for
// the next session.
func (r *Runner) SnapshotClear(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Snapshot.Path
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			r.writePlain("No snapshot to clear.\n")
			return nil
		}
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	r.logger.Info("snapshot cleared", "path", path)
	r.writePlain("✓ Snapshot cleared: %s\n", path)
	return nil
}
