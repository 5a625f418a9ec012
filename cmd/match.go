package main

import (
	"context"

	"github.com/ferrovax/playdex/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Match lists which videos of the last search belong to the given playlist.
func (r *Runner) Match(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("playlist")
	asJSON := cmd.Bool("json")

	engine, err := r.ensureEngine()
	if err != nil {
		return err
	}
	if err := engine.LoadSnapshot(); err != nil {
		r.logger.Warn("failed to restore snapshot, starting empty", "error", err)
	}

	state := engine.SearchState()
	if len(state.Videos) == 0 {
		r.writePlain("No search results in session; run 'playdex scan <query>' first.\n")
		return nil
	}

	currentIDs := make([]string, 0, len(state.Videos))
	for _, v := range state.Videos {
		currentIDs = append(currentIDs, v.ID)
	}

	var probe tasks.ProbeFunc
	if cmd.Bool("probe") {
		probe = engine.ProbeMembership
	}

	matches, err := engine.Intersection(ctx, playlistID, currentIDs, probe)
	if err != nil {
		return err
	}

	// Probing may have learned new links; keep the snapshot current.
	if err := engine.SaveSnapshot(); err != nil {
		r.logger.Warn("failed to persist snapshot after match", "error", err)
	}

	if asJSON {
		return r.writeJSON(map[string]any{
			"playlistId": playlistID,
			"query":      state.Query,
			"matches":    matches,
		}, true)
	}

	title := playlistID
	if pl, ok := engine.Index().Playlist(playlistID); ok && pl.Title != "" {
		title = pl.Title
	}

	if len(matches) == 0 {
		r.writePlain("No videos of the current search belong to %s.\n", title)
		return nil
	}

	r.writePlain("%d of %d videos belong to %s:\n", len(matches), len(currentIDs), title)
	for _, videoID := range matches {
		if v, ok := engine.Index().Video(videoID); ok && v.Title != "" {
			r.writePlain("  - %s (%s)\n", v.Title, videoID)
		} else {
			r.writePlain("  - %s\n", videoID)
		}
	}

	return nil
}
