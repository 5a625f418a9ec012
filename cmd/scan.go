package main

import (
	"context"
	"fmt"

	"github.com/ferrovax/playdex/internal/formatter"
	"github.com/ferrovax/playdex/internal/models"
	"github.com/ferrovax/playdex/internal/shared"
	"github.com/ferrovax/playdex/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Scan searches the catalog for videos matching the query and reconciles
// them against their owning playlists.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query argument is required", shared.ErrMissingArgument)
	}
	limit := cmd.Int("limit")
	asJSON := cmd.Bool("json")
	quiet := cmd.Bool("quiet") || asJSON

	engine, err := r.ensureEngine()
	if err != nil {
		return err
	}
	if err := engine.LoadSnapshot(); err != nil {
		r.logger.Warn("failed to restore snapshot, starting empty", "error", err)
	}

	r.logger.Info("searching videos", "query", query, "limit", limit)
	page, err := r.catalog.SearchVideos(ctx, query, limit, "")
	if err != nil {
		return fmt.Errorf("video search failed: %w", err)
	}
	if len(page.Videos) == 0 {
		r.writePlain("No videos found for %q.\n", query)
		return nil
	}

	videoIDs := make([]string, 0, len(page.Videos))
	for _, v := range page.Videos {
		videoIDs = append(videoIDs, v.ID)
	}
	engine.SetResults(models.SearchState{
		Query:         query,
		Videos:        page.Videos,
		NextPageToken: page.NextPageToken,
		PrevPageToken: page.PrevPageToken,
		VideoIDs:      videoIDs,
	})

	if !quiet {
		r.writePlain("Scanning %d videos for %q...\n\n", len(page.Videos), query)
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.GroupVideos, tasks.FetchChannelPlaylists:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.SearchFallback:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.IndexVideo:
				if _, ok := update.Data.(models.Playlist); ok {
					r.writePlain("📝 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.Persist:
				r.writePlain("💾 %s\n", update.Message)
			}
		}
	}()

	result, err := engine.Scan(ctx, page.Videos, progressCh, tasks.ScanCallbacks{})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(result, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Scan Complete")
	return r.writePlain("%s", formatter.ScanReportText(result))
}
