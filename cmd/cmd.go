// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes the config file, database and migrations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config file, database and migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// scanCommand searches the catalog for videos and reconciles them against
// their owning playlists.
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Search videos and discover which playlists own them",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of videos to scan",
				Value: 25,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress live progress output",
			},
		},
		Action: r.Scan,
	}
}

// matchCommand answers which of the last search's videos belong to a playlist.
func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "List which videos of the last search belong to a playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Playlist ID to match against",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "probe",
				Usage: "Probe the catalog for videos with unknown membership",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Match,
	}
}

// snapshotCommand inspects and clears the persisted session snapshot.
func snapshotCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Inspect or clear the persisted session snapshot",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the persisted snapshot",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.StringFlag{
						Name:  "export-csv",
						Usage: "Write {base}_videos.csv and {base}_playlists.json",
					},
				},
				Action: r.SnapshotShow,
			},
			{
				Name:   "clear",
				Usage:  "Delete the snapshot and reset display numbering",
				Action: r.SnapshotClear,
			},
		},
	}
}

// cacheCommand manages the durable membership cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the durable membership cache",
		Commands: []*cli.Command{
			{
				Name:   "purge",
				Usage:  "Delete expired membership facts",
				Action: r.CachePurge,
			},
			{
				Name:   "stats",
				Usage:  "Show cached membership fact count",
				Action: r.CacheStats,
			},
		},
	}
}
