package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ferrovax/playdex/internal/catalog"
	"github.com/ferrovax/playdex/internal/repositories"
	"github.com/ferrovax/playdex/internal/shared"
	"github.com/ferrovax/playdex/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	catalog catalog.Service
	engine  *tasks.Engine
	db      *sql.DB
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Catalog catalog.Service
	Engine  *tasks.Engine // optional; built from config on first use when nil
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		catalog: opts.Catalog,
		engine:  opts.Engine,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// ensureEngine builds the reconciliation engine on first use: it opens the
// membership database, runs migrations, and wires the snapshot store.
func (r *Runner) ensureEngine() (*tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not configured", shared.ErrServiceUnavailable)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	r.db = db

	ttl := time.Duration(r.config.Database.MembershipTTL) * time.Minute
	repo := repositories.NewMembershipRepository(db, ttl)
	store := tasks.NewSnapshotStore(r.config.Snapshot.Path, r.logger)

	r.engine = tasks.NewEngine(tasks.EngineOpts{
		Catalog: r.catalog,
		Durable: repo,
		Store:   store,
		Logger:  r.logger,
		Scan: tasks.ScanOpts{
			Workers:              r.config.Scan.Workers,
			ChannelPlaylistLimit: r.config.Scan.ChannelPlaylistLimit,
			PlaylistPageSize:     r.config.Scan.PlaylistPageSize,
			SearchBudget:         r.config.Scan.SearchBudget,
			ProbeLimit:           r.config.Scan.ProbeLimit,
		},
	})

	return r.engine, nil
}

// Close releases the Runner's database handle, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, scanCommand, matchCommand, snapshotCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
