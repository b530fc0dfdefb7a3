package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"adhoc-index/internal/database"
	"adhoc-index/internal/filesystem"
	"adhoc-index/internal/project"
	"adhoc-index/internal/scheduler"
	"adhoc-index/internal/startup"
)

// session holds the resources one command needs: the preference database,
// the refresh coordinator and the open project.
type session struct {
	db      *database.Database
	coord   *scheduler.Coordinator
	project *project.Project
}

func openSession(ctx context.Context, cfg *startup.Config) (*session, error) {
	return openSessionWith(ctx, cfg, projectConfig(cfg))
}

func openSessionWith(ctx context.Context, cfg *startup.Config, pc project.Config) (*session, error) {
	dbStart := time.Now()
	db, err := database.Open(ctx, cfg.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference database: %w", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	coord, err := scheduler.New(cfg.Workers)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to start refresh workers: %w", err)
	}

	p, err := project.Open(afero.NewOsFs(), cfg.Root, db, coord, pc)
	if err != nil {
		coord.Close()
		_ = db.Close()
		return nil, err
	}

	return &session{db: db, coord: coord, project: p}, nil
}

func projectConfig(cfg *startup.Config) project.Config {
	return project.Config{
		MaxDepth:     cfg.MaxDepth,
		RefreshDelay: cfg.RefreshDelay,
		SkipHidden:   cfg.SkipHidden,
		Sniff:        cfg.Sniff,
		Retry:        filesystem.DefaultRetryConfig(),
	}
}

// Close releases the project, workers and database in that order.
func (s *session) Close() error {
	s.project.Close()
	s.coord.Close()
	return errors.Join(s.db.Flush(), s.db.Close())
}
