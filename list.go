package main

import (
	"context"
	"strings"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/plain-stack/stackctl/catalog"
	"github.com/plain-stack/stackctl/snapshot"
)

func listCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	s, err := newSetup(args.List.Config, logger)
	if err != nil {
		return err
	}

	sets, err := snapshot.List(s.cfg.BackupDir)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		logger.Info().Str("dir", s.cfg.BackupDir).Msg("no backup sets found")
		return nil
	}

	// The catalog, when present, remembers which step a failed backup died
	// in. The filesystem scan alone only knows which artifacts are missing.
	failedSteps := map[string]string{}
	if args.List.Database != "" {
		db, err := newSQLite(args.List.Database, logger, false)
		if err != nil {
			return err
		}
		cat := &catalog.Catalog{Cli: db, Logger: logger}
		records, err := cat.ListRecords(ctx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if rec.FailedStep != "" {
				failedSteps[rec.Timestamp] = rec.FailedStep
			}
		}
	}

	for _, set := range sets {
		ev := logger.Info().
			Str("timestamp", set.Timestamp).
			Str("size", units.HumanSize(float64(set.Size))).
			Bool("complete", set.Complete)
		if !set.Complete {
			ev = ev.Str("missing", strings.Join(set.Missing, ", "))
		}
		if step, ok := failedSteps[set.Timestamp]; ok {
			ev = ev.Str("failed_step", step)
		}
		ev.Msg("backup set")
	}
	return nil
}
