package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"

	"github.com/plain-stack/stackctl/restore"
	"github.com/plain-stack/stackctl/snapshot"
)

func restoreCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	s, err := newSetup(args.Restore.Config, logger)
	if err != nil {
		return err
	}

	confirm := restore.StdinConfirmer(os.Stdin, os.Stdout)
	if args.Restore.Yes {
		confirm = restore.AlwaysConfirm
	}

	engine := restore.NewEngine(restore.Params{
		Gateway:       s.gateway,
		Confirm:       confirm,
		BackupDir:     s.cfg.BackupDir,
		DataDir:       s.cfg.DataDir,
		DBService:     s.cfg.DBService,
		DBUser:        s.cfg.DBUser,
		DBName:        s.cfg.DBName,
		ReadyTimeout:  s.cfg.ReadyTimeout.Duration,
		ReadyInterval: s.cfg.ReadyInterval.Duration,
		Logger:        logger,
	})

	err = engine.RestoreBackup(ctx, args.Restore.Timestamp)
	if err != nil {
		// Declining the prompt is the operator's call, not a failure.
		if errors.Is(err, restore.ErrConfirmationDeclined) {
			logger.Info().Msg("restore aborted by operator")
			return nil
		}

		var notFound *snapshot.NotFoundError
		var incomplete *snapshot.IncompleteSetError
		if errors.As(err, &notFound) || errors.As(err, &incomplete) {
			logAvailableSets(s.cfg.BackupDir, logger)
		}
		return err
	}

	logger.Info().Str("timestamp", args.Restore.Timestamp).Msg("restore done")
	return nil
}

func logAvailableSets(backupDir string, logger zerolog.Logger) {
	sets, err := snapshot.List(backupDir)
	if err != nil {
		logger.Warn().Err(err).Msg("could not list backup sets")
		return
	}
	for _, set := range sets {
		if set.Complete {
			logger.Info().Str("timestamp", set.Timestamp).Msg("available backup set")
		}
	}
}
