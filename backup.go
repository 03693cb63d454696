package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/plain-stack/stackctl/backup"
	"github.com/plain-stack/stackctl/catalog"
)

func backupCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	s, err := newSetup(args.Backup.Config, logger)
	if err != nil {
		return err
	}

	var cat *catalog.Catalog
	if args.Backup.Database != "" {
		db, err := newSQLite(args.Backup.Database, logger, false)
		if err != nil {
			return err
		}
		cat = &catalog.Catalog{Cli: db, Logger: logger}
	}

	engine := backup.NewEngine(backup.Params{
		Gateway:   s.gateway,
		Catalog:   cat,
		BackupDir: s.cfg.BackupDir,
		DataDir:   s.cfg.DataDir,
		EnvFile:   s.cfg.EnvFile,
		DBUser:    s.cfg.DBUser,
		DBName:    s.cfg.DBName,
		Logger:    logger,
	})

	set, err := engine.CreateBackup(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Str("timestamp", set.Timestamp).
		Str("database_dump", set.DatabaseDump.Path).
		Str("file_archive", set.FileArchive.Path).
		Str("config_snapshot", set.ConfigSnapshot.Path).
		Msg("backup set created")
	return nil
}
