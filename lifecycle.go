package main

import (
	"context"

	"github.com/rs/zerolog"
)

func startCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	s, err := newSetup(args.Start.Config, logger)
	if err != nil {
		return err
	}
	if err := s.gateway.StartService(ctx); err != nil {
		return err
	}
	logger.Info().Msg("deployment started")
	return nil
}

func stopCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	s, err := newSetup(args.Stop.Config, logger)
	if err != nil {
		return err
	}
	if err := s.gateway.StopService(ctx); err != nil {
		return err
	}
	logger.Info().Msg("deployment stopped")
	return nil
}

func restartCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	s, err := newSetup(args.Restart.Config, logger)
	if err != nil {
		return err
	}
	if err := s.gateway.StopService(ctx); err != nil {
		return err
	}
	if err := s.gateway.StartService(ctx); err != nil {
		return err
	}
	logger.Info().Msg("deployment restarted")
	return nil
}
