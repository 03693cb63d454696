package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/plain-stack/stackctl/health"
)

func healthCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	s, err := newSetup(args.Health.Config, logger)
	if err != nil {
		return err
	}

	agg := health.NewAggregator(health.Params{
		Gateway:       s.gateway,
		DBService:     s.cfg.DBService,
		EndpointURL:   s.cfg.HealthURL,
		ProbeTimeout:  s.cfg.ProbeTimeout.Duration,
		DiskPath:      s.cfg.DiskPath,
		DiskThreshold: s.cfg.DiskThreshold,
		Logger:        logger,
	})

	report := agg.CheckHealth(ctx)
	for _, check := range report.Checks {
		ev := logger.Info()
		if !check.Passed {
			ev = logger.Warn()
		}
		ev.Str("check", check.Name).Bool("passed", check.Passed).Str("detail", check.Detail).Msg("health check")
	}

	if !report.Healthy() {
		return fmt.Errorf("deployment unhealthy")
	}
	logger.Info().Msg("deployment healthy")
	return nil
}
