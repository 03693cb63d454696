package main

import (
	"github.com/rs/zerolog"

	"github.com/plain-stack/stackctl/config"
	"github.com/plain-stack/stackctl/runtime"
)

// setup is the shared wiring every subcommand starts from: the validated
// config and a gateway bound to the compose deployment it describes.
type setup struct {
	cfg     *config.Config
	gateway *runtime.ComposeGateway
}

func newSetup(configPath string, logger zerolog.Logger) (*setup, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}
	logger.Debug().Object("config", cfg).Msg("loaded config")

	gateway := runtime.NewComposeGateway(runtime.ComposeParams{
		ComposeFile: cfg.ComposeFile,
		Project:     cfg.Project,
		AppService:  cfg.AppService,
		DBService:   cfg.DBService,
		DBUser:      cfg.DBUser,
		Logger:      logger,
	})

	return &setup{cfg: cfg, gateway: gateway}, nil
}
