package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
)

type Command struct {
	Backup struct {
		Config   string `help:"config file path" short:"c" required:""`
		Database string `help:"backup catalog database path" short:"d"`
	} `cmd:"" help:"Create a new backup set."`
	Restore struct {
		Timestamp string `arg:"" help:"timestamp of the backup set to restore"`
		Config    string `help:"config file path" short:"c" required:""`
		Yes       bool   `help:"skip the confirmation prompt" short:"y"`
	} `cmd:"" help:"Restore a backup set. Replaces the live database and files."`
	List struct {
		Config   string `help:"config file path" short:"c" required:""`
		Database string `help:"backup catalog database path" short:"d"`
	} `cmd:"" help:"List available backup sets, newest first."`
	Health struct {
		Config string `help:"config file path" short:"c" required:""`
	} `cmd:"" help:"Check deployment health. Exits nonzero when unhealthy."`
	Start struct {
		Config string `help:"config file path" short:"c" required:""`
	} `cmd:"" help:"Start the deployment."`
	Stop struct {
		Config string `help:"config file path" short:"c" required:""`
	} `cmd:"" help:"Stop the deployment."`
	Restart struct {
		Config string `help:"config file path" short:"c" required:""`
	} `cmd:"" help:"Restart the deployment."`
}

func newLogger() zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, NoColor: false, TimeFormat: time.RFC3339}
	consoleWriter.TimeFormat = "[" + time.RFC3339 + "]"
	consoleWriter.PartsOrder = []string{
		zerolog.TimestampFieldName,
		zerolog.LevelFieldName,
		zerolog.CallerFieldName,
		zerolog.MessageFieldName,
	}

	logger := zerolog.New(consoleWriter).
		With().Timestamp().Logger()

	level := zerolog.InfoLevel
	envLevel, ok := os.LookupEnv("LOG_LEVEL")
	if ok {
		parsed, err := zerolog.ParseLevel(envLevel)
		if err != nil {
			logger.Warn().Err(err).Msg("could not parse environment variable LOG_LEVEL")
			return logger
		}
		level = parsed
	}

	return logger.Level(level)
}

func main() {
	args := Command{}
	cli := kong.Parse(&args,
		kong.Name("stackctl"),
		kong.Description("Operational controller for a compose-managed app and database."),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignals(cancel)

	logger := newLogger()
	switch cli.Command() {
	case "backup":
		err := backupCommand(ctx, args, logger)
		if err != nil {
			logger.Error().Err(err).Msg("backup error")
			cli.Exit(1)
		}
	case "restore <timestamp>":
		err := restoreCommand(ctx, args, logger)
		if err != nil {
			logger.Error().Err(err).Msg("restore error")
			cli.Exit(1)
		}
	case "list":
		err := listCommand(ctx, args, logger)
		if err != nil {
			logger.Error().Err(err).Msg("list error")
			cli.Exit(1)
		}
	case "health":
		err := healthCommand(ctx, args, logger)
		if err != nil {
			logger.Error().Err(err).Msg("health error")
			cli.Exit(1)
		}
	case "start":
		err := startCommand(ctx, args, logger)
		if err != nil {
			logger.Error().Err(err).Msg("start error")
			cli.Exit(1)
		}
	case "stop":
		err := stopCommand(ctx, args, logger)
		if err != nil {
			logger.Error().Err(err).Msg("stop error")
			cli.Exit(1)
		}
	case "restart":
		err := restartCommand(ctx, args, logger)
		if err != nil {
			logger.Error().Err(err).Msg("restart error")
			cli.Exit(1)
		}
	default:
		panic(cli.Command())
	}
}

func setupSignals(onSignal func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		onSignal()
	}()
}
