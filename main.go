package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	app "github.com/rocketscienceinc/infinite-tictactoe/internal"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/config"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// main - is the entry point of the application. It initializes the configuration, logger, and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the yaml config, defaults to ./config.yml")
	flag.Parse()

	conf := initConfig(*configPath)
	logger := initLogger(conf)

	logger.Info("starting infinite tic-tac-toe",
		"boardSize", conf.Game.BoardSize,
		"redis", conf.Redis.Enabled,
	)

	if err := app.RunApp(logger, conf); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// initialize config.
func initConfig(path string) *config.Config {
	if path != "" {
		return config.MustLoad(path)
	}

	baseDir, err := os.Getwd()
	if err != nil {
		panic(fmt.Errorf("failed to get current directory: %w", err))
	}

	return config.MustLoad(filepath.Join(baseDir, "config.yml"))
}

// initialize logger, unknown levels fall back to info.
func initLogger(conf *config.Config) *slog.Logger {
	level, ok := logLevels[conf.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
