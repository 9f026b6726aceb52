package main

import (
	"embed"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/lumberyard/pkg/settings"
)

//go:embed all:frontend/dist
var assets embed.FS

// settingsEnv names the environment variable holding the settings file path.
const settingsEnv = "LUMBERYARD_SETTINGS"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := settings.Load(os.Getenv(settingsEnv))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	app := NewApp(WithSettings(cfg))

	err = wails.Run(&options.App{
		Title:  "Lumberyard",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("wails exited")
	}
}
