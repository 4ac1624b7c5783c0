package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/hazadus/ethiomusic/internal/media"
	"github.com/hazadus/ethiomusic/internal/playback"
	"github.com/hazadus/ethiomusic/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch interactive terminal user interface for browsing, playing and editing the catalog.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI(ctx)
		},
	}
}

func (app *Application) launchTUI(ctx context.Context) error {
	controller := playback.New(app.newOutput())
	defer controller.Close()

	// Без настроенного хостинга редактор принимает только адреса файлов
	var uploader media.Uploader
	if up, err := app.mediaUploader(); err == nil {
		uploader = up
	} else {
		log.Printf("Загрузка файлов недоступна: %v", err)
	}

	tuiApp := tui.NewApp(tui.Deps{
		Catalog:  app.Orchestrator,
		Store:    app.Store,
		Player:   controller,
		Uploader: uploader,
	}, app.Config.LogFile)

	return tuiApp.Run(ctx)
}
