package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hazadus/ethiomusic/internal/api"
	"github.com/hazadus/ethiomusic/internal/config"
	"github.com/hazadus/ethiomusic/internal/media"
	"github.com/hazadus/ethiomusic/internal/orchestrator"
	"github.com/hazadus/ethiomusic/internal/playback"
	"github.com/hazadus/ethiomusic/internal/player"
	"github.com/hazadus/ethiomusic/internal/store"
)

// fetchTimeout ограничивает ожидание ответа каталога в командах CLI
const fetchTimeout = 30 * time.Second

// Application содержит зависимости, общие для всех команд
type Application struct {
	Config       *config.Config
	API          *api.Client
	Store        *store.Store
	Orchestrator *orchestrator.Orchestrator

	configPath string
	uploader   media.Uploader
	newOutput  func() playback.Output
	stopStore  context.CancelFunc
}

// init загружает конфигурацию и запускает хранилище каталога. Повторный вызов ничего не делает.
func (app *Application) init(ctx context.Context) error {
	if app.Config == nil {
		cfg, err := app.loadConfig()
		if err != nil {
			return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
		}
		app.Config = cfg
	}

	if app.API == nil {
		app.API = api.NewClient(app.Config.APIURL)
	}

	if app.newOutput == nil {
		app.newOutput = func() playback.Output {
			return player.NewPlayer()
		}
	}

	if app.Store == nil {
		app.Store = store.NewWithState(store.State{Page: 1, PageSize: app.Config.PageSize})
		app.Orchestrator = orchestrator.New(app.API, app.Store)

		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		app.stopStore = cancel
		go func() {
			_ = app.Store.Run(runCtx)
		}()
	}

	return nil
}

func (app *Application) loadConfig() (*config.Config, error) {
	if app.configPath != "" {
		return config.LoadConfig(app.configPath)
	}
	return config.LoadDefault()
}

// mediaUploader создает загрузчик медиафайлов при первом обращении
func (app *Application) mediaUploader() (media.Uploader, error) {
	if app.uploader != nil {
		return app.uploader, nil
	}
	up, err := media.NewUploader(app.Config)
	if err != nil {
		return nil, err
	}
	app.uploader = up
	return up, nil
}

// Close отменяет начатые запросы и останавливает хранилище
func (app *Application) Close() {
	if app.Orchestrator != nil {
		app.Orchestrator.Close()
		app.Orchestrator = nil
	}
	if app.stopStore != nil {
		app.stopStore()
		<-app.Store.Done()
		app.stopStore = nil
	}
}
