// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/ethiomusic/internal/tui/app"
)

// Deps - зависимости TUI приложения
type Deps = app.Deps

// App представляет основное TUI приложение
type App struct {
	deps    Deps
	logFile string // Файл для логов, пока интерфейс занимает терминал
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(deps Deps, logFile string) *App {
	return &App{
		deps:    deps,
		logFile: logFile,
	}
}

// Run запускает TUI приложение
func (tuiApp *App) Run(ctx context.Context) error {
	closeLog, err := tuiApp.redirectLog()
	if err != nil {
		return err
	}
	defer closeLog()

	// Создаем модель для Bubble Tea
	model := app.NewMainModel(ctx, tuiApp.deps)

	// Создаем программу Bubble Tea
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Запускаем программу
	_, err = p.Run()

	// Отписываемся от обновлений после завершения программы
	model.Close()

	return err
}

// redirectLog перенаправляет стандартный лог в файл, чтобы он не портил экран
func (tuiApp *App) redirectLog() (func(), error) {
	if tuiApp.logFile == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }, nil
	}

	if err := os.MkdirAll(filepath.Dir(tuiApp.logFile), 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога для логов: %w", err)
	}
	f, err := tea.LogToFile(tuiApp.logFile, "ethiomusic")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла логов: %w", err)
	}
	return func() {
		_ = f.Close()
		log.SetOutput(os.Stderr)
		log.SetPrefix("")
	}, nil
}
