package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/ethiomusic/internal/catalog"
	"github.com/hazadus/ethiomusic/internal/playback"
	"github.com/hazadus/ethiomusic/internal/utils"
)

// seekStep - шаг перемотки клавишами [ и ] в процентах
const seekStep = 10

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [id]",
		Short: "Play a single or an album by its ID",
		Long:  `Stream a single or all tracks of an album from the catalog.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.playByID(ctx, args[0])
		},
	}
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// readKeys читает одиночные символы и отправляет их в канал до ошибки чтения
func readKeys(r io.Reader, keys chan<- byte) {
	defer close(keys)
	buffer := make([]byte, 1)
	for {
		if _, err := r.Read(buffer); err != nil {
			return
		}
		keys <- buffer[0]
	}
}

func (app *Application) playByID(ctx context.Context, id string) error {
	item, err := app.getItem(ctx, id)
	if err != nil {
		return err
	}

	controller := playback.New(app.newOutput())
	defer controller.Close()
	events := controller.Subscribe()

	printNowPlaying(item)

	if err := startPlayback(ctx, controller, item); err != nil {
		return fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}

	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [ и ]    - перемотка на %d%%\n", seekStep)
	if item.IsAlbum() {
		fmt.Printf("   n / p    - следующий / предыдущий трек\n")
	}
	fmt.Printf("   q        - остановить и выйти\n")
	fmt.Println()

	// Включаем raw режим для чтения одиночных клавиш
	enableRawMode()
	defer disableRawMode()

	keys := make(chan byte)
	go readKeys(os.Stdin, keys)

	trackIndex := -1
	for {
		select {
		case state := <-events.StateChanged:
			if state.Status() == playback.StatusIdle {
				fmt.Println("\n✅ Воспроизведение завершено")
				return nil
			}
			if idx := state.TrackIndex(); idx >= 0 && idx != trackIndex {
				trackIndex = idx
				fmt.Printf("\r\033[K💿 Трек %d из %d: %s\n", idx+1, len(state.Tracks), state.Tracks[idx].Title)
			}
			if state.Status() == playback.StatusPaused {
				displayProgress(state)
			}

		case <-events.PositionChanged:
			displayProgress(controller.State())

		case e := <-events.Error:
			fmt.Printf("\r\033[K⚠️  Ошибка воспроизведения: %v\n", e.Err)

		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if handlePlayKey(ctx, controller, key) {
				controller.Stop()
				fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
				return nil
			}

		case <-ctx.Done():
			controller.Stop()
			fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
			return nil
		}
	}
}

// startPlayback запускает сингл или альбом с первого трека
func startPlayback(ctx context.Context, controller *playback.Controller, item *catalog.Item) error {
	if item.IsAlbum() {
		if len(item.Tracks) == 0 {
			return fmt.Errorf("в альбоме нет треков")
		}
		return controller.ToggleAlbum(ctx, item)
	}
	if item.AudioURL == "" {
		return playback.ErrNoAudio
	}
	return controller.ToggleSingle(ctx, item.AudioURL, item.ID)
}

// handlePlayKey выполняет действие клавиши. Возвращает true для выхода.
func handlePlayKey(ctx context.Context, controller *playback.Controller, key byte) bool {
	var err error

	switch key {
	case ' ', '\n', '\r':
		controller.TogglePause()
	case 'n':
		err = controller.Next(ctx)
	case 'p':
		err = controller.Previous(ctx)
	case '[':
		err = controller.Seek(controller.State().Progress() - seekStep)
	case ']':
		err = controller.Seek(controller.State().Progress() + seekStep)
	case 'q', 'Q':
		return true
	}

	// Ошибки загрузки и перемотки приходят подписчику в канал Error
	if errors.Is(err, playback.ErrNoAudio) {
		fmt.Printf("\r\033[K⚠️  %v\n", err)
	}
	return false
}

func printNowPlaying(item *catalog.Item) {
	fmt.Printf("🎵 Сейчас играет:\n")
	fmt.Printf("   ID: %s\n", item.ID)
	fmt.Printf("   Исполнитель: %s\n", item.Artist)
	fmt.Printf("   Название: %s\n", item.Title)
	if item.Album != "" {
		fmt.Printf("   Альбом: %s\n", item.Album)
	}
	if item.IsAlbum() {
		fmt.Printf("   Треков: %d\n", len(item.Tracks))
	}
	if d := item.TotalDuration(); d > 0 {
		fmt.Printf("   Продолжительность: %s\n", utils.FormatSeconds(d))
	}
	fmt.Println()
}

// displayProgress отображает прогресс воспроизведения
func displayProgress(state playback.State) {
	statusIcon := "▶️"
	if state.Status() == playback.StatusPaused {
		statusIcon = "⏸️"
	}

	current := time.Duration(state.CurrentTime * float64(time.Second))
	if state.Duration <= 0 {
		fmt.Printf("\r%s  %s | %s", statusIcon, utils.FormatDuration(current), state.Status())
		return
	}

	total := time.Duration(state.Duration * float64(time.Second))
	fmt.Printf("\r%s  %5.1f%% | %s / %s | %s\033[K",
		statusIcon,
		state.Progress(),
		utils.FormatDuration(current),
		utils.FormatDuration(total),
		state.Status())
}
