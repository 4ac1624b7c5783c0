package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/ethiomusic/internal/catalog"
	"github.com/hazadus/ethiomusic/internal/media"
)

// owner сообщает, хранится ли файл в настроенном хранилище
type owner interface {
	Owns(url string) bool
}

// createDeleteCommand создает команду delete с привязкой к экземпляру приложения
func (app *Application) createDeleteCommand(ctx context.Context) *cobra.Command {
	var (
		yes   bool
		purge bool
	)

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a catalog item by ID",
		Long: `Delete a catalog item by its ID. With --purge the uploaded cover and audio
files are removed from the S3 bucket as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.deleteItem(ctx, cmd.InOrStdin(), args[0], yes, purge)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVar(&purge, "purge", false, "also delete uploaded files from storage")

	return cmd
}

func (app *Application) deleteItem(ctx context.Context, in io.Reader, id string, yes, purge bool) error {
	item, err := app.getItem(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("🗑️  Удаляем: %s - %s (%s)\n", item.Artist, item.Title, item.Type)

	// Хранилище проверяем до удаления элемента
	var deleter media.Deleter
	if purge {
		up, err := app.mediaUploader()
		if err != nil {
			return err
		}
		d, ok := up.(media.Deleter)
		if !ok {
			return fmt.Errorf("удаление файлов поддерживается только для хранилища S3")
		}
		deleter = d
	}

	if !yes && !confirm(in, "Удалить элемент? [y/N]: ") {
		fmt.Println("🚫 Удаление отменено")
		return nil
	}

	if err := app.Orchestrator.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Println("✅ Элемент удален из каталога")

	if deleter != nil {
		app.purgeMedia(ctx, deleter, item)
	}
	return nil
}

// purgeMedia удаляет файлы элемента из хранилища. Ошибки не прерывают удаление.
func (app *Application) purgeMedia(ctx context.Context, deleter media.Deleter, item *catalog.Item) {
	for _, fileURL := range mediaURLs(item) {
		if o, ok := deleter.(owner); ok && !o.Owns(fileURL) {
			fmt.Printf("⏭️  Пропускаем файл вне хранилища: %s\n", fileURL)
			continue
		}
		if err := deleter.Delete(ctx, fileURL); err != nil {
			fmt.Printf("⚠️  Предупреждение: не удалось удалить файл %s: %v\n", fileURL, err)
			continue
		}
		fmt.Printf("✅ Файл удален: %s\n", fileURL)
	}
}

// mediaURLs возвращает адреса всех файлов элемента
func mediaURLs(item *catalog.Item) []string {
	var urls []string
	add := func(u string) {
		if u != "" {
			urls = append(urls, u)
		}
	}

	add(item.ImageURL)
	add(item.AudioURL)
	for _, track := range item.Tracks {
		add(track.AudioURL)
	}
	return urls
}

// confirm задает вопрос и читает ответ. Согласием считаются y, yes, д и да.
func confirm(in io.Reader, prompt string) bool {
	fmt.Print(prompt)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Println()
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "д", "да":
		return true
	default:
		return false
	}
}
