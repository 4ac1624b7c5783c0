package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/ethiomusic/internal/api"
	"github.com/hazadus/ethiomusic/internal/catalog"
	"github.com/hazadus/ethiomusic/internal/store"
	"github.com/hazadus/ethiomusic/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand(ctx context.Context) *cobra.Command {
	var (
		page   int
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a page of the catalog",
		Long:  `Display one page of the catalog. The search filter applies to the loaded page only.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.listItems(ctx, page, limit, search)
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "items per page (default from config)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter the page by title, artist or album")

	return cmd
}

// createShowCommand создает команду show с привязкой к экземпляру приложения
func (app *Application) createShowCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a catalog item with its tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			item, err := app.getItem(ctx, args[0])
			if err != nil {
				return err
			}
			printItem(item)
			return nil
		},
	}
}

// fetchPage запрашивает страницу через хранилище и ждет завершения запроса
func (app *Application) fetchPage(ctx context.Context, page, limit int) (store.State, error) {
	if limit <= 0 {
		limit = app.Config.PageSize
	}

	revision := app.Store.State().Revision
	app.Orchestrator.RequestPage(page, limit)

	waitCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	state, err := app.Store.WaitRevision(waitCtx, revision)
	if err != nil {
		return state, fmt.Errorf("не дождались ответа каталога: %w", err)
	}
	if state.HasError() {
		return state, fmt.Errorf("ошибка загрузки каталога: %s", state.Err)
	}
	return state, nil
}

func (app *Application) listItems(ctx context.Context, page, limit int, search string) error {
	state, err := app.fetchPage(ctx, page, limit)
	if err != nil {
		return err
	}

	if state.Total == 0 {
		fmt.Println("📚 Каталог пуст. Добавьте элементы с помощью команды 'add'.")
		return nil
	}

	items := catalog.Filter(state.Items, search)
	if len(items) == 0 {
		fmt.Printf("🔍 На странице %d ничего не найдено по запросу «%s»\n", state.Page, search)
		return nil
	}

	fmt.Printf("📚 Элементов в каталоге: %d\n\n", state.Total)
	printItemsTable(items)

	from, to := catalog.Range(state.Page, state.PageSize, state.Total)
	fmt.Println()
	fmt.Printf("Показано %d-%d из %d • страница %s\n", from, to, state.Total, pageLine(state))
	fmt.Println()
	fmt.Println("💡 Используйте 'ethiomusic show [ID]' для просмотра и 'ethiomusic play [ID]' для воспроизведения")
	return nil
}

func printItemsTable(items []catalog.Item) {
	// Выводим заголовок таблицы
	fmt.Printf("%s %s %s %s %s %s\n",
		utils.PadRight("ID", 24),
		utils.PadRight("Тип", 7),
		utils.PadRight("Исполнитель", 24),
		utils.PadRight("Название", 30),
		utils.PadRight("Год", 5),
		"Длительность")
	fmt.Println(strings.Repeat("-", 110))

	// Выводим каждый элемент, обрезая длинные строки
	for _, item := range items {
		year := ""
		if item.Year > 0 {
			year = fmt.Sprint(item.Year)
		}
		title := item.Title
		if item.IsAlbum() {
			title = fmt.Sprintf("%s (%d тр.)", item.Title, len(item.Tracks))
		}

		fmt.Printf("%s %s %s %s %s %s\n",
			utils.PadRight(utils.TruncateString(item.ID, 24), 24),
			utils.PadRight(item.Type.String(), 7),
			utils.PadRight(utils.TruncateString(item.Artist, 24), 24),
			utils.PadRight(utils.TruncateString(title, 30), 30),
			utils.PadRight(year, 5),
			utils.FormatSeconds(item.TotalDuration()))
	}
}

// pageLine возвращает окно номеров страниц, текущая в скобках
func pageLine(state store.State) string {
	total := catalog.TotalPages(state.Total, state.PageSize)
	pages := catalog.PageWindow(state.Page, state.Total, state.PageSize)

	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p == state.Page {
			parts = append(parts, fmt.Sprintf("[%d]", p))
		} else {
			parts = append(parts, fmt.Sprint(p))
		}
	}
	return fmt.Sprintf("%s из %d", strings.Join(parts, " "), total)
}

// getItem запрашивает элемент каталога по ID
func (app *Application) getItem(ctx context.Context, id string) (*catalog.Item, error) {
	item, err := app.API.Get(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		return nil, fmt.Errorf("элемент с ID %s не найден", id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки элемента: %w", err)
	}
	return item, nil
}

func printItem(item *catalog.Item) {
	fmt.Printf("🎵 %s - %s\n", item.Artist, item.Title)
	fmt.Printf("   ID: %s\n", item.ID)
	fmt.Printf("   Тип: %s\n", item.Type)
	if item.Album != "" {
		fmt.Printf("   Альбом: %s\n", item.Album)
	}
	if item.Year > 0 {
		fmt.Printf("   Год: %d\n", item.Year)
	}
	if d := item.TotalDuration(); d > 0 {
		fmt.Printf("   Продолжительность: %s\n", utils.FormatSeconds(d))
	}
	if item.ImageURL != "" {
		fmt.Printf("   Обложка: %s\n", item.ImageURL)
	}
	if item.AudioURL != "" {
		fmt.Printf("   Аудио: %s\n", item.AudioURL)
	}
	if item.Description != "" {
		fmt.Printf("   Описание: %s\n", item.Description)
	}

	if item.IsAlbum() {
		fmt.Println()
		fmt.Printf("💿 Треки (%d):\n", len(item.Tracks))
		for n, track := range item.Tracks {
			fmt.Printf("   %2d. %s %s\n", n+1,
				utils.PadRight(utils.TruncateString(track.Title, 40), 40),
				utils.FormatSeconds(track.Duration))
		}
	}
}
