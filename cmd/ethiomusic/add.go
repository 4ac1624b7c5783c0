package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hazadus/ethiomusic/internal/catalog"
	"github.com/hazadus/ethiomusic/internal/media"
	"github.com/hazadus/ethiomusic/internal/metadata"
	"github.com/hazadus/ethiomusic/internal/utils"
)

// uploadTimeout ограничивает загрузку файлов одной команды
const uploadTimeout = 10 * time.Minute

// itemFlags - значения флагов, описывающих элемент каталога
type itemFlags struct {
	title       string
	artist      string
	itemType    string
	album       string
	year        int
	description string
	cover       string
	audio       string
	tracks      []string
	manifest    string
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "title")
	cmd.Flags().StringVarP(&f.artist, "artist", "a", "", "artist")
	cmd.Flags().StringVar(&f.itemType, "type", "", "item type: single or album")
	cmd.Flags().StringVar(&f.album, "album", "", "album name")
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "release year")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "short description")
	cmd.Flags().StringVar(&f.cover, "cover", "", "cover image URL or local file")
	cmd.Flags().StringVar(&f.audio, "audio", "", "audio URL or local file (singles)")
}

// createAddCommand создает команду add с привязкой к экземпляру приложения
func (app *Application) createAddCommand(ctx context.Context) *cobra.Command {
	var flags itemFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a single or an album to the catalog",
		Long: `Add a single or an album to the catalog. Local cover and audio files are
uploaded to the configured media host first. Missing titles and artists are
taken from the audio file tags.

Examples:
  ethiomusic add --title Tizita --artist "Mahmoud Ahmed" --audio ./tizita.mp3
  ethiomusic add --title "Ethiopiques 4" --artist "Mulatu Astatke" \
      --track "Yekatit=./yekatit.mp3" --track "Netsanet=./netsanet.mp3"
  ethiomusic add --manifest album.yaml`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			item, err := flags.draft()
			if err != nil {
				return err
			}

			uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
			defer cancel()
			return app.addItem(uploadCtx, item)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringArrayVar(&flags.tracks, "track", nil, `album track as "Title=path or URL" (repeatable, implies --type album)`)
	cmd.Flags().StringVarP(&flags.manifest, "manifest", "m", "", "YAML file describing the item")
	cmd.MarkFlagsMutuallyExclusive("manifest", "track")

	return cmd
}

// draft собирает черновик элемента из манифеста или флагов
func (f *itemFlags) draft() (*catalog.Item, error) {
	if f.manifest != "" {
		return loadManifest(f.manifest)
	}

	itemType := f.itemType
	if itemType == "" && len(f.tracks) > 0 {
		itemType = string(catalog.TypeAlbum)
	}
	parsed, err := catalog.ParseItemType(itemType)
	if err != nil {
		return nil, err
	}

	item := &catalog.Item{
		Title:       strings.TrimSpace(f.title),
		Artist:      strings.TrimSpace(f.artist),
		Type:        parsed,
		Album:       strings.TrimSpace(f.album),
		Year:        f.year,
		Description: strings.TrimSpace(f.description),
		ImageURL:    strings.TrimSpace(f.cover),
		AudioURL:    strings.TrimSpace(f.audio),
	}
	for _, value := range f.tracks {
		track, err := parseTrack(value)
		if err != nil {
			return nil, err
		}
		item.Tracks = append(item.Tracks, track)
	}
	return item, nil
}

// parseTrack разбирает трек в формате "Название=путь". Без названия значение целиком считается путем.
func parseTrack(value string) (catalog.Track, error) {
	title, source, found := strings.Cut(value, "=")
	if !found {
		source, title = title, ""
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return catalog.Track{}, fmt.Errorf("%w: у трека %q не указан аудиофайл", catalog.ErrValidation, value)
	}
	return catalog.Track{Title: strings.TrimSpace(title), AudioURL: source}, nil
}

// loadManifest читает элемент из YAML файла. Относительные пути считаются от каталога манифеста.
func loadManifest(path string) (*catalog.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения манифеста: %w", err)
	}

	var item catalog.Item
	if err := yaml.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("ошибка разбора манифеста: %w", err)
	}

	if item.Type == "" && len(item.Tracks) > 0 {
		item.Type = catalog.TypeAlbum
	}
	if item.Type, err = catalog.ParseItemType(string(item.Type)); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	resolve := func(value string) string {
		if media.IsLocalPath(value) && !filepath.IsAbs(value) {
			return filepath.Join(dir, value)
		}
		return value
	}
	item.ImageURL = resolve(item.ImageURL)
	item.AudioURL = resolve(item.AudioURL)
	for i := range item.Tracks {
		item.Tracks[i].AudioURL = resolve(item.Tracks[i].AudioURL)
	}
	return &item, nil
}

func (app *Application) addItem(ctx context.Context, item *catalog.Item) error {
	fillFromTags(item)

	// Проверяем черновик до загрузки файлов
	if err := item.Validate(); err != nil {
		return err
	}
	if err := app.uploadLocalMedia(ctx, item); err != nil {
		return err
	}

	created, err := app.Orchestrator.Create(ctx, item)
	if err != nil {
		return err
	}

	fmt.Printf("✅ «%s» добавлен в каталог\n", created.Title)
	fmt.Printf("   ID: %s\n", created.ID)
	fmt.Printf("   Тип: %s\n", created.Type)
	if created.IsAlbum() {
		fmt.Printf("   Треков: %d\n", len(created.Tracks))
	}
	if d := created.TotalDuration(); d > 0 {
		fmt.Printf("   Продолжительность: %s\n", utils.FormatSeconds(d))
	}
	return nil
}

// fillFromTags дополняет пустые поля метаданными локальных аудиофайлов
func fillFromTags(item *catalog.Item) {
	extractor := metadata.NewExtractor()

	var first *metadata.TrackMetadata
	remember := func(meta metadata.TrackMetadata) {
		if first == nil {
			first = &meta
		}
	}

	if !item.IsAlbum() && media.IsLocalPath(item.AudioURL) {
		remember(extractor.ExtractFromFile(item.AudioURL))
	}
	for i := range item.Tracks {
		track := &item.Tracks[i]
		if !media.IsLocalPath(track.AudioURL) {
			continue
		}
		meta := extractor.ExtractFromFile(track.AudioURL)
		if track.Title == "" {
			track.Title = meta.Title
		}
		remember(meta)
	}

	if first == nil {
		return
	}

	if item.Title == "" {
		if item.IsAlbum() {
			item.Title = first.Album
		} else {
			item.Title = first.Title
		}
	}
	if item.Artist == "" && first.Artist != metadata.UnknownArtist {
		item.Artist = first.Artist
	}
	if item.Album == "" && !item.IsAlbum() {
		item.Album = first.Album
	}
	if item.Year == 0 {
		item.Year = first.Year
	}
}

// mediaTarget - локальный файл и поле элемента, куда записывается результат загрузки
type mediaTarget struct {
	path  string
	kind  media.Kind
	apply func(result *media.Result)
}

// localMedia собирает локальные файлы элемента в порядке загрузки
func localMedia(item *catalog.Item) []mediaTarget {
	var targets []mediaTarget

	if media.IsLocalPath(item.ImageURL) {
		targets = append(targets, mediaTarget{
			path: item.ImageURL,
			kind: media.KindImage,
			apply: func(r *media.Result) {
				item.ImageURL = r.URL
			},
		})
	}
	if !item.IsAlbum() && media.IsLocalPath(item.AudioURL) {
		targets = append(targets, mediaTarget{
			path: item.AudioURL,
			kind: media.KindAudio,
			apply: func(r *media.Result) {
				item.AudioURL = r.URL
				item.Duration = r.Duration
			},
		})
	}
	for i := range item.Tracks {
		track := &item.Tracks[i]
		if !media.IsLocalPath(track.AudioURL) {
			continue
		}
		targets = append(targets, mediaTarget{
			path: track.AudioURL,
			kind: media.KindAudio,
			apply: func(r *media.Result) {
				track.AudioURL = r.URL
				track.Duration = r.Duration
			},
		})
	}
	return targets
}

// uploadLocalMedia загружает локальные файлы элемента и подставляет их адреса
func (app *Application) uploadLocalMedia(ctx context.Context, item *catalog.Item) error {
	targets := localMedia(item)
	if len(targets) == 0 {
		return nil
	}

	paths := make([]string, len(targets))
	for i, target := range targets {
		paths[i] = target.path
	}

	// Все файлы проверяются до первого сетевого запроса
	files, err := media.InspectAll(paths)
	if err != nil {
		return err
	}
	for i, file := range files {
		if file.Kind != targets[i].kind {
			return fmt.Errorf("%w: ожидался файл вида %s, получен %s (%s)",
				media.ErrUnsupportedType, targets[i].kind, file.Kind, file.Name)
		}
	}

	up, err := app.mediaUploader()
	if err != nil {
		return err
	}

	results, err := uploadWithProgress(ctx, up, files)
	if err != nil {
		return err
	}

	probe := metadata.NewExtractor()
	for i, result := range results {
		if result.Kind == media.KindAudio && result.Duration == 0 {
			// Сервис не вернул длительность, определяем ее локально
			if d, err := probe.GetDuration(targets[i].path); err == nil {
				result.Duration = int(d.Round(time.Second).Seconds())
			}
		}
		targets[i].apply(result)
	}
	return nil
}

// uploadWithProgress загружает файлы по очереди и печатает прогресс
func uploadWithProgress(ctx context.Context, up media.Uploader, files []*media.File) ([]*media.Result, error) {
	var total int64
	fmt.Printf("📤 Загружаем файлы (%d):\n", len(files))
	for _, file := range files {
		fmt.Printf("   %s %s (%s)\n", utils.PadRight(file.Name, 40), file.MIME, utils.FormatFileSize(file.Size))
		total += file.Size
	}
	fmt.Printf("   Всего: %s\n", utils.FormatFileSize(total))
	fmt.Println()

	startTime := time.Now()
	results, err := media.UploadBatch(ctx, up, files, func(percent int) {
		fmt.Printf("\r📊 Прогресс: %3d%% | Время: %s", percent, utils.FormatDuration(time.Since(startTime)))
	})
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки файлов: %w", err)
	}

	fmt.Printf("✅ Файлы загружены за %s\n", utils.FormatDuration(time.Since(startTime)))
	return results, nil
}
