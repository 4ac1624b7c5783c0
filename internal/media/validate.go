package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/hazadus/ethiomusic/internal/utils"
)

const (
	// MaxImageSize - максимальный размер обложки
	MaxImageSize = 10 << 20
	// MaxAudioSize - максимальный размер аудиофайла
	MaxAudioSize = 50 << 20
)

var (
	// ErrUnsupportedType возвращается для файлов недопустимого типа
	ErrUnsupportedType = errors.New("неподдерживаемый тип файла")
	// ErrFileTooLarge возвращается для файлов больше допустимого размера
	ErrFileTooLarge = errors.New("файл слишком большой")
)

var (
	imageMIMETypes = []string{
		"image/jpeg", "image/png", "image/gif", "image/webp", "image/jpg",
		"image/svg+xml", "image/avif",
	}
	audioMIMETypes = []string{
		"audio/mpeg", "audio/wav", "audio/ogg", "audio/mp3",
		"audio/x-m4a", "audio/aac", "audio/x-aac", "audio/mp4",
		"audio/x-wav", "audio/flac", "audio/x-flac",
	}
	imageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "svg", "avif"}
	audioExtensions = []string{"mp3", "wav", "ogg", "m4a", "aac", "flac"}
)

// File - локальный файл, прошедший проверку
type File struct {
	Path string
	Name string
	Size int64
	MIME string
	Kind Kind
}

// Inspect определяет тип файла по содержимому и проверяет ограничения.
// Сетевых запросов не выполняет.
func Inspect(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s является каталогом", path)
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка определения типа файла: %w", err)
	}

	file := &File{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
		MIME: baseMIME(detected.String()),
	}
	file.Kind, err = classify(file.Name, detected)
	if err != nil {
		return nil, err
	}
	if err := CheckSize(file.Kind, file.Size); err != nil {
		return nil, fmt.Errorf("%s: %w", file.Name, err)
	}
	return file, nil
}

// Classify определяет вид файла по MIME-типу и, если тип неизвестен, по расширению
func Classify(name, mimeType string) (Kind, error) {
	mimeType = baseMIME(mimeType)
	switch {
	case slices.Contains(imageMIMETypes, mimeType):
		return KindImage, nil
	case slices.Contains(audioMIMETypes, mimeType):
		return KindAudio, nil
	case mimeType == "" || mimeType == "application/octet-stream":
		return classifyExtension(name, mimeType)
	}
	return "", unsupported(name, mimeType)
}

// CheckSize проверяет размер файла для его вида
func CheckSize(kind Kind, size int64) error {
	limit := int64(MaxAudioSize)
	if kind == KindImage {
		limit = MaxImageSize
	}
	if size > limit {
		return fmt.Errorf("%w (%s). Максимальный размер: %s",
			ErrFileTooLarge, utils.FormatFileSize(size), utils.FormatFileSize(limit))
	}
	return nil
}

// classify учитывает синонимы MIME-типов, известные mimetype
func classify(name string, detected *mimetype.MIME) (Kind, error) {
	for _, t := range imageMIMETypes {
		if detected.Is(t) {
			return KindImage, nil
		}
	}
	for _, t := range audioMIMETypes {
		if detected.Is(t) {
			return KindAudio, nil
		}
	}
	return Classify(name, detected.String())
}

func classifyExtension(name, mimeType string) (Kind, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch {
	case slices.Contains(imageExtensions, ext):
		return KindImage, nil
	case slices.Contains(audioExtensions, ext):
		return KindAudio, nil
	}
	return "", unsupported(name, mimeType)
}

func unsupported(name, mimeType string) error {
	shown := mimeType
	if shown == "" || shown == "application/octet-stream" {
		shown = strings.TrimPrefix(filepath.Ext(name), ".")
	}
	if shown == "" {
		shown = "неизвестный"
	}
	return fmt.Errorf("%w: %s (%s). Допустимы изображения (%s) и аудио (%s)",
		ErrUnsupportedType, shown, name,
		strings.Join(imageExtensions, ", "), strings.Join(audioExtensions, ", "))
}

func baseMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
