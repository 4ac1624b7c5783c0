// Package media загружает обложки и аудиофайлы в хостинг медиафайлов
package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazadus/ethiomusic/internal/config"
)

// Kind - вид медиафайла
type Kind string

const (
	// KindImage - обложка
	KindImage Kind = "image"
	// KindAudio - аудиофайл
	KindAudio Kind = "audio"
)

// Result - результат загрузки файла
type Result struct {
	Kind         Kind
	URL          string
	PublicID     string
	Format       string
	ResourceType string
	Bytes        int64
	Width        int
	Height       int
	// Duration - длительность аудио в секундах, округленная
	Duration int
}

// ProgressFunc получает процент загрузки от 0 до 100
type ProgressFunc func(percent int)

// Uploader загружает один проверенный файл
type Uploader interface {
	Upload(ctx context.Context, file *File, onProgress ProgressFunc) (*Result, error)
}

// Deleter удаляет ранее загруженный файл по его адресу
type Deleter interface {
	Delete(ctx context.Context, url string) error
}

// NewUploader создает загрузчик для сервиса, выбранного в конфигурации
func NewUploader(cfg *config.Config) (Uploader, error) {
	if err := cfg.ValidateMedia(); err != nil {
		return nil, err
	}

	switch cfg.MediaProvider {
	case config.ProviderS3:
		up, err := NewS3Uploader(&S3Config{
			Region:     cfg.AwsRegion,
			AccessKey:  cfg.AwsAccessKey,
			SecretKey:  cfg.AwsSecretKey,
			Endpoint:   cfg.AwsEndpoint,
			BucketName: cfg.AwsBucketName,
		})
		if err != nil {
			return nil, err
		}
		return up, nil
	case config.ProviderCloudinary:
		return NewCloudinaryUploader(CloudinaryConfig{
			Endpoint:    cfg.CloudinaryEndpoint,
			CloudName:   cfg.CloudName,
			AudioPreset: cfg.AudioUploadPreset,
			ImagePreset: cfg.ImageUploadPreset,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrMediaNotConfigured, cfg.MediaProvider)
	}
}

// UploadFile проверяет локальный файл и загружает его
func UploadFile(ctx context.Context, up Uploader, path string, onProgress ProgressFunc) (*Result, error) {
	file, err := Inspect(path)
	if err != nil {
		return nil, err
	}
	return up.Upload(ctx, file, onProgress)
}

// IsLocalPath возвращает true, если значение не пустое и не является http(s) адресом
func IsLocalPath(value string) bool {
	if value == "" {
		return false
	}
	lower := strings.ToLower(value)
	return !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://")
}
