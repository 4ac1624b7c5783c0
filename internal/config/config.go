// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	appName = "ethiomusic"

	// DefaultAPIURL - адрес REST API каталога по умолчанию
	DefaultAPIURL = "http://localhost:5000/api/songs"
	// DefaultPageSize - размер страницы каталога по умолчанию
	DefaultPageSize = 8
	// DefaultImageUploadPreset - пресет загрузки обложек
	DefaultImageUploadPreset = "strict_image_upload"
	// DefaultCloudinaryEndpoint - базовый адрес API загрузки Cloudinary
	DefaultCloudinaryEndpoint = "https://api.cloudinary.com/v1_1"

	// ProviderCloudinary - загрузка медиафайлов в Cloudinary
	ProviderCloudinary = "cloudinary"
	// ProviderS3 - загрузка медиафайлов в S3-совместимое хранилище
	ProviderS3 = "s3"
)

// ErrMediaNotConfigured возвращается, если загрузка медиафайлов не настроена
var ErrMediaNotConfigured = errors.New("загрузка медиафайлов не настроена")

// Config структура для хранения конфигурации приложения
type Config struct {
	APIURL   string `yaml:"api_url"`
	PageSize int    `yaml:"page_size"`

	MediaProvider      string `yaml:"media_provider"`
	CloudName          string `yaml:"cloud_name"`
	AudioUploadPreset  string `yaml:"audio_upload_preset"`
	ImageUploadPreset  string `yaml:"image_upload_preset"`
	CloudinaryEndpoint string `yaml:"cloudinary_endpoint"`

	AwsBucketName string `yaml:"aws_bucket_name"`
	AwsAccessKey  string `yaml:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region"`
	AwsEndpoint   string `yaml:"aws_endpoint"`

	LogFile string `yaml:"log_file"`
}

// envOverrides связывает переменные окружения с полями конфигурации
var envOverrides = map[string]func(c *Config) *string{
	"MUSIC_API_URL":       func(c *Config) *string { return &c.APIURL },
	"MEDIA_PROVIDER":      func(c *Config) *string { return &c.MediaProvider },
	"CLOUD_NAME":          func(c *Config) *string { return &c.CloudName },
	"CLOUD_PRESET":        func(c *Config) *string { return &c.AudioUploadPreset },
	"CLOUD_IMAGE_PRESET":  func(c *Config) *string { return &c.ImageUploadPreset },
	"CLOUDINARY_ENDPOINT": func(c *Config) *string { return &c.CloudinaryEndpoint },
	"AWS_BUCKET_NAME":     func(c *Config) *string { return &c.AwsBucketName },
	"AWS_ACCESS_KEY":      func(c *Config) *string { return &c.AwsAccessKey },
	"AWS_SECRET_KEY":      func(c *Config) *string { return &c.AwsSecretKey },
	"AWS_REGION":          func(c *Config) *string { return &c.AwsRegion },
	"AWS_ENDPOINT":        func(c *Config) *string { return &c.AwsEndpoint },
	"MUSIC_LOG_FILE":      func(c *Config) *string { return &c.LogFile },
}

// DefaultPath возвращает путь к файлу конфигурации по умолчанию
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// DefaultLogPath возвращает путь к файлу журнала по умолчанию
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

// LoadConfig загружает конфигурацию приложения из указанного файла
func LoadConfig(filePath string) (*Config, error) {
	path, err := expandHome(filePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("ошибка разбора yaml конфигурации: %w", err)
	}

	if err := config.finalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadDefault загружает конфигурацию из файла по умолчанию.
// Отсутствие файла не является ошибкой: используются значения по умолчанию и переменные окружения.
func LoadDefault() (*Config, error) {
	config, err := LoadConfig(DefaultPath())
	if err == nil {
		return config, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	config = &Config{}
	if err := config.finalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// finalize применяет переменные окружения и значения по умолчанию
func (c *Config) finalize() error {
	for key, field := range envOverrides {
		if v := os.Getenv(key); v != "" {
			*field(c) = v
		}
	}
	if v := os.Getenv("MUSIC_PAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("некорректное значение MUSIC_PAGE_SIZE %q: %w", v, err)
		}
		c.PageSize = size
	}

	// Устанавливаем значения по умолчанию, если они не заданы
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MediaProvider == "" {
		c.MediaProvider = ProviderCloudinary
	}
	c.MediaProvider = strings.ToLower(c.MediaProvider)
	if c.ImageUploadPreset == "" {
		c.ImageUploadPreset = DefaultImageUploadPreset
	}
	if c.CloudinaryEndpoint == "" {
		c.CloudinaryEndpoint = DefaultCloudinaryEndpoint
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogPath()
	}

	// Раскрываем тильду в пути журнала
	logFile, err := expandHome(c.LogFile)
	if err != nil {
		return err
	}
	c.LogFile = logFile

	return nil
}

// ValidateMedia проверяет, что настроен выбранный сервис загрузки медиафайлов
func (c *Config) ValidateMedia() error {
	switch c.MediaProvider {
	case ProviderCloudinary:
		if c.CloudName == "" || c.AudioUploadPreset == "" {
			return fmt.Errorf("%w: задайте cloud_name и audio_upload_preset (CLOUD_NAME, CLOUD_PRESET)", ErrMediaNotConfigured)
		}
	case ProviderS3:
		if c.AwsBucketName == "" {
			return fmt.Errorf("%w: задайте aws_bucket_name (AWS_BUCKET_NAME)", ErrMediaNotConfigured)
		}
	default:
		return fmt.Errorf("%w: неизвестный media_provider %q", ErrMediaNotConfigured, c.MediaProvider)
	}
	return nil
}

// expandHome раскрывает тильду в начале пути
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
