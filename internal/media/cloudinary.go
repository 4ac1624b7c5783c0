package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hazadus/ethiomusic/internal/config"
)

// CloudinaryConfig содержит настройки для Cloudinary
type CloudinaryConfig struct {
	Endpoint    string
	CloudName   string
	AudioPreset string
	ImagePreset string
}

// CloudinaryUploader загружает файлы через unsigned upload API Cloudinary
type CloudinaryUploader struct {
	config     CloudinaryConfig
	httpClient *http.Client
}

// NewCloudinaryUploader создает загрузчик Cloudinary
func NewCloudinaryUploader(cfg CloudinaryConfig) *CloudinaryUploader {
	if cfg.Endpoint == "" {
		cfg.Endpoint = config.DefaultCloudinaryEndpoint
	}
	if cfg.ImagePreset == "" {
		cfg.ImagePreset = config.DefaultImageUploadPreset
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &CloudinaryUploader{
		config:     cfg,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

// cloudinaryResponse - ответ upload API
type cloudinaryResponse struct {
	SecureURL    string  `json:"secure_url"`
	PublicID     string  `json:"public_id"`
	Format       string  `json:"format"`
	ResourceType string  `json:"resource_type"`
	Bytes        int64   `json:"bytes"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Duration     float64 `json:"duration"`
}

// Upload загружает файл. Обложки загружаются как image, аудио как video.
func (u *CloudinaryUploader) Upload(ctx context.Context, file *File, onProgress ProgressFunc) (*Result, error) {
	resourceType, preset := "video", u.config.AudioPreset
	if file.Kind == KindImage {
		resourceType, preset = "image", u.config.ImagePreset
	}
	endpoint := fmt.Sprintf("%s/%s/%s/upload", u.config.Endpoint, u.config.CloudName, resourceType)

	f, err := os.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer f.Close()

	// Тело multipart формируется потоково
	body, writer := io.Pipe()
	form := multipart.NewWriter(writer)
	go func() {
		writer.CloseWithError(writeForm(form, file, preset, &ProgressReader{
			Reader:     f,
			Size:       file.Size,
			OnProgress: onProgress,
		}))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	log.Printf("Загрузка %s в Cloudinary (%s, пресет %s)", file.Name, resourceType, preset)
	resp, err := u.httpClient.Do(req)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("нет ответа от Cloudinary: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа Cloudinary: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ошибка загрузки в Cloudinary (HTTP %d): %s", resp.StatusCode, cloudinaryError(data))
	}

	var result cloudinaryResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа Cloudinary: %w", err)
	}

	uploaded := &Result{
		Kind:         file.Kind,
		URL:          result.SecureURL,
		PublicID:     result.PublicID,
		Format:       result.Format,
		ResourceType: result.ResourceType,
		Bytes:        result.Bytes,
	}
	if file.Kind == KindImage {
		uploaded.Width = result.Width
		uploaded.Height = result.Height
	} else {
		uploaded.Duration = int(math.Round(result.Duration))
	}
	if onProgress != nil {
		onProgress(100)
	}
	return uploaded, nil
}

func writeForm(form *multipart.Writer, file *File, preset string, content io.Reader) error {
	if err := form.WriteField("upload_preset", preset); err != nil {
		return err
	}
	part, err := form.CreateFormFile("file", file.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return form.Close()
}

// cloudinaryError извлекает текст ошибки из ответа Cloudinary
func cloudinaryError(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error.Message != "" {
			return payload.Error.Message
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(body))
}
