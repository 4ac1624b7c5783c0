package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"

	"github.com/hazadus/ethiomusic/internal/metadata"
)

const defaultRegion = "us-east-1"

// S3Config содержит настройки для S3
type S3Config struct {
	Region     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	BucketName string
}

// S3Uploader загружает файлы в S3-совместимое хранилище
type S3Uploader struct {
	s3Uploader *s3manager.Uploader
	s3Client   *s3.S3
	config     *S3Config
	extractor  *metadata.Extractor
}

// NewS3Uploader создает новый S3 uploader
func NewS3Uploader(cfg *S3Config) (*S3Uploader, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("не указан бакет S3")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsConfig := &aws.Config{
		Region: aws.String(region),
	}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	// Если указан endpoint, добавляем его
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AWS сессии: %w", err)
	}

	return &S3Uploader{
		s3Uploader: s3manager.NewUploader(sess),
		s3Client:   s3.New(sess),
		config:     cfg,
		extractor:  metadata.NewExtractor(),
	}, nil
}

// Upload загружает файл под случайным ключом в images/ или audio/
func (u *S3Uploader) Upload(ctx context.Context, file *File, onProgress ProgressFunc) (*Result, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer f.Close()

	key := objectKey(file)
	reader := &ProgressReader{Reader: f, Size: file.Size, OnProgress: onProgress}

	_, err = u.s3Uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(u.config.BucketName),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(file.MIME),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки в S3: %w", err)
	}

	result := &Result{
		Kind:         file.Kind,
		URL:          u.objectURL(key),
		PublicID:     key,
		Format:       strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Name)), "."),
		ResourceType: string(file.Kind),
		Bytes:        file.Size,
	}

	// S3 не сообщает длительность, определяем ее локально
	if file.Kind == KindAudio {
		if duration, err := u.extractor.GetDuration(file.Path); err == nil {
			result.Duration = int(math.Round(duration.Seconds()))
		}
	}
	if onProgress != nil {
		onProgress(100)
	}
	return result, nil
}

// Delete удаляет файл из S3 по его адресу
func (u *S3Uploader) Delete(ctx context.Context, fileURL string) error {
	key, err := u.keyFromURL(fileURL)
	if err != nil {
		return err
	}

	_, err = u.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления файла из S3: %w", err)
	}
	return nil
}

// Owns возвращает true, если адрес указывает на файл в бакете загрузчика
func (u *S3Uploader) Owns(fileURL string) bool {
	_, err := u.keyFromURL(fileURL)
	return err == nil
}

func (u *S3Uploader) objectURL(key string) string {
	if u.config.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.config.Endpoint, "/"), u.config.BucketName, key)
	}
	region := u.config.Region
	if region == "" {
		region = defaultRegion
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.config.BucketName, region, key)
}

func (u *S3Uploader) keyFromURL(fileURL string) (string, error) {
	prefix := u.objectURL("")
	if !strings.HasPrefix(fileURL, prefix) {
		return "", fmt.Errorf("адрес %s не относится к бакету %s", fileURL, u.config.BucketName)
	}
	key, err := url.PathUnescape(strings.TrimPrefix(fileURL, prefix))
	if err != nil || key == "" {
		return "", fmt.Errorf("не удалось определить ключ объекта в адресе %s", fileURL)
	}
	return key, nil
}

func objectKey(file *File) string {
	folder := "audio"
	if file.Kind == KindImage {
		folder = "images"
	}
	return folder + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(file.Name))
}
