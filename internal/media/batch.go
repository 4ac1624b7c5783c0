package media

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Retries - количество повторных попыток загрузки каждого файла в пакете
const Retries = 2

// InspectAll проверяет все файлы пакета до начала загрузки
func InspectAll(paths []string) ([]*File, error) {
	files := make([]*File, 0, len(paths))
	for _, path := range paths {
		file, err := Inspect(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// UploadBatch последовательно загружает файлы, повторяя неудачные попытки.
// Первая окончательная ошибка прерывает пакет. onProgress получает общий процент.
func UploadBatch(ctx context.Context, up Uploader, files []*File, onProgress ProgressFunc) ([]*Result, error) {
	results := make([]*Result, 0, len(files))
	if len(files) == 0 {
		return results, nil
	}

	for completed, file := range files {
		progress := func(percent int) {
			if onProgress != nil {
				onProgress((completed*100 + percent) / len(files))
			}
		}

		result, err := uploadWithRetry(ctx, up, file, progress)
		if err != nil {
			log.Printf("Не удалось загрузить %s после %d попыток: %v", file.Name, Retries+1, err)
			return results, fmt.Errorf("не удалось загрузить %s: %w", file.Name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func uploadWithRetry(ctx context.Context, up Uploader, file *File, onProgress ProgressFunc) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt <= Retries; attempt++ {
		if attempt > 0 {
			log.Printf("Повторная загрузка %s (осталось попыток: %d)", file.Name, Retries-attempt+1)
		}
		result, err := up.Upload(ctx, file, onProgress)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrFileTooLarge) {
			break
		}
	}
	return nil, lastErr
}
