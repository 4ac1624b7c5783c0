package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// MaxSourceSize - максимальный размер загружаемого в память источника
const MaxSourceSize = 100 << 20

// ErrSourceTooLarge возвращается, если источник больше MaxSourceSize
var ErrSourceTooLarge = errors.New("аудиофайл слишком большой для воспроизведения")

// Source - открытый аудиоисточник с поддержкой перемотки
type Source struct {
	io.ReadSeeker
	closer io.Closer
	// Name используется для определения формата по расширению
	Name string
	// ContentType - MIME-тип из ответа сервера, если он есть
	ContentType string
}

// Close закрывает источник
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Fetcher открывает локальные файлы и загружает удаленные источники в память
type Fetcher struct {
	client  *http.Client
	maxSize int64
}

// NewFetcher создает загрузчик источников
func NewFetcher() *Fetcher {
	return &Fetcher{
		// Без общего таймаута: большие файлы могут загружаться долго
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       300 * time.Second,
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   2,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		maxSize: MaxSourceSize,
	}
}

// NewFetcherWithClient создает загрузчик с заданным HTTP-клиентом
func NewFetcherWithClient(client *http.Client, maxSize int64) *Fetcher {
	if maxSize <= 0 {
		maxSize = MaxSourceSize
	}
	return &Fetcher{client: client, maxSize: maxSize}
}

// Open открывает источник по URL (http, https, file) или пути к локальному файлу
func (f *Fetcher) Open(ctx context.Context, rawURL string) (*Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Scheme == "file" || len(u.Scheme) == 1 {
		return openFile(rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("неподдерживаемая схема URL: %s", u.Scheme)
	}
	return f.fetch(ctx, rawURL, path.Base(u.Path))
}

func openFile(rawPath string) (*Source, error) {
	filePath := strings.TrimPrefix(rawPath, "file://")
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	return &Source{ReadSeeker: file, closer: file, Name: filePath}, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL, name string) (*Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("User-Agent", "ethiomusic/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("ошибка HTTP: %s", resp.Status)
	}
	if resp.ContentLength > f.maxSize {
		return nil, fmt.Errorf("%w: %d байт", ErrSourceTooLarge, resp.ContentLength)
	}

	// Декодерам нужна перемотка, поэтому источник целиком читается в память
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудиопотока: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, ErrSourceTooLarge
	}

	return &Source{
		ReadSeeker:  bytes.NewReader(data),
		Name:        name,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
