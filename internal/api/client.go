// Package api содержит HTTP-клиент REST API музыкального каталога
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hazadus/ethiomusic/internal/catalog"
)

const userAgent = "ethiomusic/1.0"

// ErrNotFound возвращается, если элемент каталога не найден
var ErrNotFound = errors.New("элемент не найден")

// StatusError описывает ответ сервера с кодом, отличным от 2xx
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ошибка API (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ошибка API: HTTP %d", e.StatusCode)
}

// Is позволяет сравнивать ответ 404 с ErrNotFound
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ListResponse - тело ответа на запрос страницы каталога
type ListResponse struct {
	Data       []catalog.Item `json:"data"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

// Client - клиент REST API каталога
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает клиент для указанного базового адреса (например, http://localhost:5000/api/songs)
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithHTTP создает клиент с заданным HTTP-клиентом
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL возвращает базовый адрес API
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List запрашивает страницу каталога
func (c *Client) List(ctx context.Context, page, limit int) (*ListResponse, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var result ListResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil, &result); err != nil {
		return nil, err
	}
	if result.Page == 0 {
		result.Page = page
	}
	return &result, nil
}

// Get запрашивает элемент каталога по ID
func (c *Client) Get(ctx context.Context, id string) (*catalog.Item, error) {
	var item catalog.Item
	if err := c.do(ctx, http.MethodGet, c.itemURL(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create создает новый элемент каталога
func (c *Client) Create(ctx context.Context, item *catalog.Item) (*catalog.Item, error) {
	var created catalog.Item
	if err := c.do(ctx, http.MethodPost, c.baseURL, item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update обновляет элемент каталога
func (c *Client) Update(ctx context.Context, id string, item *catalog.Item) (*catalog.Item, error) {
	var updated catalog.Item
	if err := c.do(ctx, http.MethodPut, c.itemURL(id), item, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete удаляет элемент каталога
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.itemURL(id), nil, nil)
}

func (c *Client) itemURL(id string) string {
	return c.baseURL + "/" + url.PathEscape(id)
}

// do выполняет запрос и декодирует JSON-ответ в out (если out не nil)
func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка сериализации запроса: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &StatusError{StatusCode: resp.StatusCode, Message: serverMessage(bodyBytes)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("ошибка разбора ответа: %w", err)
	}
	return nil
}

// serverMessage извлекает текст ошибки из тела ответа сервера
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if payload.Message != "" {
		return payload.Message
	}
	switch e := payload.Error.(type) {
	case string:
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
	}
	return ""
}
