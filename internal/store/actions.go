// Package store содержит состояние каталога и контейнер, последовательно применяющий действия
package store

import "github.com/hazadus/ethiomusic/internal/catalog"

// Action - действие, изменяющее состояние каталога
type Action interface {
	Name() string
}

// FetchRequested - запрос страницы каталога. Состояние не меняет, обрабатывается оркестратором.
type FetchRequested struct {
	Page     int
	PageSize int
}

// LoadingSet - установка флага загрузки
type LoadingSet struct {
	Loading bool
}

// Succeeded - успешная загрузка страницы
type Succeeded struct {
	Items    []catalog.Item
	Total    int
	Page     int
	PageSize int
}

// Failed - ошибка загрузки страницы
type Failed struct {
	Message string
}

func (FetchRequested) Name() string { return "songs/fetchRequested" }
func (LoadingSet) Name() string     { return "songs/loadingSet" }
func (Succeeded) Name() string      { return "songs/succeeded" }
func (Failed) Name() string         { return "songs/failed" }
