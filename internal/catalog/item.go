// Package catalog содержит модель данных музыкальной коллекции
package catalog

import "fmt"

// ItemType определяет вид элемента каталога
type ItemType string

const (
	// TypeSingle - отдельный трек
	TypeSingle ItemType = "single"
	// TypeAlbum - альбом из нескольких треков
	TypeAlbum ItemType = "album"
)

// String возвращает название типа для отображения
func (t ItemType) String() string {
	switch t {
	case TypeSingle:
		return "Single"
	case TypeAlbum:
		return "Album"
	default:
		return string(t)
	}
}

// ParseItemType разбирает тип элемента из строки
func ParseItemType(s string) (ItemType, error) {
	switch ItemType(s) {
	case TypeSingle, TypeAlbum:
		return ItemType(s), nil
	case "":
		return TypeSingle, nil
	}
	return "", fmt.Errorf("%w: неизвестный тип %q (ожидается single или album)", ErrValidation, s)
}

// Track - один трек внутри альбома
type Track struct {
	ID          string `json:"_id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	AudioURL    string `json:"audioUrl" yaml:"audio_url"`
	Duration    int    `json:"duration,omitempty" yaml:"duration,omitempty"` // Длительность в секундах, 0 - неизвестна
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Item - сингл или альбом из каталога
type Item struct {
	ID          string   `json:"_id,omitempty" yaml:"id,omitempty"`
	Title       string   `json:"title" yaml:"title"`
	Artist      string   `json:"artist" yaml:"artist"`
	Type        ItemType `json:"type" yaml:"type"`
	Album       string   `json:"album,omitempty" yaml:"album,omitempty"`
	Year        int      `json:"year,omitempty" yaml:"year,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty" yaml:"image_url,omitempty"`

	// Только для синглов
	AudioURL string `json:"audioUrl,omitempty" yaml:"audio_url,omitempty"`
	Duration int    `json:"duration,omitempty" yaml:"duration,omitempty"` // Длительность в секундах

	// Только для альбомов
	Tracks []Track `json:"tracks,omitempty" yaml:"tracks,omitempty"`
}

// IsAlbum возвращает true для альбомов
func (i *Item) IsAlbum() bool {
	return i.Type == TypeAlbum
}

// TotalDuration возвращает суммарную длительность в секундах
func (i *Item) TotalDuration() int {
	if !i.IsAlbum() {
		return i.Duration
	}
	total := 0
	for _, t := range i.Tracks {
		total += t.Duration
	}
	return total
}

// Page - одна страница каталога в порядке, полученном от сервера
type Page struct {
	Items    []Item
	Total    int
	Page     int
	PageSize int
}
