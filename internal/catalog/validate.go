package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation возвращается, если данные формы некорректны
var ErrValidation = errors.New("ошибка валидации")

const (
	minYear = 1000
	maxYear = 9999
)

// Validate проверяет черновик элемента перед отправкой на сервер
func (i *Item) Validate() error {
	var problems []string

	if strings.TrimSpace(i.Title) == "" {
		problems = append(problems, "не указано название")
	}
	if strings.TrimSpace(i.Artist) == "" {
		problems = append(problems, "не указан исполнитель")
	}
	if i.Year != 0 && (i.Year < minYear || i.Year > maxYear) {
		problems = append(problems, fmt.Sprintf("некорректный год %d", i.Year))
	}

	switch i.Type {
	case TypeSingle:
		if strings.TrimSpace(i.AudioURL) == "" {
			problems = append(problems, "для сингла нужен аудиофайл")
		}
	case TypeAlbum:
		if len(i.Tracks) == 0 {
			problems = append(problems, "в альбоме нет треков")
		}
		for n, t := range i.Tracks {
			if strings.TrimSpace(t.Title) == "" {
				problems = append(problems, fmt.Sprintf("у трека #%d нет названия", n+1))
			}
			if strings.TrimSpace(t.AudioURL) == "" {
				problems = append(problems, fmt.Sprintf("у трека #%d нет аудиофайла", n+1))
			}
		}
	default:
		problems = append(problems, fmt.Sprintf("неизвестный тип %q", i.Type))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
