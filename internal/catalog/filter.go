package catalog

import "strings"

// Filter возвращает элементы текущей страницы, подходящие под поисковый запрос.
// Поиск ведется без учета регистра по названию, исполнителю и альбому.
func Filter(items []Item, query string) []Item {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}

	result := make([]Item, 0, len(items))
	for _, item := range items {
		if matches(item, query) {
			result = append(result, item)
		}
	}
	return result
}

func matches(item Item, query string) bool {
	for _, field := range []string{item.Title, item.Artist, item.Album} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
