package store

import "github.com/hazadus/ethiomusic/internal/catalog"

// DefaultErrorMessage подставляется, если ошибка пришла без текста
const DefaultErrorMessage = "не удалось загрузить каталог"

// State - состояние каталога.
// Err и Loading никогда не установлены одновременно.
type State struct {
	Items    []catalog.Item
	Total    int
	Page     int
	PageSize int
	Loading  bool
	Err      string

	// Revision увеличивается при каждом завершенном запросе (успешном или нет)
	Revision uint64
}

// InitialState возвращает пустое состояние каталога
func InitialState() State {
	return State{
		Page:     1,
		PageSize: catalog.DefaultPageSize,
	}
}

// TotalPages возвращает количество страниц для текущего размера страницы
func (s State) TotalPages() int {
	return catalog.TotalPages(s.Total, s.PageSize)
}

// HasError возвращает true, если последняя загрузка завершилась ошибкой
func (s State) HasError() bool {
	return s.Err != ""
}

// Reduce возвращает новое состояние после применения действия.
// Функция чистая: входное состояние не изменяется.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case FetchRequested:
		return state
	case LoadingSet:
		state.Loading = a.Loading
		if a.Loading {
			state.Err = ""
		}
		return state
	case Succeeded:
		items := make([]catalog.Item, len(a.Items))
		copy(items, a.Items)
		state.Items = items
		state.Total = a.Total
		if a.Page > 0 {
			state.Page = a.Page
		}
		if a.PageSize > 0 {
			state.PageSize = a.PageSize
		}
		state.Loading = false
		state.Err = ""
		state.Revision++
		return state
	case Failed:
		state.Err = a.Message
		if state.Err == "" {
			state.Err = DefaultErrorMessage
		}
		state.Loading = false
		state.Revision++
		return state
	default:
		return state
	}
}
