package catalog

// WindowSize - максимальное количество кнопок страниц
const WindowSize = 5

// PageSizes - допустимые размеры страницы
var PageSizes = []int{4, 8, 12, 24}

// DefaultPageSize - размер страницы по умолчанию
const DefaultPageSize = 8

// TotalPages возвращает количество страниц, ceil(total/pageSize)
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// PageWindow вычисляет номера страниц для кнопок пагинации: окно
// из не более чем WindowSize страниц с текущей страницей по центру,
// ограниченное диапазоном [1, TotalPages].
func PageWindow(current, total, pageSize int) []int {
	pages := TotalPages(total, pageSize)
	if pages == 0 {
		return nil
	}

	count := min(WindowSize, pages)
	start := max(1, min(pages-WindowSize+1, current-WindowSize/2))

	window := make([]int, 0, count)
	for n := start; n < start+count && n <= pages; n++ {
		window = append(window, n)
	}
	return window
}

// Range возвращает номера первого и последнего элемента страницы (с единицы)
// для строки "Showing X-Y of Z". Для пустого каталога возвращает 0, 0.
func Range(page, pageSize, total int) (from, to int) {
	if total <= 0 || pageSize <= 0 {
		return 0, 0
	}
	page = max(page, 1)
	from = (page-1)*pageSize + 1
	to = min(page*pageSize, total)
	if from > total {
		return total, total
	}
	return from, to
}

// NextPageSize возвращает следующий допустимый размер страницы
func NextPageSize(current int) int {
	for i, size := range PageSizes {
		if size == current {
			return PageSizes[(i+1)%len(PageSizes)]
		}
	}
	return DefaultPageSize
}
