// Package tracklist содержит модель экрана каталога для TUI
package tracklist

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/ethiomusic/internal/catalog"
	"github.com/hazadus/ethiomusic/internal/playback"
	"github.com/hazadus/ethiomusic/internal/store"
	"github.com/hazadus/ethiomusic/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	activeItemStyle   = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("42"))
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	statusStyle       = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("241"))
	errorStyle        = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("196")).Bold(true)
	currentPageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	pageStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

// PageRequestedMsg отправляется при смене страницы или ее размера
type PageRequestedMsg struct {
	Page     int
	PageSize int
}

// RetryMsg отправляется при повторе неудачной загрузки
type RetryMsg struct{}

// ItemSelectedMsg отправляется при открытии элемента каталога
type ItemSelectedMsg struct {
	Item catalog.Item
}

// ItemEditMsg отправляется при выборе элемента для редактирования
type ItemEditMsg struct {
	Item catalog.Item
}

// ItemCreateMsg отправляется при создании нового сингла
type ItemCreateMsg struct{}

// ItemDeleteMsg отправляется после подтверждения удаления
type ItemDeleteMsg struct {
	Item catalog.Item
}

// StopPlaybackMsg отправляется при остановке воспроизведения из каталога
type StopPlaybackMsg struct{}

// catalogItem реализует интерфейс list.Item для элемента каталога
type catalogItem struct {
	item   catalog.Item
	active bool
}

func (i catalogItem) FilterValue() string {
	return fmt.Sprintf("%s %s %s", i.item.Artist, i.item.Title, i.item.Album)
}

// catalogItemDelegate реализует отображение элементов списка
type catalogItemDelegate struct{}

func (d catalogItemDelegate) Height() int                             { return 1 }
func (d catalogItemDelegate) Spacing() int                            { return 0 }
func (d catalogItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d catalogItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(catalogItem)
	if !ok {
		return
	}

	// Строка таблицы: Тип | Исполнитель | Название | Год | Продолжительность
	year := ""
	if i.item.Year > 0 {
		year = strconv.Itoa(i.item.Year)
	}
	str := fmt.Sprintf("%s %s %s %s %s",
		utils.PadRight(i.item.Type.String(), 6),
		utils.PadRight(i.item.Artist, 20),
		utils.PadRight(i.item.Title, 40),
		utils.PadRight(year, 4),
		utils.FormatSeconds(i.item.TotalDuration()))

	fn := itemStyle.Render
	if i.active {
		fn = func(s ...string) string {
			return activeItemStyle.Render("♪ " + strings.Join(s, " "))
		}
	}
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана каталога
type Model struct {
	list      list.Model
	search    textinput.Model
	searching bool

	state    store.State
	playback playback.State

	confirmDelete *catalog.Item
	status        string
	quitting      bool
}

// NewModel создает модель каталога с начальным состоянием хранилища
func NewModel(state store.State) *Model {
	l := list.New(nil, catalogItemDelegate{}, 0, 0)
	l.Title = "Эфиопская музыкальная коллекция"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetShowPagination(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle

	search := textinput.New()
	search.Placeholder = "Поиск по названию, исполнителю, альбому"
	search.Prompt = "🔍 "

	m := &Model{
		list:   l,
		search: search,
	}
	m.SetState(state)
	return m
}

// Init запрашивает текущую страницу
func (m *Model) Init() tea.Cmd {
	return m.requestPage(m.state.Page, m.state.PageSize)
}

// SetState обновляет снимок хранилища и элементы списка
func (m *Model) SetState(state store.State) {
	m.state = state
	m.refreshItems()
}

// SetPlayback обновляет состояние воспроизведения для подсветки активного элемента
func (m *Model) SetPlayback(state playback.State) {
	m.playback = state
	m.refreshItems()
}

// SetStatus показывает временное сообщение под списком
func (m *Model) SetStatus(status string) {
	m.status = status
}

// Visible возвращает элементы текущей страницы, прошедшие поиск
func (m *Model) Visible() []catalog.Item {
	return catalog.Filter(m.state.Items, m.search.Value())
}

func (m *Model) refreshItems() {
	visible := m.Visible()
	items := make([]list.Item, len(visible))
	for i, item := range visible {
		items[i] = catalogItem{item: item, active: m.playback.IsActive(item.ID)}
	}
	m.list.SetItems(items)
}

func (m *Model) selected() (catalog.Item, bool) {
	if item, ok := m.list.SelectedItem().(catalogItem); ok {
		return item.item, true
	}
	return catalog.Item{}, false
}

func (m *Model) requestPage(page, pageSize int) tea.Cmd {
	return func() tea.Msg {
		return PageRequestedMsg{Page: page, PageSize: pageSize}
	}
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(max(1, msg.Height-8)) // Оставляем место для поиска, пагинации и справки
		m.search.Width = max(10, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		if m.confirmDelete != nil {
			return m.updateConfirm(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	// Обновляем список
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		m.quitting = true
		return tea.Quit, true

	case "/":
		m.searching = true
		return m.search.Focus(), true

	case "enter":
		if item, ok := m.selected(); ok {
			return func() tea.Msg { return ItemSelectedMsg{Item: item} }, true
		}
		return nil, true

	case "e":
		if item, ok := m.selected(); ok {
			return func() tea.Msg { return ItemEditMsg{Item: item} }, true
		}
		return nil, true

	case "a":
		return func() tea.Msg { return ItemCreateMsg{} }, true

	case "d", "delete":
		if item, ok := m.selected(); ok {
			m.confirmDelete = &item
		}
		return nil, true

	case "x":
		return func() tea.Msg { return StopPlaybackMsg{} }, true

	case "r":
		if m.state.HasError() {
			m.status = ""
			return func() tea.Msg { return RetryMsg{} }, true
		}
		return nil, true

	case "left", "h", "pgup":
		if m.state.Page > 1 {
			return m.requestPage(m.state.Page-1, m.state.PageSize), true
		}
		return nil, true

	case "right", "l", "pgdown":
		if m.state.Page < m.state.TotalPages() {
			return m.requestPage(m.state.Page+1, m.state.PageSize), true
		}
		return nil, true

	case "s":
		// Смена размера страницы возвращает на первую страницу
		return m.requestPage(1, catalog.NextPageSize(m.state.PageSize)), true
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 9 {
		if n <= m.state.TotalPages() && n != m.state.Page {
			return m.requestPage(n, m.state.PageSize), true
		}
		return nil, true
	}
	return nil, false
}

func (m *Model) updateSearch(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		m.searching = false
		m.search.Blur()
		m.refreshItems()
		return m, nil
	case "enter", "down":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refreshItems()
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (*Model, tea.Cmd) {
	item := *m.confirmDelete
	switch msg.String() {
	case "y", "Y", "д", "Д":
		m.confirmDelete = nil
		m.status = fmt.Sprintf("Удаление «%s»...", item.Title)
		return m, func() tea.Msg { return ItemDeleteMsg{Item: item} }
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	default:
		m.confirmDelete = nil
		return m, nil
	}
}

// Pagination возвращает строку с кнопками страниц
func (m *Model) Pagination() string {
	window := catalog.PageWindow(m.state.Page, m.state.Total, m.state.PageSize)
	if len(window) == 0 {
		return ""
	}

	parts := make([]string, 0, len(window)+2)
	if m.state.Page > 1 {
		parts = append(parts, pageStyle.Render("‹"))
	}
	for _, n := range window {
		if n == m.state.Page {
			parts = append(parts, currentPageStyle.Render(fmt.Sprintf("[%d]", n)))
		} else {
			parts = append(parts, pageStyle.Render(strconv.Itoa(n)))
		}
	}
	if m.state.Page < m.state.TotalPages() {
		parts = append(parts, pageStyle.Render("›"))
	}
	return strings.Join(parts, " ")
}

// Summary возвращает строку "Показано X-Y из Z"
func (m *Model) Summary() string {
	from, to := catalog.Range(m.state.Page, m.state.PageSize, m.state.Total)
	return fmt.Sprintf("Показано %d-%d из %d • по %d на странице", from, to, m.state.Total, m.state.PageSize)
}

// View отображает модель
func (m *Model) View() string {
	if m.quitting {
		return quitTextStyle.Render("До свидания!")
	}

	var b strings.Builder

	if m.searching || m.search.Value() != "" {
		b.WriteString("  " + m.search.View() + "\n")
	}

	switch {
	case m.state.Loading:
		b.WriteString(statusStyle.Render("⏳ Загрузка...") + "\n")
	case m.state.HasError():
		b.WriteString(errorStyle.Render("❌ "+m.state.Err) + "\n")
		b.WriteString(statusStyle.Render("Нажмите r, чтобы повторить") + "\n")
	}

	if len(m.list.Items()) == 0 && !m.state.Loading && !m.state.HasError() {
		b.WriteString(titleStyle.Render("Эфиопская музыкальная коллекция") + "\n\n")
		if m.search.Value() != "" {
			b.WriteString(statusStyle.Render("Ничего не найдено") + "\n")
		} else {
			b.WriteString(statusStyle.Render("Каталог пуст") + "\n")
		}
	} else {
		b.WriteString(m.list.View() + "\n")
	}

	if pagination := m.Pagination(); pagination != "" {
		b.WriteString("    " + pagination + "\n")
	}
	b.WriteString(statusStyle.Render(m.Summary()) + "\n")

	if m.playback.Source != "" {
		b.WriteString(statusStyle.Render(fmt.Sprintf("%s %s / %s",
			m.playback.Status(),
			utils.FormatTime(m.playback.CurrentTime),
			utils.FormatTime(m.playback.Duration))) + "\n")
	}

	if m.confirmDelete != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Удалить «%s»? (y/n)", m.confirmDelete.Title)) + "\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}

	b.WriteString(helpStyle.Render(
		"Enter: открыть • /: поиск • ←/→, 1-9: страницы • s: размер страницы • a: добавить • e: редактировать • d: удалить • x: стоп • q: выход"))
	return b.String()
}
