// Package editor содержит модель экрана создания и редактирования элемента каталога для TUI
package editor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/ethiomusic/internal/catalog"
	"github.com/hazadus/ethiomusic/internal/media"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(15)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Margin(1, 0)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
)

// ErrUploadNotConfigured возвращается, если указан локальный файл, а загрузка не настроена
var ErrUploadNotConfigured = errors.New("загрузка файлов не настроена")

// SaveFunc сохраняет элемент в каталоге и возвращает сохраненную версию
type SaveFunc func(ctx context.Context, item *catalog.Item) (*catalog.Item, error)

// ItemSavedMsg отправляется когда элемент успешно сохранен
type ItemSavedMsg struct {
	Item catalog.Item
}

// GoBackMsg отправляется при отмене редактирования
type GoBackMsg struct{}

// saveResultMsg - результат фонового сохранения
type saveResultMsg struct {
	item *catalog.Item
	err  error
}

// fieldType определяет тип поля для редактирования
type fieldType int

const (
	titleField fieldType = iota
	artistField
	typeField
	albumField
	yearField
	descriptionField
	imageField
	audioField
	numFields
)

var labels = []string{
	"Название:", "Исполнитель:", "Тип:", "Альбом:", "Год:", "Описание:", "Обложка:", "Аудио:",
}

// Model представляет модель экрана редактирования элемента
type Model struct {
	ctx        context.Context
	original   catalog.Item
	creating   bool
	save       SaveFunc
	uploader   media.Uploader
	inputs     []textinput.Model
	focusIndex int
	saving     bool
	err        string
	success    string
}

// NewModel создает модель редактора. Пустой ID элемента означает создание нового сингла.
// uploader может быть nil, тогда поля обложки и аудио принимают только адреса.
func NewModel(ctx context.Context, item catalog.Item, save SaveFunc, uploader media.Uploader) *Model {
	creating := item.ID == ""
	if creating && item.Type == "" {
		item.Type = catalog.TypeSingle
	}

	// Создаем поля ввода
	inputs := make([]textinput.Model, numFields)
	placeholders := []string{
		"Введите название",
		"Введите исполнителя",
		"single или album",
		"Название альбома",
		"Например, 1972",
		"Краткое описание",
		"URL или путь к файлу изображения",
		"URL или путь к аудиофайлу",
	}
	values := []string{
		item.Title,
		item.Artist,
		string(item.Type),
		item.Album,
		"",
		item.Description,
		item.ImageURL,
		item.AudioURL,
	}
	if item.Year > 0 {
		values[yearField] = strconv.Itoa(item.Year)
	}

	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholders[i]
		inputs[i].SetValue(values[i])
		inputs[i].PromptStyle = blurredStyle
		inputs[i].TextStyle = blurredStyle
	}
	inputs[titleField].Focus()
	inputs[titleField].PromptStyle = focusedStyle
	inputs[titleField].TextStyle = focusedStyle

	// Новый элемент всегда создается как сингл
	if creating {
		inputs[typeField].SetValue(string(catalog.TypeSingle))
	}

	return &Model{
		ctx:      ctx,
		original: item,
		creating: creating,
		save:     save,
		uploader: uploader,
		inputs:   inputs,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.saving {
			// Во время сохранения клавиши игнорируются
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			// Отменяем редактирование
			return m, func() tea.Msg {
				return GoBackMsg{}
			}

		case "ctrl+s":
			// Сохраняем изменения
			return m, m.submit()

		case "tab", "shift+tab", "enter", "up", "down":
			s := msg.String()

			// Обработка навигации между полями
			if s == "enter" && m.focusIndex == len(m.inputs) {
				// Enter на кнопке Save
				return m, m.submit()
			}

			// Перемещение фокуса
			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}

			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}

			return m, m.updateFocus()
		}

	case tea.WindowSizeMsg:
		// Обновляем ширину полей ввода
		for i := range m.inputs {
			m.inputs[i].Width = max(10, msg.Width-20)
		}
		return m, nil

	case saveResultMsg:
		m.saving = false
		if msg.err != nil {
			m.err = fmt.Sprintf("Ошибка сохранения: %v", msg.err)
			m.success = ""
			return m, nil
		}
		m.err = ""
		m.success = "Сохранено!"
		saved := *msg.item

		// Возвращаемся к каталогу через небольшую задержку
		return m, tea.Batch(
			func() tea.Msg { return ItemSavedMsg{Item: saved} },
			tea.Tick(time.Second, func(time.Time) tea.Msg {
				return GoBackMsg{}
			}),
		)
	}

	// Обновляем активное поле ввода
	if m.focusIndex < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) updateFocus() tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := 0; i < len(m.inputs); i++ {
		if i == m.focusIndex {
			// Устанавливаем фокус на текущее поле
			cmds[i] = m.inputs[i].Focus()
			m.inputs[i].PromptStyle = focusedStyle
			m.inputs[i].TextStyle = focusedStyle
		} else {
			// Убираем фокус с остальных полей
			m.inputs[i].Blur()
			m.inputs[i].PromptStyle = blurredStyle
			m.inputs[i].TextStyle = blurredStyle
		}
	}
	return tea.Batch(cmds...)
}

// Draft собирает элемент из значений полей
func (m *Model) Draft() (*catalog.Item, error) {
	value := func(f fieldType) string {
		return strings.TrimSpace(m.inputs[f].Value())
	}

	itemType, err := catalog.ParseItemType(value(typeField))
	if err != nil {
		return nil, err
	}

	var year int
	if s := value(yearField); s != "" {
		year, err = strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: год должен быть числом", catalog.ErrValidation)
		}
	}

	item := m.original
	item.Title = value(titleField)
	item.Artist = value(artistField)
	item.Type = itemType
	item.Album = value(albumField)
	item.Year = year
	item.Description = value(descriptionField)
	item.ImageURL = value(imageField)
	item.AudioURL = value(audioField)
	if item.AudioURL != m.original.AudioURL {
		// Длительность нового аудио станет известна после загрузки
		item.Duration = 0
	}
	return &item, nil
}

// submit проверяет черновик до сетевых запросов и запускает сохранение
func (m *Model) submit() tea.Cmd {
	item, err := m.Draft()
	if err == nil {
		err = item.Validate()
	}
	if err == nil && m.uploader == nil && (media.IsLocalPath(item.ImageURL) || media.IsLocalPath(item.AudioURL)) {
		err = ErrUploadNotConfigured
	}
	if err != nil {
		m.err = err.Error()
		m.success = ""
		return nil
	}

	m.err = ""
	m.saving = true
	return m.saveCmd(item)
}

func (m *Model) saveCmd(item *catalog.Item) tea.Cmd {
	ctx, save, uploader := m.ctx, m.save, m.uploader
	return func() tea.Msg {
		if err := uploadLocalFiles(ctx, uploader, item); err != nil {
			return saveResultMsg{err: err}
		}
		saved, err := save(ctx, item)
		if err != nil {
			return saveResultMsg{err: err}
		}
		if saved == nil {
			saved = item
		}
		return saveResultMsg{item: saved}
	}
}

// uploadLocalFiles заменяет пути к локальным файлам адресами загруженных файлов
func uploadLocalFiles(ctx context.Context, uploader media.Uploader, item *catalog.Item) error {
	if media.IsLocalPath(item.ImageURL) {
		result, err := media.UploadFile(ctx, uploader, item.ImageURL, nil)
		if err != nil {
			return fmt.Errorf("ошибка загрузки обложки: %w", err)
		}
		item.ImageURL = result.URL
	}
	if media.IsLocalPath(item.AudioURL) {
		result, err := media.UploadFile(ctx, uploader, item.AudioURL, nil)
		if err != nil {
			return fmt.Errorf("ошибка загрузки аудио: %w", err)
		}
		item.AudioURL = result.URL
		item.Duration = result.Duration
	}
	return nil
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	// Заголовок
	title := fmt.Sprintf("Редактирование «%s»", m.original.Title)
	if m.creating {
		title = "Новый сингл"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	// Поля ввода
	for i, input := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString(" ")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	if m.original.IsAlbum() {
		b.WriteString(blurredStyle.Render(fmt.Sprintf("Треков в альбоме: %d", len(m.original.Tracks))))
		b.WriteString("\n\n")
	}

	// Кнопка сохранения
	saveButton := "[ Сохранить ]"
	if m.focusIndex == len(m.inputs) {
		saveButton = focusedStyle.Render("[ Сохранить ]")
	} else {
		saveButton = blurredStyle.Render(saveButton)
	}
	b.WriteString(saveButton)
	b.WriteString("\n\n")

	if m.saving {
		b.WriteString(blurredStyle.Render("Сохранение..."))
		b.WriteString("\n")
	}

	// Сообщения об ошибках или успехе
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}

	if m.success != "" {
		b.WriteString(successStyle.Render(m.success))
		b.WriteString("\n")
	}

	// Справка
	b.WriteString(helpStyle.Render("Tab/Enter: следующее поле • Shift+Tab: предыдущее поле"))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("Ctrl+S: сохранить • Esc: отмена"))

	return b.String()
}
